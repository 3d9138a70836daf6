package database

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// reasonCategoryInUse is shown to the user when a category delete is refused.
const reasonCategoryInUse = "category is used by existing events and cannot be deleted"

// Store owns the calendar document. Every operation reads the whole document
// from the backend, applies its change and writes the whole document back.
// Documents returned to callers are freshly decoded and never alias store state.
type Store struct {
	mu        sync.Mutex
	backend   Backend
	validator *Validator
	log       zerolog.Logger
	now       func() time.Time
	newID     func() string
}

type Option func(*Store)

func WithLogger(l zerolog.Logger) Option {
	return func(s *Store) { s.log = l }
}

// WithClock sets the clock used to date the seed events.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func WithIDGenerator(newID func() string) Option {
	return func(s *Store) { s.newID = newID }
}

func NewStore(backend Backend, opts ...Option) (*Store, error) {
	validator, err := NewValidator()
	if err != nil {
		return nil, err
	}
	s := &Store{
		backend:   backend,
		validator: validator,
		log:       zerolog.Nop(),
		now:       time.Now,
		newID:     func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Initialize seeds the document on first use and returns the current snapshot.
func (s *Store) Initialize(ctx context.Context) (*Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

// Snapshot returns the full document.
func (s *Store) Snapshot(ctx context.Context) (*Document, error) {
	return s.Initialize(ctx)
}

// Reset discards whatever is stored, including a corrupt document, and re-seeds.
func (s *Store) Reset(ctx context.Context) (*Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.backend.Clear(ctx); err != nil {
		return nil, fmt.Errorf("clear document: %w", err)
	}
	s.log.Warn().Msg("document cleared")
	return s.load(ctx)
}

// load must be called with mu held.
func (s *Store) load(ctx context.Context) (*Document, error) {
	doc, err := s.backend.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load document: %w", err)
	}
	if doc != nil {
		return doc, nil
	}

	doc = seedDocument(s.now(), s.newID)
	if err := s.backend.Save(ctx, doc); err != nil {
		return nil, fmt.Errorf("save seed document: %w", err)
	}
	s.log.Info().
		Int("categories", len(doc.Categories)).
		Int("subcategories", len(doc.Subcategories)).
		Int("events", len(doc.Events)).
		Int("tasks", len(doc.Tasks)).
		Msg("seeded new document")

	// Hand back a decoded copy so the caller never shares the seed's pointers.
	return s.backend.Load(ctx)
}

// mutate runs fn on the loaded document and saves it when fn reports a change.
func (s *Store) mutate(ctx context.Context, op string, fn func(doc *Document) (bool, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load(ctx)
	if err != nil {
		return err
	}
	changed, err := fn(doc)
	if err != nil {
		return err
	}
	if !changed {
		s.log.Debug().Str("op", op).Msg("no matching record")
		return nil
	}
	if err := s.backend.Save(ctx, doc); err != nil {
		return fmt.Errorf("%s: save document: %w", op, err)
	}
	s.log.Debug().Str("op", op).Msg("document saved")
	return nil
}

func (s *Store) ListCategories(ctx context.Context) ([]Category, error) {
	doc, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return doc.Categories, nil
}

func (s *Store) ListSubcategories(ctx context.Context) ([]Subcategory, error) {
	doc, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return doc.Subcategories, nil
}

func (s *Store) ListEvents(ctx context.Context) ([]Event, error) {
	doc, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return doc.Events, nil
}

// ListTasksByEvent returns the tasks attached to eventID, or every task when
// eventID is empty.
func (s *Store) ListTasksByEvent(ctx context.Context, eventID string) ([]Task, error) {
	doc, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	if eventID == "" {
		return doc.Tasks, nil
	}
	var tasks []Task
	for _, t := range doc.Tasks {
		if t.EventID != nil && *t.EventID == eventID {
			tasks = append(tasks, t)
		}
	}
	return tasks, nil
}

// Categories

func (s *Store) CreateCategory(ctx context.Context, in CategoryInput) (Category, error) {
	item := Category{
		Name:      in.Name,
		ColorHex:  in.ColorHex,
		IsActive:  activeOrDefault(in.IsActive),
		SortOrder: in.SortOrder,
	}
	if err := s.validator.Category(item); err != nil {
		return Category{}, err
	}

	err := s.mutate(ctx, "create category", func(doc *Document) (bool, error) {
		item.ID = s.newID()
		doc.Categories = append(doc.Categories, item)
		return true, nil
	})
	if err != nil {
		return Category{}, err
	}
	return item, nil
}

func (s *Store) UpdateCategory(ctx context.Context, id string, patch CategoryPatch) error {
	return s.mutate(ctx, "update category", func(doc *Document) (bool, error) {
		i := slices.IndexFunc(doc.Categories, func(c Category) bool { return c.ID == id })
		if i < 0 {
			return false, nil
		}
		c := doc.Categories[i]
		if patch.Name != nil {
			c.Name = *patch.Name
		}
		if patch.ColorHex != nil {
			c.ColorHex = *patch.ColorHex
		}
		if patch.IsActive != nil {
			c.IsActive = *patch.IsActive
		}
		if patch.SortOrder != nil {
			c.SortOrder = *patch.SortOrder
		}
		if err := s.validator.Category(c); err != nil {
			return false, err
		}
		doc.Categories[i] = c
		return true, nil
	})
}

// DeleteCategory refuses while any event uses the category. Otherwise the
// category's subcategories go with it and events citing them are detached.
func (s *Store) DeleteCategory(ctx context.Context, id string) (DeleteResult, error) {
	result := DeleteResult{OK: true}
	err := s.mutate(ctx, "delete category", func(doc *Document) (bool, error) {
		if slices.ContainsFunc(doc.Events, func(e Event) bool { return e.CategoryID == id }) {
			result = DeleteResult{OK: false, Reason: reasonCategoryInUse}
			return false, nil
		}
		removed := map[string]bool{}
		for _, sc := range doc.Subcategories {
			if sc.CategoryID == id {
				removed[sc.ID] = true
			}
		}
		changed := false
		for i, e := range doc.Events {
			if e.SubcategoryID != nil && removed[*e.SubcategoryID] {
				doc.Events[i].SubcategoryID = nil
				changed = true
			}
		}
		before := len(doc.Categories) + len(doc.Subcategories)
		doc.Subcategories = slices.DeleteFunc(doc.Subcategories, func(sc Subcategory) bool { return removed[sc.ID] })
		doc.Categories = slices.DeleteFunc(doc.Categories, func(c Category) bool { return c.ID == id })
		return changed || len(doc.Categories)+len(doc.Subcategories) != before, nil
	})
	if err != nil {
		return DeleteResult{}, err
	}
	return result, nil
}

// Subcategories

func (s *Store) CreateSubcategory(ctx context.Context, in SubcategoryInput) (Subcategory, error) {
	item := Subcategory{
		CategoryID: in.CategoryID,
		Name:       in.Name,
		ColorHex:   in.ColorHex,
		IsActive:   activeOrDefault(in.IsActive),
		SortOrder:  in.SortOrder,
	}
	if err := s.validator.Subcategory(item); err != nil {
		return Subcategory{}, err
	}

	err := s.mutate(ctx, "create subcategory", func(doc *Document) (bool, error) {
		if !hasCategory(doc, item.CategoryID) {
			return false, missingReference("subcategory", "categoryId", item.CategoryID)
		}
		item.ID = s.newID()
		doc.Subcategories = append(doc.Subcategories, item)
		return true, nil
	})
	if err != nil {
		return Subcategory{}, err
	}
	return item, nil
}

func (s *Store) UpdateSubcategory(ctx context.Context, id string, patch SubcategoryPatch) error {
	return s.mutate(ctx, "update subcategory", func(doc *Document) (bool, error) {
		i := slices.IndexFunc(doc.Subcategories, func(sc Subcategory) bool { return sc.ID == id })
		if i < 0 {
			return false, nil
		}
		sc := doc.Subcategories[i]
		if patch.Name != nil {
			sc.Name = *patch.Name
		}
		if patch.ColorHex.Set {
			sc.ColorHex = patch.ColorHex.Value
		}
		if patch.IsActive != nil {
			sc.IsActive = *patch.IsActive
		}
		if patch.SortOrder != nil {
			sc.SortOrder = *patch.SortOrder
		}
		if err := s.validator.Subcategory(sc); err != nil {
			return false, err
		}
		doc.Subcategories[i] = sc
		return true, nil
	})
}

// DeleteSubcategory detaches referencing events before removing the subcategory.
func (s *Store) DeleteSubcategory(ctx context.Context, id string) error {
	return s.mutate(ctx, "delete subcategory", func(doc *Document) (bool, error) {
		changed := false
		for i, e := range doc.Events {
			if e.SubcategoryID != nil && *e.SubcategoryID == id {
				doc.Events[i].SubcategoryID = nil
				changed = true
			}
		}
		before := len(doc.Subcategories)
		doc.Subcategories = slices.DeleteFunc(doc.Subcategories, func(sc Subcategory) bool { return sc.ID == id })
		return changed || len(doc.Subcategories) != before, nil
	})
}

// Events

func (s *Store) CreateEvent(ctx context.Context, in EventInput) (Event, error) {
	item := Event{
		Title:         in.Title,
		Description:   in.Description,
		CategoryID:    in.CategoryID,
		SubcategoryID: in.SubcategoryID,
		StartsAt:      in.StartsAt,
		EndsAt:        in.EndsAt,
		AllDay:        in.AllDay,
		Location:      in.Location,
	}
	if err := s.validator.Event(item); err != nil {
		return Event{}, err
	}

	err := s.mutate(ctx, "create event", func(doc *Document) (bool, error) {
		if err := checkEventReferences(doc, item); err != nil {
			return false, err
		}
		item.ID = s.newID()
		doc.Events = append(doc.Events, item)
		return true, nil
	})
	if err != nil {
		return Event{}, err
	}
	return item, nil
}

func (s *Store) UpdateEvent(ctx context.Context, id string, patch EventPatch) error {
	return s.mutate(ctx, "update event", func(doc *Document) (bool, error) {
		i := slices.IndexFunc(doc.Events, func(e Event) bool { return e.ID == id })
		if i < 0 {
			return false, nil
		}
		e := doc.Events[i]
		if patch.Title != nil {
			e.Title = *patch.Title
		}
		if patch.Description != nil {
			e.Description = *patch.Description
		}
		if patch.CategoryID != nil {
			e.CategoryID = *patch.CategoryID
		}
		if patch.SubcategoryID.Set {
			e.SubcategoryID = patch.SubcategoryID.Value
		}
		if patch.StartsAt != nil {
			e.StartsAt = *patch.StartsAt
		}
		if patch.EndsAt != nil {
			e.EndsAt = *patch.EndsAt
		}
		if patch.AllDay != nil {
			e.AllDay = *patch.AllDay
		}
		if patch.Location != nil {
			e.Location = *patch.Location
		}
		if err := s.validator.Event(e); err != nil {
			return false, err
		}
		if patch.CategoryID != nil || patch.SubcategoryID.Set {
			if err := checkEventReferences(doc, e); err != nil {
				return false, err
			}
		}
		doc.Events[i] = e
		return true, nil
	})
}

// DeleteEvent removes the event together with its task board.
func (s *Store) DeleteEvent(ctx context.Context, id string) error {
	return s.mutate(ctx, "delete event", func(doc *Document) (bool, error) {
		before := len(doc.Events) + len(doc.Tasks)
		doc.Tasks = slices.DeleteFunc(doc.Tasks, func(t Task) bool { return t.EventID != nil && *t.EventID == id })
		doc.Events = slices.DeleteFunc(doc.Events, func(e Event) bool { return e.ID == id })
		return len(doc.Events)+len(doc.Tasks) != before, nil
	})
}

// Tasks

// CreateTask appends the task to the end of its (status, event) column.
func (s *Store) CreateTask(ctx context.Context, in TaskInput) (Task, error) {
	item := Task{
		EventID:     in.EventID,
		Title:       in.Title,
		Description: in.Description,
		Status:      in.Status,
		Priority:    in.Priority,
		DueDate:     in.DueDate,
		AssigneeID:  in.AssigneeID,
	}
	if err := s.validator.Task(item); err != nil {
		return Task{}, err
	}

	err := s.mutate(ctx, "create task", func(doc *Document) (bool, error) {
		if item.EventID != nil && !hasEvent(doc, *item.EventID) {
			return false, missingReference("task", "eventId", *item.EventID)
		}
		item.ID = s.newID()
		item.Position = partitionSize(doc.Tasks, partitionOf(item))
		doc.Tasks = append(doc.Tasks, item)
		return true, nil
	})
	if err != nil {
		return Task{}, err
	}
	return item, nil
}

// UpdateTask merges patch into the task. A patch that changes the status or
// the event moves the task to the end of its new column.
func (s *Store) UpdateTask(ctx context.Context, id string, patch TaskPatch) error {
	return s.mutate(ctx, "update task", func(doc *Document) (bool, error) {
		i := slices.IndexFunc(doc.Tasks, func(t Task) bool { return t.ID == id })
		if i < 0 {
			return false, nil
		}
		t := doc.Tasks[i]
		if patch.EventID.Set {
			t.EventID = patch.EventID.Value
		}
		if patch.Title != nil {
			t.Title = *patch.Title
		}
		if patch.Description != nil {
			t.Description = *patch.Description
		}
		if patch.Status != nil {
			t.Status = *patch.Status
		}
		if patch.Priority != nil {
			t.Priority = *patch.Priority
		}
		if patch.DueDate.Set {
			t.DueDate = patch.DueDate.Value
		}
		if patch.AssigneeID.Set {
			t.AssigneeID = patch.AssigneeID.Value
		}
		if err := s.validator.Task(t); err != nil {
			return false, err
		}
		if patch.EventID.Set && t.EventID != nil && !hasEvent(doc, *t.EventID) {
			return false, missingReference("task", "eventId", *t.EventID)
		}

		from, to := partitionOf(doc.Tasks[i]), partitionOf(t)
		if from != to {
			t.Position = partitionSize(doc.Tasks, to)
		}
		doc.Tasks[i] = t
		if from != to {
			renumber(doc.Tasks, from)
		}
		return true, nil
	})
}

// DeleteTask removes the task and closes the gap it leaves in its column.
func (s *Store) DeleteTask(ctx context.Context, id string) error {
	return s.mutate(ctx, "delete task", func(doc *Document) (bool, error) {
		i := slices.IndexFunc(doc.Tasks, func(t Task) bool { return t.ID == id })
		if i < 0 {
			return false, nil
		}
		p := partitionOf(doc.Tasks[i])
		doc.Tasks = slices.Delete(doc.Tasks, i, i+1)
		renumber(doc.Tasks, p)
		return true, nil
	})
}

// MoveTask places the task at index in column status of its board. Indexes
// past the end append.
func (s *Store) MoveTask(ctx context.Context, id string, status TaskStatus, index int) error {
	if !slices.Contains(Statuses, status) {
		return &ValidationError{Entity: "task", Problems: []string{fmt.Sprintf("status: unknown value %q", status)}}
	}
	return s.mutate(ctx, "move task", func(doc *Document) (bool, error) {
		tasks, ok := moveTask(doc.Tasks, id, status, index)
		if !ok {
			return false, nil
		}
		doc.Tasks = tasks
		return true, nil
	})
}

func hasCategory(doc *Document, id string) bool {
	return slices.ContainsFunc(doc.Categories, func(c Category) bool { return c.ID == id })
}

func hasSubcategory(doc *Document, id string) bool {
	return slices.ContainsFunc(doc.Subcategories, func(sc Subcategory) bool { return sc.ID == id })
}

func hasEvent(doc *Document, id string) bool {
	return slices.ContainsFunc(doc.Events, func(e Event) bool { return e.ID == id })
}

// checkEventReferences requires the category to exist and the subcategory,
// when set, to belong to that category.
func checkEventReferences(doc *Document, e Event) error {
	if !hasCategory(doc, e.CategoryID) {
		return missingReference("event", "categoryId", e.CategoryID)
	}
	if e.SubcategoryID == nil {
		return nil
	}
	i := slices.IndexFunc(doc.Subcategories, func(sc Subcategory) bool { return sc.ID == *e.SubcategoryID })
	if i < 0 {
		return missingReference("event", "subcategoryId", *e.SubcategoryID)
	}
	if doc.Subcategories[i].CategoryID != e.CategoryID {
		return &ValidationError{
			Entity:   "event",
			Problems: []string{fmt.Sprintf("subcategoryId: %q belongs to another category", *e.SubcategoryID)},
		}
	}
	return nil
}

func activeOrDefault(v *bool) bool {
	return v == nil || *v
}

func missingReference(entity, field, id string) error {
	return &ValidationError{
		Entity:   entity,
		Problems: []string{fmt.Sprintf("%s: no record with id %q", field, id)},
	}
}

func strPtr(s string) *string {
	return &s
}
