package database

import (
	"encoding/json"
	"time"
)

// Document is the single persisted aggregate. It is always read and written whole.
type Document struct {
	Categories    []Category    `json:"categories"`
	Subcategories []Subcategory `json:"subcategories"`
	Events        []Event       `json:"events"`
	Tasks         []Task        `json:"tasks"`
}

type Category struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	ColorHex  string `json:"colorHex"`
	IsActive  bool   `json:"isActive"`
	SortOrder int    `json:"sortOrder"`
}

// Subcategory inherits its category's color when ColorHex is nil.
type Subcategory struct {
	ID         string  `json:"id"`
	CategoryID string  `json:"categoryId"`
	Name       string  `json:"name"`
	ColorHex   *string `json:"colorHex"`
	IsActive   bool    `json:"isActive"`
	SortOrder  int     `json:"sortOrder"`
}

type Event struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description,omitempty"`
	CategoryID    string    `json:"categoryId"`
	SubcategoryID *string   `json:"subcategoryId"`
	StartsAt      time.Time `json:"startsAt"`
	EndsAt        time.Time `json:"endsAt"`
	AllDay        bool      `json:"allDay"`
	Location      string    `json:"location,omitempty"`
}

type TaskStatus string

const (
	StatusTodo       TaskStatus = "TODO"
	StatusInProgress TaskStatus = "IN_PROGRESS"
	StatusBlocked    TaskStatus = "BLOCKED"
	StatusDone       TaskStatus = "DONE"
)

// Statuses lists the kanban columns in board order.
var Statuses = []TaskStatus{StatusTodo, StatusInProgress, StatusBlocked, StatusDone}

type TaskPriority string

const (
	PriorityLow    TaskPriority = "LOW"
	PriorityNormal TaskPriority = "NORMAL"
	PriorityHigh   TaskPriority = "HIGH"
	PriorityUrgent TaskPriority = "URGENT"
)

// Task is a kanban card. Position is unique and contiguous within its partition.
type Task struct {
	ID          string       `json:"id"`
	EventID     *string      `json:"eventId"`
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Status      TaskStatus   `json:"status"`
	Position    int          `json:"position"`
	Priority    TaskPriority `json:"priority"`
	DueDate     *time.Time   `json:"dueDate"`
	AssigneeID  *string      `json:"assigneeId"`
}

// Optional distinguishes an absent patch field from an explicit null.
type Optional[T any] struct {
	Set   bool
	Value *T
}

// Some returns a set Optional holding v.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Set: true, Value: &v}
}

// Null returns a set Optional holding nil.
func Null[T any]() Optional[T] {
	return Optional[T]{Set: true}
}

func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if string(data) == "null" {
		o.Value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	o.Value = &v
	return nil
}

// Input and patch types. Patches only touch fields that are non-nil (or Set).

// CategoryInput and SubcategoryInput create active records when IsActive is nil.
type CategoryInput struct {
	Name      string `json:"name"`
	ColorHex  string `json:"colorHex"`
	IsActive  *bool  `json:"isActive"`
	SortOrder int    `json:"sortOrder"`
}

type CategoryPatch struct {
	Name      *string `json:"name"`
	ColorHex  *string `json:"colorHex"`
	IsActive  *bool   `json:"isActive"`
	SortOrder *int    `json:"sortOrder"`
}

type SubcategoryInput struct {
	CategoryID string  `json:"categoryId"`
	Name       string  `json:"name"`
	ColorHex   *string `json:"colorHex"`
	IsActive   *bool   `json:"isActive"`
	SortOrder  int     `json:"sortOrder"`
}

// SubcategoryPatch cannot move a subcategory to another category.
type SubcategoryPatch struct {
	Name      *string          `json:"name"`
	ColorHex  Optional[string] `json:"colorHex"`
	IsActive  *bool            `json:"isActive"`
	SortOrder *int             `json:"sortOrder"`
}

type EventInput struct {
	Title         string    `json:"title"`
	Description   string    `json:"description,omitempty"`
	CategoryID    string    `json:"categoryId"`
	SubcategoryID *string   `json:"subcategoryId"`
	StartsAt      time.Time `json:"startsAt"`
	EndsAt        time.Time `json:"endsAt"`
	AllDay        bool      `json:"allDay"`
	Location      string    `json:"location,omitempty"`
}

type EventPatch struct {
	Title         *string          `json:"title"`
	Description   *string          `json:"description"`
	CategoryID    *string          `json:"categoryId"`
	SubcategoryID Optional[string] `json:"subcategoryId"`
	StartsAt      *time.Time       `json:"startsAt"`
	EndsAt        *time.Time       `json:"endsAt"`
	AllDay        *bool            `json:"allDay"`
	Location      *string          `json:"location"`
}

// TaskInput has no position; new tasks go to the end of their column.
type TaskInput struct {
	EventID     *string      `json:"eventId"`
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Status      TaskStatus   `json:"status"`
	Priority    TaskPriority `json:"priority"`
	DueDate     *time.Time   `json:"dueDate"`
	AssigneeID  *string      `json:"assigneeId"`
}

// TaskPatch cannot set a position; use MoveTask for ordering.
type TaskPatch struct {
	EventID     Optional[string]    `json:"eventId"`
	Title       *string             `json:"title"`
	Description *string             `json:"description"`
	Status      *TaskStatus         `json:"status"`
	Priority    *TaskPriority       `json:"priority"`
	DueDate     Optional[time.Time] `json:"dueDate"`
	AssigneeID  Optional[string]    `json:"assigneeId"`
}

// DeleteResult reports a guarded delete. Reason is set when OK is false.
type DeleteResult struct {
	OK     bool   `json:"ok"`
	Reason string `json:"reason,omitempty"`
}
