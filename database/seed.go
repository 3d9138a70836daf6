package database

import "time"

type seedCategory struct {
	name          string
	color         string
	subcategories []string
}

var seedCategories = []seedCategory{
	{name: "휴가", color: "#22C55E", subcategories: []string{"연차", "반차", "반반차"}},
	{name: "업무", color: "#7C3AED", subcategories: []string{"개발", "디자인", "QA"}},
	{name: "미팅/회의", color: "#0EA5E9", subcategories: []string{"내부회의", "고객미팅"}},
	{name: "기념일", color: "#F59E0B", subcategories: []string{"생일", "결혼기념일"}},
}

// seedDocument builds the first-run document: four categories with their
// subcategories, a meeting and a work event today, and a small board on the
// work event.
func seedDocument(now time.Time, newID func() string) *Document {
	doc := &Document{}
	subByName := make(map[string]*string)

	for i, sc := range seedCategories {
		cat := Category{ID: newID(), Name: sc.name, ColorHex: sc.color, IsActive: true, SortOrder: i + 1}
		doc.Categories = append(doc.Categories, cat)
		for _, name := range sc.subcategories {
			sub := Subcategory{ID: newID(), CategoryID: cat.ID, Name: name, IsActive: true}
			doc.Subcategories = append(doc.Subcategories, sub)
			subByName[name] = strPtr(sub.ID)
		}
	}

	year, month, day := now.Date()
	at := func(hour int) time.Time {
		return time.Date(year, month, day, hour, 0, 0, 0, now.Location()).UTC()
	}

	meeting := Event{
		ID:            newID(),
		Title:         "팀 미팅",
		Description:   "주간 플래닝",
		CategoryID:    doc.Categories[2].ID,
		SubcategoryID: subByName["내부회의"],
		StartsAt:      at(9),
		EndsAt:        at(10),
	}
	work := Event{
		ID:            newID(),
		Title:         "개발 스프린트",
		CategoryID:    doc.Categories[1].ID,
		SubcategoryID: subByName["개발"],
		StartsAt:      at(10),
		EndsAt:        at(12),
	}
	doc.Events = []Event{meeting, work}

	doc.Tasks = []Task{
		{ID: newID(), EventID: strPtr(work.ID), Title: "요구사항 정리", Status: StatusTodo, Priority: PriorityNormal},
		{ID: newID(), EventID: strPtr(work.ID), Title: "캘린더 구현", Status: StatusInProgress, Priority: PriorityHigh},
	}
	return doc
}
