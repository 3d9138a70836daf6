package database

import (
	"slices"
	"sort"
)

// partition identifies a kanban column: a status within one event's board,
// or within the unattached tasks when attached is false.
type partition struct {
	status   TaskStatus
	eventID  string
	attached bool
}

func partitionOf(t Task) partition {
	p := partition{status: t.Status}
	if t.EventID != nil {
		p.eventID = *t.EventID
		p.attached = true
	}
	return p
}

// partitionSize counts the tasks already in p.
func partitionSize(tasks []Task, p partition) int {
	n := 0
	for _, t := range tasks {
		if partitionOf(t) == p {
			n++
		}
	}
	return n
}

// renumber rewrites positions in p to 0..k-1, keeping the current relative
// order (by position, ties by slice order). The slice order is unchanged.
func renumber(tasks []Task, p partition) {
	var idx []int
	for i, t := range tasks {
		if partitionOf(t) == p {
			idx = append(idx, i)
		}
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return tasks[idx[a]].Position < tasks[idx[b]].Position
	})
	for pos, i := range idx {
		tasks[i].Position = pos
	}
}

// moveTask moves task id into column status at index within the same event board.
// Both the destination and the source column end up contiguous. It returns the
// new task list and false when id is unknown.
func moveTask(tasks []Task, id string, status TaskStatus, index int) ([]Task, bool) {
	at := slices.IndexFunc(tasks, func(t Task) bool { return t.ID == id })
	if at < 0 {
		return tasks, false
	}

	moved := tasks[at]
	source := partitionOf(moved)
	moved.Status = status
	dest := partitionOf(moved)

	var column, rest []Task
	for i, t := range tasks {
		if i == at {
			continue
		}
		if partitionOf(t) == dest {
			column = append(column, t)
		} else {
			rest = append(rest, t)
		}
	}
	sort.SliceStable(column, func(a, b int) bool {
		return column[a].Position < column[b].Position
	})

	if index < 0 {
		index = 0
	}
	if index > len(column) {
		index = len(column)
	}
	column = slices.Insert(column, index, moved)
	for i := range column {
		column[i].Position = i
	}

	if source != dest {
		renumber(rest, source)
	}
	return append(rest, column...), true
}
