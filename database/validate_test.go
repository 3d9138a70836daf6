package database

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatorCategory(t *testing.T) {
	v, err := NewValidator()
	require.NoError(t, err)

	tests := []struct {
		name    string
		in      Category
		wantErr bool
	}{
		{"six digit color", Category{Name: "Work", ColorHex: "#7C3AED"}, false},
		{"three digit color", Category{Name: "Work", ColorHex: "#fff"}, false},
		{"missing hash", Category{Name: "Work", ColorHex: "7C3AED"}, true},
		{"four digit color", Category{Name: "Work", ColorHex: "#abcd"}, true},
		{"empty name", Category{ColorHex: "#000000"}, true},
		{"negative sort order", Category{Name: "Work", ColorHex: "#000000", SortOrder: -1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Category(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrValidation))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidatorSubcategoryColorOptional(t *testing.T) {
	v, err := NewValidator()
	require.NoError(t, err)

	assert.NoError(t, v.Subcategory(Subcategory{CategoryID: "c1", Name: "Dev"}))
	assert.NoError(t, v.Subcategory(Subcategory{CategoryID: "c1", Name: "Dev", ColorHex: strPtr("#123")}))
	assert.Error(t, v.Subcategory(Subcategory{CategoryID: "c1", Name: "Dev", ColorHex: strPtr("blue")}))
	assert.Error(t, v.Subcategory(Subcategory{Name: "Dev"}))
}

func TestValidatorEventProblems(t *testing.T) {
	v, err := NewValidator()
	require.NoError(t, err)

	start := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	assert.NoError(t, v.Event(Event{Title: "Standup", CategoryID: "c1", StartsAt: start, EndsAt: start}))

	err = v.Event(Event{CategoryID: "c1", StartsAt: start, EndsAt: start.Add(-time.Hour)})
	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "event", ve.Entity)
	assert.GreaterOrEqual(t, len(ve.Problems), 2)
	assert.Contains(t, ve.Problems, "endsAt: must not be before startsAt")

	err = v.Event(Event{Title: "x", CategoryID: "c1"})
	require.True(t, errors.As(err, &ve))
	assert.Contains(t, ve.Problems, "startsAt: is required")
}

func TestValidatorTaskEnums(t *testing.T) {
	v, err := NewValidator()
	require.NoError(t, err)

	assert.NoError(t, v.Task(Task{Title: "a", Status: StatusBlocked, Priority: PriorityUrgent}))
	assert.Error(t, v.Task(Task{Title: "a", Status: "todo", Priority: PriorityUrgent}))
	assert.Error(t, v.Task(Task{Title: "a", Status: StatusDone, Priority: "MEDIUM"}))
	assert.Error(t, v.Task(Task{Status: StatusDone, Priority: PriorityLow}))
}
