package services

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatInTimeZone(t *testing.T) {
	instant := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	got, err := FormatInTimeZone(instant, "Asia/Seoul", "yyyy-MM-dd HH:mm")
	require.NoError(t, err)
	assert.Equal(t, "2024-01-01 09:00", got)

	got, err = FormatInTimeZone(instant, "Asia/Seoul", "")
	require.NoError(t, err)
	assert.Equal(t, "2024-01-01 09:00", got)
}

func TestFormatInTimeZonePatterns(t *testing.T) {
	instant := time.Date(2024, 3, 5, 14, 7, 9, 250*int(time.Millisecond), time.UTC)

	tests := []struct {
		pattern string
		want    string
	}{
		{"MMM d, yyyy", "Mar 5, 2024"},
		{"MMMM", "March"},
		{"EEEE", "Tuesday"},
		{"hh:mm a", "02:07 PM"},
		{"HH:mm:ss", "14:07:09"},
		{"yyyy-MM-dd'T'HH:mm", "2024-03-05T14:07"},
	}

	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			got, err := FormatInTimeZone(instant, "UTC", tt.pattern)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatInTimeZoneErrors(t *testing.T) {
	_, err := FormatInTimeZone(time.Now(), "Mars/Olympus", "")
	assert.Error(t, err)
}

func TestLocalInputValues(t *testing.T) {
	seoul, err := time.LoadLocation("Asia/Seoul")
	require.NoError(t, err)

	instant := time.Date(2024, 1, 1, 0, 30, 0, 0, time.UTC)
	assert.Equal(t, "2024-01-01T09:30", ToLocalInputValue(instant, seoul))

	iso, err := InputValueToISO("2024-01-01T09:30", seoul)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-01T00:30:00.000Z", iso)

	_, err = InputValueToISO("yesterday", seoul)
	assert.Error(t, err)
}
