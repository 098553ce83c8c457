package ingest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestChangesWindowRecentRun(t *testing.T) {
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	lastRun := now.Add(-6 * time.Hour)

	start, end := ChangesWindow(now, lastRun)
	assert.Equal(t, now.Add(-24*time.Hour), start)
	assert.Equal(t, now, end)
}

func TestChangesWindowExactlyOneDay(t *testing.T) {
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	lastRun := now.Add(-24 * time.Hour)

	start, end := ChangesWindow(now, lastRun)
	assert.Equal(t, now.Add(-24*time.Hour), start)
	assert.Equal(t, now, end)
}

func TestChangesWindowAfterOutage(t *testing.T) {
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	lastRun := now.Add(-5 * 24 * time.Hour)

	start, end := ChangesWindow(now, lastRun)
	assert.Equal(t, lastRun, start, "window opens at the last successful run")
	assert.Equal(t, now, end)
}

func TestChangesWindowCappedAtRetention(t *testing.T) {
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	lastRun := now.Add(-30 * 24 * time.Hour)

	start, end := ChangesWindow(now, lastRun)
	assert.Equal(t, now.Add(-14*24*time.Hour), start, "look-back must cap at upstream retention")
	assert.Equal(t, now, end)
}

func TestChangesWindowNeverRun(t *testing.T) {
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

	start, end := ChangesWindow(now, time.Time{})
	assert.Equal(t, now.Add(-14*24*time.Hour), start)
	assert.Equal(t, now, end)
}
