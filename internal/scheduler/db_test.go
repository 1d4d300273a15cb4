package scheduler

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/aleister1102/neveridle/internal/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := NewDB(filepath.Join(t.TempDir(), "state", "history.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestDBEmptyHistory(t *testing.T) {
	db := newTestDB(t)

	last, err := db.GetLastCycleTime()
	require.NoError(t, err)
	assert.Nil(t, last)
}

func TestDBRecordsCycles(t *testing.T) {
	db := newTestDB(t)
	first := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	second := first.Add(time.Hour)

	id1, err := db.RecordCycleStart(first)
	require.NoError(t, err)
	require.NoError(t, db.UpdateCycleCompletion(id1, first.Add(time.Minute), models.CycleStatusCompleted))

	id2, err := db.RecordCycleStart(second)
	require.NoError(t, err)
	require.NoError(t, db.UpdateCycleCompletion(id2, second.Add(time.Minute), models.CycleStatusPartial))

	id3, err := db.RecordCycleStart(second.Add(time.Hour))
	require.NoError(t, err)
	require.NoError(t, db.UpdateCycleCompletion(id3, second.Add(time.Hour), models.CycleStatusFailed))

	last, err := db.GetLastCycleTime()
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.True(t, second.Equal(*last), "got %s", last)

	entries, err := db.RecentCycles(10)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, models.CycleStatusFailed, entries[0].Status)
	assert.True(t, entries[2].EndTime.Valid)
	assert.Positive(t, entries[0].ProcessPID)
}

func TestDBStartedCycleIsNotLast(t *testing.T) {
	db := newTestDB(t)

	_, err := db.RecordCycleStart(time.Now())
	require.NoError(t, err)

	last, err := db.GetLastCycleTime()
	require.NoError(t, err)
	assert.Nil(t, last)
}
