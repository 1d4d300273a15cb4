package scheduler

import (
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/aleister1102/neveridle/internal/common"
	"github.com/aleister1102/neveridle/internal/models"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

// DB is the cycle journal. It records when cycles ran and how they ended,
// never what they measured.
type DB struct {
	db     *sql.DB
	logger zerolog.Logger
}

// CycleHistoryEntry represents a record in the cycle_history table.
type CycleHistoryEntry struct {
	ID         int64
	StartTime  time.Time
	EndTime    sql.NullTime
	Status     models.CycleStatus
	ProcessPID int
}

// NewDB opens the journal and ensures the schema is set up.
func NewDB(dataSourceName string, logger zerolog.Logger) (*DB, error) {
	logger = logger.With().Str("module", "CycleJournal").Logger()

	dbDir := filepath.Dir(dataSourceName)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return nil, common.WrapErrorf(err, "failed to create journal directory %s", dbDir)
	}

	dbInstance, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		return nil, common.WrapErrorf(err, "failed to open journal %s", dataSourceName)
	}
	dbInstance.SetMaxOpenConns(1)

	db := &DB{
		db:     dbInstance,
		logger: logger,
	}

	if err := db.InitSchema(); err != nil {
		_ = db.Close()
		return nil, common.WrapError(err, "failed to initialize journal schema")
	}
	logger.Debug().Str("path", dataSourceName).Msg("Cycle journal ready")
	return db, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	if d.db != nil {
		return d.db.Close()
	}
	return nil
}

// InitSchema creates the cycle_history table if it doesn't already exist.
func (d *DB) InitSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS cycle_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		cycle_start_time DATETIME NOT NULL,
		cycle_end_time DATETIME,
		status TEXT NOT NULL,
		process_pid INTEGER
	);
	`
	_, err := d.db.Exec(query)
	return err
}

// RecordCycleStart inserts a STARTED row and returns its ID.
func (d *DB) RecordCycleStart(startTime time.Time) (int64, error) {
	query := `INSERT INTO cycle_history (cycle_start_time, status, process_pid) VALUES (?, ?, ?)`
	result, err := d.db.Exec(query, startTime.UTC(), string(models.CycleStatusStarted), os.Getpid())
	if err != nil {
		return 0, common.WrapError(err, "failed to insert cycle start record")
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, common.WrapError(err, "failed to get last insert ID")
	}
	d.logger.Debug().Int64("db_id", id).Msg("Recorded cycle start")
	return id, nil
}

// UpdateCycleCompletion stores the end time and final status of a cycle.
func (d *DB) UpdateCycleCompletion(id int64, endTime time.Time, status models.CycleStatus) error {
	query := `UPDATE cycle_history SET cycle_end_time = ?, status = ? WHERE id = ?`
	if _, err := d.db.Exec(query, endTime.UTC(), string(status), id); err != nil {
		return common.WrapErrorf(err, "failed to update cycle completion for ID %d", id)
	}
	d.logger.Debug().Int64("db_id", id).Str("status", string(status)).Msg("Updated cycle completion")
	return nil
}

// GetLastCycleTime returns the start time of the most recent cycle that ran
// to the end, or nil when there is none.
func (d *DB) GetLastCycleTime() (*time.Time, error) {
	query := `SELECT cycle_start_time FROM cycle_history WHERE status IN (?, ?) ORDER BY cycle_start_time DESC LIMIT 1`
	var start time.Time
	err := d.db.QueryRow(query, string(models.CycleStatusCompleted), string(models.CycleStatusPartial)).Scan(&start)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, common.WrapError(err, "failed to query last cycle start time")
	}
	return &start, nil
}

// RecentCycles returns up to limit entries, newest first.
func (d *DB) RecentCycles(limit int) ([]CycleHistoryEntry, error) {
	query := `SELECT id, cycle_start_time, cycle_end_time, status, process_pid FROM cycle_history ORDER BY id DESC LIMIT ?`
	rows, err := d.db.Query(query, limit)
	if err != nil {
		return nil, common.WrapError(err, "failed to query cycle history")
	}
	defer rows.Close()

	var entries []CycleHistoryEntry
	for rows.Next() {
		var e CycleHistoryEntry
		var status string
		if err := rows.Scan(&e.ID, &e.StartTime, &e.EndTime, &status, &e.ProcessPID); err != nil {
			return nil, common.WrapError(err, "failed to scan cycle history row")
		}
		e.Status = models.CycleStatus(status)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
