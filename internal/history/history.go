// Package history persists print job outcomes to a local SQLite file so
// the web UI can show what was printed after a restart.
package history

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/hermesworks/receiptd/internal/shared/logger"
)

// Job statuses.
const (
	StatusQueued  = "queued"
	StatusPrinted = "printed"
	StatusFailed  = "failed"
)

type JobRow struct {
	ID        string `json:"id"`
	Source    string `json:"source"`
	Content   string `json:"content"`
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
	HasImage  bool   `json:"has_image"`
	CreatedAt int64  `json:"created_at"`
}

var DBClient *sql.DB

// SetupDB opens the history database and creates the jobs table.
func SetupDB(dbPath string) (*sql.DB, error) {
	if DBClient != nil {
		return DBClient, nil
	}

	// WAL mode and busy timeout guard against writer contention.
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}

	// SQLite is a single-writer store, keep one connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS jobs (
		id TEXT PRIMARY KEY,
		source TEXT NOT NULL,
		content TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'queued',
		error TEXT DEFAULT '',
		has_image BOOLEAN NOT NULL DEFAULT false,
		created_at INTEGER NOT NULL
	)`); err != nil {
		logger.Error("Failed to create jobs table", zap.Error(err))
		return nil, err
	}

	if _, err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_jobs_created_at ON jobs(created_at)`); err != nil {
		logger.Warn("Failed to create jobs index", zap.Error(err))
	}

	DBClient = db
	return db, nil
}

func GetDB() *sql.DB {
	return DBClient
}

// CloseDB closes the database. Used on shutdown and in tests.
func CloseDB() {
	if DBClient != nil {
		DBClient.Close()
		DBClient = nil
	}
}

// RecordJob inserts a new job row. Duplicate ids are ignored so a
// re-polled message is not recorded twice.
func RecordJob(row JobRow) error {
	db := GetDB()
	if db == nil {
		return fmt.Errorf("database not initialized")
	}

	if row.CreatedAt == 0 {
		row.CreatedAt = time.Now().Unix()
	}
	if row.Status == "" {
		row.Status = StatusQueued
	}

	_, err := db.Exec(`INSERT OR IGNORE INTO jobs (id, source, content, status, error, has_image, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		row.ID, row.Source, row.Content, row.Status, row.Error, row.HasImage, row.CreatedAt)
	if err != nil {
		logger.Error("Failed to insert job", zap.Error(err), zap.String("id", row.ID))
		return err
	}
	return nil
}

// UpdateJobStatus records the outcome of a finished job.
func UpdateJobStatus(id, status, errMsg string) error {
	db := GetDB()
	if db == nil {
		return fmt.Errorf("database not initialized")
	}

	_, err := db.Exec(`UPDATE jobs SET status = ?, error = ? WHERE id = ?`, status, errMsg, id)
	if err != nil {
		logger.Error("Failed to update job status", zap.Error(err), zap.String("id", id))
		return err
	}
	return nil
}

// RecentJobs returns the newest jobs, most recent first.
func RecentJobs(limit int) ([]JobRow, error) {
	db := GetDB()
	if db == nil {
		return nil, fmt.Errorf("database not initialized")
	}
	if limit <= 0 {
		limit = 50
	}

	rows, err := db.Query(`SELECT id, source, content, status, error, has_image, created_at
		FROM jobs ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		logger.Error("Failed to query jobs", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	jobs := []JobRow{}
	for rows.Next() {
		var row JobRow
		if err := rows.Scan(&row.ID, &row.Source, &row.Content, &row.Status,
			&row.Error, &row.HasImage, &row.CreatedAt); err != nil {
			return nil, err
		}
		jobs = append(jobs, row)
	}
	return jobs, rows.Err()
}
