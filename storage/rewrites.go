package storage

import (
	"database/sql"
	"fmt"
	"time"
)

// Rewrite is one recorded workflow invocation
type Rewrite struct {
	ID                  int64     `json:"id"`
	InvocationID        string    `json:"invocationId"`
	Timestamp           time.Time `json:"timestamp"`
	SelectAll           bool      `json:"selectAll"`
	Model               string    `json:"model"`
	CaptureLatencyMs    int64     `json:"captureLatencyMs"`
	CompletionLatencyMs int64     `json:"completionLatencyMs"`
	TotalLatencyMs      int64     `json:"totalLatencyMs"`
	OriginalText        string    `json:"originalText"`
	ResultText          string    `json:"resultText"`
	OriginalChars       int       `json:"originalChars"`
	ResultChars         int       `json:"resultChars"`
	Success             bool      `json:"success"`
	ErrorMessage        string    `json:"errorMessage,omitempty"`
}

// SaveRewrite saves a rewrite to the database
func (db *DB) SaveRewrite(r *Rewrite) error {
	query := `
		INSERT INTO rewrites (
			invocation_id, select_all, model,
			capture_latency_ms, completion_latency_ms, total_latency_ms,
			original_text, result_text, original_chars, result_chars,
			success, error_message
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	var errorMessage sql.NullString
	if r.ErrorMessage != "" {
		errorMessage = sql.NullString{String: r.ErrorMessage, Valid: true}
	}

	result, err := db.conn.Exec(query,
		r.InvocationID, r.SelectAll, r.Model,
		r.CaptureLatencyMs, r.CompletionLatencyMs, r.TotalLatencyMs,
		r.OriginalText, r.ResultText, r.OriginalChars, r.ResultChars,
		r.Success, errorMessage,
	)
	if err != nil {
		return fmt.Errorf("failed to save rewrite: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert ID: %w", err)
	}

	r.ID = id
	return nil
}

// GetRewrites retrieves rewrites with pagination, newest first
func (db *DB) GetRewrites(limit, offset int) ([]Rewrite, error) {
	query := `
		SELECT
			id, invocation_id, timestamp, select_all, model,
			capture_latency_ms, completion_latency_ms, total_latency_ms,
			original_text, result_text, original_chars, result_chars,
			success, error_message
		FROM rewrites
		ORDER BY timestamp DESC, id DESC
		LIMIT ? OFFSET ?
	`

	rows, err := db.conn.Query(query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query rewrites: %w", err)
	}
	defer rows.Close()

	var rewrites []Rewrite
	for rows.Next() {
		var r Rewrite
		var errorMessage sql.NullString

		err := rows.Scan(
			&r.ID, &r.InvocationID, &r.Timestamp, &r.SelectAll, &r.Model,
			&r.CaptureLatencyMs, &r.CompletionLatencyMs, &r.TotalLatencyMs,
			&r.OriginalText, &r.ResultText, &r.OriginalChars, &r.ResultChars,
			&r.Success, &errorMessage,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan rewrite: %w", err)
		}

		if errorMessage.Valid {
			r.ErrorMessage = errorMessage.String
		}

		rewrites = append(rewrites, r)
	}

	return rewrites, rows.Err()
}

// DeleteRewrite deletes a rewrite by ID
func (db *DB) DeleteRewrite(id int64) error {
	result, err := db.conn.Exec(`DELETE FROM rewrites WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete rewrite: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("rewrite %d: %w", id, ErrNotFound)
	}

	return nil
}

// GetRewriteCount returns the total number of rewrites
func (db *DB) GetRewriteCount() (int, error) {
	var count int
	err := db.conn.QueryRow("SELECT COUNT(*) FROM rewrites").Scan(&count)
	return count, err
}
