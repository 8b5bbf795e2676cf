package storage

import (
	"fmt"
)

// DailyStats represents statistics for a single day
type DailyStats struct {
	Date          string `json:"date"`
	TotalRewrites int    `json:"totalRewrites"`
	TotalChars    int    `json:"totalChars"`
	SuccessCount  int    `json:"successCount"`
	FailureCount  int    `json:"failureCount"`
}

// OverallStats represents overall statistics
type OverallStats struct {
	TotalRewrites      int     `json:"totalRewrites"`
	TotalOriginalChars int     `json:"totalOriginalChars"`
	TotalResultChars   int     `json:"totalResultChars"`
	SuccessCount       int     `json:"successCount"`
	FailureCount       int     `json:"failureCount"`
	SelectAllCount     int     `json:"selectAllCount"`
	AvgCaptureMs       float64 `json:"avgCaptureMs"`
	AvgCompletionMs    float64 `json:"avgCompletionMs"`
	AvgTotalLatencyMs  float64 `json:"avgTotalLatencyMs"`
}

// GetDailyStats retrieves statistics grouped by date for the last N days
func (db *DB) GetDailyStats(days int) ([]DailyStats, error) {
	query := `
		SELECT
			DATE(timestamp) as date,
			COUNT(*) as total_rewrites,
			COALESCE(SUM(original_chars), 0) as total_chars,
			SUM(CASE WHEN success = 1 THEN 1 ELSE 0 END) as success_count,
			SUM(CASE WHEN success = 0 THEN 1 ELSE 0 END) as failure_count
		FROM rewrites
		WHERE timestamp >= datetime('now', '-' || ? || ' days')
		GROUP BY DATE(timestamp)
		ORDER BY date DESC
	`

	rows, err := db.conn.Query(query, days)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily stats: %w", err)
	}
	defer rows.Close()

	var stats []DailyStats
	for rows.Next() {
		var s DailyStats
		err := rows.Scan(&s.Date, &s.TotalRewrites, &s.TotalChars, &s.SuccessCount, &s.FailureCount)
		if err != nil {
			return nil, fmt.Errorf("failed to scan daily stats: %w", err)
		}
		stats = append(stats, s)
	}

	return stats, rows.Err()
}

// GetOverallStats retrieves overall statistics for the last N days
func (db *DB) GetOverallStats(days int) (*OverallStats, error) {
	query := `
		SELECT
			COUNT(*) as total_rewrites,
			COALESCE(SUM(original_chars), 0) as total_original_chars,
			COALESCE(SUM(result_chars), 0) as total_result_chars,
			COALESCE(SUM(CASE WHEN success = 1 THEN 1 ELSE 0 END), 0) as success_count,
			COALESCE(SUM(CASE WHEN success = 0 THEN 1 ELSE 0 END), 0) as failure_count,
			COALESCE(SUM(CASE WHEN select_all = 1 THEN 1 ELSE 0 END), 0) as select_all_count,
			COALESCE(AVG(capture_latency_ms), 0) as avg_capture_ms,
			COALESCE(AVG(completion_latency_ms), 0) as avg_completion_ms,
			COALESCE(AVG(total_latency_ms), 0) as avg_total_latency_ms
		FROM rewrites
		WHERE timestamp >= datetime('now', '-' || ? || ' days')
	`

	var stats OverallStats
	err := db.conn.QueryRow(query, days).Scan(
		&stats.TotalRewrites,
		&stats.TotalOriginalChars,
		&stats.TotalResultChars,
		&stats.SuccessCount,
		&stats.FailureCount,
		&stats.SelectAllCount,
		&stats.AvgCaptureMs,
		&stats.AvgCompletionMs,
		&stats.AvgTotalLatencyMs,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query overall stats: %w", err)
	}

	return &stats, nil
}
