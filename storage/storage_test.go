package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSaveAndListRewrites(t *testing.T) {
	db := openTestDB(t)

	ok := &Rewrite{
		InvocationID:        "a",
		SelectAll:           true,
		Model:               "gpt-4o",
		CaptureLatencyMs:    210,
		CompletionLatencyMs: 900,
		TotalLatencyMs:      1250,
		OriginalText:        "helo",
		ResultText:          "Hello.",
		OriginalChars:       4,
		ResultChars:         6,
		Success:             true,
	}
	require.NoError(t, db.SaveRewrite(ok))
	assert.NotZero(t, ok.ID)

	failed := &Rewrite{
		InvocationID: "b",
		Model:        "gpt-4o",
		ResultText:   "No text found",
		ErrorMessage: "no text found on clipboard",
	}
	require.NoError(t, db.SaveRewrite(failed))

	list, err := db.GetRewrites(10, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "b", list[0].InvocationID)
	assert.Equal(t, "no text found on clipboard", list[0].ErrorMessage)
	assert.False(t, list[0].Success)
	assert.Equal(t, "a", list[1].InvocationID)
	assert.Equal(t, "Hello.", list[1].ResultText)
	assert.True(t, list[1].SelectAll)
	assert.Empty(t, list[1].ErrorMessage)
	assert.False(t, list[1].Timestamp.IsZero())

	page, err := db.GetRewrites(1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "a", page[0].InvocationID)

	count, err := db.GetRewriteCount()
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestDeleteRewrite(t *testing.T) {
	db := openTestDB(t)

	r := &Rewrite{InvocationID: "a", Model: "m", Success: true}
	require.NoError(t, db.SaveRewrite(r))

	require.NoError(t, db.DeleteRewrite(r.ID))
	assert.ErrorIs(t, db.DeleteRewrite(r.ID), ErrNotFound)

	count, err := db.GetRewriteCount()
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestStats(t *testing.T) {
	db := openTestDB(t)

	overall, err := db.GetOverallStats(7)
	require.NoError(t, err)
	assert.Zero(t, overall.TotalRewrites)

	require.NoError(t, db.SaveRewrite(&Rewrite{InvocationID: "a", Model: "m", SelectAll: true, OriginalChars: 10, ResultChars: 12, TotalLatencyMs: 100, Success: true}))
	require.NoError(t, db.SaveRewrite(&Rewrite{InvocationID: "b", Model: "m", OriginalChars: 5, TotalLatencyMs: 300, ErrorMessage: "boom"}))

	overall, err = db.GetOverallStats(7)
	require.NoError(t, err)
	assert.Equal(t, 2, overall.TotalRewrites)
	assert.Equal(t, 15, overall.TotalOriginalChars)
	assert.Equal(t, 12, overall.TotalResultChars)
	assert.Equal(t, 1, overall.SuccessCount)
	assert.Equal(t, 1, overall.FailureCount)
	assert.Equal(t, 1, overall.SelectAllCount)
	assert.InDelta(t, 200, overall.AvgTotalLatencyMs, 0.001)

	daily, err := db.GetDailyStats(7)
	require.NoError(t, err)
	require.Len(t, daily, 1)
	assert.Equal(t, 2, daily[0].TotalRewrites)
	assert.Equal(t, 15, daily[0].TotalChars)
}
