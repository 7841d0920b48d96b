package history

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustTime(s string) time.Time {
	t, err := time.ParseInLocation(DateFormat, s, time.Local)
	if err != nil {
		panic(err)
	}
	return t
}

func TestAddMonths(t *testing.T) {
	jan := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.Local)
	assert.Equal(t, time.Date(2026, time.March, 1, 0, 0, 0, 0, time.Local), AddMonths(jan, 2))
	assert.Equal(t, time.Date(2025, time.November, 1, 0, 0, 0, 0, time.Local), AddMonths(jan, -2))
	assert.Equal(t, time.Date(2025, time.December, 1, 0, 0, 0, 0, time.Local), AddMonths(jan, -1))
}

func TestSnapshotFileNameRoundTrip(t *testing.T) {
	ts := time.Date(2026, 7, 30, 12, 34, 56, 0, time.Local)
	name := SnapshotFileName(ts)
	assert.Equal(t, "index_20260730123456.json", name)

	parsed, ok := ParseSnapshotFileName(name)
	require.True(t, ok)
	assert.True(t, ts.Equal(parsed))

	_, ok = ParseSnapshotFileName("index.json")
	assert.False(t, ok)
}

func TestFilteredHistory_KeepsNewestAndBuckets(t *testing.T) {
	now := mustTime("2026-07-30 12:00:00")
	history := []Report{
		{ReportTime: mustTime("2026-07-30 11:00:00"), ReportPath: "index_a.json"},
		{ReportTime: mustTime("2026-07-30 10:30:00"), ReportPath: "index_b.json"},
		{ReportTime: mustTime("2026-07-30 10:00:00"), ReportPath: "index_c.json"},
		{ReportTime: mustTime("2026-06-01 00:00:00"), ReportPath: "index_d.json"},
		{ReportTime: mustTime("2024-01-01 00:00:00"), ReportPath: "index_e.json"},
	}

	out := FilteredHistory(history, now, 24, 30, 12)
	require.NotEmpty(t, out)
	assert.Equal(t, "index_a.json", out[0].ReportPath)

	// monotonically non-increasing in reportTime
	for i := 1; i < len(out); i++ {
		assert.False(t, out[i].ReportTime.After(out[i-1].ReportTime))
	}

	paths := map[string]bool{}
	for _, r := range out {
		paths[r.ReportPath] = true
	}
	assert.True(t, paths["index_a.json"])
	assert.True(t, paths["index_e.json"], "old year bucket always kept")
}

func TestReportsToKeep_S6Scenario(t *testing.T) {
	now := mustTime("2026-07-30 00:00:00")
	reports := []Report{
		{ReportTime: now, ReportPath: "index_t0.json"},
		{ReportTime: now.AddDate(0, 0, -40).Add(10 * time.Hour), ReportPath: "index_t40am.json"},
		{ReportTime: now.AddDate(0, 0, -40).Add(18 * time.Hour), ReportPath: "index_t40pm.json"},
		{ReportTime: now.AddDate(0, 0, -41), ReportPath: "index_t41.json"},
		{ReportTime: time.Date(now.Year()-1, time.January, 3, 9, 0, 0, 0, time.Local), ReportPath: "index_jan3early.json"},
		{ReportTime: time.Date(now.Year()-1, time.January, 3, 15, 0, 0, 0, time.Local), ReportPath: "index_jan3late.json"},
	}
	freshTime := DayStart(now).AddDate(0, 0, -30)

	keep := ReportsToKeep(reports, freshTime)

	assert.True(t, keep["index_t0.json"])
	assert.True(t, keep["index_t40am.json"], "earliest of the day is kept")
	assert.False(t, keep["index_t40pm.json"], "later same-day duplicate removed")
	assert.True(t, keep["index_t41.json"])
	assert.True(t, keep["index_jan3early.json"])
	assert.False(t, keep["index_jan3late.json"])
}
