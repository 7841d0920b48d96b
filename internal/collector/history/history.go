// Package history implements the time-bucketing and retention helpers
// used by the catalogue writer: snapshot filename parsing, filtered
// history sparsification, and the report-retention decision.
package history

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"time"
)

// DateFormat is the layout used for reportTime fields in history.json
// and filtered_history.json.
const DateFormat = "2006-01-02 15:04:05"

var snapshotNameRe = regexp.MustCompile(`^index_(\d{4})(\d{2})(\d{2})(\d{2})(\d{2})(\d{2})\.json$`)

// Report is one entry of history.json / filtered_history.json.
type Report struct {
	ReportTime time.Time
	ReportPath string
}

// HourStart truncates t to the beginning of its hour.
func HourStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, t.Location())
}

// DayStart truncates t to the beginning of its day.
func DayStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// MonthStart truncates t to the beginning of its month.
func MonthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// YearStart truncates t to the beginning of its year.
func YearStart(t time.Time) time.Time {
	return time.Date(t.Year(), 1, 1, 0, 0, 0, 0, t.Location())
}

// AddMonths adds amount calendar months to src. Negative amounts
// subtract. Only start-of-month values are ever passed in, so
// day-of-month preservation is not required.
func AddMonths(src time.Time, amount int) time.Time {
	total := int(src.Month()) - 1 + amount
	year := src.Year() + floorDiv(total, 12)
	month := time.Month(floorMod(total, 12) + 1)
	return time.Date(year, month, src.Day(), src.Hour(), src.Minute(), src.Second(), 0, src.Location())
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func floorMod(a, b int) int {
	m := a % b
	if m != 0 && ((m < 0) != (b < 0)) {
		m += b
	}
	return m
}

// ShiftCurrentHour returns the current hour's start plus offset hours.
func ShiftCurrentHour(now time.Time, offset int) time.Time {
	return HourStart(now).Add(time.Duration(offset) * time.Hour)
}

// ShiftCurrentDay returns the current day's start plus offset days.
func ShiftCurrentDay(now time.Time, offset int) time.Time {
	return DayStart(now).AddDate(0, 0, offset)
}

// ShiftCurrentMonth returns the current month's start plus offset months.
func ShiftCurrentMonth(now time.Time, offset int) time.Time {
	return AddMonths(MonthStart(now), offset)
}

// SnapshotFileName builds the index_<suffix>.json filename for t.
func SnapshotFileName(t time.Time) string {
	return fmt.Sprintf("index_%s.json", t.Format("20060102150405"))
}

// ParseSnapshotFileName parses an index_YYYYMMDDhhmmss.json filename into
// its timestamp. ok is false if name does not match the pattern.
func ParseSnapshotFileName(name string) (t time.Time, ok bool) {
	m := snapshotNameRe.FindStringSubmatch(name)
	if m == nil {
		return time.Time{}, false
	}
	ints := make([]int, 6)
	for i, s := range m[1:] {
		v, err := strconv.Atoi(s)
		if err != nil {
			return time.Time{}, false
		}
		ints[i] = v
	}
	return time.Date(ints[0], time.Month(ints[1]), ints[2], ints[3], ints[4], ints[5], 0, time.Local), true
}

type filteredBucket struct {
	reportTime time.Time
	report     Report
}

func addFiltered(buckets map[time.Time]filteredBucket, itemKey, reportTime time.Time, report Report, minTime *time.Time) {
	if minTime != nil && itemKey.Before(*minTime) {
		return
	}
	existing, ok := buckets[itemKey]
	if !ok || reportTime.Before(existing.reportTime) {
		buckets[itemKey] = filteredBucket{reportTime: reportTime, report: report}
	}
}

// FilteredHistory sparsifies a newest-first history list: the newest
// report is always kept; within filteredHours/filteredDays/filteredMonths
// windows the earliest report of each hour/day/month bucket is kept; for
// every represented year the earliest report of that year is kept with
// no cutoff. The result is deduplicated by ReportTime and sorted
// newest-first.
func FilteredHistory(jsonHistory []Report, now time.Time, filteredHours, filteredDays, filteredMonths int) []Report {
	if len(jsonHistory) == 0 {
		return nil
	}

	buckets := map[time.Time]filteredBucket{}
	hourCutoff := ShiftCurrentHour(now, -filteredHours)
	dayCutoff := ShiftCurrentDay(now, -filteredDays)
	monthCutoff := ShiftCurrentMonth(now, -filteredMonths)

	for _, item := range jsonHistory {
		rt := item.ReportTime
		addFiltered(buckets, HourStart(rt), rt, item, &hourCutoff)
		addFiltered(buckets, DayStart(rt), rt, item, &dayCutoff)
		addFiltered(buckets, MonthStart(rt), rt, item, &monthCutoff)
		addFiltered(buckets, YearStart(rt), rt, item, nil)
	}

	latest := jsonHistory[0]
	unique := map[time.Time]Report{latest.ReportTime: latest}
	for _, b := range buckets {
		unique[b.report.ReportTime] = b.report
	}

	out := make([]Report, 0, len(unique))
	for _, r := range unique {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ReportTime.After(out[j].ReportTime) })
	return out
}

// ReportsToKeep decides, from a newest-first report list, which
// ReportPaths survive cleanup: the single most recent report, every
// report newer than freshTime, and the earliest report of each calendar
// day for older reports.
func ReportsToKeep(reports []Report, freshTime time.Time) map[string]bool {
	if len(reports) == 0 {
		return map[string]bool{}
	}

	keep := map[string]bool{reports[0].ReportPath: true}

	type dayBucket struct {
		reportTime time.Time
		reportPath string
	}
	byDay := map[time.Time]dayBucket{}

	for _, r := range reports {
		if !r.ReportTime.Before(freshTime) {
			keep[r.ReportPath] = true
			continue
		}
		dayKey := DayStart(r.ReportTime)
		existing, ok := byDay[dayKey]
		if !ok || r.ReportTime.Before(existing.reportTime) {
			byDay[dayKey] = dayBucket{reportTime: r.ReportTime, reportPath: r.ReportPath}
		}
	}
	for _, b := range byDay {
		keep[b.reportPath] = true
	}
	return keep
}
