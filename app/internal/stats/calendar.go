package stats

import (
	"fmt"
	"time"

	"uptime/app/internal/models"
)

// MinutesPerDay is the length of a calendar day without a DST shift
const MinutesPerDay = 24 * 60

const (
	yearLayout = "2006"
	dateLayout = "2006-01-02"
)

// Range is the span of time a calendar has to cover
type Range struct {
	From time.Time
	To   time.Time
}

// IsZero reports whether the range covers nothing
func (r Range) IsZero() bool {
	return r.From.IsZero() && r.To.IsZero()
}

// Include widens the range so it contains t
func (r Range) Include(t time.Time) Range {
	if r.IsZero() {
		return Range{From: t, To: t}
	}
	if t.Before(r.From) {
		r.From = t
	}
	if t.After(r.To) {
		r.To = t
	}
	return r
}

// RangeOf returns the span covered by the samples and the intervals built from them
func RangeOf(samples []models.StatusSample, intervals []models.StatusInterval) Range {
	var r Range
	for _, s := range samples {
		r = r.Include(s.Time)
	}
	for _, iv := range intervals {
		r = r.Include(iv.Start).Include(iv.End)
	}
	return r
}

// Aggregate computes per-status totals over all intervals and the offline heatmap.
//
// The calendar holds every date from January 1 of the first year in span through
// December 31 of the last one, widened to include every interval. Dates are resolved
// in loc (UTC when nil). Offline intervals spanning midnight are split across the dates
// they touch; whole days in between are credited their elapsed length in loc, which is
// MinutesPerDay except on DST changes.
// Any interval ending before it starts fails the whole call.
func Aggregate(intervals []models.StatusInterval, span Range, loc *time.Location) (models.CategoryTotals, models.CalendarMap, error) {
	var totals models.CategoryTotals
	if loc == nil {
		loc = time.UTC
	}

	for i, iv := range intervals {
		if !iv.Status.Valid() {
			return models.CategoryTotals{}, nil, fmt.Errorf("%w: interval %d has status %q", ErrInvalidStatus, i, iv.Status)
		}
		if iv.End.Before(iv.Start) {
			return models.CategoryTotals{}, nil, fmt.Errorf("%w: interval %d ends at %s before its start %s",
				ErrClockSkew, i, iv.End.Format(time.RFC3339), iv.Start.Format(time.RFC3339))
		}
		totals.Add(iv.Status, iv.Minutes())
		span = span.Include(iv.Start).Include(iv.End)
	}

	if span.IsZero() {
		return totals, models.CalendarMap{}, nil
	}

	cal := newCalendar(span.From.In(loc).Year(), span.To.In(loc).Year())
	for _, iv := range intervals {
		if iv.Status != models.StatusOffline {
			continue
		}
		if err := cal.distribute(iv.Start, iv.End, loc); err != nil {
			return models.CategoryTotals{}, nil, err
		}
	}

	return totals, cal.years, nil
}

// calendar is the ordered year/date skeleton plus a date index into it
type calendar struct {
	years models.CalendarMap
	index map[string]position
}

type position struct {
	year int
	day  int
}

func newCalendar(firstYear, lastYear int) *calendar {
	c := &calendar{
		years: make(models.CalendarMap, 0, lastYear-firstYear+1),
		index: make(map[string]position, (lastYear-firstYear+1)*366),
	}
	for y := firstYear; y <= lastYear; y++ {
		day := time.Date(y, time.January, 1, 0, 0, 0, 0, time.UTC)
		yc := models.YearCalendar{
			Year: day.Format(yearLayout),
			Days: make([]models.DayMinutes, 0, 366),
		}
		for day.Year() == y {
			date := day.Format(dateLayout)
			c.index[date] = position{year: len(c.years), day: len(yc.Days)}
			yc.Days = append(yc.Days, models.DayMinutes{Date: date})
			day = day.AddDate(0, 0, 1)
		}
		c.years = append(c.years, yc)
	}
	return c
}

func (c *calendar) add(day time.Time, minutes int) error {
	date := day.Format(dateLayout)
	pos, ok := c.index[date]
	if !ok {
		return fmt.Errorf("%w: %s", ErrCalendarRange, date)
	}
	c.years[pos.year].Days[pos.day].Minutes += minutes
	return nil
}

// distribute credits an offline span to the dates it covers in loc.
// The end date receives whatever the start date and whole days did not, so the buckets
// always add up to the truncated length of the span.
func (c *calendar) distribute(start, end time.Time, loc *time.Location) error {
	day, last := midnight(start, loc), midnight(end, loc)
	total := minutesBetween(start, end)

	if day.Equal(last) {
		return c.add(day, total)
	}

	next := nextMidnight(day)
	used := minutesBetween(start, next)
	if err := c.add(day, used); err != nil {
		return err
	}
	for day = next; day.Before(last); day = next {
		next = nextMidnight(day)
		m := minutesBetween(day, next)
		if err := c.add(day, m); err != nil {
			return err
		}
		used += m
	}
	return c.add(last, total-used)
}

// midnight returns the start of t's date in loc
func midnight(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

func nextMidnight(day time.Time) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, day.Location())
}

func minutesBetween(start, end time.Time) int {
	if end.Before(start) {
		return 0
	}
	return int(end.Sub(start) / time.Minute)
}
