package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// StatusKind is the ternary availability state of the monitored endpoint
type StatusKind string

const (
	StatusOnline  StatusKind = "online"
	StatusOffline StatusKind = "offline"
	StatusUnknown StatusKind = "unknown"
)

// Valid reports whether s is one of the three known tokens
func (s StatusKind) Valid() bool {
	switch s {
	case StatusOnline, StatusOffline, StatusUnknown:
		return true
	}
	return false
}

// ParseStatusKind converts a stored token into a StatusKind
func ParseStatusKind(v string) (StatusKind, error) {
	s := StatusKind(v)
	if !s.Valid() {
		return "", fmt.Errorf("unknown status %q", v)
	}
	return s, nil
}

// StatusSample is one observed (status, timestamp) reading
type StatusSample struct {
	Status StatusKind `json:"status"`
	Time   time.Time  `json:"time"`
}

// StatusInterval is a span during which the status held constant
type StatusInterval struct {
	Status StatusKind `json:"status"`
	Start  time.Time  `json:"start"`
	End    time.Time  `json:"end"`
}

// Minutes returns the whole minutes covered by the interval
func (i StatusInterval) Minutes() int {
	return int(i.End.Sub(i.Start) / time.Minute)
}

// CategoryTotals holds minutes spent in each status
type CategoryTotals struct {
	Online  int `json:"online"`
	Offline int `json:"offline"`
	Unknown int `json:"unknown"`
}

// Add credits minutes to the bucket named by status
func (c *CategoryTotals) Add(status StatusKind, minutes int) {
	switch status {
	case StatusOnline:
		c.Online += minutes
	case StatusOffline:
		c.Offline += minutes
	case StatusUnknown:
		c.Unknown += minutes
	}
}

// DayMinutes is the offline minutes recorded for a single calendar date.
// It serializes as a [date, minutes] pair.
type DayMinutes struct {
	Date    string
	Minutes int
}

func (d DayMinutes) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]any{d.Date, d.Minutes})
}

func (d *DayMinutes) UnmarshalJSON(b []byte) error {
	var pair [2]json.RawMessage
	if err := json.Unmarshal(b, &pair); err != nil {
		return err
	}
	if err := json.Unmarshal(pair[0], &d.Date); err != nil {
		return err
	}
	return json.Unmarshal(pair[1], &d.Minutes)
}

// YearCalendar groups the days of one year. It serializes as [year, [[date, minutes], ...]].
type YearCalendar struct {
	Year string
	Days []DayMinutes
}

func (y YearCalendar) MarshalJSON() ([]byte, error) {
	days := y.Days
	if days == nil {
		days = []DayMinutes{}
	}
	return json.Marshal([2]any{y.Year, days})
}

func (y *YearCalendar) UnmarshalJSON(b []byte) error {
	var pair [2]json.RawMessage
	if err := json.Unmarshal(b, &pair); err != nil {
		return err
	}
	if err := json.Unmarshal(pair[0], &y.Year); err != nil {
		return err
	}
	return json.Unmarshal(pair[1], &y.Days)
}

// CalendarMap is the year -> date -> offline minutes heatmap, in chronological order
type CalendarMap []YearCalendar

func (c CalendarMap) MarshalJSON() ([]byte, error) {
	if c == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]YearCalendar(c))
}

// Total sums every bucket in the map
func (c CalendarMap) Total() int {
	sum := 0
	for _, y := range c {
		for _, d := range y.Days {
			sum += d.Minutes
		}
	}
	return sum
}

// ChartData is the payload consumed by the heatmap page
type ChartData struct {
	Chart CalendarMap    `json:"chart"`
	Count CategoryTotals `json:"count"`
}

// LastSeen is the most recent probe outcome shown on the status page
type LastSeen struct {
	Status StatusKind `json:"status"`
	Time   string     `json:"time"`
}

// LogEntry represents a persisted operational log row
type LogEntry struct {
	ID        int64  `json:"id"`
	Timestamp string `json:"timestamp"`
	Level     string `json:"level"`
	Category  string `json:"category"`
	Message   string `json:"message"`
	Details   string `json:"details"`
}
