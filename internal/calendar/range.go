package calendar

import (
	"fmt"
	"time"

	"github.com/periolifts/periolifts/internal/workouts"
)

// Period is a named calendar range relative to a reference instant.
type Period string

const (
	PeriodWeek    Period = "week"
	PeriodMonth   Period = "month"
	PeriodQuarter Period = "quarter"
	PeriodYear    Period = "year"
)

func (p Period) IsValid() bool {
	switch p {
	case PeriodWeek, PeriodMonth, PeriodQuarter, PeriodYear:
		return true
	default:
		return false
	}
}

// DateRange is an inclusive [Start, End] interval, Start <= End always.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func NewDateRange(start, end time.Time) (DateRange, error) {
	if start.After(end) {
		return DateRange{}, fmt.Errorf("range start %s after end %s", start, end)
	}
	return DateRange{Start: start, End: end}, nil
}

func (r DateRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

// RangeFor returns the range from the start of the given period up to the
// reference instant. The range never extends into the future: End is always
// the reference itself.
func RangeFor(period Period, ref time.Time) (DateRange, error) {
	var start time.Time
	switch period {
	case PeriodWeek:
		// week starts on Monday
		daysBack := int(ref.Weekday()) - 1
		if daysBack < 0 {
			daysBack = 6 // Sunday
		}
		monday := ref.AddDate(0, 0, -daysBack)
		start = time.Date(monday.Year(), monday.Month(), monday.Day(), 0, 0, 0, 0, ref.Location())
	case PeriodMonth:
		start = time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, ref.Location())
	case PeriodQuarter:
		quarterStartMonth := time.Month(((int(ref.Month())-1)/3)*3 + 1)
		start = time.Date(ref.Year(), quarterStartMonth, 1, 0, 0, 0, 0, ref.Location())
	case PeriodYear:
		start = time.Date(ref.Year(), time.January, 1, 0, 0, 0, 0, ref.Location())
	default:
		return DateRange{}, fmt.Errorf("unknown period: %s", period)
	}

	return NewDateRange(start, ref)
}

// Day is a calendar date with the time of day discarded,
// used as the bucketing key.
type Day struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
	Day   int        `json:"day"`
}

func DayOf(t time.Time) Day {
	return Day{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

func (d Day) Time(loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

func (d Day) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// BucketByDay groups workouts by their calendar day for calendar-view
// display. The bucketing date is the completion date when present, else the
// scheduled date. Workouts without any usable date are skipped.
func BucketByDay(records []workouts.Workout) map[Day][]workouts.Workout {
	buckets := make(map[Day][]workouts.Workout)
	for _, w := range records {
		date := w.ScheduledAt
		if w.CompletedAt != nil {
			date = *w.CompletedAt
		}
		if date.IsZero() {
			continue
		}
		day := DayOf(date)
		buckets[day] = append(buckets[day], w)
	}
	return buckets
}
