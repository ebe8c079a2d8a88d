package core

import "time"

// MonthRef identifies a calendar month.
type MonthRef struct {
	Year  int
	Month time.Month
}

// Prev returns the month before m.
func (m MonthRef) Prev() MonthRef {
	if m.Month == time.January {
		return MonthRef{Year: m.Year - 1, Month: time.December}
	}
	return MonthRef{Year: m.Year, Month: m.Month - 1}
}

// Next returns the month after m.
func (m MonthRef) Next() MonthRef {
	if m.Month == time.December {
		return MonthRef{Year: m.Year + 1, Month: time.January}
	}
	return MonthRef{Year: m.Year, Month: m.Month + 1}
}

// Range returns the first and last day of the month.
func (m MonthRef) Range() (Date, Date) {
	first := NewDate(m.Year, int(m.Month), 1)
	last := Date{Time: first.AddDate(0, 1, -1)}
	return first, last
}

// Weeks returns the month as Monday-first weeks. Days outside the month are
// zero Dates.
func (m MonthRef) Weeks() [][]Date {
	first, last := m.Range()
	// Monday = 0
	offset := (int(first.Weekday()) + 6) % 7

	var weeks [][]Date
	week := make([]Date, 7)
	col := offset
	for d := first; !d.After(last.Time); d = (Date{Time: d.AddDate(0, 0, 1)}) {
		week[col] = d
		col++
		if col == 7 {
			weeks = append(weeks, week)
			week = make([]Date, 7)
			col = 0
		}
	}
	if col > 0 {
		weeks = append(weeks, week)
	}
	return weeks
}
