package stratec

import (
	"fmt"
	"time"
)

// maxPackedYear is the last year whose January fits a uint32 packed date.
const maxPackedYear = 429496

// Date is a calendar date stored in the header as yyyy*10000 + mm*100 + dd.
type Date struct {
	Year  int
	Month int
	Day   int
}

// ParseDate splits a packed date into its components and checks that the
// month and day exist.
func ParseDate(packed uint32) (Date, error) {
	d := Date{
		Year:  int(packed / 10000),
		Month: int(packed / 100 % 100),
		Day:   int(packed % 100),
	}
	if !d.valid() {
		return Date{}, &DateError{Value: packed}
	}
	return d, nil
}

// Packed returns the integer encoding of d.
func (d Date) Packed() uint32 {
	return uint32(d.Year*10000 + d.Month*100 + d.Day)
}

// String formats d as yyyy-mm-dd with zero padding.
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// Time returns d as midnight UTC.
func (d Date) Time() time.Time {
	return time.Date(d.Year, time.Month(d.Month), d.Day, 0, 0, 0, 0, time.UTC)
}

func (d Date) valid() bool {
	if d.Month < 1 || d.Month > 12 || d.Day < 1 {
		return false
	}
	// time.Date normalizes overflowing days into the next month.
	t := d.Time()
	return t.Year() == d.Year && int(t.Month()) == d.Month && t.Day() == d.Day
}

// RoundToNearestMonth moves a packed date to the closest first of the month.
// A date exactly between two firsts keeps its own month.
func RoundToNearestMonth(packed uint32) (Date, error) {
	d, err := ParseDate(packed)
	if err != nil {
		return Date{}, err
	}

	this := Date{Year: d.Year, Month: d.Month, Day: 1}
	next := Date{Year: d.Year, Month: d.Month + 1, Day: 1}
	if d.Month == 12 {
		next = Date{Year: d.Year + 1, Month: 1, Day: 1}
		if next.Year > maxPackedYear {
			return Date{}, &DateError{Value: packed}
		}
	}

	t := d.Time()
	if daysBetween(t, next.Time()) < daysBetween(this.Time(), t) {
		return next, nil
	}
	return this, nil
}

func daysBetween(from, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}
