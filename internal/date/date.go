// Package date implements the fixed-length simulation calendar. Years
// are always 365 days; there are no leap days, so a day number converts
// to a calendar date with plain integer arithmetic.
package date

import "fmt"

const (
	// TicksPerDay is the number of logic ticks that make up one in-game day.
	TicksPerDay = 96

	// BaseYear is the calendar epoch; day number zero is January 1st of it.
	BaseYear = 1800

	MonthsPerYear = 12
	DaysPerYear   = 365
)

// Month enumerates calendar months, January = 1 like time.Month.
type Month int

const (
	January Month = 1 + iota
	February
	March
	April
	May
	June
	July
	August
	September
	October
	November
	December
)

var monthNames = [MonthsPerYear]string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

func (m Month) String() string {
	if m < January || m > December {
		return fmt.Sprintf("Month(%d)", int(m))
	}
	return monthNames[m-1]
}

// QuarterStart reports whether m opens a fiscal quarter.
func (m Month) QuarterStart() bool {
	switch m {
	case January, April, July, October:
		return true
	default:
		return false
	}
}

var monthLengths = [MonthsPerYear]int{31, 28, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}

// DaysInMonth returns the length of m. Out-of-range months report zero.
func DaysInMonth(m Month) int {
	if m < January || m > December {
		return 0
	}
	return monthLengths[m-1]
}

// Season partitions the year for the world's seasonal state.
type Season int

const (
	Winter Season = iota
	Spring
	Summer
	Autumn
)

func (s Season) String() string {
	switch s {
	case Winter:
		return "winter"
	case Spring:
		return "spring"
	case Summer:
		return "summer"
	case Autumn:
		return "autumn"
	default:
		return fmt.Sprintf("Season(%d)", int(s))
	}
}

// SeasonOf maps a month onto its season.
func SeasonOf(m Month) Season {
	switch m {
	case December, January, February:
		return Winter
	case March, April, May:
		return Spring
	case June, July, August:
		return Summer
	default:
		return Autumn
	}
}

// Date is a calendar position. Day is 1-based within the month.
type Date struct {
	Year  int
	Month Month
	Day   int
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// DayOfYear returns the 1-based ordinal of d within its year.
func (d Date) DayOfYear() int {
	total := d.Day
	for m := January; m < d.Month; m++ {
		total += DaysInMonth(m)
	}
	return total
}

// FromDayNumber converts a day number (days since the epoch) to a date.
func FromDayNumber(n uint32) Date {
	year := BaseYear + int(n/DaysPerYear)
	rem := int(n % DaysPerYear)
	month := January
	for rem >= DaysInMonth(month) {
		rem -= DaysInMonth(month)
		month++
	}
	return Date{Year: year, Month: month, Day: rem + 1}
}

// DayNumber converts d back to days since the epoch. It is the inverse
// of FromDayNumber for any valid date at or after the epoch.
func (d Date) DayNumber() uint32 {
	days := (d.Year - BaseYear) * DaysPerYear
	for m := January; m < d.Month; m++ {
		days += DaysInMonth(m)
	}
	return uint32(days + d.Day - 1)
}

// DayNumberFromTicks derives the day number reached after the given
// count of logic ticks.
func DayNumberFromTicks(ticks uint32) uint32 {
	return ticks / TicksPerDay
}
