package market_hours

import (
	"sort"
	"time"
)

// Holiday is a full-day US equity market closure
type Holiday struct {
	Name string    `json:"name"`
	Date time.Time `json:"date"`
}

// CalculateEaster returns Easter Sunday (Gregorian computus) for year
func CalculateEaster(year int) time.Time {
	// Golden Number (position in 19-year Metonic cycle)
	a := year % 19

	b := year / 100
	c := year % 100

	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451

	month := (h + l - 7*m + 114) / 31
	day := ((h + l - 7*m + 114) % 31) + 1

	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

// findNthWeekday finds the nth occurrence of a weekday in a given month/year
// n: 1 = first, 2 = second, etc.
func findNthWeekday(year, month int, weekday time.Weekday, n int) time.Time {
	date := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)

	daysToAdd := int(weekday - date.Weekday())
	if daysToAdd < 0 {
		daysToAdd += 7
	}
	return date.AddDate(0, 0, daysToAdd+(n-1)*7)
}

// findLastWeekday finds the last occurrence of a weekday in a given month/year
func findLastWeekday(year, month int, weekday time.Weekday) time.Time {
	date := time.Date(year, time.Month(month+1), 0, 0, 0, 0, 0, time.UTC)

	daysToSubtract := int(date.Weekday() - weekday)
	if daysToSubtract < 0 {
		daysToSubtract += 7
	}
	return date.AddDate(0, 0, -daysToSubtract)
}

// observeOnWeekday moves a date to the nearest weekday if it falls on a weekend
// Saturday -> Friday, Sunday -> Monday
func observeOnWeekday(date time.Time) time.Time {
	switch date.Weekday() {
	case time.Saturday:
		return date.AddDate(0, 0, -1)
	case time.Sunday:
		return date.AddDate(0, 0, 1)
	default:
		return date
	}
}

// CalculateUSHolidays returns the NYSE full-day closures for year in date order.
// A New Year's Day falling on Saturday is not observed on the preceding Friday.
func CalculateUSHolidays(year int) []Holiday {
	holidays := make([]Holiday, 0, 10)

	newYear := time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC)
	if newYear.Weekday() != time.Saturday {
		holidays = append(holidays, Holiday{"New Year's Day", observeOnWeekday(newYear)})
	}

	holidays = append(holidays,
		Holiday{"Martin Luther King Jr. Day", findNthWeekday(year, 1, time.Monday, 3)},
		Holiday{"Presidents Day", findNthWeekday(year, 2, time.Monday, 3)},
		Holiday{"Good Friday", CalculateEaster(year).AddDate(0, 0, -2)},
		Holiday{"Memorial Day", findLastWeekday(year, 5, time.Monday)},
	)

	// Juneteenth has been a market holiday since 2022
	if year >= 2022 {
		juneteenth := time.Date(year, 6, 19, 0, 0, 0, 0, time.UTC)
		holidays = append(holidays, Holiday{"Juneteenth", observeOnWeekday(juneteenth)})
	}

	independenceDay := time.Date(year, 7, 4, 0, 0, 0, 0, time.UTC)
	christmas := time.Date(year, 12, 25, 0, 0, 0, 0, time.UTC)

	holidays = append(holidays,
		Holiday{"Independence Day", observeOnWeekday(independenceDay)},
		Holiday{"Labor Day", findNthWeekday(year, 9, time.Monday, 1)},
		Holiday{"Thanksgiving", findNthWeekday(year, 11, time.Thursday, 4)},
		Holiday{"Christmas", observeOnWeekday(christmas)},
	)

	sort.Slice(holidays, func(i, j int) bool { return holidays[i].Date.Before(holidays[j].Date) })
	return holidays
}

// isEarlyClose reports the 13:00 ET half days: the day after Thanksgiving,
// and July 3 or December 24 when they fall on a weekday.
func isEarlyClose(date time.Time) bool {
	if date.Weekday() == time.Saturday || date.Weekday() == time.Sunday {
		return false
	}
	switch {
	case date.Month() == time.July && date.Day() == 3:
		return true
	case date.Month() == time.December && date.Day() == 24:
		return true
	case date.Month() == time.November:
		dayAfter := findNthWeekday(date.Year(), 11, time.Thursday, 4).AddDate(0, 0, 1)
		return date.Day() == dayAfter.Day()
	}
	return false
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}
