package causelist

import (
	"regexp"
	"strconv"
)

// DateLayout is the textual date format accepted by the form, DD-MM-YYYY.
const DateLayout = "02-01-2006"

var datePattern = regexp.MustCompile(`^(\d{2})-(\d{2})-(\d{4})$`)

var monthLengths = [12]int{31, 28, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}

// IsValidDate reports whether s is a DD-MM-YYYY date naming a real calendar day.
func IsValidDate(s string) bool {
	m := datePattern.FindStringSubmatch(s)
	if m == nil {
		return false
	}

	day, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	year, _ := strconv.Atoi(m[3])

	if month < 1 || month > 12 {
		return false
	}
	return day >= 1 && day <= DaysInMonth(month, year)
}

// DaysInMonth returns the number of days in month (1-12) of year.
func DaysInMonth(month, year int) int {
	if month == 2 && IsLeapYear(year) {
		return 29
	}
	return monthLengths[month-1]
}

// IsLeapYear applies the Gregorian rule.
func IsLeapYear(year int) bool {
	return year%400 == 0 || (year%4 == 0 && year%100 != 0)
}
