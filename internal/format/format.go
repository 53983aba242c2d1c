// Package format renders deposit values the way the dashboard shows them.
package format

import (
	"fmt"
	"strconv"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	dateLayout  = "Jan 2, 2006"
	invalidDate = "Invalid Date"
)

var dateInputLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Volume renders milliliters, switching to liters from 1000ml up.
func Volume(ml int64) string {
	if ml >= 1000 {
		return strconv.FormatFloat(float64(ml)/1000, 'f', -1, 64) + "L"
	}
	return strconv.FormatInt(ml, 10) + "ml"
}

// Deposit renders an amount in minor currency units as dollars with two decimals.
func Deposit(minor int64) string {
	return fmt.Sprintf("$%.2f", float64(minor)/100)
}

// Date renders an ISO-8601 timestamp as "Jan 5, 2024" on the UTC calendar.
func Date(iso string) string {
	for _, layout := range dateInputLayouts {
		if t, err := time.Parse(layout, iso); err == nil {
			return DateTime(t)
		}
	}
	return invalidDate
}

func DateTime(t time.Time) string {
	if t.IsZero() {
		return invalidDate
	}
	return t.UTC().Format(dateLayout)
}

// Capitalize upper-cases the first letter and leaves the rest untouched.
func Capitalize(s string) string {
	if s == "" {
		return s
	}
	// Casers are stateful, one per call.
	caser := cases.Title(language.English)
	for i := range s {
		if i == 0 {
			continue
		}
		return caser.String(s[:i]) + s[i:]
	}
	return caser.String(s)
}

func PageLabel(current, total int) string {
	return fmt.Sprintf("Page %d of %d", current, total)
}
