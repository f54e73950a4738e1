package domain

import (
	"fmt"
	"strings"
	"time"
)

// DayGroup is a run of entries that share a local calendar date.
type DayGroup struct {
	Title   string  `json:"title"`
	Date    string  `json:"date"` // YYYY-MM-DD
	Entries Entries `json:"data"`
}

var monthNames = map[string][12]string{
	"en": {"January", "February", "March", "April", "May", "June",
		"July", "August", "September", "October", "November", "December"},
	"tr": {"Ocak", "Şubat", "Mart", "Nisan", "Mayıs", "Haziran",
		"Temmuz", "Ağustos", "Eylül", "Ekim", "Kasım", "Aralık"},
}

// DefaultLocale is used for unknown locales.
const DefaultLocale = "en"

// SupportedLocale reports whether day titles can be rendered in locale.
func SupportedLocale(locale string) bool {
	_, ok := monthNames[strings.ToLower(locale)]
	return ok
}

// DayTitle renders t as "DD Month YYYY".
func DayTitle(t time.Time, locale string) string {
	names, ok := monthNames[strings.ToLower(locale)]
	if !ok {
		names = monthNames[DefaultLocale]
	}
	return fmt.Sprintf("%02d %s %d", t.Day(), names[t.Month()-1], t.Year())
}

// GroupByDay partitions entries by local date in loc. Groups appear in the
// order their date is first met while scanning entries; inside a group the
// collection order is kept. Nothing is re-sorted.
func GroupByDay(entries Entries, loc *time.Location, locale string) []DayGroup {
	groups := make([]DayGroup, 0)
	pos := make(map[string]int)

	for _, e := range entries {
		t := e.Time(loc)
		key := t.Format("2006-01-02")

		i, ok := pos[key]
		if !ok {
			i = len(groups)
			pos[key] = i
			groups = append(groups, DayGroup{
				Title: DayTitle(t, locale),
				Date:  key,
			})
		}
		groups[i].Entries = append(groups[i].Entries, e.Clone())
	}
	return groups
}
