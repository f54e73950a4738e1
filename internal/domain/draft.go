package domain

import (
	"math"
	"strings"
)

// MealSeparator joins the items of a composite meal.
const MealSeparator = ", "

// Draft is what an entry form collects before it becomes an Entry.
type Draft struct {
	// Meals already confirmed by the user, in order.
	Meals []string
	// Pending is meal text typed but not yet confirmed. It is kept when
	// non-blank, like pressing save with text still in the input.
	Pending  string
	Symptoms []string
	// Severity comes from a slider and is quantized on Build.
	Severity float64
	Notes    string
}

// MealItems returns the trimmed, non-blank meal items including Pending.
func (d Draft) MealItems() []string {
	items := make([]string, 0, len(d.Meals)+1)
	for _, m := range append(append([]string(nil), d.Meals...), d.Pending) {
		if m = strings.TrimSpace(m); m != "" {
			items = append(items, m)
		}
	}
	return items
}

// Build turns the draft into an entry without id or timestamp.
func (d Draft) Build() (Entry, error) {
	items := d.MealItems()
	if len(items) == 0 {
		return Entry{}, ErrNoMeal
	}
	return Entry{
		Meal:     JoinMeal(items),
		Symptoms: uniqueSymptoms(d.Symptoms),
		Severity: QuantizeSeverity(d.Severity),
		Notes:    strings.TrimSpace(d.Notes),
	}, nil
}

// ApplyDraft returns existing with the draft's content; id and timestamp are
// kept.
func ApplyDraft(existing Entry, d Draft) (Entry, error) {
	built, err := d.Build()
	if err != nil {
		return Entry{}, err
	}
	built.ID = existing.ID
	built.Timestamp = existing.Timestamp
	return built, nil
}

// DraftFrom prefills a draft for editing e.
func DraftFrom(e Entry) Draft {
	return Draft{
		Meals:    SplitMeal(e.Meal),
		Symptoms: append([]string{}, e.Symptoms...),
		Severity: float64(e.Severity),
		Notes:    e.Notes,
	}
}

// QuantizeSeverity rounds a slider value and clamps it to the valid range.
func QuantizeSeverity(v float64) int {
	if math.IsNaN(v) {
		return MinSeverity
	}
	r := int(math.Round(v))
	switch {
	case r < MinSeverity:
		return MinSeverity
	case r > MaxSeverity:
		return MaxSeverity
	}
	return r
}

func JoinMeal(items []string) string {
	return strings.Join(items, MealSeparator)
}

func SplitMeal(meal string) []string {
	if strings.TrimSpace(meal) == "" {
		return []string{}
	}
	return strings.Split(meal, MealSeparator)
}

// ToggleSymptom adds s when absent and removes it when present.
func ToggleSymptom(selected []string, s string) []string {
	out := make([]string, 0, len(selected)+1)
	found := false
	for _, cur := range selected {
		if cur == s {
			found = true
			continue
		}
		out = append(out, cur)
	}
	if !found {
		out = append(out, s)
	}
	return out
}

func uniqueSymptoms(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
