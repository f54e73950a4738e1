package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/MrSnakeDoc/reflux/internal/domain"
)

var (
	dayStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#2196F3"))
	mutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#8a8f98"))
	symptomStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFC107"))
	severityStyle = []lipgloss.Style{
		lipgloss.NewStyle().Foreground(lipgloss.Color("#8BC34A")),
		lipgloss.NewStyle().Foreground(lipgloss.Color("#CDDC39")),
		lipgloss.NewStyle().Foreground(lipgloss.Color("#FFC107")),
		lipgloss.NewStyle().Foreground(lipgloss.Color("#FF8A65")),
		lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#e53935")),
	}
)

// severityBar draws the severity as filled dots, e.g. "●●●○○".
func severityBar(severity int) string {
	n := domain.QuantizeSeverity(float64(severity))
	bar := strings.Repeat("●", n) + strings.Repeat("○", domain.MaxSeverity-n)
	return severityStyle[n-1].Render(bar)
}

func renderEntry(w io.Writer, e domain.Entry, loc *time.Location) {
	fmt.Fprintf(w, "  %s  %s  %s  %s\n",
		mutedStyle.Render(e.Time(loc).Format("15:04")),
		severityBar(e.Severity),
		e.Meal,
		mutedStyle.Render("("+e.ID+")"))
	if len(e.Symptoms) > 0 {
		fmt.Fprintf(w, "         %s\n", symptomStyle.Render(strings.Join(e.Symptoms, " · ")))
	}
	if e.Notes != "" {
		fmt.Fprintf(w, "         %s\n", mutedStyle.Render(e.Notes))
	}
}

func renderDays(w io.Writer, days []domain.DayGroup, loc *time.Location) {
	for i, day := range days {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "%s %s\n", dayStyle.Render(day.Title),
			mutedStyle.Render(fmt.Sprintf("(%d)", len(day.Entries))))
		for _, e := range day.Entries {
			renderEntry(w, e, loc)
		}
	}
}
