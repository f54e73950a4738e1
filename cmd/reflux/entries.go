package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/reflux/internal/app"
	"github.com/MrSnakeDoc/reflux/internal/catalog"
	"github.com/MrSnakeDoc/reflux/internal/domain"
)

// entryFlags are shared by add and edit.
type entryFlags struct {
	meals    []string
	symptoms []string
	severity float64
	notes    string
}

func (f *entryFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringArrayVarP(&f.meals, "meal", "m", nil, "what you ate, repeat for several items")
	cmd.Flags().StringArrayVarP(&f.symptoms, "symptom", "s", nil, "a symptom you felt, repeat for several")
	cmd.Flags().Float64Var(&f.severity, "severity", float64(domain.MinSeverity), "severity from 1 to 5")
	cmd.Flags().StringVarP(&f.notes, "notes", "n", "", "free-form notes")
}

func canonicalSymptoms(s *app.Session, in []string) []string {
	out := make([]string, 0, len(in))
	for _, name := range in {
		canonical, _ := s.Catalog.Get().Canonical(name)
		out = append(out, canonical)
	}
	return out
}

func newAddCmd(c *cli) *cobra.Command {
	var f entryFlags

	cmd := &cobra.Command{
		Use:   "add [meal...]",
		Short: "Record a meal and the symptoms that followed",
		Example: `  reflux add --meal Coffee --meal Pizza --symptom Heartburn --severity 4
  reflux add "Tomato soup" -s Cough --severity 2`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withSession(cmd.Context(), func(s *app.Session) error {
				e, err := s.Journal.Create(domain.Draft{
					Meals:    append(append([]string{}, f.meals...), args...),
					Symptoms: canonicalSymptoms(s, f.symptoms),
					Severity: f.severity,
					Notes:    f.notes,
				})
				if err != nil {
					return err
				}
				if err := s.Persist(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✅ Added %s\n", e.ID)
				renderEntry(cmd.OutOrStdout(), e, c.cfg.Location)
				return nil
			})
		},
	}
	f.bind(cmd)
	return cmd
}

func newEditCmd(c *cli) *cobra.Command {
	var (
		f      entryFlags
		toggle []string
	)

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change an entry; flags not given keep their value",
		Example: `  reflux edit <id> --severity 2
  reflux edit <id> --toggle Cough --toggle Heartburn`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withSession(cmd.Context(), func(s *app.Session) error {
				existing, ok := s.Journal.Get(args[0])
				if !ok {
					return fmt.Errorf("no entry with id %q", args[0])
				}

				d := domain.DraftFrom(existing)
				flags := cmd.Flags()
				if flags.Changed("meal") {
					d.Meals = f.meals
				}
				if flags.Changed("symptom") {
					d.Symptoms = canonicalSymptoms(s, f.symptoms)
				}
				for _, sym := range canonicalSymptoms(s, toggle) {
					d.Symptoms = domain.ToggleSymptom(d.Symptoms, sym)
				}
				if flags.Changed("severity") {
					d.Severity = f.severity
				}
				if flags.Changed("notes") {
					d.Notes = f.notes
				}

				updated, err := domain.ApplyDraft(existing, d)
				if err != nil {
					return err
				}
				if err := s.Journal.UpdateEntry(updated); err != nil {
					return err
				}
				if err := s.Persist(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✅ Updated %s\n", updated.ID)
				renderEntry(cmd.OutOrStdout(), updated, c.cfg.Location)
				return nil
			})
		},
	}
	f.bind(cmd)
	cmd.Flags().StringArrayVarP(&toggle, "toggle", "t", nil, "add a symptom if absent or remove it if present, repeatable")
	return cmd
}

func newDeleteCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete an entry",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withSession(cmd.Context(), func(s *app.Session) error {
				if _, ok := s.Journal.Get(args[0]); !ok {
					return fmt.Errorf("no entry with id %q", args[0])
				}
				if err := s.Journal.DeleteEntry(args[0]); err != nil {
					return err
				}
				if err := s.Persist(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "🗑️  Deleted %s\n", args[0])
				return nil
			})
		},
	}
}

func newListCmd(c *cli) *cobra.Command {
	var (
		limit  int
		locale string
		tz     string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "Show the journal grouped by day, newest first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			loc := c.cfg.Location
			if tz != "" {
				l, err := time.LoadLocation(tz)
				if err != nil {
					return fmt.Errorf("unknown timezone %q: %w", tz, err)
				}
				loc = l
			}
			if locale == "" {
				locale = c.cfg.Locale
			}
			locale = strings.ToLower(locale)
			if !domain.SupportedLocale(locale) {
				return fmt.Errorf("unsupported locale %q", locale)
			}

			return c.withSession(cmd.Context(), func(s *app.Session) error {
				entries := s.Journal.Entries()
				if limit > 0 && limit < len(entries) {
					entries = entries[:limit]
				}
				days := domain.GroupByDay(entries, loc, locale)

				out := cmd.OutOrStdout()
				if asJSON {
					enc := json.NewEncoder(out)
					enc.SetIndent("", "  ")
					return enc.Encode(days)
				}
				if len(days) == 0 {
					fmt.Fprintln(out, "No entries yet. Add one with: reflux add --meal <what you ate>")
					return nil
				}
				renderDays(out, days, loc)
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "l", 0, "show only the newest N entries")
	cmd.Flags().StringVar(&locale, "locale", "", "month names for day titles (en, tr)")
	cmd.Flags().StringVar(&tz, "tz", "", "timezone used to split days")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of text")
	return cmd
}

func newSymptomsCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "symptoms",
		Short: "List the predefined symptoms",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := catalog.Load(c.cfg.SymptomsFile)
			if err != nil {
				return err
			}
			for _, sym := range cat.All() {
				if sym.Label != "" {
					fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", sym.Name, mutedStyle.Render(sym.Label))
					continue
				}
				fmt.Fprintln(cmd.OutOrStdout(), sym.Name)
			}
			return nil
		},
	}
}
