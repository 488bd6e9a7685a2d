package cli

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strconv"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"studypilot/internal/model"
)

const maxCredits = 100

func newDashboardCommand(env *cmdEnv) *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Show quiz statistics and recent attempts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, env, func(ctx context.Context, a *app) error {
				stats, err := a.client.Analytics(ctx)
				if err != nil {
					return fmt.Errorf("analytics: %w", err)
				}
				stats.RecentAttempts = chronological(stats.RecentAttempts)
				if env.opts.jsonOut {
					return printJSON(env.io.out, stats)
				}
				printDashboard(env.io.out, stats)
				return nil
			})
		},
	}
}

// chronological reverses the newest-first list the backend returns.
func chronological(attempts []model.QuizAttempt) []model.QuizAttempt {
	out := slices.Clone(attempts)
	slices.Reverse(out)
	if out == nil {
		out = []model.QuizAttempt{}
	}
	return out
}

func formatStudyTime(seconds int) string {
	if seconds <= 0 {
		return "0m"
	}
	return strconv.Itoa(seconds/60) + "m"
}

func printDashboard(w io.Writer, a model.Analytics) {
	cards := []string{
		statCard("Quizzes taken", strconv.Itoa(a.Stats.TotalQuizzes)),
		statCard("Average score", fmt.Sprintf("%.0f%%", a.Stats.AverageScore)),
		statCard("Study time", formatStudyTime(a.Stats.TotalStudyTime)),
	}
	fmt.Fprintln(w, uiTitleStyle.Render("Dashboard"))
	fmt.Fprintln(w, lipgloss.JoinHorizontal(lipgloss.Top, cards...))

	if len(a.RecentAttempts) == 0 {
		fmt.Fprintln(w, uiMutedStyle.Render("No quiz attempts yet. Take one with: studypilot quiz"))
		return
	}
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(uiMutedStyle).
		Headers("When", "Difficulty", "Score", "Percent", "Time").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return uiTitleStyle.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})
	for _, at := range a.RecentAttempts {
		t.Row(
			formatAttemptDate(at.CreatedAt),
			at.Difficulty,
			fmt.Sprintf("%d/%d", at.Score, at.TotalQuestions),
			strconv.Itoa(at.Percentage)+"%",
			formatStudyTime(at.TimeTakenSeconds),
		)
	}
	fmt.Fprintln(w, t.Render())
}

func statCard(label, value string) string {
	return uiPanelStyle.Width(20).Render(uiMutedStyle.Render(label) + "\n" + uiOKStyle.Render(value))
}

func formatAttemptDate(raw string) string {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Local().Format("Jan 2 15:04")
		}
	}
	return raw
}

func newCreditsCommand(env *cmdEnv) *cobra.Command {
	return &cobra.Command{
		Use:   "credits",
		Short: "Show the remaining generation credits",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, env, func(ctx context.Context, a *app) error {
				c, err := a.client.Credits(ctx)
				if err != nil {
					return fmt.Errorf("credits: %w", err)
				}
				if env.opts.jsonOut {
					return printJSON(env.io.out, c)
				}
				fmt.Fprintln(env.io.out, creditsBar(c.Credits))
				return nil
			})
		},
	}
}

// creditsBar renders the balance against a 100 credit scale; red at 30
// and below, yellow up to 60.
func creditsBar(credits int) string {
	color := "42"
	switch {
	case credits <= 30:
		color = "203"
	case credits <= 60:
		color = "220"
	}
	bar := progress.New(progress.WithSolidFill(color), progress.WithoutPercentage(), progress.WithWidth(30))
	frac := float64(clampInt(credits, 0, maxCredits)) / maxCredits
	return fmt.Sprintf("credits: %d %s", credits, bar.ViewAs(frac))
}
