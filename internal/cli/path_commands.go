package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"studypilot/internal/model"
	"studypilot/internal/subject"
	"studypilot/internal/view"
)

var errNoPath = errors.New("no learning path yet; create one with: studypilot path generate --goal <goal> --days <n>")

func newPathCommand(env *cmdEnv) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "path",
		Aliases: []string{"learning-path"},
		Short:   "Plan and track a day-by-day learning path",
	}

	var (
		goal string
		days int
	)
	generate := &cobra.Command{
		Use:     "generate",
		Short:   "Generate a new learning path and make it current",
		Example: `  studypilot path generate --goal "Learn linear algebra" --days 14`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(goal) == "" {
				var err error
				goal, err = promptRequired(env.io.in, env.io.out, "goal")
				if err != nil {
					return err
				}
			}
			if days <= 0 {
				return fmt.Errorf("--days must be >= 1")
			}
			req := model.GenerationRequest{
				Kind:   model.KindLearningPath,
				Params: model.GenerationParams{Goal: strings.TrimSpace(goal), Days: days},
			}
			return withApp(cmd, env, func(ctx context.Context, a *app) error {
				snap, err := a.generate(ctx, req, "learning path")
				if err != nil {
					return err
				}
				res, err := model.DecodePayload[model.PathGenerated](snap)
				if err != nil {
					return err
				}
				path := res.Data
				if path.ID == "" {
					path.ID = res.PathID
				}
				if path.Goal == "" {
					path.Goal = req.Params.Goal
				}
				if path.ID == "" {
					return fmt.Errorf("learning path: backend returned no path_id")
				}
				if err := a.subjects.Remember(ctx, model.KindLearningPath, path.ID); err != nil {
					return err
				}
				a.logger.Info("learning path created", zap.String("path_id", path.ID), zap.Int("days", len(path.Roadmap.Days)))
				if env.opts.jsonOut {
					return printJSON(env.io.out, path)
				}
				printRoadmap(env.io.out, path)
				return nil
			})
		},
	}
	generate.Flags().StringVar(&goal, "goal", "", "what you want to learn")
	generate.Flags().IntVar(&days, "days", 7, "number of days")
	cmd.AddCommand(creditsHint(generate))

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the current learning path; in a terminal, tick off days",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, env, func(ctx context.Context, a *app) error {
				path, err := a.loadCurrentPath(ctx)
				if err != nil {
					return err
				}
				if env.opts.jsonOut {
					return printJSON(env.io.out, path)
				}
				if env.tui() {
					return a.runPathView(ctx, path)
				}
				printRoadmap(env.io.out, path)
				return nil
			})
		},
	})

	var undo bool
	complete := &cobra.Command{
		Use:   "complete <day>",
		Short: "Mark a day as completed (or not, with --undo)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			day, err := strconv.Atoi(strings.TrimSpace(args[0]))
			if err != nil || day <= 0 {
				return fmt.Errorf("day must be a positive number, got %q", args[0])
			}
			return withApp(cmd, env, func(ctx context.Context, a *app) error {
				path, err := a.loadCurrentPath(ctx)
				if err != nil {
					return err
				}
				updated, err := a.setDayCompleted(ctx, path, day, !undo)
				if err != nil {
					if !env.opts.jsonOut {
						printRoadmap(env.io.out, updated)
					}
					return err
				}
				if env.opts.jsonOut {
					return printJSON(env.io.out, updated)
				}
				printRoadmap(env.io.out, updated)
				return nil
			})
		},
	}
	complete.Flags().BoolVar(&undo, "undo", false, "mark the day as not completed")
	cmd.AddCommand(complete)

	cmd.AddCommand(&cobra.Command{
		Use:   "reset",
		Short: "Forget the current learning path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, env, func(ctx context.Context, a *app) error {
				if err := a.subjects.Forget(ctx, model.KindLearningPath); err != nil {
					return err
				}
				if env.opts.jsonOut {
					return printJSON(env.io.out, map[string]bool{"reset": true})
				}
				fmt.Fprintln(env.io.out, "learning path cleared; generate a new one with: studypilot path generate")
				return nil
			})
		},
	})
	return cmd
}

// loadCurrentPath fetches the stored path. A path the backend no longer
// returns is forgotten so the next run starts clean.
func (a *app) loadCurrentPath(ctx context.Context) (model.LearningPath, error) {
	id, err := a.subjects.Resolve(ctx, model.KindLearningPath)
	if errors.Is(err, subject.ErrNotFound) {
		return model.LearningPath{}, errNoPath
	}
	if err != nil {
		return model.LearningPath{}, err
	}
	path, err := a.client.GetPath(ctx, id)
	if err != nil {
		if ctx.Err() == nil {
			if ferr := a.subjects.Forget(ctx, model.KindLearningPath); ferr != nil {
				a.logger.Warn("could not clear stale learning path", zap.String("path_id", id), zap.Error(ferr))
			}
			a.logger.Info("stale learning path cleared", zap.String("path_id", id), zap.Error(err))
		}
		return model.LearningPath{}, fmt.Errorf("load learning path %s: %w", id, err)
	}
	if path.ID == "" {
		path.ID = id
	}
	return path, nil
}

// setDayCompleted applies the change locally first and sends it. When the
// update fails the returned path is the unchanged original.
func (a *app) setDayCompleted(ctx context.Context, path model.LearningPath, day int, completed bool) (model.LearningPath, error) {
	optimistic, err := withDayCompleted(path, day, completed)
	if err != nil {
		return path, err
	}
	roadmap, err := a.client.CompletePathDay(ctx, path.ID, day, completed)
	if err != nil {
		a.logger.Warn("day update reverted", zap.String("path_id", path.ID), zap.Int("day", day), zap.Error(err))
		return path, fmt.Errorf("day %d not updated: %w", day, err)
	}
	if len(roadmap.Days) > 0 {
		optimistic.Roadmap = roadmap
	}
	return optimistic, nil
}

func withDayCompleted(path model.LearningPath, day int, completed bool) (model.LearningPath, error) {
	days := make([]model.RoadmapDay, len(path.Roadmap.Days))
	copy(days, path.Roadmap.Days)
	for i := range days {
		if days[i].Day == day {
			days[i].Completed = completed
			path.Roadmap.Days = days
			return path, nil
		}
	}
	return path, fmt.Errorf("day %d is not in this learning path (1-%d)", day, len(days))
}

func printRoadmap(w io.Writer, path model.LearningPath) {
	progress := view.PathProgress(path.Roadmap.Days)
	fmt.Fprintln(w, uiTitleStyle.Render(path.Goal))
	fmt.Fprintf(w, "path: %s  progress: %d/%d days (%d%%)\n", path.ID, progress.Done, progress.Total, progress.Percent())
	for _, d := range path.Roadmap.Days {
		mark := " "
		if d.Completed {
			mark = "x"
		}
		fmt.Fprintf(w, "[%s] day %d: %s\n", mark, d.Day, d.Topic)
		if desc := strings.TrimSpace(d.Description); desc != "" {
			fmt.Fprintf(w, "      %s\n", desc)
		}
	}
}
