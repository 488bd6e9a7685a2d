package cli

import (
	"context"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"studypilot/internal/settings"
)

// Commands annotated with annotationCreditsHint spend generation credits
// and may print the low-credit notice after they succeed.
const annotationCreditsHint = "studypilot/credits-hint"

type rootOptions struct {
	configPath string
	jsonOut    bool
	verbose    bool
	plain      bool
}

type streams struct {
	in     io.Reader
	out    io.Writer
	errOut io.Writer
	// interactive enables the full-screen views; it requires a TTY on both ends.
	interactive bool
}

func Run(args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return execute(ctx, args, streams{
		in:          os.Stdin,
		out:         os.Stdout,
		errOut:      os.Stderr,
		interactive: stdinIsTTY() && stdoutIsTTY(),
	})
}

func execute(ctx context.Context, args []string, s streams) error {
	opts := &rootOptions{}
	root := newRootCommand(opts, s)
	root.SetArgs(args)
	root.SetIn(s.in)
	root.SetOut(s.out)
	root.SetErr(s.errOut)
	return root.ExecuteContext(ctx)
}

func newRootCommand(opts *rootOptions, s streams) *cobra.Command {
	root := &cobra.Command{
		Use:   "studypilot",
		Short: "studypilot: AI study companion for uploaded documents",
		Long: `studypilot turns an uploaded video or PDF into flashcards, quizzes, mind maps,
summaries and learning paths, and lets you chat about it.

Quick Start:
  studypilot upload youtube <url>
  studypilot flashcards
  studypilot quiz --exam

Use --json on commands for machine-readable output.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", settings.DefaultConfigPath, "settings file path")
	root.PersistentFlags().BoolVar(&opts.jsonOut, "json", false, "print JSON output")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log to stderr")
	root.PersistentFlags().BoolVar(&opts.plain, "plain", false, "disable full-screen views")

	env := &cmdEnv{opts: opts, io: s}
	root.AddCommand(newUploadCommand(env))
	root.AddCommand(newLibraryCommand(env))
	root.AddCommand(newFlashcardsCommand(env))
	root.AddCommand(newQuizCommand(env))
	root.AddCommand(newSummaryCommand(env))
	root.AddCommand(newNotesCommand(env))
	root.AddCommand(newMindMapCommand(env))
	root.AddCommand(newChatCommand(env))
	root.AddCommand(newPathCommand(env))
	root.AddCommand(newDashboardCommand(env))
	root.AddCommand(newCreditsCommand(env))
	root.AddCommand(newSettingsCommand(env))
	root.AddCommand(newDoctorCommand(env))
	root.AddCommand(newLogsCommand(env))
	return root
}

// cmdEnv is shared by every command constructor.
type cmdEnv struct {
	opts *rootOptions
	io   streams
}

func (e *cmdEnv) tui() bool {
	return e.io.interactive && !e.opts.plain && !e.opts.jsonOut
}

func creditsHint(cmd *cobra.Command) *cobra.Command {
	if cmd.Annotations == nil {
		cmd.Annotations = map[string]string{}
	}
	cmd.Annotations[annotationCreditsHint] = "true"
	return cmd
}
