package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"studypilot/internal/model"
	"studypilot/internal/statestore"
)

type generateFlags struct {
	documentID string
	difficulty string
	adaptive   bool
}

func (f *generateFlags) bind(cmd *cobra.Command, withDifficulty bool) {
	cmd.Flags().StringVar(&f.documentID, "document", "", "document id (default: the active document)")
	if withDifficulty {
		cmd.Flags().StringVar(&f.difficulty, "difficulty", model.DefaultDifficulty, "difficulty: easy|medium|hard")
		cmd.Flags().BoolVar(&f.adaptive, "adaptive", false, "adapt to previous quiz results")
	}
}

func (f generateFlags) request(kind model.ArtifactKind) (model.GenerationRequest, error) {
	switch d := strings.ToLower(strings.TrimSpace(f.difficulty)); d {
	case "", "easy", "medium", "hard":
	default:
		return model.GenerationRequest{}, fmt.Errorf("--difficulty must be easy, medium or hard (got %q)", f.difficulty)
	}
	return model.GenerationRequest{
		Kind:      kind,
		SubjectID: strings.TrimSpace(f.documentID),
		Params: model.GenerationParams{
			Difficulty: strings.ToLower(strings.TrimSpace(f.difficulty)),
			Adaptive:   f.adaptive,
		},
	}, nil
}

func newFlashcardsCommand(env *cmdEnv) *cobra.Command {
	var flags generateFlags
	cmd := &cobra.Command{
		Use:   "flashcards",
		Short: "Generate flashcards for the active document",
		Example: `  studypilot flashcards
  studypilot flashcards --difficulty hard --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := flags.request(model.KindFlashcards)
			if err != nil {
				return err
			}
			return withApp(cmd, env, func(ctx context.Context, a *app) error {
				snap, err := a.generate(ctx, req, "flashcards")
				if err != nil {
					return err
				}
				cards, err := model.DecodePayload[[]model.Flashcard](snap)
				if err != nil {
					return err
				}
				if env.opts.jsonOut {
					return printJSON(env.io.out, cards)
				}
				if len(cards) == 0 {
					fmt.Fprintln(env.io.out, "no flashcards were generated")
					return nil
				}
				if env.tui() {
					return runFlashcardsView(ctx, env, cards)
				}
				for i, c := range cards {
					fmt.Fprintf(env.io.out, "%d. Q: %s\n   A: %s\n", i+1, c.Question, c.Answer)
				}
				return nil
			})
		},
	}
	flags.bind(cmd, true)
	return creditsHint(cmd)
}

func newSummaryCommand(env *cmdEnv) *cobra.Command {
	var flags generateFlags
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Summarize the active document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := flags.request(model.KindSummary)
			if err != nil {
				return err
			}
			return withApp(cmd, env, func(ctx context.Context, a *app) error {
				snap, err := a.generate(ctx, req, "summary")
				if err != nil {
					return err
				}
				set, err := model.DecodePayload[model.StudySet](snap)
				if err != nil {
					return err
				}
				if env.opts.jsonOut {
					return printJSON(env.io.out, set)
				}
				summary := strings.TrimSpace(set.Summary)
				if summary == "" {
					summary = "No summary available."
				}
				fmt.Fprintln(env.io.out, uiTitleStyle.Render("Summary"))
				fmt.Fprintln(env.io.out, summary)
				fmt.Fprintln(env.io.out)
				fmt.Fprintln(env.io.out, uiMutedStyle.Render(fmt.Sprintf(
					"also generated: %d flashcards, %d quiz questions", len(set.Flashcards), len(set.Questions))))
				return nil
			})
		},
	}
	flags.bind(cmd, true)
	return creditsHint(cmd)
}

func newNotesCommand(env *cmdEnv) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notes",
		Short: "Work with your own notes",
	}
	var outPath string
	improve := &cobra.Command{
		Use:   "improve [file]",
		Short: "Rewrite raw notes into structured study notes",
		Long:  "Reads notes from the file argument, or from stdin when the argument is omitted or '-'.",
		Example: `  studypilot notes improve lecture.txt
  pbpaste | studypilot notes improve --out improved.md`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readNotesInput(env.io.in, args)
			if err != nil {
				return err
			}
			req := model.GenerationRequest{Kind: model.KindNotes, Params: model.GenerationParams{RawNotes: raw}}
			return withApp(cmd, env, func(ctx context.Context, a *app) error {
				snap, err := a.generate(ctx, req, "notes")
				if err != nil {
					return err
				}
				notes, err := model.DecodePayload[model.ImprovedNotes](snap)
				if err != nil {
					return err
				}
				if outPath != "" {
					if err := statestore.WriteBytes(outPath, []byte(notes.ImprovedNotes)); err != nil {
						return err
					}
				}
				if env.opts.jsonOut {
					return printJSON(env.io.out, notes)
				}
				if outPath != "" {
					fmt.Fprintf(env.io.out, "improved notes written to %s\n", outPath)
					return nil
				}
				fmt.Fprintln(env.io.out, notes.ImprovedNotes)
				return nil
			})
		},
	}
	improve.Flags().StringVarP(&outPath, "out", "o", "", "write the improved notes to a file")
	cmd.AddCommand(creditsHint(improve))
	return cmd
}

func readNotesInput(in io.Reader, args []string) (string, error) {
	var data []byte
	var err error
	if len(args) == 0 || args[0] == "-" {
		data, err = io.ReadAll(in)
	} else {
		data, err = os.ReadFile(args[0])
	}
	if err != nil {
		return "", fmt.Errorf("read notes: %w", err)
	}
	raw := strings.TrimSpace(string(data))
	if raw == "" {
		return "", fmt.Errorf("notes are empty")
	}
	return raw, nil
}
