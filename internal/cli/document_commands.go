package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"studypilot/internal/model"
)

func newUploadCommand(env *cmdEnv) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "upload",
		Short: "Upload a video or PDF and make it the active document",
	}
	cmd.AddCommand(&cobra.Command{
		Use:     "youtube <url>",
		Short:   "Upload a YouTube video by URL",
		Example: `  studypilot upload youtube https://www.youtube.com/watch?v=abc123`,
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			videoURL := ""
			if len(args) == 1 {
				videoURL = args[0]
			}
			if strings.TrimSpace(videoURL) == "" {
				var err error
				videoURL, err = promptRequired(env.io.in, env.io.out, "YouTube URL")
				if err != nil {
					return err
				}
			}
			return withApp(cmd, env, func(ctx context.Context, a *app) error {
				res, err := a.client.UploadYouTube(ctx, videoURL)
				if err != nil {
					return fmt.Errorf("upload youtube: %w", err)
				}
				return a.activateDocument(ctx, res, videoURL)
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:     "pdf <file>",
		Short:   "Upload a PDF file",
		Example: `  studypilot upload pdf ./lecture-notes.pdf`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := strings.TrimSpace(args[0])
			if !strings.EqualFold(filepath.Ext(path), ".pdf") {
				return fmt.Errorf("%s: only .pdf files are accepted", path)
			}
			return withApp(cmd, env, func(ctx context.Context, a *app) error {
				f, err := os.Open(path)
				if err != nil {
					return err
				}
				defer f.Close()
				res, err := a.client.UploadPDF(ctx, filepath.Base(path), f)
				if err != nil {
					return fmt.Errorf("upload pdf: %w", err)
				}
				return a.activateDocument(ctx, res, path)
			})
		},
	})
	return cmd
}

// activateDocument stores the uploaded id as the subject of every
// document-scoped view.
func (a *app) activateDocument(ctx context.Context, res model.UploadResult, source string) error {
	if strings.TrimSpace(res.DocumentID) == "" {
		return fmt.Errorf("upload succeeded but the backend returned no document_id")
	}
	if err := a.subjects.Remember(ctx, model.KindFlashcards, res.DocumentID); err != nil {
		return err
	}
	a.logger.Info("document activated", zap.String("document_id", res.DocumentID), zap.String("source", source))
	if a.env.opts.jsonOut {
		return printJSON(a.env.io.out, res)
	}
	fmt.Fprintf(a.env.io.out, "uploaded %s\n", source)
	fmt.Fprintf(a.env.io.out, "active document: %s\n", res.DocumentID)
	fmt.Fprintln(a.env.io.out, "next: studypilot flashcards | quiz | mindmap | summary | chat")
	return nil
}

func newLibraryCommand(env *cmdEnv) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "library",
		Short: "Browse uploaded documents",
	}
	var search string
	list := &cobra.Command{
		Use:     "list",
		Short:   "List uploaded documents",
		Example: `  studypilot library list --search thermo`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, env, func(ctx context.Context, a *app) error {
				lib, err := a.client.Library(ctx)
				if err != nil {
					return fmt.Errorf("library: %w", err)
				}
				lib.Documents = filterDocuments(lib.Documents, search)
				if env.opts.jsonOut {
					return printJSON(env.io.out, lib)
				}
				active, _ := a.subjects.Resolve(ctx, model.KindFlashcards)
				if len(lib.Documents) == 0 {
					if strings.TrimSpace(search) != "" {
						fmt.Fprintf(env.io.out, "no documents match %q\n", search)
						return nil
					}
					fmt.Fprintln(env.io.out, "library is empty; upload a document first")
					return nil
				}
				for _, d := range lib.Documents {
					mark := " "
					if d.ID == active {
						mark = "*"
					}
					line := fmt.Sprintf("%s %s  %-8s  %s", mark, d.ID, d.SourceType, d.Title)
					if d.FolderName != "" {
						line += "  [" + d.FolderName + "]"
					}
					if len(d.Tags) > 0 {
						line += "  #" + strings.Join(d.Tags, " #")
					}
					fmt.Fprintln(env.io.out, line)
				}
				return nil
			})
		},
	}
	list.Flags().StringVar(&search, "search", "", "only show documents whose title or folder contains this text")
	cmd.AddCommand(list)
	cmd.AddCommand(&cobra.Command{
		Use:   "use <document-id>",
		Short: "Make a library document the active document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := strings.TrimSpace(args[0])
			return withApp(cmd, env, func(ctx context.Context, a *app) error {
				if err := a.subjects.Remember(ctx, model.KindFlashcards, id); err != nil {
					return err
				}
				if env.opts.jsonOut {
					return printJSON(env.io.out, map[string]string{"document_id": id})
				}
				fmt.Fprintf(env.io.out, "active document: %s\n", id)
				return nil
			})
		},
	})
	return cmd
}

// filterDocuments keeps documents whose title or folder name contains query,
// ignoring case. An empty query keeps everything.
func filterDocuments(docs []model.LibraryDocument, query string) []model.LibraryDocument {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return docs
	}
	out := []model.LibraryDocument{}
	for _, d := range docs {
		if strings.Contains(strings.ToLower(d.Title), q) || strings.Contains(strings.ToLower(d.FolderName), q) {
			out = append(out, d)
		}
	}
	return out
}
