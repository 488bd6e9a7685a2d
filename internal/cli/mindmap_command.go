package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"studypilot/internal/mindmap"
	"studypilot/internal/model"
	"studypilot/internal/statestore"
	"studypilot/internal/subject"
	"studypilot/internal/view"
)

func newMindMapCommand(env *cmdEnv) *cobra.Command {
	var documentID string
	cmd := &cobra.Command{
		Use:     "mindmap",
		Aliases: []string{"mind-map"},
		Short:   "Generate and explore a concept map of the active document",
	}
	cmd.PersistentFlags().StringVar(&documentID, "document", "", "document id (default: the active document)")

	cmd.AddCommand(creditsHint(&cobra.Command{
		Use:   "show",
		Short: "Show the mind map; in a terminal, browse nodes and explain them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, env, func(ctx context.Context, a *app) error {
				m, err := a.fetchMindMap(ctx, documentID)
				if err != nil {
					return err
				}
				if env.opts.jsonOut {
					layout, err := mindmap.Arrange(m)
					if err != nil {
						return err
					}
					return printJSON(env.io.out, layout)
				}
				if env.tui() {
					docID, _ := a.documentFor(ctx, documentID)
					return a.runMindMapView(ctx, m, docID)
				}
				fmt.Fprintln(env.io.out, mindmap.Render(m))
				return nil
			})
		},
	}))

	var format string
	cmd.AddCommand(creditsHint(func() *cobra.Command {
		export := &cobra.Command{
			Use:   "export <file|->",
			Short: "Export the laid-out mind map as JSON or YAML",
			Example: `  studypilot mindmap export map.yaml
  studypilot mindmap export - --format json`,
			Args: cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				target := strings.TrimSpace(args[0])
				f := format
				if f == "" {
					f = mindmap.FormatForPath(target)
				}
				return withApp(cmd, env, func(ctx context.Context, a *app) error {
					m, err := a.fetchMindMap(ctx, documentID)
					if err != nil {
						return err
					}
					var buf bytes.Buffer
					if err := mindmap.Export(&buf, m, f); err != nil {
						return err
					}
					if target == "-" {
						_, err := env.io.out.Write(buf.Bytes())
						return err
					}
					if err := statestore.WriteBytes(target, buf.Bytes()); err != nil {
						return err
					}
					fmt.Fprintf(env.io.out, "mind map exported to %s (%d nodes)\n", target, len(m.Nodes))
					return nil
				})
			},
		}
		export.Flags().StringVar(&format, "format", "", "json|yaml (default: from the file extension)")
		return export
	}()))

	cmd.AddCommand(creditsHint(&cobra.Command{
		Use:   "explain <topic> [topic...]",
		Short: "Explain mind map topics in the context of the document",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, env, func(ctx context.Context, a *app) error {
				docID, _ := a.documentFor(ctx, documentID)
				explainer, err := mindmap.NewExplainer(a.explainFunc(nil))
				if err != nil {
					return err
				}
				results := make([]map[string]string, 0, len(args))
				for _, topic := range args {
					text, err := explainer.Explain(ctx, docID, topic)
					if err != nil {
						return err
					}
					results = append(results, map[string]string{"topic": topic, "explanation": text})
				}
				if env.opts.jsonOut {
					return printJSON(env.io.out, results)
				}
				for i, r := range results {
					if i > 0 {
						fmt.Fprintln(env.io.out)
					}
					fmt.Fprintln(env.io.out, uiTitleStyle.Render(r["topic"]))
					fmt.Fprintln(env.io.out, r["explanation"])
				}
				return nil
			})
		},
	}))

	cmd.AddCommand(&cobra.Command{
		Use:   "ask <topic>",
		Short: "Hand a topic over to the next chat session",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			topic := strings.Join(args, " ")
			return withApp(cmd, env, func(ctx context.Context, a *app) error {
				msg, err := a.handOffToChat(ctx, topic)
				if err != nil {
					return err
				}
				if env.opts.jsonOut {
					return printJSON(env.io.out, map[string]string{"initial_chat_message": msg})
				}
				fmt.Fprintf(env.io.out, "queued for chat: %s\n", msg)
				fmt.Fprintln(env.io.out, "next: studypilot chat")
				return nil
			})
		},
	})
	return cmd
}

func (a *app) fetchMindMap(ctx context.Context, documentID string) (model.MindMap, error) {
	req := model.GenerationRequest{Kind: model.KindMindMap, SubjectID: strings.TrimSpace(documentID)}
	snap, err := a.generate(ctx, req, "mindmap")
	if err != nil {
		return model.MindMap{}, err
	}
	m, err := model.DecodePayload[model.MindMap](snap)
	if err != nil {
		return model.MindMap{}, err
	}
	if len(m.Nodes) == 0 {
		return model.MindMap{}, fmt.Errorf("mindmap: no nodes were generated")
	}
	return m, nil
}

// documentFor returns the explicit id or the active document. A missing
// document is not an error here; the generation itself reports it.
func (a *app) documentFor(ctx context.Context, explicit string) (string, error) {
	if id := strings.TrimSpace(explicit); id != "" {
		return id, nil
	}
	id, err := a.subjects.Resolve(ctx, model.KindExplanation)
	if errors.Is(err, subject.ErrNotFound) {
		return "", nil
	}
	return id, err
}

// explainFunc generates explanations through the retry controller. With a
// nil onState the plain status line is used.
func (a *app) explainFunc(onState func(topic string, st view.State)) mindmap.ExplainFunc {
	return func(ctx context.Context, documentID, topic string) (string, error) {
		req := model.GenerationRequest{
			Kind:      model.KindExplanation,
			SubjectID: documentID,
			Params:    model.GenerationParams{Topic: topic},
		}
		var (
			snap model.RetrySession
			err  error
		)
		if onState == nil {
			snap, err = a.generatePlain(ctx, req, "explain "+topic)
		} else {
			snap, err = a.await(ctx, req, "explain "+topic, func(st view.State) { onState(topic, st) })
		}
		if err != nil {
			return "", err
		}
		exp, err := model.DecodePayload[model.Explanation](snap)
		if err != nil {
			return "", err
		}
		return exp.Explanation, nil
	}
}

func (a *app) handOffToChat(ctx context.Context, topic string) (string, error) {
	if strings.TrimSpace(topic) == "" {
		return "", fmt.Errorf("topic is required")
	}
	msg := mindmap.AskMessage(topic)
	if err := a.store.Set(ctx, statestore.KeyInitialChatMessage, msg); err != nil {
		return "", err
	}
	a.logger.Info("chat handoff queued", zap.String("topic", topic))
	return msg, nil
}
