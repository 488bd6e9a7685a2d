package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"studypilot/internal/backend"
	"studypilot/internal/model"
	"studypilot/internal/statestore"
)

const chatGreeting = "Hi! How can I help you understand your study material?"

func newChatCommand(env *cmdEnv) *cobra.Command {
	var documentID string
	cmd := &cobra.Command{
		Use:   "chat [message]",
		Short: "Chat about the active document",
		Long: `Starts a streaming chat. A topic queued with 'mindmap ask' is sent first.
Further messages are read from stdin, one per line; /exit ends the chat.`,
		Example: `  studypilot chat
  studypilot chat "What is gradient descent?"
  echo "Summarize chapter 2" | studypilot chat --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, env, func(ctx context.Context, a *app) error {
				docID, err := a.documentFor(ctx, documentID)
				if err != nil {
					return err
				}
				s := &chatSession{
					app:        a,
					documentID: docID,
					messages:   []model.ChatMessage{{Role: "assistant", Content: chatGreeting}},
				}

				first, err := statestore.Take(ctx, a.store, statestore.KeyInitialChatMessage)
				if err != nil && !errors.Is(err, statestore.ErrNotFound) {
					a.logger.Warn("chat handoff unreadable", zap.Error(err))
				}
				if len(args) > 0 {
					first = strings.TrimSpace(strings.Join(append([]string{first}, args...), " "))
				}
				return s.run(ctx, first)
			})
		},
	}
	cmd.Flags().StringVar(&documentID, "document", "", "document id (default: the active document)")
	return cmd
}

type chatSession struct {
	app        *app
	documentID string
	messages   []model.ChatMessage
}

func (s *chatSession) run(ctx context.Context, first string) error {
	env := s.app.env
	if !env.opts.jsonOut {
		fmt.Fprintln(env.io.out, uiTitleStyle.Render("assistant> ")+chatGreeting)
	}

	interactive := env.io.interactive
	if first = strings.TrimSpace(first); first != "" {
		if !env.opts.jsonOut {
			fmt.Fprintln(env.io.out, uiMutedStyle.Render("you> ")+first)
		}
		if err := s.send(ctx, first); err != nil && !interactive {
			return err
		}
	}

	sc := bufio.NewScanner(env.io.in)
	for {
		if interactive {
			fmt.Fprint(env.io.out, uiMutedStyle.Render("you> "))
		}
		if !sc.Scan() {
			break
		}
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if line == "/exit" || line == "/quit" {
			break
		}
		if err := s.send(ctx, line); err != nil {
			if ctx.Err() != nil || !interactive {
				return err
			}
			fmt.Fprintln(env.io.errOut, uiErrorStyle.Render("chat: "+err.Error()))
		}
	}
	if err := sc.Err(); err != nil {
		return err
	}
	if env.opts.jsonOut {
		return printJSON(env.io.out, s.messages)
	}
	return nil
}

// send streams one reply. A failed exchange leaves the user message in the
// history so the next message keeps the context.
func (s *chatSession) send(ctx context.Context, text string) error {
	env := s.app.env
	s.messages = append(s.messages, model.ChatMessage{Role: "user", Content: text})

	if !env.opts.jsonOut {
		fmt.Fprint(env.io.out, uiTitleStyle.Render("assistant> "))
	}
	reply, err := s.app.client.StreamChat(ctx, backend.ChatRequest{
		Messages:   s.messages,
		DocumentID: s.documentID,
	}, func(chunk string) {
		if !env.opts.jsonOut {
			fmt.Fprint(env.io.out, chunk)
		}
	})
	if !env.opts.jsonOut {
		fmt.Fprintln(env.io.out)
	}
	if err != nil {
		s.app.logger.Warn("chat stream failed", zap.Error(err))
		return err
	}
	s.messages = append(s.messages, model.ChatMessage{Role: "assistant", Content: reply})
	return nil
}
