package commands

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/cleared-dev/fidash/internal/export"
	"github.com/cleared-dev/fidash/internal/model"
	"github.com/cleared-dev/fidash/internal/store"
)

func newChatCommand(opts *rootOptions) *cobra.Command {
	chatCmd := &cobra.Command{
		Use:   "chat",
		Short: "Talk to the financial assistant",
	}
	chatCmd.AddCommand(
		newChatSendCommand(opts),
		newChatHistoryCommand(opts),
		newChatClearCommand(opts),
		newChatStatusCommand(opts),
	)
	return chatCmd
}

func newChatSendCommand(opts *rootOptions) *cobra.Command {
	var raw bool
	var transcript string

	cmd := &cobra.Command{
		Use:   "send <message>...",
		Short: "Send a message and print the reply",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(opts)
			if err != nil {
				return err
			}
			defer a.Close()

			svc := a.chat()
			answer, err := svc.Send(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			if transcript != "" {
				msgs, err := svc.History(cmd.Context())
				if err != nil {
					return err
				}
				// The last two messages are this exchange.
				if err := export.AppendTranscript(transcript, msgs[max(len(msgs)-2, 0):]); err != nil {
					return err
				}
			}
			r, err := newRenderer(cmd.Context(), a.store.Prefs(), raw)
			if err != nil {
				return err
			}
			return printMessage(cmd.OutOrStdout(), r, answer)
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "print markdown without rendering")
	cmd.Flags().StringVar(&transcript, "transcript", "", "append the exchange to this CSV file")
	return cmd
}

func newChatHistoryCommand(opts *rootOptions) *cobra.Command {
	var raw bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Print the conversation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(opts)
			if err != nil {
				return err
			}
			defer a.Close()

			msgs, err := a.chat().History(cmd.Context())
			if err != nil {
				return err
			}
			r, err := newRenderer(cmd.Context(), a.store.Prefs(), raw)
			if err != nil {
				return err
			}
			for _, m := range msgs {
				if err := printMessage(cmd.OutOrStdout(), r, m); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "print markdown without rendering")
	return cmd
}

func newChatClearCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Forget the conversation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(opts)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.chat().Clear(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Chat history cleared.")
			return nil
		},
	}
}

func newChatStatusCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check whether the agent is reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(opts)
			if err != nil {
				return err
			}
			defer a.Close()

			if !a.agent.Health(cmd.Context()) {
				return fmt.Errorf("agent at %s is not healthy", a.cfg.Agent.BaseURL)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Agent at %s is healthy\n", a.cfg.Agent.BaseURL)
			return nil
		},
	}
}

// newRenderer returns a markdown renderer styled for the stored theme, or nil for raw output.
func newRenderer(ctx context.Context, prefs *store.Prefs, raw bool) (*glamour.TermRenderer, error) {
	if raw {
		return nil, nil
	}
	theme, err := prefs.Theme(ctx)
	if err != nil {
		return nil, err
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStylePath(theme),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		return nil, fmt.Errorf("creating markdown renderer: %w", err)
	}
	return r, nil
}

func printMessage(w io.Writer, r *glamour.TermRenderer, m model.Message) error {
	who := "You"
	if m.Role == model.RoleAssistant {
		who = "Assistant"
	}
	body := m.Content
	if r != nil && m.Role == model.RoleAssistant {
		out, err := r.Render(m.Content)
		if err != nil {
			return fmt.Errorf("rendering reply: %w", err)
		}
		body = strings.TrimRight(out, "\n")
	}
	_, err := fmt.Fprintf(w, "%s: %s\n", titleStyle.Render(who), body)
	return err
}
