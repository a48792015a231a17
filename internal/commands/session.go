package commands

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/fidash/internal/model"
	"github.com/cleared-dev/fidash/internal/toolclient"
)

func newSessionCommand(opts *rootOptions) *cobra.Command {
	sessionCmd := &cobra.Command{
		Use:   "session",
		Short: "Session operations",
	}
	sessionCmd.AddCommand(
		newSessionCheckCommand(opts),
		newSessionFetchCommand(opts),
	)
	return sessionCmd
}

func newSessionCheckCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check <session-id>",
		Short: "Validate a session id against the backend",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(opts)
			if err != nil {
				return err
			}
			defer a.Close()

			sess, err := a.tools.CheckSession(cmd.Context(), args[0])
			if errors.Is(err, toolclient.ErrInvalidSession) {
				fmt.Fprintf(cmd.ErrOrStderr(), "Log in at %s\n", a.tools.LoginURL(a.cfg.Backend.LoginSessionID))
				return err
			}
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Session %s is valid", args[0])
			if sess.PhoneNumber != "" {
				fmt.Fprintf(cmd.OutOrStdout(), " (profile %s)", sess.PhoneNumber)
			}
			fmt.Fprintln(cmd.OutOrStdout())
			return nil
		},
	}
}

func newSessionFetchCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "fetch <session-id> <tool>",
		Short: "Print one tool's raw payload",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			tool, err := model.ParseTool(args[1])
			if err != nil {
				return err
			}

			a, err := openApp(opts)
			if err != nil {
				return err
			}
			defer a.Close()

			if _, err := a.tools.CheckSession(cmd.Context(), args[0]); err != nil {
				return err
			}
			raw, err := a.tools.FetchTool(cmd.Context(), args[0], tool)
			if err != nil {
				return err
			}

			var buf bytes.Buffer
			if err := json.Indent(&buf, raw, "", "  "); err != nil {
				return fmt.Errorf("formatting %s payload: %w", tool, err)
			}
			buf.WriteByte('\n')
			_, err = buf.WriteTo(cmd.OutOrStdout())
			return err
		},
	}
}
