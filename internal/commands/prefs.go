package commands

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/fidash/internal/model"
	"github.com/cleared-dev/fidash/internal/store"
)

func newPrefsCommand(opts *rootOptions) *cobra.Command {
	prefsCmd := &cobra.Command{
		Use:   "prefs",
		Short: "Show and change local preferences",
	}
	prefsCmd.AddCommand(
		newPrefsShowCommand(opts),
		newPrefsSetPhoneCommand(opts),
		newPrefsToggleThemeCommand(opts),
		newPrefsSetUserCommand(opts),
		newPrefsClearUserCommand(opts),
	)
	return prefsCmd
}

func newPrefsShowCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print every preference",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(opts)
			if err != nil {
				return err
			}
			defer a.Close()

			snap, err := a.store.Prefs().Snapshot(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "phoneNumber: %s\n", snap.PhoneNumber)
			fmt.Fprintf(out, "sessionId:   %s\n", snap.SessionID)
			fmt.Fprintf(out, "theme:       %s\n", snap.Theme)
			fmt.Fprintf(out, "darkMode:    %t\n", snap.DarkMode)
			if snap.User != nil {
				fmt.Fprintf(out, "user:        %s <%s>\n", snap.User.DisplayName, snap.User.Email)
			}
			return nil
		},
	}
}

func newPrefsSetPhoneCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "set-phone <number>",
		Short: "Select the test profile used for chat",
		Long:  "Select the test profile used for chat. Available: " + strings.Join(store.PhoneNumbers(), ", "),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(opts)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.store.Prefs().SetPhoneNumber(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Phone number set to %s\n", args[0])
			return nil
		},
	}
}

func newPrefsToggleThemeCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle-theme",
		Short: "Switch between light and dark",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(opts)
			if err != nil {
				return err
			}
			defer a.Close()

			theme, err := a.store.Prefs().ToggleTheme(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Theme set to %s\n", theme)
			return nil
		},
	}
}

func newPrefsSetUserCommand(opts *rootOptions) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "set-user --file user.json",
		Short: "Record the signed-in user greeted by chat",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var u model.User
			if err := readJSONFile(file, &u); err != nil {
				return err
			}
			if u.UID == "" {
				return errors.New("user file must set uid")
			}

			a, err := openApp(opts)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.store.Prefs().SetUser(cmd.Context(), &u); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s\n", u.DisplayName)
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "JSON file with uid, displayName and email")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func newPrefsClearUserCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "clear-user",
		Short: "Forget the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(opts)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.store.Prefs().SetUser(cmd.Context(), nil); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
			return nil
		},
	}
}
