package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/fidash/internal/model"
)

func newProfileCommand(opts *rootOptions) *cobra.Command {
	profileCmd := &cobra.Command{
		Use:   "profile",
		Short: "Onboarding profiles",
	}
	profileCmd.AddCommand(
		newProfileShowCommand(opts),
		newProfileSaveCommand(opts),
		newProfileUpdateCommand(opts),
	)
	return profileCmd
}

func newProfileShowCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <user-id>",
		Short: "Print a stored profile as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(opts)
			if err != nil {
				return err
			}
			defer a.Close()

			p, err := a.store.Profiles().Fetch(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if p == nil {
				return fmt.Errorf("no profile for %s", args[0])
			}
			return printJSON(cmd, p)
		},
	}
}

func newProfileSaveCommand(opts *rootOptions) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "save <user-id>",
		Short: "Save onboarding answers from a JSON file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var p model.Profile
			if err := readJSONFile(file, &p); err != nil {
				return err
			}

			a, err := openApp(opts)
			if err != nil {
				return err
			}
			defer a.Close()

			saved, err := a.store.Profiles().Save(cmd.Context(), args[0], p)
			if err != nil {
				return err
			}
			return printJSON(cmd, saved)
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "JSON file with the answers (required)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func newProfileUpdateCommand(opts *rootOptions) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "update <user-id>",
		Short: "Merge fields from a JSON file into a stored profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var fields map[string]any
			if err := readJSONFile(file, &fields); err != nil {
				return err
			}

			a, err := openApp(opts)
			if err != nil {
				return err
			}
			defer a.Close()

			p, err := a.store.Profiles().UpdateProgress(cmd.Context(), args[0], fields)
			if err != nil {
				return err
			}
			return printJSON(cmd, p)
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "JSON file with the fields to merge (required)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func readJSONFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
