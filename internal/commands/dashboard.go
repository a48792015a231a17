package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/cleared-dev/fidash/internal/aggregate"
	"github.com/cleared-dev/fidash/internal/dashboard"
	"github.com/cleared-dev/fidash/internal/export"
)

const recentTransactions = 10

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#1a73e8"))
	cardStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 2)
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#5f6368"))
)

func newDashboardCommand(opts *rootOptions) *cobra.Command {
	var sessionID string
	var asJSON bool
	var exportPath string

	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Fetch every tool and print the dashboard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(opts)
			if err != nil {
				return err
			}
			defer a.Close()

			snap, err := a.dashboard().Load(cmd.Context(), sessionID)
			var lre *dashboard.LoginRequiredError
			if errors.As(err, &lre) {
				fmt.Fprintf(cmd.ErrOrStderr(), "No valid session. Log in at:\n  %s\nthen rerun with --session <id>.\n", lre.RedirectURL)
				return err
			}
			if err != nil {
				return err
			}

			if exportPath != "" {
				if err := export.WriteFile(exportPath, snap.View.Transactions); err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d transactions to %s\n", len(snap.View.Transactions), exportPath)
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(snap)
			}
			printDashboard(cmd.OutOrStdout(), snap)
			return nil
		},
	}

	cmd.Flags().StringVar(&sessionID, "session", "", "session id (defaults to the last valid one)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the snapshot as JSON")
	cmd.Flags().StringVar(&exportPath, "export", "", "also write transactions to this CSV file")

	return cmd
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func printDashboard(w io.Writer, snap *dashboard.Snapshot) {
	v := snap.View

	fmt.Fprintln(w, titleStyle.Render("Financial Dashboard"))
	if snap.PhoneNumber != "" {
		fmt.Fprintln(w, mutedStyle.Render("Profile "+snap.PhoneNumber+", loaded "+snap.LoadedAt.Format("2006-01-02 15:04")))
	}

	cards := lipgloss.JoinHorizontal(lipgloss.Top,
		cardStyle.Render("Net Worth\n"+money(v.NetWorth)),
		cardStyle.Render("Bank Balance\n"+money(v.BankBalance)),
		cardStyle.Render("Cash Flow (30d)\n"+money(v.CashFlow)),
	)
	fmt.Fprintln(w, cards)

	if m := snap.Charts.Monthly; len(m.Labels) > 0 {
		t := table.New().Border(lipgloss.NormalBorder()).Headers("Month", "Credits", "Debits")
		for i, label := range m.Labels {
			t.Row(label, money(m.Credits[i]), money(m.Debits[i]))
		}
		fmt.Fprintln(w, titleStyle.Render("Monthly Flow"))
		fmt.Fprintln(w, t.Render())
	}

	if c := snap.Charts.Categories; len(c.Labels) > 0 {
		t := table.New().Border(lipgloss.NormalBorder()).Headers("Category", "Spent")
		for i, label := range c.Labels {
			t.Row(label, money(c.Totals[i]))
		}
		fmt.Fprintln(w, titleStyle.Render("Spending by Category"))
		fmt.Fprintln(w, t.Render())
	}

	if as := snap.Charts.Assets; len(as.Labels) > 0 {
		t := table.New().Border(lipgloss.NormalBorder()).Headers("Asset", "Value")
		for i, label := range as.Labels {
			t.Row(label, money(as.Values[i]))
		}
		fmt.Fprintln(w, titleStyle.Render("Asset Allocation"))
		fmt.Fprintln(w, t.Render())
	}

	if len(v.Transactions) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("No transactions."))
	} else {
		t := table.New().Border(lipgloss.NormalBorder()).Headers("Date", "Bank", "Type", "Amount", "Category", "Narration")
		for i, txn := range v.Transactions {
			if i == recentTransactions {
				break
			}
			t.Row(txn.Date.Format("2006-01-02"), txn.Bank, txn.Type.String(), money(txn.Amount),
				aggregate.Categorize(txn.Narration), txn.Narration)
		}
		fmt.Fprintln(w, titleStyle.Render("Recent Transactions"))
		fmt.Fprintln(w, t.Render())
	}

	if len(snap.Issues) > 0 {
		lines := make([]string, len(snap.Issues))
		for i, issue := range snap.Issues {
			lines[i] = "  " + issue.Error()
		}
		fmt.Fprintln(w, mutedStyle.Render(fmt.Sprintf("%d payload issue(s) left out:\n%s", len(snap.Issues), strings.Join(lines, "\n"))))
	}
}
