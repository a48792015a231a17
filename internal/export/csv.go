package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/cleared-dev/fidash/internal/aggregate"
	"github.com/cleared-dev/fidash/internal/model"
)

// Header is the CSV header of a transaction export.
const Header = "date,bank,type,amount,balance,mode,category,narration"

const (
	numFields    = 8
	dateFormat   = "2006-01-02"
	colDate      = 0
	colBank      = 1
	colType      = 2
	colAmount    = 3
	colBalance   = 4
	colMode      = 5
	colCategory  = 6
	colNarration = 7
)

// MarshalTransaction converts a Transaction to a CSV row.
func MarshalTransaction(t model.Transaction) []string {
	row := make([]string, numFields)
	row[colDate] = t.Date.Format(dateFormat)
	row[colBank] = t.Bank
	row[colType] = t.Type.String()
	row[colAmount] = t.Amount.StringFixed(2)
	row[colBalance] = t.Balance.StringFixed(2)
	row[colMode] = t.Mode
	row[colCategory] = aggregate.Categorize(t.Narration)
	row[colNarration] = t.Narration
	return row
}

// WriteTransactions writes txns (including header) in the order given.
func WriteTransactions(w io.Writer, txns []model.Transaction) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(strings.Split(Header, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, t := range txns {
		if err := cw.Write(MarshalTransaction(t)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFile exports txns to path, replacing any existing file.
func WriteFile(path string, txns []model.Transaction) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating export directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := WriteTransactions(f, txns); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", path, err)
	}
	return nil
}
