package export

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/fidash/internal/model"
)

func sampleTxns() []model.Transaction {
	return []model.Transaction{
		{
			Bank:      "HDFC",
			Amount:    decimal.RequireFromString("100"),
			Narration: "Grocery store, Indiranagar",
			Date:      time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
			Type:      model.TxnDebit,
			Mode:      "UPI",
			Balance:   decimal.RequireFromString("900.5"),
		},
		{
			Bank:      "SBI",
			Amount:    decimal.RequireFromString("50000"),
			Narration: "SALARY JAN",
			Date:      time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			Type:      model.TxnCredit,
			Mode:      "NEFT",
			Balance:   decimal.RequireFromString("51000"),
		},
	}
}

func TestMarshalTransaction(t *testing.T) {
	row := MarshalTransaction(sampleTxns()[0])
	assert.Equal(t, []string{"2024-01-15", "HDFC", "DEBIT", "100.00", "900.50", "UPI", "Groceries", "Grocery store, Indiranagar"}, row)
}

func TestWriteTransactions(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTransactions(&buf, sampleTxns()))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"date", "bank", "type", "amount", "balance", "mode", "category", "narration"}, records[0])
	assert.Equal(t, "Grocery store, Indiranagar", records[1][colNarration], "commas survive quoting")
	assert.Equal(t, "CREDIT", records[2][colType])
	assert.Equal(t, "Salary", records[2][colCategory])
}

func TestWriteTransactions_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTransactions(&buf, nil))
	assert.Equal(t, Header+"\n", buf.String())
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "txns.csv")
	require.NoError(t, WriteFile(path, sampleTxns()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "2024-01-01,SBI,CREDIT,50000.00,51000.00,NEFT,Salary,SALARY JAN")
}
