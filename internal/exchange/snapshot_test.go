package exchange

import (
	"bytes"
	"strings"
	"testing"

	"github.com/krarar/debt-manager/internal/model"
	"github.com/krarar/debt-manager/test/fixtures"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshot_EncodeDecode(t *testing.T) {
	snap := fixtures.Snapshot()

	var buf bytes.Buffer
	require.NoError(t, EncodeSnapshot(&buf, snap))
	assert.Contains(t, buf.String(), `"amount": 1000`)

	got, err := DecodeSnapshot(&buf)
	require.NoError(t, err)
	assert.Equal(t, snap.Debtors, got.Debtors)
	require.Len(t, got.Transactions, len(snap.Transactions))
	for i := range snap.Transactions {
		assert.Equal(t, snap.Transactions[i].ID, got.Transactions[i].ID)
		assert.True(t, snap.Transactions[i].Amount.Equal(got.Transactions[i].Amount))
		assert.True(t, snap.Transactions[i].CreatedAt.Equal(got.Transactions[i].CreatedAt))
	}
	assert.JSONEq(t, `"IQD"`, string(got.Settings["currency"]))
	assert.Equal(t, model.SnapshotVersion, got.Version)
}

func TestDecodeSnapshot_Validation(t *testing.T) {
	cases := []struct {
		name  string
		input string
	}{
		{"not json", `debtors: []`},
		{"not an object", `[1,2,3]`},
		{"nothing to import", `{"version":1}`},
		{"debtor without id", `{"debtors":[{"name":"Ahmed"}]}`},
		{"debtor without name", `{"debtors":[{"id":"d1"}]}`},
		{"transaction without amount", `{"transactions":[{"id":"t1","debtorId":"d1","type":"debt"}]}`},
		{"transaction without debtor", `{"transactions":[{"id":"t1","type":"debt","amount":5}]}`},
		{"transaction with unknown type", `{"transactions":[{"id":"t1","debtorId":"d1","type":"refund","amount":5}]}`},
		{"transaction with zero amount", `{"transactions":[{"id":"t1","debtorId":"d1","type":"debt","amount":0}]}`},
		{"transaction with text amount", `{"transactions":[{"id":"t1","debtorId":"d1","type":"debt","amount":"five"}]}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DecodeSnapshot(strings.NewReader(tc.input))
			assert.ErrorIs(t, err, model.ErrValidation)
		})
	}
}

func TestDecodeSnapshot_Defaults(t *testing.T) {
	input := `{
		"debtors": [{"id":"d1","name":"Ahmed","phone":"0770","createdAt":"2024-01-15T09:30:00.123456Z"}],
		"transactions": [{"id":"t1","debtorId":"d1","type":"payment","amount":12.5}]
	}`

	snap, err := DecodeSnapshot(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, snap.Debtors, 1)
	d := snap.Debtors[0]
	assert.Equal(t, 123000000, d.CreatedAt.Nanosecond())
	assert.Equal(t, d.CreatedAt, d.UpdatedAt)

	require.Len(t, snap.Transactions, 1)
	tx := snap.Transactions[0]
	assert.Equal(t, model.DefaultCurrency, tx.Currency)
	assert.True(t, decimal.RequireFromString("12.5").Equal(tx.Amount))
	assert.False(t, tx.CreatedAt.IsZero())
	assert.NotNil(t, snap.Settings)
}
