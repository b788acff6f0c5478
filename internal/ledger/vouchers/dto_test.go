package vouchers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ledgershared "github.com/voyager-erp/voyager-erp/internal/ledger/shared"
)

func validInput() PostingInput {
	return PostingInput{
		InvoiceNumber: "RC-00001",
		Date:          time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		Currency:      "USD",
		SourceType:    "booking",
		SourceID:      "bk-17",
		CreatedBy:     "u-1",
		Lines: []PostingLineInput{
			{AccountID: 10, Debit: 500},
			{AccountID: 40, Credit: 500},
		},
	}
}

func TestPostingInputValidate(t *testing.T) {
	require.NoError(t, validInput().Validate())
}

func TestPostingInputValidateRejections(t *testing.T) {
	cases := map[string]func(*PostingInput){
		"missing invoice number": func(in *PostingInput) { in.InvoiceNumber = "" },
		"missing source type":    func(in *PostingInput) { in.SourceType = "" },
		"no lines":               func(in *PostingInput) { in.Lines = nil },
		"line without account":   func(in *PostingInput) { in.Lines[0].AccountID = 0 },
		"negative debit":         func(in *PostingInput) { in.Lines[0].Debit = -5 },
		"negative credit":        func(in *PostingInput) { in.Lines[1].Credit = -5 },
		"both sides set":         func(in *PostingInput) { in.Lines[0].Credit = 100 },
		"zero amount line":       func(in *PostingInput) { in.Lines[0].Debit = 0 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			in := validInput()
			mutate(&in)
			err := in.Validate()
			assert.ErrorIs(t, err, ledgershared.ErrInvalidPosting)
		})
	}
}

func TestPostingInputSplitPreservesOrder(t *testing.T) {
	in := validInput()
	in.Lines = []PostingLineInput{
		{AccountID: 10, Debit: 100, Description: "cash"},
		{AccountID: 40, Credit: 60},
		{AccountID: 11, Debit: 40},
		{AccountID: 41, Credit: 80},
	}
	debits, credits := in.Split()
	require.Len(t, debits, 2)
	require.Len(t, credits, 2)
	assert.Equal(t, int64(10), debits[0].AccountID)
	assert.Equal(t, "cash", debits[0].Description)
	assert.Equal(t, int64(11), debits[1].AccountID)
	assert.Equal(t, int64(40), credits[0].AccountID)
	assert.Equal(t, int64(41), credits[1].AccountID)
}

func TestPostingInputAccountIDs(t *testing.T) {
	in := validInput()
	assert.Equal(t, []int64{10, 40}, in.AccountIDs())
}
