package sequence

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeAliases(t *testing.T) {
	cases := map[string]string{
		"booking":       TypeBooking,
		"Booking":       TypeBooking,
		"visa":          TypeVisa,
		"refund":        TypeRefund,
		"remittance":    TypeRemittance,
		"transfer":      TypeRemittance,
		"receipt":       TypeReceipt,
		"payment":       TypePayment,
		"journal entry": TypeJournalEntry,
		"segment-deal":  TypeSegmentDeal,
		"profit share":  TypeProfitShare,
	}
	for raw, want := range cases {
		key, known := Normalize(raw)
		assert.True(t, known, raw)
		assert.Equal(t, want, key, raw)
	}
}

func TestNormalizeCanonicalKeys(t *testing.T) {
	for _, key := range []string{"RC", "PV", "EX", "DS", "JE", "TR", "BK", "VS", "RF",
		"EXC", "EXT", "EXP", "VOID", "SEG", "COMP", "PARTNER", "SUB", "SUBP", "PR", "CL"} {
		got, known := Normalize(key)
		assert.True(t, known, key)
		assert.Equal(t, key, got)
		assert.True(t, Known(key))

		// Lowercase and padded spellings of canonical keys resolve too.
		got, known = Normalize(" " + strings.ToLower(key) + " ")
		assert.True(t, known)
		assert.Equal(t, key, got)
	}
}

func TestNormalizeUnknownPassthrough(t *testing.T) {
	key, known := Normalize("insurance")
	assert.False(t, known)
	assert.Equal(t, "INSURANCE", key)

	defaults := DefaultsFor(key)
	assert.Equal(t, "INSURANCE", defaults.Prefix)
	assert.Equal(t, "INSURANCE", defaults.Label)
	assert.Equal(t, DefaultPadWidth, defaults.PadWidth)
}

func TestDefaultsForCanonical(t *testing.T) {
	defaults := DefaultsFor(TypeVisa)
	assert.Equal(t, "Visa Invoice", defaults.Label)
	assert.Equal(t, "VS", defaults.Prefix)
	assert.Equal(t, 5, defaults.PadWidth)
}
