package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "affirm/pkg/domain-errors"
)

func validTrade() Trade {
	return Trade{
		TradeID:            "TRS-001",
		PartyA:             "Goldman Sachs International",
		PartyB:             "Acme Asset Management",
		TradeDate:          "2026-03-10",
		EffectiveDate:      "2026-03-12",
		BondReturnPayer:    ReturnLegPartyA,
		BondReturnReceiver: ReturnLegPartyB,
		LocalCurrency:      "USD",
		NotionalAmount:     1000000,
	}
}

func TestTradeValidate(t *testing.T) {
	t.Run("accepts valid trade", func(t *testing.T) {
		tr := validTrade()
		require.NoError(t, tr.Validate())
	})

	t.Run("rejects blank trade id", func(t *testing.T) {
		tr := validTrade()
		tr.TradeID = "  "
		assert.True(t, dErrors.HasCode(tr.Validate(), dErrors.CodeValidation))
	})

	t.Run("rejects unknown return leg", func(t *testing.T) {
		tr := validTrade()
		tr.BondReturnPayer = "PartyC"
		assert.True(t, dErrors.HasCode(tr.Validate(), dErrors.CodeInvalidInput))
	})

	t.Run("rejects non-positive notional", func(t *testing.T) {
		tr := validTrade()
		tr.NotionalAmount = 0
		assert.True(t, dErrors.HasCode(tr.Validate(), dErrors.CodeValidation))
	})
}

func TestFieldValue(t *testing.T) {
	tr := validTrade()
	tr.Underlier = "SPX Index"

	t.Run("every comparable field is addressable", func(t *testing.T) {
		for _, name := range ComparableFields {
			_, ok := tr.FieldValue(name)
			assert.True(t, ok, "field %s must be addressable", name)
		}
	})

	t.Run("unknown field reports false", func(t *testing.T) {
		_, ok := tr.FieldValue("settlement_convention")
		assert.False(t, ok)
	})

	t.Run("optional fields surface nil when unset", func(t *testing.T) {
		v, ok := tr.FieldValue("isin")
		require.True(t, ok)
		assert.Nil(t, v)

		v, ok = tr.FieldValue("underlier")
		require.True(t, ok)
		assert.Equal(t, "SPX Index", v)
	})

	t.Run("enum legs surface as strings", func(t *testing.T) {
		v, ok := tr.FieldValue("bond_return_payer")
		require.True(t, ok)
		assert.Equal(t, "PartyA", v)
	})
}
