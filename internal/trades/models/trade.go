package models

import (
	"strings"
	"time"

	dErrors "affirm/pkg/domain-errors"
)

// ReturnLeg identifies which party pays or receives the bond return leg.
type ReturnLeg string

const (
	ReturnLegPartyA ReturnLeg = "PartyA"
	ReturnLegPartyB ReturnLeg = "PartyB"
)

// ParseReturnLeg constructs a ReturnLeg from external input.
func ParseReturnLeg(s string) (ReturnLeg, error) {
	switch ReturnLeg(s) {
	case ReturnLegPartyA, ReturnLegPartyB:
		return ReturnLeg(s), nil
	default:
		return "", dErrors.New(dErrors.CodeInvalidInput, "bond return leg must be PartyA or PartyB")
	}
}

// Trade is the TRS system-of-record: the internally trusted trade data that
// counterparty evidence is validated against. Owned by this module's CRUD
// surface; the validation core only ever reads it.
type Trade struct {
	ID                       string    `json:"id"`
	TradeID                  string    `json:"trade_id"`
	PartyA                   string    `json:"party_a"`
	PartyB                   string    `json:"party_b"`
	TradeDate                string    `json:"trade_date"`
	EffectiveDate            string    `json:"effective_date"`
	ScheduledTerminationDate string    `json:"scheduled_termination_date"`
	BondReturnPayer          ReturnLeg `json:"bond_return_payer"`
	BondReturnReceiver       ReturnLeg `json:"bond_return_receiver"`
	LocalCurrency            string    `json:"local_currency"`
	NotionalAmount           float64   `json:"notional_amount"`
	USDNotionalAmount        float64   `json:"usd_notional_amount"`
	InitialSpotRate          float64   `json:"initial_spot_rate"`
	CurrentMarketPrice       float64   `json:"current_market_price"`
	Underlier                string    `json:"underlier,omitempty"`
	ISIN                     string    `json:"isin,omitempty"`
	CreatedAt                time.Time `json:"created_at"`
	UpdatedAt                time.Time `json:"updated_at"`
}

// Validate enforces trade invariants before a create or update.
func (t *Trade) Validate() error {
	if strings.TrimSpace(t.TradeID) == "" {
		return dErrors.New(dErrors.CodeValidation, "trade_id is required")
	}
	if strings.TrimSpace(t.PartyA) == "" || strings.TrimSpace(t.PartyB) == "" {
		return dErrors.New(dErrors.CodeValidation, "party_a and party_b are required")
	}
	if _, err := ParseReturnLeg(string(t.BondReturnPayer)); err != nil {
		return err
	}
	if _, err := ParseReturnLeg(string(t.BondReturnReceiver)); err != nil {
		return err
	}
	if strings.TrimSpace(t.LocalCurrency) == "" {
		return dErrors.New(dErrors.CodeValidation, "local_currency is required")
	}
	if t.NotionalAmount <= 0 {
		return dErrors.New(dErrors.CodeValidation, "notional_amount must be positive")
	}
	return nil
}

// FieldValue exposes trade fields by the names used in matching rules so the
// comparator can address them generically. The bool result reports whether
// the field name is known.
func (t *Trade) FieldValue(name string) (any, bool) {
	switch name {
	case "trade_id":
		return t.TradeID, true
	case "party_a":
		return t.PartyA, true
	case "party_b":
		return t.PartyB, true
	case "trade_date":
		return t.TradeDate, true
	case "effective_date":
		return t.EffectiveDate, true
	case "scheduled_termination_date":
		return t.ScheduledTerminationDate, true
	case "bond_return_payer":
		return string(t.BondReturnPayer), true
	case "bond_return_receiver":
		return string(t.BondReturnReceiver), true
	case "local_currency":
		return t.LocalCurrency, true
	case "notional_amount":
		return t.NotionalAmount, true
	case "usd_notional_amount":
		return t.USDNotionalAmount, true
	case "initial_spot_rate":
		return t.InitialSpotRate, true
	case "current_market_price":
		return t.CurrentMarketPrice, true
	case "underlier":
		if t.Underlier == "" {
			return nil, true
		}
		return t.Underlier, true
	case "isin":
		if t.ISIN == "" {
			return nil, true
		}
		return t.ISIN, true
	default:
		return nil, false
	}
}

// ComparableFields lists the trade fields that matching rules may address, in
// report order.
var ComparableFields = []string{
	"trade_id",
	"party_a",
	"party_b",
	"trade_date",
	"effective_date",
	"scheduled_termination_date",
	"bond_return_payer",
	"bond_return_receiver",
	"local_currency",
	"notional_amount",
	"usd_notional_amount",
	"initial_spot_rate",
	"current_market_price",
	"underlier",
	"isin",
}
