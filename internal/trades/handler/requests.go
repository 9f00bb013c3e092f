package handler

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"affirm/internal/trades/models"
	dErrors "affirm/pkg/domain-errors"
)

// TradePayload is the request body for trade create and update calls.
type TradePayload struct {
	TradeID                  string  `json:"trade_id"`
	PartyA                   string  `json:"party_a"`
	PartyB                   string  `json:"party_b"`
	TradeDate                string  `json:"trade_date"`
	EffectiveDate            string  `json:"effective_date"`
	ScheduledTerminationDate string  `json:"scheduled_termination_date"`
	BondReturnPayer          string  `json:"bond_return_payer"`
	BondReturnReceiver       string  `json:"bond_return_receiver"`
	LocalCurrency            string  `json:"local_currency"`
	NotionalAmount           float64 `json:"notional_amount"`
	USDNotionalAmount        float64 `json:"usd_notional_amount"`
	InitialSpotRate          float64 `json:"initial_spot_rate"`
	CurrentMarketPrice       float64 `json:"current_market_price"`
	Underlier                string  `json:"underlier,omitempty"`
	ISIN                     string  `json:"isin,omitempty"`

	parsed *models.Trade
}

// Validate parses the payload into a domain trade.
func (p *TradePayload) Validate() error {
	payer, err := models.ParseReturnLeg(p.BondReturnPayer)
	if err != nil {
		return err
	}
	receiver, err := models.ParseReturnLeg(p.BondReturnReceiver)
	if err != nil {
		return err
	}

	now := time.Now()
	trade := &models.Trade{
		ID:                       uuid.NewString(),
		TradeID:                  strings.TrimSpace(p.TradeID),
		PartyA:                   strings.TrimSpace(p.PartyA),
		PartyB:                   strings.TrimSpace(p.PartyB),
		TradeDate:                strings.TrimSpace(p.TradeDate),
		EffectiveDate:            strings.TrimSpace(p.EffectiveDate),
		ScheduledTerminationDate: strings.TrimSpace(p.ScheduledTerminationDate),
		BondReturnPayer:          payer,
		BondReturnReceiver:       receiver,
		LocalCurrency:            strings.ToUpper(strings.TrimSpace(p.LocalCurrency)),
		NotionalAmount:           p.NotionalAmount,
		USDNotionalAmount:        p.USDNotionalAmount,
		InitialSpotRate:          p.InitialSpotRate,
		CurrentMarketPrice:       p.CurrentMarketPrice,
		Underlier:                strings.TrimSpace(p.Underlier),
		ISIN:                     strings.TrimSpace(p.ISIN),
		CreatedAt:                now,
		UpdatedAt:                now,
	}
	if err := trade.Validate(); err != nil {
		return err
	}
	p.parsed = trade
	return nil
}

// ParsedTrade returns the validated trade.
func (p *TradePayload) ParsedTrade() *models.Trade {
	return p.parsed
}

// ImportRequest is the request body for POST /trades/import.
type ImportRequest struct {
	Trades []TradePayload `json:"trs_trades"`

	parsed []*models.Trade
}

// Validate parses every trade in the import batch; a single bad record
// rejects the whole batch so imports stay all-or-nothing.
func (r *ImportRequest) Validate() error {
	if len(r.Trades) == 0 {
		return dErrors.New(dErrors.CodeValidation, "trs_trades is required")
	}
	seen := make(map[string]bool, len(r.Trades))
	parsed := make([]*models.Trade, 0, len(r.Trades))
	for i := range r.Trades {
		if err := r.Trades[i].Validate(); err != nil {
			return err
		}
		t := r.Trades[i].ParsedTrade()
		k := strings.ToLower(t.TradeID)
		if seen[k] {
			return dErrors.New(dErrors.CodeValidation, "duplicate trade_id in import: "+t.TradeID)
		}
		seen[k] = true
		parsed = append(parsed, t)
	}
	r.parsed = parsed
	return nil
}

// ParsedTrades returns the validated import batch.
func (r *ImportRequest) ParsedTrades() []*models.Trade {
	return r.parsed
}
