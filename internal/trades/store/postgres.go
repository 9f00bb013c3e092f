package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"affirm/internal/trades/models"
	"affirm/pkg/platform/sentinel"
)

// Postgres persists trades in PostgreSQL via database/sql and lib/pq.
type Postgres struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed trade store.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// EnsureSchema creates the trades table when it does not exist. Kept here
// instead of a migration tool because the table is a single self-contained
// relation owned by this store.
func (s *Postgres) EnsureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS trs_trades (
    id                         TEXT PRIMARY KEY,
    trade_id                   TEXT NOT NULL,
    trade_id_key               TEXT NOT NULL UNIQUE,
    party_a                    TEXT NOT NULL,
    party_b                    TEXT NOT NULL,
    trade_date                 TEXT NOT NULL,
    effective_date             TEXT NOT NULL,
    scheduled_termination_date TEXT NOT NULL,
    bond_return_payer          TEXT NOT NULL,
    bond_return_receiver       TEXT NOT NULL,
    local_currency             TEXT NOT NULL,
    notional_amount            DOUBLE PRECISION NOT NULL,
    usd_notional_amount        DOUBLE PRECISION NOT NULL,
    initial_spot_rate          DOUBLE PRECISION NOT NULL,
    current_market_price       DOUBLE PRECISION NOT NULL,
    underlier                  TEXT NOT NULL DEFAULT '',
    isin                       TEXT NOT NULL DEFAULT '',
    created_at                 TIMESTAMPTZ NOT NULL,
    updated_at                 TIMESTAMPTZ NOT NULL
)`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("ensure trades schema: %w", err)
	}
	return nil
}

const tradeColumns = `id, trade_id, party_a, party_b, trade_date, effective_date,
scheduled_termination_date, bond_return_payer, bond_return_receiver,
local_currency, notional_amount, usd_notional_amount, initial_spot_rate,
current_market_price, underlier, isin, created_at, updated_at`

func scanTrade(row interface{ Scan(dest ...any) error }) (*models.Trade, error) {
	var t models.Trade
	err := row.Scan(
		&t.ID, &t.TradeID, &t.PartyA, &t.PartyB, &t.TradeDate, &t.EffectiveDate,
		&t.ScheduledTerminationDate, &t.BondReturnPayer, &t.BondReturnReceiver,
		&t.LocalCurrency, &t.NotionalAmount, &t.USDNotionalAmount, &t.InitialSpotRate,
		&t.CurrentMarketPrice, &t.Underlier, &t.ISIN, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *Postgres) List(ctx context.Context) ([]*models.Trade, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+tradeColumns+` FROM trs_trades ORDER BY trade_id`)
	if err != nil {
		return nil, fmt.Errorf("list trades: %w", err)
	}
	defer rows.Close()

	var trades []*models.Trade
	for rows.Next() {
		t, err := scanTrade(rows)
		if err != nil {
			return nil, fmt.Errorf("scan trade: %w", err)
		}
		trades = append(trades, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trades: %w", err)
	}
	return trades, nil
}

func (s *Postgres) FindByTradeID(ctx context.Context, tradeID string) (*models.Trade, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+tradeColumns+` FROM trs_trades WHERE trade_id_key = $1`,
		key(tradeID))
	t, err := scanTrade(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find trade: %w", err)
	}
	return t, nil
}

func (s *Postgres) Create(ctx context.Context, trade *models.Trade) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO trs_trades (`+tradeColumns+`, trade_id_key)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`,
		trade.ID, trade.TradeID, trade.PartyA, trade.PartyB, trade.TradeDate,
		trade.EffectiveDate, trade.ScheduledTerminationDate,
		string(trade.BondReturnPayer), string(trade.BondReturnReceiver),
		trade.LocalCurrency, trade.NotionalAmount, trade.USDNotionalAmount,
		trade.InitialSpotRate, trade.CurrentMarketPrice, trade.Underlier,
		trade.ISIN, trade.CreatedAt, trade.UpdatedAt, key(trade.TradeID),
	)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
		return sentinel.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("create trade: %w", err)
	}
	return nil
}

func (s *Postgres) Update(ctx context.Context, trade *models.Trade) error {
	res, err := s.db.ExecContext(ctx, `
UPDATE trs_trades SET
    party_a = $2, party_b = $3, trade_date = $4, effective_date = $5,
    scheduled_termination_date = $6, bond_return_payer = $7,
    bond_return_receiver = $8, local_currency = $9, notional_amount = $10,
    usd_notional_amount = $11, initial_spot_rate = $12,
    current_market_price = $13, underlier = $14, isin = $15, updated_at = $16
WHERE trade_id_key = $1`,
		key(trade.TradeID), trade.PartyA, trade.PartyB, trade.TradeDate,
		trade.EffectiveDate, trade.ScheduledTerminationDate,
		string(trade.BondReturnPayer), string(trade.BondReturnReceiver),
		trade.LocalCurrency, trade.NotionalAmount, trade.USDNotionalAmount,
		trade.InitialSpotRate, trade.CurrentMarketPrice, trade.Underlier,
		trade.ISIN, trade.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update trade: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update trade rows affected: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) Delete(ctx context.Context, tradeID string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM trs_trades WHERE trade_id_key = $1`, key(tradeID))
	if err != nil {
		return fmt.Errorf("delete trade: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete trade rows affected: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

var _ Store = (*Postgres)(nil)
