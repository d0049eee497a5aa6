package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/cryptoedge/tradecore/internal/models"
)

// DatabasePool defines the interface for database pool operations.
// This interface allows for both real pool and mock pool implementations.
type DatabasePool interface {
	// QueryRow executes a query that is expected to return at most one row.
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	// Exec executes a query without returning any rows.
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	// Query executes a query that returns rows.
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
}

// Repository persists trades and portfolio snapshots.
type Repository struct {
	pool DatabasePool
}

// NewRepository creates a trade and snapshot repository backed by the
// given pool.
func NewRepository(pool DatabasePool) *Repository {
	return &Repository{pool: pool}
}

// EnsureSchema creates the trade and snapshot tables if they do not exist.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS trades (
			id UUID PRIMARY KEY,
			ts TIMESTAMPTZ NOT NULL,
			symbol TEXT NOT NULL,
			action TEXT NOT NULL,
			quantity NUMERIC NOT NULL,
			price NUMERIC NOT NULL,
			amount NUMERIC NOT NULL,
			fees NUMERIC NOT NULL DEFAULT 0,
			order_id TEXT NOT NULL DEFAULT '',
			success BOOLEAN NOT NULL DEFAULT true
		)`,
		`CREATE INDEX IF NOT EXISTS idx_trades_ts ON trades (ts)`,
		`CREATE TABLE IF NOT EXISTS portfolio_snapshots (
			id UUID PRIMARY KEY,
			ts TIMESTAMPTZ NOT NULL,
			total_value NUMERIC NOT NULL,
			available_balance NUMERIC NOT NULL,
			positions JSONB NOT NULL DEFAULT '{}',
			unrealized_pnl NUMERIC NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_portfolio_snapshots_ts ON portfolio_snapshots (ts)`,
	}

	for _, stmt := range ddl {
		if _, err := r.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to ensure schema: %w", err)
		}
	}
	return nil
}

// SaveTrade inserts one executed trade. A missing id is generated.
func (r *Repository) SaveTrade(ctx context.Context, trade *models.Trade) error {
	id := trade.ID
	if id == "" {
		id = uuid.New().String()
	}

	timestamp := trade.Timestamp
	if timestamp.IsZero() {
		timestamp = time.Now()
	}

	query := `
		INSERT INTO trades (id, ts, symbol, action, quantity, price, amount, fees, order_id, success)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.pool.Exec(ctx, query,
		id, timestamp, trade.Symbol, string(trade.Action),
		trade.Quantity, trade.Price, trade.Amount, trade.Fees,
		trade.OrderID, trade.Success,
	)
	if err != nil {
		return fmt.Errorf("failed to save trade: %w", err)
	}
	return nil
}

// SaveSnapshot inserts one portfolio snapshot. Positions are stored as a
// JSONB document keyed by symbol.
func (r *Repository) SaveSnapshot(ctx context.Context, snapshot *models.PortfolioSnapshot) error {
	positions, err := json.Marshal(snapshot.Positions)
	if err != nil {
		return fmt.Errorf("failed to encode positions: %w", err)
	}

	timestamp := snapshot.Timestamp
	if timestamp.IsZero() {
		timestamp = time.Now()
	}

	query := `
		INSERT INTO portfolio_snapshots (id, ts, total_value, available_balance, positions, unrealized_pnl)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err = r.pool.Exec(ctx, query,
		uuid.New().String(), timestamp,
		snapshot.TotalValue, snapshot.AvailableBalance,
		positions, snapshot.UnrealizedPnL,
	)
	if err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

// RecentTrades returns up to limit trades in chronological order.
func (r *Repository) RecentTrades(ctx context.Context, limit int) ([]models.Trade, error) {
	query := `
		SELECT id, ts, symbol, action, quantity, price, amount, fees, order_id, success
		FROM (
			SELECT id, ts, symbol, action, quantity, price, amount, fees, order_id, success
			FROM trades
			ORDER BY ts DESC
			LIMIT $1
		) recent
		ORDER BY ts ASC
	`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query trades: %w", err)
	}
	defer rows.Close()

	var trades []models.Trade
	for rows.Next() {
		var t models.Trade
		var action string
		err := rows.Scan(
			&t.ID, &t.Timestamp, &t.Symbol, &action,
			&t.Quantity, &t.Price, &t.Amount, &t.Fees,
			&t.OrderID, &t.Success,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trade: %w", err)
		}
		t.Action = models.TradeAction(action)
		trades = append(trades, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read trades: %w", err)
	}

	return trades, nil
}

// RecentSnapshots returns up to limit snapshots in chronological order.
func (r *Repository) RecentSnapshots(ctx context.Context, limit int) ([]models.PortfolioSnapshot, error) {
	query := `
		SELECT ts, total_value, available_balance, positions, unrealized_pnl
		FROM (
			SELECT ts, total_value, available_balance, positions, unrealized_pnl
			FROM portfolio_snapshots
			ORDER BY ts DESC
			LIMIT $1
		) recent
		ORDER BY ts ASC
	`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []models.PortfolioSnapshot
	for rows.Next() {
		var s models.PortfolioSnapshot
		var positions []byte
		err := rows.Scan(&s.Timestamp, &s.TotalValue, &s.AvailableBalance, &positions, &s.UnrealizedPnL)
		if err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		if err := json.Unmarshal(positions, &s.Positions); err != nil {
			return nil, fmt.Errorf("failed to decode positions: %w", err)
		}
		snapshots = append(snapshots, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read snapshots: %w", err)
	}

	return snapshots, nil
}
