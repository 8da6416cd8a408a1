package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/ngoclma/risk-monitoring-system/internal/errors"
	"github.com/ngoclma/risk-monitoring-system/internal/models"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite-based data store.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool for concurrent access
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	store := &SQLiteStore{db: db}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// initSchema creates all required tables and indexes.
func (s *SQLiteStore) initSchema() error {
	schema := `
	-- Brokerage clients
	CREATE TABLE IF NOT EXISTS clients (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		email TEXT UNIQUE,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	-- Client holdings; duplicate symbols per client are distinct rows
	CREATE TABLE IF NOT EXISTS positions (
		id TEXT PRIMARY KEY,
		client_id INTEGER NOT NULL,
		symbol TEXT NOT NULL,
		quantity INTEGER NOT NULL,
		cost_basis REAL NOT NULL,
		created_at DATETIME NOT NULL,
		FOREIGN KEY (client_id) REFERENCES clients(id)
	);

	-- Loan terms, one record per client
	CREATE TABLE IF NOT EXISTS margins (
		client_id INTEGER PRIMARY KEY,
		loan_amount REAL NOT NULL,
		margin_requirement_rate REAL NOT NULL DEFAULT 0.25,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (client_id) REFERENCES clients(id)
	);

	-- Durable copy of the latest quote per symbol
	CREATE TABLE IF NOT EXISTS quotes (
		symbol TEXT PRIMARY KEY,
		price REAL NOT NULL,
		updated_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_positions_client ON positions(client_id);
	CREATE INDEX IF NOT EXISTS idx_positions_symbol ON positions(symbol);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ============================================================================
// Client Methods
// ============================================================================

// CreateClient inserts a new client and returns its ID.
func (s *SQLiteStore) CreateClient(ctx context.Context, name, email string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO clients (name, email) VALUES (?, ?)
	`, name, email)
	if err != nil {
		return 0, fmt.Errorf("failed to create client: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read client id: %w", err)
	}
	return id, nil
}

// GetClient retrieves a client by ID.
func (s *SQLiteStore) GetClient(ctx context.Context, clientID int64) (*models.Client, error) {
	var c models.Client
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, email FROM clients WHERE id = ?
	`, clientID).Scan(&c.ID, &c.Name, &c.Email)
	if err == sql.ErrNoRows {
		return nil, errors.ErrClientNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get client: %w", err)
	}
	return &c, nil
}

// ============================================================================
// Position Methods
// ============================================================================

// CreatePosition inserts a new position.
func (s *SQLiteStore) CreatePosition(ctx context.Context, position *models.Position) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO positions (id, client_id, symbol, quantity, cost_basis, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, position.ID, position.ClientID, position.Symbol, position.Quantity, position.CostBasis, position.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create position: %w", err)
	}
	return nil
}

// GetPositions retrieves a client's positions in insertion order, which is
// the order the margin snapshot breakdown reports them in.
func (s *SQLiteStore) GetPositions(ctx context.Context, clientID int64) ([]models.Position, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, client_id, symbol, quantity, cost_basis, created_at
		FROM positions
		WHERE client_id = ?
		ORDER BY rowid ASC
	`, clientID)
	if err != nil {
		return nil, fmt.Errorf("failed to query positions: %w", err)
	}
	defer rows.Close()

	var positions []models.Position
	for rows.Next() {
		var p models.Position
		if err := rows.Scan(&p.ID, &p.ClientID, &p.Symbol, &p.Quantity, &p.CostBasis, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan position: %w", err)
		}
		positions = append(positions, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating positions: %w", err)
	}
	return positions, nil
}

// DistinctSymbols returns the deduplicated set of symbols across all
// current positions.
func (s *SQLiteStore) DistinctSymbols(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT symbol FROM positions ORDER BY symbol ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query symbols: %w", err)
	}
	defer rows.Close()

	var symbols []string
	for rows.Next() {
		var symbol string
		if err := rows.Scan(&symbol); err != nil {
			return nil, fmt.Errorf("failed to scan symbol: %w", err)
		}
		symbols = append(symbols, symbol)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating symbols: %w", err)
	}
	return symbols, nil
}

// ============================================================================
// Margin Methods
// ============================================================================

// GetMargin retrieves a client's margin record.
func (s *SQLiteStore) GetMargin(ctx context.Context, clientID int64) (*models.Margin, error) {
	var m models.Margin
	err := s.db.QueryRowContext(ctx, `
		SELECT client_id, loan_amount, margin_requirement_rate
		FROM margins WHERE client_id = ?
	`, clientID).Scan(&m.ClientID, &m.LoanAmount, &m.RequirementRate)
	if err == sql.ErrNoRows {
		return nil, errors.ErrMarginNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get margin: %w", err)
	}
	return &m, nil
}

// SaveMargin creates or replaces a client's margin record.
func (s *SQLiteStore) SaveMargin(ctx context.Context, margin *models.Margin) error {
	rate := margin.RequirementRate
	if rate == 0 {
		rate = models.DefaultRequirementRate
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO margins (client_id, loan_amount, margin_requirement_rate, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
	`, margin.ClientID, margin.LoanAmount, rate)
	if err != nil {
		return fmt.Errorf("failed to save margin: %w", err)
	}
	return nil
}

// UpdateLoanAmount sets a client's outstanding loan amount. The ledger
// serializes callers per client; this is the write half of its
// read-modify-write.
func (s *SQLiteStore) UpdateLoanAmount(ctx context.Context, clientID int64, amount float64) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE margins SET loan_amount = ?, updated_at = CURRENT_TIMESTAMP WHERE client_id = ?
	`, amount, clientID)
	if err != nil {
		return fmt.Errorf("failed to update loan amount: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read update result: %w", err)
	}
	if affected == 0 {
		return errors.ErrMarginNotFound
	}
	return nil
}

// ============================================================================
// Quote Methods
// ============================================================================

// SaveQuote upserts the quote row for a symbol (last write wins).
func (s *SQLiteStore) SaveQuote(ctx context.Context, quote models.PriceQuote) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO quotes (symbol, price, updated_at)
		VALUES (?, ?, ?)
	`, quote.Symbol, quote.Price, quote.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to save quote: %w", err)
	}
	return nil
}

// ListQuotes returns all stored quotes ordered by symbol.
func (s *SQLiteStore) ListQuotes(ctx context.Context) ([]models.PriceQuote, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT symbol, price, updated_at FROM quotes ORDER BY symbol ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query quotes: %w", err)
	}
	defer rows.Close()

	var quotes []models.PriceQuote
	for rows.Next() {
		var q models.PriceQuote
		if err := rows.Scan(&q.Symbol, &q.Price, &q.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan quote: %w", err)
		}
		quotes = append(quotes, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating quotes: %w", err)
	}
	return quotes, nil
}

// ============================================================================
// Maintenance
// ============================================================================

// Reset clears all data.
func (s *SQLiteStore) Reset(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"positions", "margins", "quotes", "clients"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
