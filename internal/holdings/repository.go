package holdings

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Schema creates the holdings table. Lots are stored as a JSON array in
// a single column; the legacy aggregate columns survive for records
// imported from before lot tracking existed.
const Schema = `
CREATE TABLE IF NOT EXISTS holdings (
	id TEXT PRIMARY KEY,
	symbol TEXT NOT NULL,
	lots TEXT NOT NULL DEFAULT '[]',
	legacy_quantity REAL NOT NULL DEFAULT 0,
	legacy_average_price REAL NOT NULL DEFAULT 0,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_holdings_symbol ON holdings(symbol);
`

// ErrNotFound is returned when a holding id does not exist.
var ErrNotFound = fmt.Errorf("holding not found")

// Repository handles CRUD operations for holdings.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a holdings repository.
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repository", "holdings").Logger(),
	}
}

// Create inserts a new holding, assigning its id and timestamps.
func (r *Repository) Create(h Holding) (Holding, error) {
	h.ID = uuid.New().String()
	now := time.Now().UTC().Format(time.RFC3339)
	if h.CreatedAt == "" {
		h.CreatedAt = now
	}
	h.UpdatedAt = now

	lots, err := json.Marshal(h.Lots)
	if err != nil {
		return Holding{}, fmt.Errorf("failed to marshal lots: %w", err)
	}

	_, err = r.db.Exec(`
		INSERT INTO holdings
		(id, symbol, lots, legacy_quantity, legacy_average_price, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, h.ID, h.Symbol, string(lots), h.LegacyQuantity, h.LegacyAveragePrice, h.CreatedAt, h.UpdatedAt)
	if err != nil {
		return Holding{}, fmt.Errorf("failed to insert holding: %w", err)
	}

	r.log.Info().Str("symbol", h.Symbol).Str("id", h.ID).Msg("Holding created")
	return h, nil
}

// Update replaces the mutable fields of an existing holding.
func (r *Repository) Update(h Holding) (Holding, error) {
	h.UpdatedAt = time.Now().UTC().Format(time.RFC3339)

	lots, err := json.Marshal(h.Lots)
	if err != nil {
		return Holding{}, fmt.Errorf("failed to marshal lots: %w", err)
	}

	res, err := r.db.Exec(`
		UPDATE holdings
		SET symbol = ?, lots = ?, legacy_quantity = ?, legacy_average_price = ?, updated_at = ?
		WHERE id = ?
	`, h.Symbol, string(lots), h.LegacyQuantity, h.LegacyAveragePrice, h.UpdatedAt, h.ID)
	if err != nil {
		return Holding{}, fmt.Errorf("failed to update holding: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return Holding{}, ErrNotFound
	}

	return h, nil
}

// Delete removes a holding by id.
func (r *Repository) Delete(id string) error {
	res, err := r.db.Exec(`DELETE FROM holdings WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete holding: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	r.log.Info().Str("id", id).Msg("Holding deleted")
	return nil
}

// Get returns one holding by id.
func (r *Repository) Get(id string) (Holding, error) {
	row := r.db.QueryRow(`
		SELECT id, symbol, lots, legacy_quantity, legacy_average_price, created_at, updated_at
		FROM holdings WHERE id = ?
	`, id)
	return r.scan(row)
}

// List returns all holdings ordered by symbol.
func (r *Repository) List() ([]Holding, error) {
	rows, err := r.db.Query(`
		SELECT id, symbol, lots, legacy_quantity, legacy_average_price, created_at, updated_at
		FROM holdings ORDER BY symbol
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query holdings: %w", err)
	}
	defer rows.Close()

	var list []Holding
	for rows.Next() {
		h, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, h)
	}
	return list, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *Repository) scan(row rowScanner) (Holding, error) {
	var h Holding
	var lots string
	err := row.Scan(&h.ID, &h.Symbol, &lots, &h.LegacyQuantity, &h.LegacyAveragePrice, &h.CreatedAt, &h.UpdatedAt)
	if err == sql.ErrNoRows {
		return Holding{}, ErrNotFound
	}
	if err != nil {
		return Holding{}, fmt.Errorf("failed to scan holding: %w", err)
	}
	if err := json.Unmarshal([]byte(lots), &h.Lots); err != nil {
		// Corrupt lots JSON degrades to the legacy fields instead of
		// making the whole holding unreadable.
		r.log.Warn().Err(err).Str("id", h.ID).Msg("Unreadable lots JSON, falling back to legacy fields")
		h.Lots = nil
	}
	return h, nil
}
