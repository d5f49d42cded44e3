package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/spotwindow/spotwindow/internal/engine"
)

// Store handles persistent storage using SQLite: cached price days,
// the single settings row, and notification subscriptions
type Store struct {
	db *sql.DB
}

// Settings are the plain values the engine is parameterized with. The
// engine itself never touches the store.
type Settings struct {
	Region        engine.Region `json:"region"`
	VATEnabled    bool          `json:"vat_enabled"`
	PowerKW       float64       `json:"power_kw"`
	LastDuration  time.Duration `json:"last_duration"`
	LastEnergyKWh float64       `json:"last_energy_kwh"`
}

// Subscription is a stored notification threshold for one user
type Subscription struct {
	ID         string        `json:"id"`
	Region     engine.Region `json:"region"`
	Threshold  float64       `json:"threshold"` // ct/kWh
	VATEnabled bool          `json:"vat_enabled"`
	CreatedAt  time.Time     `json:"created_at"`
}

// NewStore creates a new store and initializes the database
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	store := &Store{db: db}
	if err := store.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// initialize creates the database schema
func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS settings (
		id TEXT PRIMARY KEY,
		region TEXT DEFAULT 'DE',
		vat_enabled INTEGER DEFAULT 1,
		power_kw REAL DEFAULT 0,
		last_duration_min INTEGER DEFAULT 180,
		last_energy_kwh REAL DEFAULT 0,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS price_cache (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		region TEXT NOT NULL,
		date TEXT NOT NULL,
		points TEXT NOT NULL,
		fetched_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(region, date)
	);

	CREATE TABLE IF NOT EXISTS subscriptions (
		id TEXT PRIMARY KEY,
		region TEXT NOT NULL,
		threshold REAL NOT NULL,
		vat_enabled INTEGER DEFAULT 1,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_price_cache_date ON price_cache(region, date);
	CREATE INDEX IF NOT EXISTS idx_subscriptions_region ON subscriptions(region);
	`

	_, err := s.db.Exec(schema)
	return err
}

// SaveSettings saves the single settings row
func (s *Store) SaveSettings(cfg Settings) error {
	query := `INSERT OR REPLACE INTO settings
		(id, region, vat_enabled, power_kw, last_duration_min, last_energy_kwh, updated_at)
		VALUES ('default', ?, ?, ?, ?, ?, ?)`

	_, err := s.db.Exec(query, string(cfg.Region), boolToInt(cfg.VATEnabled), cfg.PowerKW,
		int(cfg.LastDuration/time.Minute), cfg.LastEnergyKWh, time.Now())
	return err
}

// GetSettings retrieves the settings row; defaults when none was saved
func (s *Store) GetSettings() (Settings, error) {
	query := `SELECT region, vat_enabled, power_kw, last_duration_min, last_energy_kwh
		FROM settings WHERE id = 'default'`

	var cfg Settings
	var region string
	var vatInt, durationMin int

	err := s.db.QueryRow(query).Scan(&region, &vatInt, &cfg.PowerKW, &durationMin, &cfg.LastEnergyKWh)
	if err == sql.ErrNoRows {
		return Settings{Region: engine.RegionDE, VATEnabled: true, LastDuration: 3 * time.Hour}, nil
	}
	if err != nil {
		return Settings{}, err
	}

	cfg.Region = engine.Region(region)
	cfg.VATEnabled = vatInt == 1
	cfg.LastDuration = time.Duration(durationMin) * time.Minute
	return cfg, nil
}

// CachePrices stores fetched points for a region and day
func (s *Store) CachePrices(region engine.Region, date time.Time, points []engine.PricePoint) error {
	pointsJSON, err := json.Marshal(points)
	if err != nil {
		return err
	}
	dateStr := date.Format("2006-01-02")

	query := `INSERT OR REPLACE INTO price_cache (region, date, points, fetched_at)
		VALUES (?, ?, ?, ?)`

	_, err = s.db.Exec(query, string(region), dateStr, string(pointsJSON), time.Now())
	return err
}

// CachedPrices retrieves cached points for a region and day
func (s *Store) CachedPrices(region engine.Region, date time.Time) ([]engine.PricePoint, error) {
	dateStr := date.Format("2006-01-02")
	query := `SELECT points FROM price_cache WHERE region = ? AND date = ?`

	var pointsJSON string
	err := s.db.QueryRow(query, string(region), dateStr).Scan(&pointsJSON)
	if err != nil {
		return nil, err
	}

	var points []engine.PricePoint
	if err := json.Unmarshal([]byte(pointsJSON), &points); err != nil {
		return nil, err
	}
	return points, nil
}

// AddSubscription stores a new notification threshold and returns it
// with a generated id
func (s *Store) AddSubscription(region engine.Region, threshold float64, vatEnabled bool) (Subscription, error) {
	sub := Subscription{
		ID:         uuid.NewString(),
		Region:     region,
		Threshold:  threshold,
		VATEnabled: vatEnabled,
		CreatedAt:  time.Now().UTC(),
	}

	query := `INSERT INTO subscriptions (id, region, threshold, vat_enabled, created_at)
		VALUES (?, ?, ?, ?, ?)`

	_, err := s.db.Exec(query, sub.ID, string(sub.Region), sub.Threshold,
		boolToInt(sub.VATEnabled), sub.CreatedAt.Format(time.RFC3339))
	if err != nil {
		return Subscription{}, err
	}
	return sub, nil
}

// Subscriptions retrieves all stored subscriptions for a region
func (s *Store) Subscriptions(region engine.Region) ([]Subscription, error) {
	query := `SELECT id, region, threshold, vat_enabled, created_at
		FROM subscriptions WHERE region = ? ORDER BY created_at`

	rows, err := s.db.Query(query, string(region))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	subs := []Subscription{}
	for rows.Next() {
		var sub Subscription
		var region, createdAt string
		var vatInt int

		if err := rows.Scan(&sub.ID, &region, &sub.Threshold, &vatInt, &createdAt); err != nil {
			return nil, err
		}
		sub.Region = engine.Region(region)
		sub.VATEnabled = vatInt == 1
		if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
			sub.CreatedAt = t
		}
		subs = append(subs, sub)
	}

	return subs, rows.Err()
}

// DeleteSubscription removes a subscription by id
func (s *Store) DeleteSubscription(id string) error {
	_, err := s.db.Exec(`DELETE FROM subscriptions WHERE id = ?`, id)
	return err
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
