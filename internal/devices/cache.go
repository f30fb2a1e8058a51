package devices

import (
	"database/sql"
	"fmt"
	"time"
)

// Cache persists the last fetched device-model list so validation can run
// without a server round trip.
type Cache struct {
	db *sql.DB
}

// NewCache returns a Cache backed by the device_models table.
func NewCache(db *sql.DB) *Cache {
	return &Cache{db: db}
}

// Replace swaps the cached list for models in a single transaction.
func (c *Cache) Replace(models []Model, fetchedAt time.Time) error {
	trx, err := c.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = trx.Rollback() }()

	if _, err := trx.Exec("DELETE FROM device_models"); err != nil {
		return err
	}
	ts := fetchedAt.UTC().Format(time.RFC3339)
	for _, m := range models {
		if _, err := trx.Exec("INSERT INTO device_models (id, identifier, name, status, fetched_at) VALUES (?, ?, ?, ?, ?)",
			m.ID, m.Identifier, m.Name, m.Status, ts); err != nil {
			return fmt.Errorf("cache model %q: %w", m.Identifier, err)
		}
	}
	return trx.Commit()
}

// List returns the cached models ordered by identifier and the time they were
// fetched. An empty cache returns a zero time.
func (c *Cache) List() ([]Model, time.Time, error) {
	rows, err := c.db.Query("SELECT id, identifier, name, status, fetched_at FROM device_models ORDER BY identifier")
	if err != nil {
		return nil, time.Time{}, err
	}
	defer func() { _ = rows.Close() }()
	var out []Model
	var fetched time.Time
	for rows.Next() {
		var m Model
		var ts string
		if err := rows.Scan(&m.ID, &m.Identifier, &m.Name, &m.Status, &ts); err != nil {
			return nil, time.Time{}, err
		}
		if t, err := time.Parse(time.RFC3339, ts); err == nil {
			fetched = t
		}
		out = append(out, m)
	}
	return out, fetched, rows.Err()
}
