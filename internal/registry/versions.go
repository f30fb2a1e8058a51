package registry

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/recipeserver/cloudcmd/internal/commandset"
	"github.com/recipeserver/cloudcmd/internal/wire"
)

// Version is a saved snapshot of a draft's command sets.
type Version struct {
	ID        int64
	DraftID   int64
	Version   int
	CreatedAt string
	Operation string
	Sets      []commandset.CommandSet
}

// recordVersionTx stores sets as the next version inside an open transaction.
// Snapshots use the current wire shape and keep every set.
func (r *Repository) recordVersionTx(trx *sql.Tx, draftID int64, sets []commandset.CommandSet, operation string) error {
	payload, err := json.Marshal(wire.Snapshot(sets))
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	var maxVersion sql.NullInt64
	row := trx.QueryRow("SELECT COALESCE(MAX(version), 0) FROM draft_versions WHERE draft_id = ?", draftID)
	if err := row.Scan(&maxVersion); err != nil {
		return err
	}
	_, err = trx.Exec(`INSERT INTO draft_versions (draft_id, version, created_at, payload, operation)
		VALUES (?, ?, datetime('now'), ?, ?)`, draftID, int(maxVersion.Int64)+1, string(payload), operation)
	if err != nil {
		return fmt.Errorf("insert version: %w", err)
	}
	return nil
}

func scanVersion(row interface{ Scan(...any) error }) (Version, error) {
	var v Version
	var payload string
	if err := row.Scan(&v.ID, &v.DraftID, &v.Version, &v.CreatedAt, &payload, &v.Operation); err != nil {
		return v, err
	}
	sets, err := wire.Decode([]byte(payload))
	if err != nil {
		return v, fmt.Errorf("decode version %d: %w", v.Version, err)
	}
	v.Sets = sets
	return v, nil
}

// ListVersions returns all versions for a draft, newest first.
func (r *Repository) ListVersions(draftID int64) ([]Version, error) {
	rows, err := r.db.Query(`SELECT id, draft_id, version, created_at, payload, operation
		FROM draft_versions WHERE draft_id = ? ORDER BY version DESC`, draftID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []Version
	for rows.Next() {
		v, err := scanVersion(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// ListVersionsByName finds the draft by name and returns its versions.
func (r *Repository) ListVersionsByName(name string) ([]Version, error) {
	row := r.db.QueryRow("SELECT id FROM drafts WHERE name = ?", name)
	var id int64
	if err := row.Scan(&id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return r.ListVersions(id)
}

// GetVersion returns one version of a draft, or (nil, nil) if it does not exist.
func (r *Repository) GetVersion(draftID int64, versionNum int) (*Version, error) {
	row := r.db.QueryRow(`SELECT id, draft_id, version, created_at, payload, operation
		FROM draft_versions WHERE draft_id = ? AND version = ?`, draftID, versionNum)
	v, err := scanVersion(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &v, nil
}

// ApplyVersionByName restores the named draft to a saved version and records
// the result as a new 'rollback' version.
func (r *Repository) ApplyVersionByName(name string, versionNum int) error {
	d, err := r.MustGetDraft(name)
	if err != nil {
		return err
	}
	v, err := r.GetVersion(d.ID, versionNum)
	if err != nil {
		return err
	}
	if v == nil {
		return fmt.Errorf("version %d not found for %s", versionNum, name)
	}
	if err := r.replaceSets(d.ID, commandset.Load(v.Sets, d.MaxCommandSets), "rollback"); err != nil {
		return err
	}
	r.log.Info("draft rolled back", zap.String("draft", name), zap.Int("version", versionNum))
	return nil
}
