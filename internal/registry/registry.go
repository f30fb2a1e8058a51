package registry

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/recipeserver/cloudcmd/internal/commandset"
	"github.com/recipeserver/cloudcmd/internal/logging"
	"github.com/recipeserver/cloudcmd/internal/nameutil"
)

// Repository provides CRUD operations for drafts and their command sets.
type Repository struct {
	db  *sql.DB
	log *zap.Logger
}

// NewRepository creates a new Repository using db. A nil logger discards output.
func NewRepository(db *sql.DB, log *zap.Logger) *Repository {
	return &Repository{db: db, log: logging.OrNop(log)}
}

// CreateDraft inserts a new draft holding s and returns its ID. The initial
// state is recorded as the first version.
func (r *Repository) CreateDraft(name string, recipeID *string, s commandset.Session) (int64, error) {
	name = strings.TrimSpace(name)
	if err := nameutil.ValidateName(name); err != nil {
		return 0, err
	}
	maxSets := s.MaxSets
	if maxSets <= 0 {
		maxSets = commandset.DefaultMaxSets
	}

	trx, err := r.db.Begin()
	if err != nil {
		return 0, err
	}
	defer func() { _ = trx.Rollback() }()

	// the NOT EXISTS guard keeps the uniqueness check inside the DB engine
	res, err := trx.Exec(`INSERT INTO drafts (name, recipe_id, max_command_sets, created_at)
			SELECT ?, ?, ?, datetime('now')
			WHERE NOT EXISTS(SELECT 1 FROM drafts WHERE TRIM(name) = ?)`, name, recipeID, maxSets, name)
	if err != nil {
		return 0, fmt.Errorf("insert draft: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if rows == 0 {
		return 0, fmt.Errorf("name %q already in use", name)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	if err := r.insertSetsTx(trx, id, s.Sets); err != nil {
		return 0, err
	}
	if err := r.recordVersionTx(trx, id, s.Sets, "create"); err != nil {
		return 0, err
	}
	if err := trx.Commit(); err != nil {
		return 0, err
	}
	r.log.Debug("draft created", zap.String("draft", name), zap.Int64("id", id), zap.Int("sets", len(s.Sets)))
	return id, nil
}

func (r *Repository) insertSetsTx(trx *sql.Tx, draftID int64, sets []commandset.CommandSet) error {
	for i, cs := range sets {
		res, err := trx.Exec("INSERT INTO draft_command_sets (draft_id, position, model, hex_command) VALUES (?, ?, ?, ?)",
			draftID, i+1, cs.Model(), cs.HexCommand)
		if err != nil {
			return fmt.Errorf("insert command set: %w", err)
		}
		setID, err := res.LastInsertId()
		if err != nil {
			return err
		}
		for j, s := range cs.Steps {
			if _, err := trx.Exec("INSERT INTO draft_steps (command_set_id, position, step_no, description) VALUES (?, ?, ?, ?)",
				setID, j+1, s.No, s.Description); err != nil {
				return fmt.Errorf("insert step: %w", err)
			}
		}
	}
	return nil
}

func (r *Repository) deleteSetsTx(trx *sql.Tx, draftID int64) error {
	if _, err := trx.Exec("DELETE FROM draft_steps WHERE command_set_id IN (SELECT id FROM draft_command_sets WHERE draft_id = ?)", draftID); err != nil {
		return err
	}
	_, err := trx.Exec("DELETE FROM draft_command_sets WHERE draft_id = ?", draftID)
	return err
}

type querier interface {
	Query(query string, args ...any) (*sql.Rows, error)
}

// readSets loads a draft's sets in position order with their steps in list order.
func readSets(q querier, draftID int64) ([]commandset.CommandSet, error) {
	rows, err := q.Query(`SELECT cs.id, cs.model, cs.hex_command, s.step_no, s.description
		FROM draft_command_sets cs
		LEFT JOIN draft_steps s ON s.command_set_id = cs.id
		WHERE cs.draft_id = ?
		ORDER BY cs.position ASC, s.position ASC`, draftID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []commandset.CommandSet
	lastID := int64(-1)
	for rows.Next() {
		var setID int64
		var cs commandset.CommandSet
		var no sql.NullInt64
		var desc sql.NullString
		if err := rows.Scan(&setID, &cs.DeviceModel, &cs.HexCommand, &no, &desc); err != nil {
			return nil, err
		}
		if setID != lastID {
			out = append(out, cs)
			lastID = setID
		}
		if no.Valid {
			cur := &out[len(out)-1]
			cur.Steps = append(cur.Steps, commandset.Step{No: int(no.Int64), Description: desc.String})
		}
	}
	return out, rows.Err()
}

const draftColumns = "id, name, recipe_id, max_command_sets, created_at, updated_at"

func scanDraft(row interface{ Scan(...any) error }, d *Draft) error {
	return row.Scan(&d.ID, &d.Name, &d.RecipeID, &d.MaxCommandSets, &d.CreatedAt, &d.UpdatedAt)
}

// GetDraftByName retrieves a draft and its command sets. A missing draft
// returns (nil, nil).
func (r *Repository) GetDraftByName(name string) (*Draft, error) {
	row := r.db.QueryRow("SELECT "+draftColumns+" FROM drafts WHERE name = ?", strings.TrimSpace(name))
	var d Draft
	if err := scanDraft(row, &d); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	sets, err := readSets(r.db, d.ID)
	if err != nil {
		return nil, err
	}
	d.Sets = sets
	return &d, nil
}

// MustGetDraft is GetDraftByName that treats a missing draft as an error.
func (r *Repository) MustGetDraft(name string) (*Draft, error) {
	d, err := r.GetDraftByName(name)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, fmt.Errorf("draft not found: %s", name)
	}
	return d, nil
}

// ListDrafts returns all drafts, newest first, without their command sets.
func (r *Repository) ListDrafts() ([]Draft, error) {
	rows, err := r.db.Query("SELECT " + draftColumns + " FROM drafts ORDER BY created_at DESC, id DESC")
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []Draft
	for rows.Next() {
		var d Draft
		if err := scanDraft(rows, &d); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// SaveDraft atomically replaces the draft's command sets with s and records
// exactly one 'update' version for the final state.
func (r *Repository) SaveDraft(draftID int64, s commandset.Session) error {
	return r.replaceSets(draftID, s, "update")
}

func (r *Repository) replaceSets(draftID int64, s commandset.Session, operation string) error {
	trx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = trx.Rollback() }()

	maxSets := s.MaxSets
	if maxSets <= 0 {
		maxSets = commandset.DefaultMaxSets
	}
	res, err := trx.Exec("UPDATE drafts SET max_command_sets = ?, updated_at = datetime('now') WHERE id = ?", maxSets, draftID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return fmt.Errorf("draft %d not found", draftID)
	}
	if err := r.deleteSetsTx(trx, draftID); err != nil {
		return err
	}
	if err := r.insertSetsTx(trx, draftID, s.Sets); err != nil {
		return err
	}
	if err := r.recordVersionTx(trx, draftID, s.Sets, operation); err != nil {
		return err
	}
	return trx.Commit()
}

// DeleteDraft removes a draft and its command sets by name. The final state is
// kept as a 'delete' version. Deleting a missing draft is a no-op.
func (r *Repository) DeleteDraft(name string) error {
	trx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = trx.Rollback() }()

	var id int64
	row := trx.QueryRow("SELECT id FROM drafts WHERE name = ?", strings.TrimSpace(name))
	if err := row.Scan(&id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		return err
	}

	sets, err := readSets(trx, id)
	if err != nil {
		return err
	}
	if err := r.recordVersionTx(trx, id, sets, "delete"); err != nil {
		return err
	}
	if err := r.deleteSetsTx(trx, id); err != nil {
		return err
	}
	if _, err := trx.Exec("DELETE FROM drafts WHERE id = ?", id); err != nil {
		return err
	}
	if err := trx.Commit(); err != nil {
		return err
	}
	r.log.Debug("draft deleted", zap.String("draft", name), zap.Int64("id", id))
	return nil
}

// Close closes the underlying DB connection used by the Repository.
func (r *Repository) Close() error {
	if r.db == nil {
		return nil
	}
	return r.db.Close()
}
