package shelves

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"shelfsync/pkg/models"
)

type Repo struct {
	DB *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: db}
}

// defaultShelves is what every fresh account starts with, in display
// order. One shelf per canonical kind plus Owned.
var defaultShelves = []struct {
	name string
	kind models.ShelfKind
}{
	{"Want to Read", models.KindWantToRead},
	{"Reading", models.KindReading},
	{"Read", models.KindRead},
	{"Owned", models.KindOwned},
}

// CreateDefaults seeds the canonical shelf set for a new user.
func (r *Repo) CreateDefaults(ctx context.Context, userID string) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create defaults: %w", err)
	}
	defer tx.Rollback()

	for i, d := range defaultShelves {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO shelves (id, user_id, name, kind, private, position)
			VALUES (?, ?, ?, ?, 0, ?)
		`, uuid.NewString(), userID, d.name, d.kind, i)
		if err != nil {
			return fmt.Errorf("create default shelf %s: %w", d.kind, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create defaults: %w", err)
	}
	return nil
}

// Create adds a custom shelf at the end of the user's collection.
func (r *Repo) Create(ctx context.Context, userID, name string, private bool) (models.Shelf, error) {
	s := models.Shelf{
		ID:      uuid.NewString(),
		Name:    name,
		Kind:    models.KindCustom,
		Private: private,
	}
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO shelves (id, user_id, name, kind, private, position)
		VALUES (?, ?, ?, ?, ?, (SELECT COALESCE(MAX(position), 0) + 1 FROM shelves WHERE user_id = ?))
	`, s.ID, userID, s.Name, s.Kind, boolToInt(private), userID)
	if err != nil {
		return models.Shelf{}, fmt.Errorf("create shelf: %w", err)
	}
	return s, nil
}

// ListByUser returns the user's shelves in display order.
func (r *Repo) ListByUser(ctx context.Context, userID string) ([]models.Shelf, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, name, kind, private
		FROM shelves
		WHERE user_id = ?
		ORDER BY position, created_at
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list shelves: %w", err)
	}
	defer rows.Close()

	var out []models.Shelf
	for rows.Next() {
		var s models.Shelf
		var private int
		if err := rows.Scan(&s.ID, &s.Name, &s.Kind, &private); err != nil {
			return nil, fmt.Errorf("scan shelf row: %w", err)
		}
		s.Private = private != 0
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return out, nil
}

// GetOwned fetches a shelf only if it belongs to the user.
func (r *Repo) GetOwned(ctx context.Context, userID, shelfID string) (*models.Shelf, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT id, name, kind, private
		FROM shelves
		WHERE id = ? AND user_id = ?
	`, shelfID, userID)

	var s models.Shelf
	var private int
	if err := row.Scan(&s.ID, &s.Name, &s.Kind, &private); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get shelf: %w", err)
	}
	s.Private = private != 0
	return &s, nil
}

// Editions returns one page of a shelf's contents plus the total count.
func (r *Repo) Editions(ctx context.Context, shelfID string, limit, offset int) ([]string, int, error) {
	if limit <= 0 || limit > 500 {
		limit = 200
	}
	if offset < 0 {
		offset = 0
	}

	var total int
	if err := r.DB.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM shelf_editions WHERE shelf_id = ?
	`, shelfID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count shelf editions: %w", err)
	}

	rows, err := r.DB.QueryContext(ctx, `
		SELECT edition_id
		FROM shelf_editions
		WHERE shelf_id = ?
		ORDER BY added_at, edition_id
		LIMIT ? OFFSET ?
	`, shelfID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list shelf editions: %w", err)
	}
	defer rows.Close()

	out := make([]string, 0, limit)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, 0, fmt.Errorf("scan edition row: %w", err)
		}
		out = append(out, id)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("rows err: %w", err)
	}
	return out, total, nil
}

// AddEdition is idempotent: adding an edition already on the shelf is
// a no-op. The server deliberately does not enforce canonical
// exclusivity across shelves; that discipline belongs to the client.
func (r *Repo) AddEdition(ctx context.Context, shelfID, editionID string) error {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO shelf_editions (shelf_id, edition_id)
		VALUES (?, ?)
		ON CONFLICT(shelf_id, edition_id) DO NOTHING
	`, shelfID, editionID)
	if err != nil {
		return fmt.Errorf("add edition: %w", err)
	}
	return nil
}

func (r *Repo) RemoveEdition(ctx context.Context, shelfID, editionID string) (bool, error) {
	res, err := r.DB.ExecContext(ctx, `
		DELETE FROM shelf_editions
		WHERE shelf_id = ? AND edition_id = ?
	`, shelfID, editionID)
	if err != nil {
		return false, fmt.Errorf("remove edition: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
