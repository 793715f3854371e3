package clubs

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"shelfsync/pkg/models"
)

type Repo struct {
	DB *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: db}
}

// Get returns the stored progress row, or nil when the user has never
// recorded progress for this edition in this club.
func (r *Repo) Get(ctx context.Context, clubID, editionID, userID string) (*models.ReadingProgress, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT club_id, edition_id, user_id, status, current_page, total_pages, updated_at
		FROM club_progress
		WHERE club_id = ? AND edition_id = ? AND user_id = ?
	`, clubID, editionID, userID)

	var p models.ReadingProgress
	var status string
	var total sql.NullInt64
	var updated time.Time
	if err := row.Scan(&p.ClubID, &p.EditionID, &p.UserID, &status, &p.CurrentPage, &total, &updated); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get progress: %w", err)
	}
	p.Status = models.ReadingStatus(status)
	if total.Valid {
		t := int(total.Int64)
		p.TotalPages = &t
	}
	p.UpdatedAt = updated
	return &p, nil
}

// Upsert creates the row on first update, replaces it afterwards.
func (r *Repo) Upsert(ctx context.Context, p models.ReadingProgress) error {
	var total any
	if p.TotalPages != nil {
		total = *p.TotalPages
	}

	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO club_progress (club_id, edition_id, user_id, status, current_page, total_pages, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(club_id, edition_id, user_id) DO UPDATE SET
			status = excluded.status,
			current_page = excluded.current_page,
			total_pages = COALESCE(excluded.total_pages, club_progress.total_pages),
			updated_at = CURRENT_TIMESTAMP
	`, p.ClubID, p.EditionID, p.UserID, p.Status, p.CurrentPage, total)
	if err != nil {
		return fmt.Errorf("upsert progress: %w", err)
	}
	return nil
}
