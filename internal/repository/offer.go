// Package repository implements the deduplicating offer store. Offers are
// keyed by url: a second encounter of the same url refreshes the stored
// record instead of creating a new one.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/jobsift/jobsift/internal/logger"
	"github.com/jobsift/jobsift/internal/models"
)

// ErrNotFound is returned when an offer id does not exist.
var ErrNotFound = errors.New("offer not found")

type OfferRepository struct {
	db     *sqlx.DB
	logger logger.Logger
}

func NewOfferRepository(db *sqlx.DB, log logger.Logger) *OfferRepository {
	return &OfferRepository{
		db:     db,
		logger: log,
	}
}

// Upsert inserts a new offer or refreshes an existing one with the same url.
// On insert both created_at and scraped_at are set to now; on update every
// non-identity field is refreshed and scraped_at bumped, while seen and
// created_at are preserved. Returns true when the offer was created.
func (r *OfferRepository) Upsert(ctx context.Context, offer *models.Offer) (bool, error) {
	if offer.URL == "" {
		return false, errors.New("offer url is required")
	}

	now := time.Now().UTC()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				r.logger.Error("failed to rollback upsert", logger.Error(rbErr))
			}
		}
	}()

	var existing struct {
		ID        int64     `db:"id"`
		Seen      bool      `db:"seen"`
		CreatedAt time.Time `db:"created_at"`
	}
	err = tx.GetContext(ctx, &existing, `SELECT id, seen, created_at FROM offers WHERE url = ?`, offer.URL)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		err = nil
		offer.ScrapedAt = now
		offer.CreatedAt = now
		var res sql.Result
		res, err = tx.NamedExecContext(ctx, `
			INSERT INTO offers (
				url, title, company, location, description, technologies,
				salary_min, salary_max, salary_period, work_type, contract_type,
				employment_type, valid_until, source, seen, scraped_at, created_at
			) VALUES (
				:url, :title, :company, :location, :description, :technologies,
				:salary_min, :salary_max, :salary_period, :work_type, :contract_type,
				:employment_type, :valid_until, :source, :seen, :scraped_at, :created_at
			)`, offer)
		if err != nil {
			return false, fmt.Errorf("insert offer: %w", err)
		}
		if offer.ID, err = res.LastInsertId(); err != nil {
			return false, fmt.Errorf("offer id: %w", err)
		}
		if err = tx.Commit(); err != nil {
			return false, fmt.Errorf("commit insert: %w", err)
		}
		return true, nil

	case err != nil:
		return false, fmt.Errorf("query offer by url: %w", err)
	}

	// Existing record: refresh non-identity fields, keep seen and created_at.
	offer.ID = existing.ID
	offer.Seen = existing.Seen
	offer.CreatedAt = existing.CreatedAt
	offer.ScrapedAt = now
	_, err = tx.NamedExecContext(ctx, `
		UPDATE offers SET
			title = :title, company = :company, location = :location,
			description = :description, technologies = :technologies,
			salary_min = :salary_min, salary_max = :salary_max,
			salary_period = :salary_period, work_type = :work_type,
			contract_type = :contract_type, employment_type = :employment_type,
			valid_until = :valid_until, source = :source, scraped_at = :scraped_at
		WHERE id = :id`, offer)
	if err != nil {
		return false, fmt.Errorf("update offer: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return false, fmt.Errorf("commit update: %w", err)
	}
	return false, nil
}

// GetByID returns a single offer or ErrNotFound.
func (r *OfferRepository) GetByID(ctx context.Context, id int64) (*models.Offer, error) {
	var offer models.Offer
	err := r.db.GetContext(ctx, &offer, `SELECT * FROM offers WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query offer: %w", err)
	}
	return &offer, nil
}

// List returns every stored offer ordered by url, the engine's canonical
// input order.
func (r *OfferRepository) List(ctx context.Context) ([]models.Offer, error) {
	offers := make([]models.Offer, 0)
	if err := r.db.SelectContext(ctx, &offers, `SELECT * FROM offers ORDER BY url`); err != nil {
		return nil, fmt.Errorf("query offers: %w", err)
	}
	return offers, nil
}

// ListByIDs returns the offers whose ids are in the given set, ordered by
// url. Unknown ids are skipped.
func (r *OfferRepository) ListByIDs(ctx context.Context, ids []int64) ([]models.Offer, error) {
	if len(ids) == 0 {
		return []models.Offer{}, nil
	}
	query, args, err := sqlx.In(`SELECT * FROM offers WHERE id IN (?) ORDER BY url`, ids)
	if err != nil {
		return nil, fmt.Errorf("build id query: %w", err)
	}
	offers := make([]models.Offer, 0, len(ids))
	if err := r.db.SelectContext(ctx, &offers, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("query offers by ids: %w", err)
	}
	return offers, nil
}

// MarkSeen sets seen = true for the given ids and returns how many existing
// offers the update matched, already-seen ones included. Ids that do not
// exist are silently skipped. Seen never transitions back to false here.
func (r *OfferRepository) MarkSeen(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	query, args, err := sqlx.In(`UPDATE offers SET seen = 1 WHERE id IN (?)`, ids)
	if err != nil {
		return 0, fmt.Errorf("build mark-seen query: %w", err)
	}
	res, err := r.db.ExecContext(ctx, r.db.Rebind(query), args...)
	if err != nil {
		return 0, fmt.Errorf("mark seen: %w", err)
	}
	updated, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return updated, nil
}

// DeleteExpired removes offers whose valid_until is non-null and strictly
// before now. Offers are never deleted implicitly; this runs only on an
// explicit purge request.
func (r *OfferRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM offers WHERE valid_until IS NOT NULL AND valid_until < ?`, now.UTC())
	if err != nil {
		return 0, fmt.Errorf("delete expired: %w", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	if deleted > 0 {
		r.logger.Info("Deleted expired offers", logger.Int64("count", deleted))
	}
	return deleted, nil
}

// DistinctTechnologies splits every stored technologies field on its
// delimiter and returns the sorted, case-sensitively deduplicated set.
func (r *OfferRepository) DistinctTechnologies(ctx context.Context) ([]string, error) {
	var raw []string
	err := r.db.SelectContext(ctx, &raw,
		`SELECT technologies FROM offers WHERE technologies IS NOT NULL AND technologies != ''`)
	if err != nil {
		return nil, fmt.Errorf("query technologies: %w", err)
	}

	set := make(map[string]struct{})
	for _, field := range raw {
		for _, part := range strings.Split(field, models.TechDelimiter) {
			if tech := strings.TrimSpace(part); tech != "" {
				set[tech] = struct{}{}
			}
		}
	}

	techs := make([]string, 0, len(set))
	for tech := range set {
		techs = append(techs, tech)
	}
	sort.Strings(techs)
	return techs, nil
}
