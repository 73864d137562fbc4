package results

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/JaimeStill/rapid/pkg/pagination"
	"github.com/JaimeStill/rapid/pkg/query"
	"github.com/JaimeStill/rapid/pkg/repository"
)

type repo struct {
	db         *sql.DB
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates the PostgreSQL-backed result store.
func New(db *sql.DB, logger *slog.Logger, cfg pagination.Config) System {
	return &repo{
		db:         db,
		logger:     logger.With("system", "results"),
		pagination: cfg,
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger, r.pagination)
}

func (r *repo) List(ctx context.Context, page pagination.PageRequest, filters Filters) (*pagination.PageResult[Record], error) {
	page.Normalize(r.pagination)

	qb := query.NewBuilder(table, defaultSort).
		Search(page.Search, "ShortExplanation", "Explanation")
	filters.Apply(qb)
	qb.OrderBy(page.Sort)

	countSQL, countArgs := qb.Count()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count review results: %w", err)
	}

	pageSQL, pageArgs := qb.Page(page.Page, page.PageSize)
	records, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanRecord)
	if err != nil {
		return nil, fmt.Errorf("query review results: %w", err)
	}

	result := pagination.NewPageResult(records, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Record, error) {
	q, args := query.NewBuilder(table).ByID("ID", id)

	rec, err := repository.QueryOne(ctx, r.db, q, args, scanRecord)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &rec, nil
}

var upsertSQL = `
		INSERT INTO review_results (id, review_result_id, review_job_id, check_id, result, confidence, review_type, explanation, short_explanation, model_id, total_cost, payload)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (review_result_id) DO UPDATE SET
			review_job_id = EXCLUDED.review_job_id,
			check_id = EXCLUDED.check_id,
			result = EXCLUDED.result,
			confidence = EXCLUDED.confidence,
			review_type = EXCLUDED.review_type,
			explanation = EXCLUDED.explanation,
			short_explanation = EXCLUDED.short_explanation,
			model_id = EXCLUDED.model_id,
			total_cost = EXCLUDED.total_cost,
			payload = EXCLUDED.payload,
			overridden = FALSE,
			verified_by = NULL,
			verified_at = NULL,
			updated_at = now()
		RETURNING ` + table.Returning()

func (r *repo) Create(ctx context.Context, cmd CreateCommand) (*Record, error) {
	if cmd.ReviewResultID == "" || len(cmd.Payload) == 0 {
		return nil, fmt.Errorf("%w: review_result_id and payload required", ErrInvalidRecord)
	}

	args := []any{
		uuid.New(),
		cmd.ReviewResultID,
		cmd.ReviewJobID,
		cmd.CheckID,
		cmd.Result,
		cmd.Confidence,
		cmd.ReviewType,
		cmd.Explanation,
		cmd.ShortExplanation,
		cmd.ModelID,
		cmd.TotalCost,
		[]byte(cmd.Payload),
	}

	rec, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Record, error) {
		return repository.QueryOne(ctx, tx, upsertSQL, args, scanRecord)
	})
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.InfoContext(ctx, "review result stored",
		"id", rec.ID,
		"review_result_id", rec.ReviewResultID,
		"result", rec.Result,
	)
	return &rec, nil
}

var verifySQL = `
		UPDATE review_results
		SET verified_by = $2, verified_at = now(), updated_at = now()
		WHERE id = $1
		RETURNING ` + table.Returning()

func (r *repo) Verify(ctx context.Context, id uuid.UUID, cmd VerifyCommand) (*Record, error) {
	by := strings.TrimSpace(cmd.VerifiedBy)
	if by == "" {
		return nil, fmt.Errorf("%w: verified_by required", ErrInvalidRecord)
	}

	rec, err := repository.QueryOne(ctx, r.db, verifySQL, []any{id, by}, scanRecord)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.InfoContext(ctx, "review result verified", "id", id, "verified_by", by)
	return &rec, nil
}

var overrideSQL = `
		UPDATE review_results
		SET result = $2,
			explanation = COALESCE($3, explanation),
			short_explanation = COALESCE($4, short_explanation),
			payload = payload || $5::jsonb,
			overridden = TRUE,
			updated_at = now()
		WHERE id = $1
		RETURNING ` + table.Returning()

func (r *repo) Override(ctx context.Context, id uuid.UUID, cmd OverrideCommand) (*Record, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	patch, err := cmd.patch()
	if err != nil {
		return nil, fmt.Errorf("encode override: %w", err)
	}

	args := []any{id, cmd.Result, cmd.Explanation, cmd.ShortExplanation, patch}
	rec, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Record, error) {
		return repository.QueryOne(ctx, tx, overrideSQL, args, scanRecord)
	})
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.InfoContext(ctx, "review result overridden", "id", id, "result", cmd.Result)
	return &rec, nil
}

func (r *repo) Delete(ctx context.Context, id uuid.UUID) error {
	err := repository.ExecExpectOne(ctx, r.db, "DELETE FROM review_results WHERE id = $1", id)
	if err != nil {
		return repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.InfoContext(ctx, "review result deleted", "id", id)
	return nil
}
