package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Lemmmy/SCHardwareSurvey/internal/model"
	"github.com/Lemmmy/SCHardwareSurvey/internal/stats"
)

// ErrDuplicateToken is returned by Insert when a submission with the same
// token is already stored.
var ErrDuplicateToken = errors.New("token already submitted")

const (
	uniqueViolation     = "23505"
	tokenConstraintName = "surveys_token_key"
)

// SubmissionRepository persists and reads survey submissions.
type SubmissionRepository struct {
	pool *pgxpool.Pool
}

// NewSubmissionRepository returns a SubmissionRepository using the given pool.
func NewSubmissionRepository(pool *pgxpool.Pool) *SubmissionRepository {
	return &SubmissionRepository{pool: pool}
}

// Insert stores s in a single statement and sets its ID. A second insert
// with the same token fails with ErrDuplicateToken and changes nothing.
func (r *SubmissionRepository) Insert(ctx context.Context, s *model.Submission) error {
	payload, err := json.Marshal(s.Stats)
	if err != nil {
		return fmt.Errorf("encode stats: %w", err)
	}
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO surveys (id, token, stats, created_at)
		VALUES ($1, $2, $3, $4)`,
		s.ID,
		s.Token,
		json.RawMessage(payload),
		s.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation && pgErr.ConstraintName == tokenConstraintName {
			return ErrDuplicateToken
		}
		return err
	}
	return nil
}

// ListStats returns the stats payload of every stored submission.
func (r *SubmissionRepository) ListStats(ctx context.Context) ([]stats.Record, error) {
	rows, err := r.pool.Query(ctx, `SELECT stats FROM surveys`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []stats.Record{}
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		rec, err := stats.ParseRecord(raw)
		if err != nil {
			return nil, err
		}
		list = append(list, rec)
	}
	return list, rows.Err()
}

// List returns all submissions ordered by created_at ascending.
func (r *SubmissionRepository) List(ctx context.Context) ([]model.Submission, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, token, stats, created_at
		FROM surveys
		ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []model.Submission
	for rows.Next() {
		var (
			s   model.Submission
			raw []byte
		)
		if err := rows.Scan(&s.ID, &s.Token, &raw, &s.CreatedAt); err != nil {
			return nil, err
		}
		if s.Stats, err = stats.ParseRecord(raw); err != nil {
			return nil, err
		}
		list = append(list, s)
	}
	return list, rows.Err()
}

// Ping checks that the database answers.
func (r *SubmissionRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}
