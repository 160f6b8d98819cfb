package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"bigfive-api/internal/domain"
)

// AssessmentRepository define el contrato de persistencia para evaluaciones.
// GetByID, Delete y UpdateGuidance devuelven pgx.ErrNoRows si el id no existe.
type AssessmentRepository interface {
	Create(ctx context.Context, a domain.Assessment) error
	GetByID(ctx context.Context, id string) (domain.Assessment, error)
	List(ctx context.Context, limit, skip int) ([]domain.Assessment, error)
	ListAll(ctx context.Context) ([]domain.Assessment, error)
	Count(ctx context.Context) (int, error)
	Delete(ctx context.Context, id string) error
	UpdateGuidance(ctx context.Context, id string, g domain.Guidance) error
}

// PgAssessmentRepository implementa AssessmentRepository usando pgxpool.
// Los bloques anidados se guardan como JSONB.
type PgAssessmentRepository struct {
	pool *pgxpool.Pool
}

func NewPgAssessmentRepository(pool *pgxpool.Pool) *PgAssessmentRepository {
	return &PgAssessmentRepository{pool: pool}
}

const assessmentColumns = `
	id, user_id, name, age, country, university, session, responses,
	question_timestamps, scores, predictions, guidance, created_at
`

func (r *PgAssessmentRepository) Create(ctx context.Context, a domain.Assessment) error {
	const query = `
		INSERT INTO assessments (` + assessmentColumns + `, total_duration_ms)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	session, err := json.Marshal(a.Session)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	responses, err := json.Marshal(a.Responses)
	if err != nil {
		return fmt.Errorf("marshal responses: %w", err)
	}
	var timestamps []byte
	if len(a.QuestionTimestamps) > 0 {
		if timestamps, err = json.Marshal(a.QuestionTimestamps); err != nil {
			return fmt.Errorf("marshal question timestamps: %w", err)
		}
	}
	scores, err := json.Marshal(a.Traits)
	if err != nil {
		return fmt.Errorf("marshal scores: %w", err)
	}
	predictions, err := json.Marshal(a.Predictions)
	if err != nil {
		return fmt.Errorf("marshal predictions: %w", err)
	}
	var guidance []byte
	if a.Guidance != nil {
		if guidance, err = json.Marshal(a.Guidance); err != nil {
			return fmt.Errorf("marshal guidance: %w", err)
		}
	}

	_, err = r.pool.Exec(ctx, query,
		a.ID,
		nullableString(a.Participant.UserID),
		a.Participant.Name,
		nullableInt(a.Participant.Age),
		nullableString(a.Participant.Country),
		nullableString(a.Participant.University),
		session,
		responses,
		timestamps,
		scores,
		predictions,
		guidance,
		a.CreatedAt,
		a.Session.TotalDurationMs,
	)
	return err
}

func (r *PgAssessmentRepository) GetByID(ctx context.Context, id string) (domain.Assessment, error) {
	const query = `SELECT ` + assessmentColumns + ` FROM assessments WHERE id = $1`
	a, err := scanAssessment(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return domain.Assessment{}, err
	}
	return a, nil
}

func (r *PgAssessmentRepository) List(ctx context.Context, limit, skip int) ([]domain.Assessment, error) {
	const query = `
		SELECT ` + assessmentColumns + `
		FROM assessments
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`
	return r.query(ctx, query, limit, skip)
}

func (r *PgAssessmentRepository) ListAll(ctx context.Context) ([]domain.Assessment, error) {
	const query = `SELECT ` + assessmentColumns + ` FROM assessments ORDER BY created_at DESC`
	return r.query(ctx, query)
}

func (r *PgAssessmentRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT count(*) FROM assessments`).Scan(&n)
	return n, err
}

func (r *PgAssessmentRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM assessments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *PgAssessmentRepository) UpdateGuidance(ctx context.Context, id string, g domain.Guidance) error {
	payload, err := json.Marshal(g)
	if err != nil {
		return fmt.Errorf("marshal guidance: %w", err)
	}
	tag, err := r.pool.Exec(ctx, `UPDATE assessments SET guidance = $2 WHERE id = $1`, id, payload)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *PgAssessmentRepository) query(ctx context.Context, query string, args ...any) ([]domain.Assessment, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Assessment
	for rows.Next() {
		a, err := scanAssessment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func scanAssessment(row pgx.Row) (domain.Assessment, error) {
	var (
		a                                             domain.Assessment
		userID, country, university                   *string
		age                                           *int
		session, responses, timestamps, scores, preds []byte
		guidance                                      []byte
	)
	if err := row.Scan(
		&a.ID,
		&userID,
		&a.Participant.Name,
		&age,
		&country,
		&university,
		&session,
		&responses,
		&timestamps,
		&scores,
		&preds,
		&guidance,
		&a.CreatedAt,
	); err != nil {
		return domain.Assessment{}, err
	}

	a.Participant.UserID = deref(userID)
	a.Participant.Country = deref(country)
	a.Participant.University = deref(university)
	if age != nil {
		a.Participant.Age = *age
	}

	blobs := []struct {
		name string
		data []byte
		dst  any
	}{
		{"session", session, &a.Session},
		{"responses", responses, &a.Responses},
		{"question_timestamps", timestamps, &a.QuestionTimestamps},
		{"scores", scores, &a.Traits},
		{"predictions", preds, &a.Predictions},
	}
	for _, b := range blobs {
		if len(b.data) == 0 {
			continue
		}
		if err := json.Unmarshal(b.data, b.dst); err != nil {
			return domain.Assessment{}, fmt.Errorf("decode %s: %w", b.name, err)
		}
	}
	if len(guidance) > 0 {
		var g domain.Guidance
		if err := json.Unmarshal(guidance, &g); err != nil {
			return domain.Assessment{}, fmt.Errorf("decode guidance: %w", err)
		}
		a.Guidance = &g
	}
	return a, nil
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullableInt(n int) any {
	if n == 0 {
		return nil
	}
	return n
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
