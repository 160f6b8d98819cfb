package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"bigfive-api/internal/catalog"
	"bigfive-api/internal/domain"
	"bigfive-api/internal/repository"
	"bigfive-api/internal/scoring"
)

const (
	defaultResultsLimit = 50
	maxResultsLimit     = 1000
)

// AssessmentService valida envios, los puntua con el motor y los persiste.
type AssessmentService struct {
	logger   *zap.Logger
	catalogs scoring.CatalogProvider
	engine   *scoring.Engine
	repo     repository.AssessmentRepository
	now      func() time.Time
}

// NewAssessmentService acepta repo nil: en ese caso los envios se puntuan
// pero no se guardan.
func NewAssessmentService(logger *zap.Logger, catalogs scoring.CatalogProvider, repo repository.AssessmentRepository) *AssessmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssessmentService{
		logger:   logger,
		catalogs: catalogs,
		engine:   scoring.NewEngine(catalogs),
		repo:     repo,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// SessionInput son los tiempos crudos que envia el cliente, en ms.
type SessionInput struct {
	SurveyStartTime    *int64                        `json:"surveyStartTime"`
	SurveyEndTime      *int64                        `json:"surveyEndTime"`
	TotalDuration      *int64                        `json:"totalDuration"`
	QuestionTimestamps map[int]QuestionTimestampInput `json:"questionTimestamps"`
}

type QuestionTimestampInput struct {
	StartTime *int64 `json:"startTime"`
	EndTime   *int64 `json:"endTime"`
	Duration  *int64 `json:"duration"`
}

type SubmitInput struct {
	Participant domain.Participant
	Responses   domain.ResponseSet
	Timestamps  *SessionInput
}

type SubmitOutput struct {
	AssessmentID    string
	Result          domain.ScoreResult
	SavedToDatabase bool
}

// Submit aplica el gate de completitud, puntua y persiste. Un fallo de
// persistencia no falla el envio: SavedToDatabase queda en false.
func (s *AssessmentService) Submit(ctx context.Context, in SubmitInput) (SubmitOutput, error) {
	c, err := s.catalog()
	if err != nil {
		submissionsTotal.WithLabelValues("not_loaded").Inc()
		return SubmitOutput{}, err
	}

	if err := validateSubmission(c, in.Responses); err != nil {
		if errors.Is(err, ErrIncompleteAssessment) {
			submissionsTotal.WithLabelValues("incomplete").Inc()
		} else {
			submissionsTotal.WithLabelValues("invalid").Inc()
		}
		return SubmitOutput{}, err
	}

	start := time.Now()
	result, err := scoring.ScoreWith(c, in.Responses)
	scoringDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		submissionsTotal.WithLabelValues("invalid").Inc()
		return SubmitOutput{}, err
	}
	submissionsTotal.WithLabelValues("scored").Inc()

	out := SubmitOutput{Result: result}
	if s.repo == nil {
		return out, nil
	}

	now := s.now()
	session, questionTimes := buildTiming(in.Timestamps, now)
	a := domain.Assessment{
		ID:                 uuid.NewString(),
		Participant:        in.Participant,
		Session:            session,
		Responses:          in.Responses,
		QuestionTimestamps: questionTimes,
		Traits:             result.Traits,
		Predictions:        result.Predictions,
		CreatedAt:          now,
	}
	if err := s.repo.Create(ctx, a); err != nil {
		submissionsTotal.WithLabelValues("save_failed").Inc()
		s.logger.Warn("assessment save failed", zap.Error(err))
		return out, nil
	}
	submissionsTotal.WithLabelValues("saved").Inc()
	out.AssessmentID = a.ID
	out.SavedToDatabase = true
	return out, nil
}

func (s *AssessmentService) Get(ctx context.Context, id string) (domain.Assessment, error) {
	if s.repo == nil {
		return domain.Assessment{}, ErrPersistenceDisabled
	}
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return domain.Assessment{}, mapNotFound(err)
	}
	return a, nil
}

type ResultPage struct {
	Results []domain.Assessment `json:"results"`
	Total   int                 `json:"total"`
}

// List devuelve evaluaciones, mas recientes primero.
func (s *AssessmentService) List(ctx context.Context, limit, skip int) (ResultPage, error) {
	if s.repo == nil {
		return ResultPage{}, ErrPersistenceDisabled
	}
	if limit <= 0 {
		limit = defaultResultsLimit
	}
	if limit > maxResultsLimit {
		limit = maxResultsLimit
	}
	if skip < 0 {
		skip = 0
	}
	results, err := s.repo.List(ctx, limit, skip)
	if err != nil {
		return ResultPage{}, err
	}
	total, err := s.repo.Count(ctx)
	if err != nil {
		return ResultPage{}, err
	}
	if results == nil {
		results = []domain.Assessment{}
	}
	return ResultPage{Results: results, Total: total}, nil
}

func (s *AssessmentService) Delete(ctx context.Context, id string) error {
	if s.repo == nil {
		return ErrPersistenceDisabled
	}
	return mapNotFound(s.repo.Delete(ctx, id))
}

func (s *AssessmentService) catalog() (*catalog.Catalog, error) {
	if s.catalogs == nil {
		return nil, catalog.ErrNotLoaded
	}
	return s.catalogs.Catalog()
}

// validateSubmission exige una respuesta por pregunta del catalogo, ids
// conocidos y valores 1..5. Se revisa en orden de id para errores estables.
func validateSubmission(c *catalog.Catalog, responses domain.ResponseSet) error {
	required := len(c.Questions())
	if len(responses) < required {
		return fmt.Errorf("%w: expected %d responses, got %d", ErrIncompleteAssessment, required, len(responses))
	}
	ids := make([]int, 0, len(responses))
	for id := range responses {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		if !c.HasQuestion(id) {
			return fmt.Errorf("%w: %d", ErrUnknownQuestion, id)
		}
		if v := responses[id]; !scoring.ValidResponse(v) {
			return &scoring.InvalidResponseError{QuestionID: id, Value: v}
		}
	}
	return nil
}

func buildTiming(in *SessionInput, completedAt time.Time) (domain.SessionTiming, map[int]domain.QuestionTiming) {
	session := domain.SessionTiming{CompletedAt: &completedAt}
	if in == nil {
		return session, nil
	}
	session.StartTimeMs = in.SurveyStartTime
	session.EndTimeMs = in.SurveyEndTime
	session.TotalDurationMs = in.TotalDuration
	session.StartTimeSec = scaled(in.SurveyStartTime, 1000, 3)
	session.EndTimeSec = scaled(in.SurveyEndTime, 1000, 3)
	session.TotalDurationSec = scaled(in.TotalDuration, 1000, 3)
	session.TotalDurationMin = scaled(in.TotalDuration, 60000, 2)
	session.TotalDurationHour = scaled(in.TotalDuration, 3600000, 3)

	if len(in.QuestionTimestamps) == 0 {
		return session, nil
	}
	questions := make(map[int]domain.QuestionTiming, len(in.QuestionTimestamps))
	for id, ts := range in.QuestionTimestamps {
		questions[id] = domain.QuestionTiming{
			StartMs:     ts.StartTime,
			EndMs:       ts.EndTime,
			DurationMs:  ts.Duration,
			DurationSec: scaled(ts.Duration, 1000, 3),
		}
	}
	return session, questions
}

func scaled(ms *int64, divisor float64, decimals int) *float64 {
	if ms == nil {
		return nil
	}
	p := math.Pow(10, float64(decimals))
	v := math.Round(float64(*ms)/divisor*p) / p
	return &v
}

func mapNotFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrAssessmentNotFound
	}
	return err
}
