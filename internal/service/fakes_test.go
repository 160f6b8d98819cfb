package service

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"

	"bigfive-api/internal/catalog"
	"bigfive-api/internal/domain"
)

type mockAssessmentRepo struct {
	items     map[string]domain.Assessment
	createErr error
	listErr   error

	lastLimit int
	lastSkip  int
}

func newMockAssessmentRepo(items ...domain.Assessment) *mockAssessmentRepo {
	m := &mockAssessmentRepo{items: make(map[string]domain.Assessment)}
	for _, a := range items {
		m.items[a.ID] = a
	}
	return m
}

func (m *mockAssessmentRepo) Create(_ context.Context, a domain.Assessment) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.items[a.ID] = a
	return nil
}

func (m *mockAssessmentRepo) GetByID(_ context.Context, id string) (domain.Assessment, error) {
	a, ok := m.items[id]
	if !ok {
		return domain.Assessment{}, pgx.ErrNoRows
	}
	return a, nil
}

func (m *mockAssessmentRepo) List(ctx context.Context, limit, skip int) ([]domain.Assessment, error) {
	m.lastLimit = limit
	m.lastSkip = skip
	all, err := m.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	if skip >= len(all) {
		return nil, nil
	}
	end := skip + limit
	if end > len(all) {
		end = len(all)
	}
	return all[skip:end], nil
}

func (m *mockAssessmentRepo) ListAll(_ context.Context) ([]domain.Assessment, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := make([]domain.Assessment, 0, len(m.items))
	for _, a := range m.items {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *mockAssessmentRepo) Count(_ context.Context) (int, error) {
	return len(m.items), nil
}

func (m *mockAssessmentRepo) Delete(_ context.Context, id string) error {
	if _, ok := m.items[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(m.items, id)
	return nil
}

func (m *mockAssessmentRepo) UpdateGuidance(_ context.Context, id string, g domain.Guidance) error {
	a, ok := m.items[id]
	if !ok {
		return pgx.ErrNoRows
	}
	a.Guidance = &g
	m.items[id] = a
	return nil
}

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c, _, err := catalog.Load(catalog.EmbeddedSource())
	if err != nil {
		t.Fatalf("load embedded catalog: %v", err)
	}
	return c
}

// uniformResponses responde todas las preguntas del catalogo con value.
func uniformResponses(c *catalog.Catalog, value int) domain.ResponseSet {
	out := make(domain.ResponseSet, len(c.Questions()))
	for _, q := range c.Questions() {
		out[q.ID] = value
	}
	return out
}

// storedAssessment arma una evaluacion guardada con puntajes brutos por
// rasgo; los rasgos omitidos quedan en 30.
func storedAssessment(id, name, country string, createdAt time.Time, raws map[domain.Trait]int) domain.Assessment {
	traits := make(map[domain.Trait]domain.TraitResult, 5)
	for _, trait := range domain.AllTraits() {
		raw, ok := raws[trait]
		if !ok {
			raw = 30
		}
		traits[trait] = domain.TraitResult{Name: trait.DisplayName(), RawScore: raw, MaxScore: domain.MaxRawScore}
	}
	return domain.Assessment{
		ID:          id,
		Participant: domain.Participant{Name: name, Country: country},
		Traits:      traits,
		Predictions: map[domain.Outcome]domain.PredictionResult{},
		CreatedAt:   createdAt,
	}
}

func durationSec(v float64) *float64 {
	return &v
}

func int64Ptr(v int64) *int64 {
	return &v
}
