package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"bigfive-api/internal/domain"
	"bigfive-api/internal/repository"
	"bigfive-api/internal/scoring"
)

const (
	defaultAdminLimit = 100
	topCountries      = 10
	unknownCountry    = "Unknown"
)

// Pesos del overall score. Neuroticismo entra invertido.
var overallWeights = map[domain.Trait]float64{
	domain.TraitExtraversion:      0.2,
	domain.TraitAgreeableness:     0.2,
	domain.TraitConscientiousness: 0.3,
	domain.TraitNeuroticism:       0.15,
	domain.TraitOpenness:          0.15,
}

// AdminService expone el panel de administracion: login, listado
// enriquecido, estadisticas, borrado y exportacion CSV.
type AdminService struct {
	logger       *zap.Logger
	repo         repository.AssessmentRepository
	engine       *scoring.Engine
	jwt          *JWTService
	passwordHash string
	loginLimiter RateLimiter
}

func NewAdminService(logger *zap.Logger, repo repository.AssessmentRepository, catalogs scoring.CatalogProvider, jwtSvc *JWTService, passwordHash string, loginLimiter RateLimiter) *AdminService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loginLimiter == nil {
		loginLimiter = NewMemoryRateLimiter(15*time.Minute, 5)
	}
	return &AdminService{
		logger:       logger,
		repo:         repo,
		engine:       scoring.NewEngine(catalogs),
		jwt:          jwtSvc,
		passwordHash: strings.TrimSpace(passwordHash),
		loginLimiter: loginLimiter,
	}
}

// Login compara la password contra el hash bcrypt configurado y emite un
// par de tokens. clientKey identifica al cliente para el rate limit; un
// rechazo devuelve *RateLimitError.
func (s *AdminService) Login(ctx context.Context, clientKey, password string) (TokenPair, error) {
	if s.passwordHash == "" || !s.jwt.Configured() {
		return TokenPair{}, ErrInvalidCredentials
	}
	if d := s.loginLimiter.Allow(ctx, clientKey); !d.Allowed {
		s.logger.Warn("admin login rate limited", zap.String("client", clientKey), zap.Duration("retry_after", d.RetryAfter))
		return TokenPair{}, &RateLimitError{RetryAfter: d.RetryAfter}
	}
	if password == "" {
		return TokenPair{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(s.passwordHash), []byte(password)); err != nil {
		s.logger.Warn("admin login rejected", zap.String("client", clientKey))
		return TokenPair{}, ErrInvalidCredentials
	}
	return s.jwt.GeneratePair(AdminSubject)
}

func (s *AdminService) Refresh(refreshToken string) (TokenPair, error) {
	return s.jwt.RefreshPair(refreshToken)
}

// Logout revoca el refresh token; el access token vence solo.
func (s *AdminService) Logout(refreshToken string) error {
	return s.jwt.RevokeRefresh(refreshToken)
}

// AdminQuery son los filtros del listado. SortBy acepta createdAt, name,
// best_trait, highest_percentile y overall_score.
type AdminQuery struct {
	Limit         int
	Skip          int
	SortBy        string
	SortOrder     string
	FilterTrait   string
	MinPercentile float64
	Country       string
}

type TraitSnapshot struct {
	RawScore   int     `json:"rawScore"`
	Percentile float64 `json:"percentile"`
}

type ComputedProfile struct {
	Traits              map[domain.Trait]TraitSnapshot `json:"traits"`
	BestTrait           domain.Trait                   `json:"best_trait"`
	BestTraitPercentile float64                        `json:"best_trait_percentile"`
	HighestPercentile   float64                        `json:"highest_percentile"`
	OverallScore        float64                        `json:"overall_score"`
}

type AdminAssessment struct {
	domain.Assessment
	Computed ComputedProfile `json:"computed"`
}

type AdminPage struct {
	Results []AdminAssessment `json:"results"`
	Total   int               `json:"total"`
	Page    int               `json:"page"`
	Pages   int               `json:"pages"`
}

// ListAssessments enriquece cada evaluacion con percentiles recalculados
// con las normas actuales, filtra, ordena y pagina en memoria.
func (s *AdminService) ListAssessments(ctx context.Context, q AdminQuery) (AdminPage, error) {
	if s.repo == nil {
		return AdminPage{}, ErrPersistenceDisabled
	}
	if q.Limit <= 0 {
		q.Limit = defaultAdminLimit
	}
	if q.Skip < 0 {
		q.Skip = 0
	}
	var filterTrait domain.Trait
	if strings.TrimSpace(q.FilterTrait) != "" {
		t, err := domain.ParseTrait(q.FilterTrait)
		if err != nil {
			return AdminPage{}, fmt.Errorf("%w: %v", ErrInvalidQuery, err)
		}
		filterTrait = t
	}

	all, err := s.repo.ListAll(ctx)
	if err != nil {
		return AdminPage{}, err
	}
	country := strings.ToLower(strings.TrimSpace(q.Country))

	enriched := make([]AdminAssessment, 0, len(all))
	for _, a := range all {
		if country != "" && !strings.Contains(strings.ToLower(a.Participant.Country), country) {
			continue
		}
		computed, err := s.computeProfile(a)
		if err != nil {
			return AdminPage{}, err
		}
		if filterTrait != "" && computed.BestTrait != filterTrait {
			continue
		}
		if q.MinPercentile > 0 && computed.HighestPercentile < q.MinPercentile {
			continue
		}
		enriched = append(enriched, AdminAssessment{Assessment: a, Computed: computed})
	}

	sortAdmin(enriched, q.SortBy, !strings.EqualFold(q.SortOrder, "asc"))

	total := len(enriched)
	start := q.Skip
	if start > total {
		start = total
	}
	end := start + q.Limit
	if end > total {
		end = total
	}
	return AdminPage{
		Results: enriched[start:end],
		Total:   total,
		Page:    q.Skip/q.Limit + 1,
		Pages:   (total + q.Limit - 1) / q.Limit,
	}, nil
}

func (s *AdminService) computeProfile(a domain.Assessment) (ComputedProfile, error) {
	out := ComputedProfile{Traits: make(map[domain.Trait]TraitSnapshot, 5)}
	bestSet := false
	var overall float64
	for i, trait := range domain.AllTraits() {
		raw := a.Traits[trait].RawScore
		tr, err := s.engine.StandardizeRaw(trait, raw)
		if err != nil {
			return ComputedProfile{}, err
		}
		p := tr.Percentile
		out.Traits[trait] = TraitSnapshot{RawScore: raw, Percentile: p}

		if i == 0 || p > out.HighestPercentile {
			out.HighestPercentile = p
		}
		if trait == domain.TraitNeuroticism {
			overall += (100 - p) * overallWeights[trait]
			continue
		}
		overall += p * overallWeights[trait]
		if !bestSet || p > out.BestTraitPercentile {
			out.BestTrait = trait
			out.BestTraitPercentile = p
			bestSet = true
		}
	}
	out.OverallScore = scoring.Round1(overall)
	return out, nil
}

func sortAdmin(items []AdminAssessment, sortBy string, desc bool) {
	var less func(a, b AdminAssessment) bool
	switch sortBy {
	case "name":
		less = func(a, b AdminAssessment) bool {
			return strings.ToLower(a.Participant.Name) < strings.ToLower(b.Participant.Name)
		}
	case "best_trait":
		less = func(a, b AdminAssessment) bool { return a.Computed.BestTrait < b.Computed.BestTrait }
	case "highest_percentile":
		less = func(a, b AdminAssessment) bool { return a.Computed.HighestPercentile < b.Computed.HighestPercentile }
	case "overall_score":
		less = func(a, b AdminAssessment) bool { return a.Computed.OverallScore < b.Computed.OverallScore }
	default:
		less = func(a, b AdminAssessment) bool { return a.CreatedAt.Before(b.CreatedAt) }
	}
	sort.SliceStable(items, func(i, j int) bool {
		if desc {
			return less(items[j], items[i])
		}
		return less(items[i], items[j])
	})
}

type TraitAverage struct {
	MeanRaw        float64 `json:"mean_raw"`
	StdRaw         float64 `json:"std_raw"`
	MeanPercentile float64 `json:"mean_percentile"`
	Count          int     `json:"count"`
}

type CountryCount struct {
	Country string `json:"country"`
	Count   int    `json:"count"`
}

type CompletionStats struct {
	AvgDurationMin float64 `json:"avg_duration_min"`
	FastestMin     float64 `json:"fastest_min"`
	SlowestMin     float64 `json:"slowest_min"`
}

type Statistics struct {
	TotalAssessments    int                           `json:"total_assessments"`
	TraitAverages       map[domain.Trait]TraitAverage `json:"trait_averages"`
	CountryDistribution []CountryCount                `json:"country_distribution"`
	CompletionStats     CompletionStats               `json:"completion_stats"`
}

// Statistics agrega todas las evaluaciones guardadas.
func (s *AdminService) Statistics(ctx context.Context) (Statistics, error) {
	if s.repo == nil {
		return Statistics{}, ErrPersistenceDisabled
	}
	all, err := s.repo.ListAll(ctx)
	if err != nil {
		return Statistics{}, err
	}
	out := Statistics{
		TotalAssessments:    len(all),
		TraitAverages:       map[domain.Trait]TraitAverage{},
		CountryDistribution: []CountryCount{},
	}
	if len(all) == 0 {
		return out, nil
	}

	raws := make(map[domain.Trait][]float64, 5)
	percentiles := make(map[domain.Trait][]float64, 5)
	countries := map[string]int{}
	var durations []float64

	for _, a := range all {
		for _, trait := range domain.AllTraits() {
			tr, ok := a.Traits[trait]
			if !ok {
				continue
			}
			// Percentil sin redondear para no sesgar el promedio.
			norm, err := s.engine.StandardizeRaw(trait, tr.RawScore)
			if err != nil {
				return Statistics{}, err
			}
			z := scoring.ZScore(float64(tr.RawScore), domain.TraitNorm{PopulationMean: norm.PopulationMean, PopulationStd: norm.PopulationStd})
			raws[trait] = append(raws[trait], float64(tr.RawScore))
			percentiles[trait] = append(percentiles[trait], scoring.PercentileOf(z))
		}

		c := strings.TrimSpace(a.Participant.Country)
		if c == "" {
			c = unknownCountry
		}
		countries[c]++

		if d := a.Session.TotalDurationSec; d != nil && *d > 0 {
			durations = append(durations, *d)
		}
	}

	for _, trait := range domain.AllTraits() {
		values := raws[trait]
		if len(values) == 0 {
			continue
		}
		avg := TraitAverage{
			MeanRaw:        roundTo(stat.Mean(values, nil), 2),
			MeanPercentile: scoring.Round1(stat.Mean(percentiles[trait], nil)),
			Count:          len(values),
		}
		if len(values) > 1 {
			avg.StdRaw = roundTo(stat.StdDev(values, nil), 2)
		}
		out.TraitAverages[trait] = avg
	}

	for name, n := range countries {
		out.CountryDistribution = append(out.CountryDistribution, CountryCount{Country: name, Count: n})
	}
	sort.Slice(out.CountryDistribution, func(i, j int) bool {
		a, b := out.CountryDistribution[i], out.CountryDistribution[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Country < b.Country
	})
	if len(out.CountryDistribution) > topCountries {
		out.CountryDistribution = out.CountryDistribution[:topCountries]
	}

	if len(durations) > 0 {
		out.CompletionStats = CompletionStats{
			AvgDurationMin: scoring.Round1(stat.Mean(durations, nil) / 60),
			FastestMin:     scoring.Round1(floats.Min(durations) / 60),
			SlowestMin:     scoring.Round1(floats.Max(durations) / 60),
		}
	}
	return out, nil
}

func (s *AdminService) Delete(ctx context.Context, id string) error {
	if s.repo == nil {
		return ErrPersistenceDisabled
	}
	return mapNotFound(s.repo.Delete(ctx, id))
}

var csvHeader = []string{
	"ID", "Name", "Age", "Country", "University",
	"Extraversion", "Agreeableness", "Conscientiousness", "Neuroticism", "Openness",
	"Duration (sec)", "Completed At",
}

// ExportCSV escribe todas las evaluaciones, mas recientes primero.
func (s *AdminService) ExportCSV(ctx context.Context, w io.Writer) error {
	if s.repo == nil {
		return ErrPersistenceDisabled
	}
	all, err := s.repo.ListAll(ctx)
	if err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, a := range all {
		row := []string{
			a.ID,
			a.Participant.Name,
			optionalInt(a.Participant.Age),
			a.Participant.Country,
			a.Participant.University,
		}
		for _, trait := range domain.AllTraits() {
			if tr, ok := a.Traits[trait]; ok {
				row = append(row, strconv.Itoa(tr.RawScore))
			} else {
				row = append(row, "")
			}
		}
		row = append(row, optionalFloat(a.Session.TotalDurationSec), completedAt(a))
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row %s: %w", a.ID, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// ExportFilename sigue el formato assessments_YYYYMMDD.csv.
func ExportFilename(now time.Time) string {
	return "assessments_" + now.Format("20060102") + ".csv"
}

func completedAt(a domain.Assessment) string {
	if a.Session.CompletedAt != nil {
		return a.Session.CompletedAt.UTC().Format(time.RFC3339)
	}
	if !a.CreatedAt.IsZero() {
		return a.CreatedAt.UTC().Format(time.RFC3339)
	}
	return ""
}

func optionalInt(v int) string {
	if v == 0 {
		return ""
	}
	return strconv.Itoa(v)
}

func optionalFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func roundTo(x float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(x*p) / p
}
