package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"math"
	"testing"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"bigfive-api/internal/domain"
)

var adminBase = time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)

// Con las normas embebidas, un puntaje bruto de 30 da E 51.8, A 15.5,
// C 36.4, N 47.2 y O 8.7.
func newAdminFixture(t *testing.T) (*AdminService, *mockAssessmentRepo) {
	t.Helper()
	ana := storedAssessment("a1", "ana", "Argentina", adminBase, map[domain.Trait]int{domain.TraitOpenness: 50})
	ana.Session.TotalDurationSec = durationSec(600)
	ana.Participant.Age = 22
	ana.Participant.University = "UBA"
	bob := storedAssessment("a2", "Bob", "argentina", adminBase.Add(time.Hour), map[domain.Trait]int{domain.TraitExtraversion: 45})
	bob.Session.TotalDurationSec = durationSec(1200)
	cleo := storedAssessment("a3", "Cleo", "", adminBase.Add(2*time.Hour), nil)

	repo := newMockAssessmentRepo(ana, bob, cleo)
	jwtSvc := NewJWTService("admin-test-secret", time.Minute, time.Hour)
	return NewAdminService(zap.NewNop(), repo, testCatalog(t), jwtSvc, "", nil), repo
}

func ids(items []AdminAssessment) []string {
	out := make([]string, len(items))
	for i, a := range items {
		out[i] = a.ID
	}
	return out
}

func sameIDs(got []string, want ...string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

func TestAdminListComputedProfile(t *testing.T) {
	svc, _ := newAdminFixture(t)

	page, err := svc.ListAssessments(context.Background(), AdminQuery{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page.Total != 3 || page.Page != 1 || page.Pages != 1 {
		t.Fatalf("unexpected paging: %+v", page)
	}
	if !sameIDs(ids(page.Results), "a3", "a2", "a1") {
		t.Fatalf("expected newest first, got %v", ids(page.Results))
	}

	byID := map[string]ComputedProfile{}
	for _, r := range page.Results {
		byID[r.ID] = r.Computed
	}
	if c := byID["a1"]; c.BestTrait != domain.TraitOpenness || c.HighestPercentile != c.BestTraitPercentile {
		t.Fatalf("expected openness as best trait for a1, got %+v", c)
	}
	if c := byID["a2"]; c.BestTrait != domain.TraitExtraversion {
		t.Fatalf("expected extraversion as best trait for a2, got %+v", c)
	}
	cleo := byID["a3"]
	if cleo.BestTrait != domain.TraitExtraversion || cleo.BestTraitPercentile != 51.8 {
		t.Fatalf("unexpected best trait for a3: %+v", cleo)
	}
	if cleo.Traits[domain.TraitNeuroticism].RawScore != 30 || cleo.Traits[domain.TraitNeuroticism].Percentile != 47.2 {
		t.Fatalf("unexpected neuroticism snapshot: %+v", cleo.Traits[domain.TraitNeuroticism])
	}
	if math.Abs(cleo.OverallScore-33.6) > 0.051 {
		t.Fatalf("expected overall ~33.6, got %v", cleo.OverallScore)
	}
}

func TestAdminListNeuroticismNeverBest(t *testing.T) {
	svc, repo := newAdminFixture(t)
	anxious := storedAssessment("n1", "Nina", "", adminBase.Add(3*time.Hour), map[domain.Trait]int{domain.TraitNeuroticism: 50})
	repo.items[anxious.ID] = anxious

	page, err := svc.ListAssessments(context.Background(), AdminQuery{FilterTrait: "neuroticism"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page.Total != 0 {
		t.Fatalf("neuroticism must never be the best trait, got %v", ids(page.Results))
	}

	all, _ := svc.ListAssessments(context.Background(), AdminQuery{Limit: 1})
	if all.Results[0].ID != "n1" || all.Results[0].Computed.HighestPercentile < 98 {
		t.Fatalf("expected neuroticism to drive highest percentile, got %+v", all.Results[0].Computed)
	}
}

func TestAdminListFiltersAndSort(t *testing.T) {
	svc, _ := newAdminFixture(t)
	ctx := context.Background()

	cases := []struct {
		name  string
		query AdminQuery
		want  []string
	}{
		{"best trait", AdminQuery{FilterTrait: "Openness"}, []string{"a1"}},
		{"min percentile", AdminQuery{MinPercentile: 90, SortOrder: "asc"}, []string{"a1", "a2"}},
		{"country substring", AdminQuery{Country: "ARG"}, []string{"a2", "a1"}},
		{"name asc", AdminQuery{SortBy: "name", SortOrder: "asc"}, []string{"a1", "a2", "a3"}},
		{"overall desc", AdminQuery{SortBy: "overall_score"}, []string{"a1", "a2", "a3"}},
		{"highest asc", AdminQuery{SortBy: "highest_percentile", SortOrder: "ASC"}, []string{"a3", "a2", "a1"}},
		{"paged", AdminQuery{Limit: 2, Skip: 2}, []string{"a1"}},
		{"skip past end", AdminQuery{Limit: 2, Skip: 10}, []string{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			page, err := svc.ListAssessments(ctx, tc.query)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := ids(page.Results); !sameIDs(got, tc.want...) {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
		})
	}

	page, _ := svc.ListAssessments(ctx, AdminQuery{Limit: 2, Skip: 2})
	if page.Page != 2 || page.Pages != 2 || page.Total != 3 {
		t.Fatalf("unexpected paging: %+v", page)
	}
	if _, err := svc.ListAssessments(ctx, AdminQuery{FilterTrait: "charisma"}); !errors.Is(err, ErrInvalidQuery) {
		t.Fatalf("expected error for unknown trait filter")
	}
}

func TestAdminStatistics(t *testing.T) {
	svc, _ := newAdminFixture(t)

	stats, err := svc.Statistics(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.TotalAssessments != 3 {
		t.Fatalf("expected 3 assessments, got %d", stats.TotalAssessments)
	}
	e := stats.TraitAverages[domain.TraitExtraversion]
	if e.MeanRaw != 35 || e.Count != 3 {
		t.Fatalf("unexpected extraversion average: %+v", e)
	}
	if e.StdRaw != 8.66 {
		t.Fatalf("expected sample std 8.66, got %v", e.StdRaw)
	}
	if a := stats.TraitAverages[domain.TraitAgreeableness]; a.MeanRaw != 30 || a.MeanPercentile != 15.5 {
		t.Fatalf("unexpected agreeableness average: %+v", a)
	}

	wantCountries := []CountryCount{{"Argentina", 1}, {"Unknown", 1}, {"argentina", 1}}
	if len(stats.CountryDistribution) != len(wantCountries) {
		t.Fatalf("unexpected countries: %+v", stats.CountryDistribution)
	}
	for i, want := range wantCountries {
		if stats.CountryDistribution[i] != want {
			t.Fatalf("country[%d] = %+v, want %+v", i, stats.CountryDistribution[i], want)
		}
	}

	c := stats.CompletionStats
	if c.AvgDurationMin != 15 || c.FastestMin != 10 || c.SlowestMin != 20 {
		t.Fatalf("unexpected completion stats: %+v", c)
	}
}

func TestAdminStatisticsEmpty(t *testing.T) {
	jwtSvc := NewJWTService("s", time.Minute, time.Hour)
	svc := NewAdminService(zap.NewNop(), newMockAssessmentRepo(), testCatalog(t), jwtSvc, "", nil)

	stats, err := svc.Statistics(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.TotalAssessments != 0 || len(stats.TraitAverages) != 0 || len(stats.CountryDistribution) != 0 {
		t.Fatalf("expected empty statistics, got %+v", stats)
	}
}

func TestAdminExportCSV(t *testing.T) {
	svc, _ := newAdminFixture(t)

	var buf bytes.Buffer
	if err := svc.ExportCSV(context.Background(), &buf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("expected header + 3 rows, got %d", len(rows))
	}
	if rows[0][0] != "ID" || rows[0][10] != "Duration (sec)" || len(rows[0]) != 12 {
		t.Fatalf("unexpected header %v", rows[0])
	}
	ana := rows[3]
	want := []string{"a1", "ana", "22", "Argentina", "UBA", "30", "30", "30", "30", "50", "600", "2026-04-01T12:00:00Z"}
	for i := range want {
		if ana[i] != want[i] {
			t.Fatalf("column %d = %q, want %q (row %v)", i, ana[i], want[i], ana)
		}
	}
	if rows[1][2] != "" || rows[1][10] != "" {
		t.Fatalf("expected empty optional columns for a3, got %v", rows[1])
	}

	if got := ExportFilename(adminBase); got != "assessments_20260401.csv" {
		t.Fatalf("unexpected filename %s", got)
	}
}

func TestAdminLogin(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("Traits2026"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	jwtSvc := NewJWTService("admin-test-secret", time.Minute, time.Hour)
	svc := NewAdminService(zap.NewNop(), nil, testCatalog(t), jwtSvc, string(hash), NewMemoryRateLimiter(time.Minute, 2))
	ctx := context.Background()

	if _, err := svc.Login(ctx, "10.0.0.1", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	pair, err := svc.Login(ctx, "10.0.0.1", "Traits2026")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	claims, err := jwtSvc.ParseAccessToken(pair.AccessToken)
	if err != nil || claims.Subject != AdminSubject {
		t.Fatalf("unexpected access token claims: %+v, %v", claims, err)
	}

	rotated, err := svc.Refresh(pair.RefreshToken)
	if err != nil || rotated.RefreshToken == pair.RefreshToken {
		t.Fatalf("expected rotated pair, got %v", err)
	}
	if _, err := svc.Refresh(pair.RefreshToken); err == nil {
		t.Fatalf("expected old refresh token to be revoked")
	}
	if err := svc.Logout(rotated.RefreshToken); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := svc.Refresh(rotated.RefreshToken); err == nil {
		t.Fatalf("expected refresh after logout to fail")
	}

	_, err = svc.Login(ctx, "10.0.0.1", "Traits2026")
	var limited *RateLimitError
	if !errors.Is(err, ErrRateLimited) || !errors.As(err, &limited) || limited.RetryAfter <= 0 {
		t.Fatalf("expected *RateLimitError on 3rd attempt, got %v", err)
	}
	if _, err := svc.Login(ctx, "10.0.0.2", "Traits2026"); err != nil {
		t.Fatalf("other clients must not be limited: %v", err)
	}
}

func TestAdminLoginNotConfigured(t *testing.T) {
	svc := NewAdminService(zap.NewNop(), nil, testCatalog(t), NewJWTService("s", 0, 0), "", nil)
	if _, err := svc.Login(context.Background(), "10.0.0.1", "anything"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials without hash, got %v", err)
	}
	if _, err := svc.ListAssessments(context.Background(), AdminQuery{}); !errors.Is(err, ErrPersistenceDisabled) {
		t.Fatalf("expected ErrPersistenceDisabled, got %v", err)
	}
}
