package catalog

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"bigfive-api/internal/domain"
)

func defaultDoc(t *testing.T) Document {
	t.Helper()
	doc, err := DefaultDocument()
	require.NoError(t, err)
	return doc
}

func marshalDoc(t *testing.T, doc Document) []byte {
	t.Helper()
	data, err := doc.Marshal()
	require.NoError(t, err)
	return data
}

func ptr(v float64) *float64 { return &v }

func TestEmbeddedCatalogLoads(t *testing.T) {
	c, warnings, err := Load(EmbeddedSource())
	require.NoError(t, err)
	assert.Empty(t, warnings)

	assert.Len(t, c.Questions(), 50)
	assert.Len(t, c.LikertOptions(), 5)
	assert.Len(t, c.Norms(), 5)
	assert.Len(t, c.Categories(), 5)
	assert.Len(t, c.TraitInfo(), 5)
	assert.Equal(t, []domain.Outcome{
		domain.OutcomeJobPerformance,
		domain.OutcomeAcademicPerformance,
		domain.OutcomeLeadershipEffectiveness,
	}, c.Outcomes())

	for _, trait := range domain.AllTraits() {
		keys := c.Keys(trait)
		assert.Len(t, keys.Positive, 5, trait)
		assert.Len(t, keys.Negative, 5, trait)
	}
	assert.Equal(t, []int{1, 11, 21, 31, 41}, c.Keys(domain.TraitExtraversion).Positive)
	assert.Equal(t, []int{2, 12, 22, 32, 42}, c.Keys(domain.TraitAgreeableness).Negative)

	for i, q := range c.Questions() {
		assert.Equal(t, i+1, q.ID)
	}
}

func TestEmbeddedCategoriesPartitionPercentileRange(t *testing.T) {
	c, _, err := Load(EmbeddedSource())
	require.NoError(t, err)

	cats := c.Categories()
	require.NotEmpty(t, cats)
	assert.Equal(t, 0.0, cats[0].MinPercentile)
	assert.Equal(t, 100.0, cats[len(cats)-1].MaxPercentile)
	for i := 1; i < len(cats); i++ {
		assert.Equal(t, cats[i-1].MaxPercentile, cats[i].MinPercentile)
	}
}

func TestCorrelationFindingsKeepLoadOrder(t *testing.T) {
	c, _, err := Load(EmbeddedSource())
	require.NoError(t, err)

	findings := c.Findings(domain.OutcomeJobPerformance)
	require.Len(t, findings, 5)
	assert.Equal(t, domain.TraitConscientiousness, findings[0].Trait)
	assert.Equal(t, domain.TraitNeuroticism, findings[1].Trait)
	assert.InDelta(t, -0.13, findings[1].CorrelationValue, 1e-9)
}

func TestDuplicateCorrelationLastValueWinsAtFirstPosition(t *testing.T) {
	doc := defaultDoc(t)
	doc.Correlations = append(doc.Correlations, CorrelationDoc{
		Outcome:    "job_performance",
		Trait:      "conscientiousness",
		Value:      ptr(0.5),
		NumStudies: 7,
	})

	c, warnings, err := Load(BytesSource{Data: marshalDoc(t, doc)})
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "job_performance/conscientiousness")

	findings := c.Findings(domain.OutcomeJobPerformance)
	require.Len(t, findings, 5)
	assert.Equal(t, domain.TraitConscientiousness, findings[0].Trait)
	assert.Equal(t, 0.5, findings[0].CorrelationValue)
	assert.Equal(t, 7, findings[0].NumberOfStudies)
}

func TestAccessorsReturnCopies(t *testing.T) {
	c, _, err := Load(EmbeddedSource())
	require.NoError(t, err)

	cats := c.Categories()
	cats[0].Name = "mutated"
	assert.NotEqual(t, "mutated", c.Categories()[0].Name)

	keys := c.Keys(domain.TraitOpenness)
	keys.Positive[0] = 999
	assert.NotEqual(t, 999, c.Keys(domain.TraitOpenness).Positive[0])
}

func TestLoadRejectsInvalidDocuments(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(d *Document)
		want   string
	}{
		{
			name:   "missing question",
			mutate: func(d *Document) { d.Questions = d.Questions[1:] },
			want:   "expected 50 questions",
		},
		{
			name:   "duplicate question id",
			mutate: func(d *Document) { d.Questions[1].ID = d.Questions[0].ID },
			want:   "duplicate question id",
		},
		{
			name:   "unbalanced keying",
			mutate: func(d *Document) { d.Questions[5].Polarity = "positive" },
			want:   "positive and",
		},
		{
			name:   "unknown trait",
			mutate: func(d *Document) { d.Questions[0].Trait = "humility" },
			want:   "unknown trait",
		},
		{
			name:   "four likert options",
			mutate: func(d *Document) { d.LikertOptions = d.LikertOptions[:4] },
			want:   "likert options",
		},
		{
			name:   "missing norm",
			mutate: func(d *Document) { d.Norms = d.Norms[:4] },
			want:   "missing norm",
		},
		{
			name:   "norm without std",
			mutate: func(d *Document) { d.Norms[0].Std = nil },
			want:   "mean and std are required",
		},
		{
			name:   "negative std",
			mutate: func(d *Document) { d.Norms[0].Std = ptr(-1) },
			want:   "invalid std",
		},
		{
			name:   "infinite std",
			mutate: func(d *Document) { d.Norms[1].Std = ptr(math.Inf(1)) },
			want:   "invalid std",
		},
		{
			name:   "infinite mean",
			mutate: func(d *Document) { d.Norms[2].Mean = ptr(math.Inf(-1)) },
			want:   "invalid mean",
		},
		{
			name:   "category gap",
			mutate: func(d *Document) { d.Categories[1].MinPercentile = ptr(25) },
			want:   "gap",
		},
		{
			name:   "category overlap",
			mutate: func(d *Document) { d.Categories[1].MinPercentile = ptr(15) },
			want:   "overlap",
		},
		{
			name:   "categories not reaching 100",
			mutate: func(d *Document) { d.Categories[4].MaxPercentile = ptr(99) },
			want:   "must end at 100",
		},
		{
			name:   "correlation out of range",
			mutate: func(d *Document) { d.Correlations[0].Value = ptr(1.2) },
			want:   "outside [-1, 1]",
		},
		{
			name:   "unknown outcome",
			mutate: func(d *Document) { d.Correlations[0].Outcome = "happiness" },
			want:   "unknown outcome",
		},
		{
			name:   "negative studies",
			mutate: func(d *Document) { d.Correlations[0].NumStudies = -3 },
			want:   "negative number of studies",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			doc := defaultDoc(t)
			tc.mutate(&doc)
			_, _, err := Load(BytesSource{Label: tc.name, Data: marshalDoc(t, doc)})
			require.Error(t, err)

			var loadErr *LoadError
			require.True(t, errors.As(err, &loadErr))
			assert.Equal(t, tc.name, loadErr.Source)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	_, _, err := Load(BytesSource{Data: []byte("questions: [")})
	var loadErr *LoadError
	require.ErrorAs(t, err, &loadErr)

	_, _, err = Load(BytesSource{})
	require.ErrorAs(t, err, &loadErr)
}

func TestLoadRejectsInfiniteNormInYAML(t *testing.T) {
	data := strings.Replace(string(marshalDoc(t, defaultDoc(t))), "mean: ", "mean: .inf #", 1)
	_, _, err := Load(BytesSource{Label: "inf.yaml", Data: []byte(data)})
	var loadErr *LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Contains(t, err.Error(), "invalid mean")
}

func TestZeroStdIsAccepted(t *testing.T) {
	doc := defaultDoc(t)
	doc.Norms[0].Std = ptr(0)
	c, _, err := Load(BytesSource{Data: marshalDoc(t, doc)})
	require.NoError(t, err)
	norm, ok := c.Norm(domain.TraitExtraversion)
	require.True(t, ok)
	assert.Equal(t, 0.0, norm.PopulationStd)
}

func TestFileSourceTriesCandidatesInOrder(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bigfive.yaml")
	require.NoError(t, os.WriteFile(path, defaultCatalogYAML, 0o600))

	src := NewFileSource(filepath.Join(dir, "missing.yaml"), "  ", path)
	c, _, err := Load(src)
	require.NoError(t, err)
	assert.Len(t, c.Questions(), 50)
	assert.Equal(t, path, src.Name())
}

func TestFileSourceReportsCandidates(t *testing.T) {
	dir := t.TempDir()
	src := NewFileSource(filepath.Join(dir, "a.yaml"), filepath.Join(dir, "b.yaml"))
	_, _, err := Load(src)
	var loadErr *LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.True(t, strings.Contains(err.Error(), "a.yaml") && strings.Contains(err.Error(), "b.yaml"))
}

func TestLoaderNotLoaded(t *testing.T) {
	l := NewLoader(zap.NewNop())
	assert.False(t, l.IsLoaded())

	_, err := l.Catalog()
	assert.ErrorIs(t, err, ErrNotLoaded)
	_, err = l.QuestionsByTrait()
	assert.ErrorIs(t, err, ErrNotLoaded)
	_, err = l.Norms()
	assert.ErrorIs(t, err, ErrNotLoaded)
	_, err = l.Categories()
	assert.ErrorIs(t, err, ErrNotLoaded)
	_, err = l.Correlations()
	assert.ErrorIs(t, err, ErrNotLoaded)

	var nilLoader *Loader
	_, err = nilLoader.Catalog()
	assert.ErrorIs(t, err, ErrNotLoaded)
}

type countingSource struct {
	mu    sync.Mutex
	reads int
}

func (s *countingSource) Name() string { return "counting" }

func (s *countingSource) Read() ([]byte, error) {
	s.mu.Lock()
	s.reads++
	s.mu.Unlock()
	return defaultCatalogYAML, nil
}

func TestLoaderLoadOnceIsIdempotent(t *testing.T) {
	l := NewLoader(zap.NewNop())
	src := &countingSource{}

	var wg sync.WaitGroup
	results := make([]*Catalog, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c, err := l.LoadOnce(src)
			if err == nil {
				results[i] = c
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, src.reads)
	for _, c := range results {
		assert.Same(t, results[0], c)
	}

	again, err := l.LoadOnce(BytesSource{Data: []byte("not: [valid")})
	require.NoError(t, err)
	assert.Same(t, results[0], again)
}

func TestLoaderFailedLoadLeavesNothingLoaded(t *testing.T) {
	l := NewLoader(zap.NewNop())
	_, err := l.LoadOnce(BytesSource{Data: []byte("version: x")})
	var loadErr *LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.False(t, l.IsLoaded())

	c, err := l.LoadOnce(EmbeddedSource())
	require.NoError(t, err)
	assert.NotNil(t, c)
	assert.True(t, l.IsLoaded())
}
