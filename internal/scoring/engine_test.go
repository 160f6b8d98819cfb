package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"bigfive-api/internal/catalog"
	"bigfive-api/internal/domain"
)

func embeddedCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c, _, err := catalog.Load(catalog.EmbeddedSource())
	require.NoError(t, err)
	return c
}

func catalogFrom(t *testing.T, mutate func(*catalog.Document)) *catalog.Catalog {
	t.Helper()
	doc, err := catalog.DefaultDocument()
	require.NoError(t, err)
	mutate(&doc)
	data, err := doc.Marshal()
	require.NoError(t, err)
	c, _, err := catalog.Load(catalog.BytesSource{Label: t.Name(), Data: data})
	require.NoError(t, err)
	return c
}

func TestEngineNotLoaded(t *testing.T) {
	_, err := NewEngine(catalog.NewLoader(zap.NewNop())).Score(uniform(3))
	assert.ErrorIs(t, err, catalog.ErrNotLoaded)

	_, err = NewEngine(nil).Score(uniform(3))
	assert.ErrorIs(t, err, catalog.ErrNotLoaded)

	var nilCatalog *catalog.Catalog
	_, err = NewEngine(nilCatalog).Score(uniform(3))
	assert.ErrorIs(t, err, catalog.ErrNotLoaded)
}

func TestEngineScoresNeutralResponses(t *testing.T) {
	engine := NewEngine(embeddedCatalog(t))

	res, err := engine.Score(uniform(3))
	require.NoError(t, err)

	require.Len(t, res.Traits, 5)
	for _, trait := range domain.AllTraits() {
		tr := res.Traits[trait]
		assert.Equal(t, 30, tr.RawScore, trait)
		assert.Equal(t, domain.MaxRawScore, tr.MaxScore)
		assert.Equal(t, trait.DisplayName(), tr.Name)
	}

	e := res.Traits[domain.TraitExtraversion]
	assert.Equal(t, 51.8, e.Percentile)
	assert.Equal(t, 50.4, e.TScore)
	assert.Equal(t, "Average", e.Interpretation)
	assert.Equal(t, 29.6, e.PopulationMean)
	assert.Equal(t, 9.1, e.PopulationStd)

	o := res.Traits[domain.TraitOpenness]
	assert.Equal(t, 8.7, o.Percentile)
	assert.Equal(t, "Very Low", o.Interpretation)

	require.Len(t, res.Predictions, 3)
	job := res.Predictions[domain.OutcomeJobPerformance]
	require.Len(t, job.ContributingTraits, 5)
	assert.Equal(t, domain.TraitConscientiousness, job.ContributingTraits[0].Trait)
	assert.GreaterOrEqual(t, job.Score, 0.0)
	assert.LessOrEqual(t, job.Score, 100.0)
}

func TestEngineIsDeterministic(t *testing.T) {
	engine := NewEngine(embeddedCatalog(t))
	responses := domain.ResponseSet{}
	for id := 1; id <= 50; id++ {
		responses[id] = id%5 + 1
	}

	first, err := engine.Score(responses)
	require.NoError(t, err)
	second, err := engine.Score(responses)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestEngineMissingItemsAreNeutral(t *testing.T) {
	engine := NewEngine(embeddedCatalog(t))

	empty, err := engine.Score(domain.ResponseSet{})
	require.NoError(t, err)
	neutral, err := engine.Score(uniform(3))
	require.NoError(t, err)
	assert.Equal(t, neutral, empty)
}

func TestEngineIgnoresUnknownQuestionIDs(t *testing.T) {
	engine := NewEngine(embeddedCatalog(t))

	withExtra := uniform(3)
	withExtra[99] = 5
	got, err := engine.Score(withExtra)
	require.NoError(t, err)
	want, err := engine.Score(uniform(3))
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestEngineRejectsInvalidValues(t *testing.T) {
	engine := NewEngine(embeddedCatalog(t))

	responses := uniform(3)
	responses[17] = 6
	responses[40] = 0
	_, err := engine.Score(responses)
	require.ErrorIs(t, err, ErrInvalidResponseValue)

	var invalid *InvalidResponseError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, 17, invalid.QuestionID)
}

func TestEngineCustomNormsAtMean(t *testing.T) {
	c := catalogFrom(t, func(doc *catalog.Document) {
		for i := range doc.Norms {
			mean, std := 30.0, 5.0
			doc.Norms[i].Mean = &mean
			doc.Norms[i].Std = &std
		}
	})

	res, err := NewEngine(c).Score(uniform(3))
	require.NoError(t, err)
	for _, trait := range domain.AllTraits() {
		tr := res.Traits[trait]
		assert.Equal(t, 50.0, tr.Percentile, trait)
		assert.Equal(t, 50.0, tr.TScore, trait)
		assert.Equal(t, "Average", tr.Interpretation, trait)
	}
}

func TestEngineOmitsZeroWeightOutcome(t *testing.T) {
	c := catalogFrom(t, func(doc *catalog.Document) {
		for i := range doc.Correlations {
			if doc.Correlations[i].Outcome == string(domain.OutcomeAcademicPerformance) {
				zero := 0.0
				doc.Correlations[i].Value = &zero
			}
		}
	})

	res, err := NewEngine(c).Score(uniform(4))
	require.NoError(t, err)
	assert.Len(t, res.Predictions, 2)
	assert.NotContains(t, res.Predictions, domain.OutcomeAcademicPerformance)
}

func TestEngineStandardizeRaw(t *testing.T) {
	engine := NewEngine(embeddedCatalog(t))

	tr, err := engine.StandardizeRaw(domain.TraitExtraversion, 30)
	require.NoError(t, err)
	assert.Equal(t, 51.8, tr.Percentile)

	_, err = engine.StandardizeRaw(domain.Trait("charisma"), 30)
	assert.Error(t, err)
}
