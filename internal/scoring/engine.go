package scoring

import (
	"fmt"
	"sort"

	"bigfive-api/internal/catalog"
	"bigfive-api/internal/domain"
)

// CatalogProvider entrega el catalogo vigente o catalog.ErrNotLoaded.
// *catalog.Loader y *catalog.Catalog lo implementan.
type CatalogProvider interface {
	Catalog() (*catalog.Catalog, error)
}

// Engine orquesta el puntaje completo de una evaluacion.
type Engine struct {
	catalogs CatalogProvider
}

func NewEngine(catalogs CatalogProvider) *Engine {
	return &Engine{catalogs: catalogs}
}

// Score devuelve los cinco rasgos y las predicciones con peso total no nulo.
// Items faltantes cuentan como neutrales; ids desconocidos se ignoran.
func (e *Engine) Score(responses domain.ResponseSet) (domain.ScoreResult, error) {
	c, err := e.catalog()
	if err != nil {
		return domain.ScoreResult{}, err
	}
	return ScoreWith(c, responses)
}

// StandardizeRaw reconstruye el TraitResult de un rasgo a partir de un
// puntaje bruto ya calculado.
func (e *Engine) StandardizeRaw(trait domain.Trait, raw int) (domain.TraitResult, error) {
	c, err := e.catalog()
	if err != nil {
		return domain.TraitResult{}, err
	}
	return traitResult(c, trait, raw)
}

func (e *Engine) catalog() (*catalog.Catalog, error) {
	if e == nil || e.catalogs == nil {
		return nil, catalog.ErrNotLoaded
	}
	return e.catalogs.Catalog()
}

// ScoreWith puntua contra un catalogo concreto.
func ScoreWith(c *catalog.Catalog, responses domain.ResponseSet) (domain.ScoreResult, error) {
	if c == nil {
		return domain.ScoreResult{}, catalog.ErrNotLoaded
	}
	if err := validateResponses(responses); err != nil {
		return domain.ScoreResult{}, err
	}

	traits := make(map[domain.Trait]domain.TraitResult, len(domain.AllTraits()))
	for _, trait := range domain.AllTraits() {
		raw, err := RawScore(responses, c.Keys(trait))
		if err != nil {
			return domain.ScoreResult{}, err
		}
		tr, err := traitResult(c, trait, raw)
		if err != nil {
			return domain.ScoreResult{}, err
		}
		traits[trait] = tr
	}

	predictions := make(map[domain.Outcome]domain.PredictionResult)
	for _, outcome := range c.Outcomes() {
		if p, ok := Predict(traits, c.Findings(outcome)); ok {
			predictions[outcome] = p
		}
	}

	return domain.ScoreResult{Traits: traits, Predictions: predictions}, nil
}

func traitResult(c *catalog.Catalog, trait domain.Trait, raw int) (domain.TraitResult, error) {
	norm, ok := c.Norm(trait)
	if !ok {
		return domain.TraitResult{}, fmt.Errorf("no norm for trait %s", trait)
	}
	std := Standardize(raw, norm)
	return domain.TraitResult{
		Name:           trait.DisplayName(),
		RawScore:       raw,
		MaxScore:       domain.MaxRawScore,
		Percentile:     std.Percentile,
		TScore:         std.TScore,
		Interpretation: Classify(std.Percentile, c.Categories()),
		PopulationMean: norm.PopulationMean,
		PopulationStd:  norm.PopulationStd,
	}, nil
}

// validateResponses revisa todos los valores recibidos, en orden de id para
// que el error reportado sea estable.
func validateResponses(responses domain.ResponseSet) error {
	ids := make([]int, 0, len(responses))
	for id := range responses {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		if v := responses[id]; !ValidResponse(v) {
			return &InvalidResponseError{QuestionID: id, Value: v}
		}
	}
	return nil
}
