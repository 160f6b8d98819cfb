// Package catalog carga y expone los datos de referencia del IPIP-50:
// preguntas, opciones Likert, normas poblacionales, bandas de
// interpretacion y hallazgos de correlacion rasgo -> outcome.
//
// Un Catalog es inmutable una vez construido y seguro para lectura
// concurrente sin locks. Los accesores devuelven copias.
package catalog

import (
	"bigfive-api/internal/domain"
)

type Catalog struct {
	version      string
	questions    []domain.Question
	likert       []domain.LikertOption
	keys         map[domain.Trait]domain.TraitKeys
	norms        map[domain.Trait]domain.TraitNorm
	categories   []domain.ScoreCategory
	correlations map[domain.Outcome][]domain.CorrelationFinding
	outcomes     []domain.Outcome
	traitInfo    []domain.TraitInfo
}

func (c *Catalog) Version() string {
	return c.version
}

// Questions devuelve las 50 preguntas ordenadas por id.
func (c *Catalog) Questions() []domain.Question {
	return append([]domain.Question(nil), c.questions...)
}

func (c *Catalog) LikertOptions() []domain.LikertOption {
	return append([]domain.LikertOption(nil), c.likert...)
}

// QuestionsByTrait agrupa ids de preguntas por rasgo y clave.
func (c *Catalog) QuestionsByTrait() map[domain.Trait]domain.TraitKeys {
	out := make(map[domain.Trait]domain.TraitKeys, len(c.keys))
	for trait := range c.keys {
		out[trait] = c.Keys(trait)
	}
	return out
}

// Keys devuelve los ids positivos y negativos de un rasgo.
func (c *Catalog) Keys(trait domain.Trait) domain.TraitKeys {
	k := c.keys[trait]
	return domain.TraitKeys{
		Positive: append([]int(nil), k.Positive...),
		Negative: append([]int(nil), k.Negative...),
	}
}

// HasQuestion indica si el id pertenece al cuestionario.
func (c *Catalog) HasQuestion(id int) bool {
	return id >= 1 && id <= len(c.questions)
}

func (c *Catalog) Norms() map[domain.Trait]domain.TraitNorm {
	out := make(map[domain.Trait]domain.TraitNorm, len(c.norms))
	for trait, norm := range c.norms {
		out[trait] = norm
	}
	return out
}

func (c *Catalog) Norm(trait domain.Trait) (domain.TraitNorm, bool) {
	norm, ok := c.norms[trait]
	return norm, ok
}

// Categories devuelve las bandas ordenadas ascendentemente por MinPercentile.
func (c *Catalog) Categories() []domain.ScoreCategory {
	return append([]domain.ScoreCategory(nil), c.categories...)
}

// Correlations devuelve los hallazgos por outcome en orden de carga.
func (c *Catalog) Correlations() map[domain.Outcome][]domain.CorrelationFinding {
	out := make(map[domain.Outcome][]domain.CorrelationFinding, len(c.correlations))
	for outcome := range c.correlations {
		out[outcome] = c.Findings(outcome)
	}
	return out
}

func (c *Catalog) Findings(outcome domain.Outcome) []domain.CorrelationFinding {
	return append([]domain.CorrelationFinding(nil), c.correlations[outcome]...)
}

// Outcomes lista los outcomes con al menos un hallazgo, en orden de carga.
func (c *Catalog) Outcomes() []domain.Outcome {
	return append([]domain.Outcome(nil), c.outcomes...)
}

func (c *Catalog) TraitInfo() []domain.TraitInfo {
	return append([]domain.TraitInfo(nil), c.traitInfo...)
}

// Catalog permite usar un *Catalog ya construido donde se espera un
// proveedor. Un receptor nil se comporta como catalogo no cargado.
func (c *Catalog) Catalog() (*Catalog, error) {
	if c == nil {
		return nil, ErrNotLoaded
	}
	return c, nil
}
