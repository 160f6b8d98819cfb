package scoring

import (
	"math"

	"bigfive-api/internal/domain"
)

const (
	PredictionBelowAverage         = "Below Average"
	PredictionSlightlyBelowAverage = "Slightly Below Average"
	PredictionAverage              = "Average"
	PredictionAboveAverage         = "Above Average"
	PredictionWellAboveAverage     = "Well Above Average"
)

// Predict combina los percentiles de los rasgos con las correlaciones de un
// outcome. Devuelve false si el peso total es 0, en cuyo caso el outcome
// no se reporta.
func Predict(traits map[domain.Trait]domain.TraitResult, findings []domain.CorrelationFinding) (domain.PredictionResult, bool) {
	var weightedSum, totalWeight float64
	contributing := make([]domain.ContributingTrait, 0, len(findings))

	for _, f := range findings {
		tr, ok := traits[f.Trait]
		if !ok {
			continue
		}
		normalized := tr.Percentile / 100
		// la conversion explicita impide que el compilador fusione en FMA
		weightedSum += float64(normalized * f.CorrelationValue)
		totalWeight += math.Abs(f.CorrelationValue)
		contributing = append(contributing, domain.ContributingTrait{
			Trait:       f.Trait,
			Correlation: f.CorrelationValue,
			NumStudies:  f.NumberOfStudies,
		})
	}

	if totalWeight == 0 {
		return domain.PredictionResult{}, false
	}

	score := 50 + (weightedSum/totalWeight)*50
	return domain.PredictionResult{
		Score:              Round1(score),
		Interpretation:     InterpretPrediction(score),
		ContributingTraits: contributing,
	}, true
}

// InterpretPrediction aplica los umbrales fijos 30/45/55/70.
func InterpretPrediction(score float64) string {
	switch {
	case score < 30:
		return PredictionBelowAverage
	case score < 45:
		return PredictionSlightlyBelowAverage
	case score < 55:
		return PredictionAverage
	case score < 70:
		return PredictionAboveAverage
	default:
		return PredictionWellAboveAverage
	}
}
