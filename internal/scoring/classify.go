package scoring

import "bigfive-api/internal/domain"

// Classify devuelve la primera banda con min <= p < max. Las bandas vienen
// ordenadas por MinPercentile; si ninguna coincide (p == 100) se usa la ultima.
func Classify(percentile float64, categories []domain.ScoreCategory) string {
	if len(categories) == 0 {
		return ""
	}
	for _, cat := range categories {
		if cat.MinPercentile <= percentile && percentile < cat.MaxPercentile {
			return cat.Name
		}
	}
	return categories[len(categories)-1].Name
}
