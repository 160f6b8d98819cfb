package scoring

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"bigfive-api/internal/domain"
)

// Standard agrupa el z-score y sus derivados redondeados.
type Standard struct {
	Z          float64
	Percentile float64
	TScore     float64
}

// ZScore devuelve 0 cuando el desvio es 0.
func ZScore(raw float64, norm domain.TraitNorm) float64 {
	if norm.PopulationStd == 0 {
		return 0
	}
	return (raw - norm.PopulationMean) / norm.PopulationStd
}

// Standardize convierte un puntaje bruto en percentil (Phi(z)*100) y T-score
// (50 + 10z), ambos con un decimal.
func Standardize(raw int, norm domain.TraitNorm) Standard {
	z := ZScore(float64(raw), norm)
	return Standard{
		Z:          z,
		Percentile: Round1(PercentileOf(z)),
		TScore:     Round1(50 + 10*z),
	}
}

// PercentileOf devuelve Phi(z)*100 sin redondear.
func PercentileOf(z float64) float64 {
	return distuv.UnitNormal.CDF(z) * 100
}

// Round1 redondea a un decimal, mitades lejos de cero.
func Round1(x float64) float64 {
	return math.Round(x*10) / 10
}
