package domain

// Question es un item del IPIP-50.
type Question struct {
	ID       int      `json:"id"`
	Text     string   `json:"text"`
	Trait    Trait    `json:"trait"`
	Polarity Polarity `json:"polarity"`
}

type LikertOption struct {
	Value int    `json:"value"`
	Label string `json:"label"`
}

// TraitNorm guarda la media y desvio poblacional del puntaje bruto.
type TraitNorm struct {
	Trait          Trait   `json:"trait"`
	PopulationMean float64 `json:"populationMean"`
	PopulationStd  float64 `json:"populationStd"`
	SampleSize     int     `json:"sampleSize,omitempty"`
}

// ScoreCategory es una banda semiabierta [MinPercentile, MaxPercentile).
type ScoreCategory struct {
	Name          string  `json:"name"`
	MinPercentile float64 `json:"minPercentile"`
	MaxPercentile float64 `json:"maxPercentile"`
}

// CorrelationFinding es un tamaño de efecto meta-analitico rasgo -> outcome.
type CorrelationFinding struct {
	Outcome          Outcome `json:"outcome"`
	Trait            Trait   `json:"trait"`
	CorrelationValue float64 `json:"correlationValue"`
	NumberOfStudies  int     `json:"numberOfStudies"`
}

// TraitInfo contiene los datos de presentacion de un rasgo.
type TraitInfo struct {
	Key   string `json:"key"`
	Name  string `json:"name"`
	Color string `json:"color"`
	Label string `json:"label"`
}

// TraitKeys agrupa los ids de preguntas de un rasgo segun su clave.
type TraitKeys struct {
	Positive []int `json:"positive"`
	Negative []int `json:"negative"`
}
