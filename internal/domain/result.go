package domain

import "encoding/json"

// ResponseSet mapea id de pregunta -> respuesta Likert (1..5).
type ResponseSet map[int]int

// MaxRawScore es el maximo de un rasgo con 10 items de 1..5.
const MaxRawScore = 50

type TraitResult struct {
	Name           string  `json:"name"`
	RawScore       int     `json:"rawScore"`
	MaxScore       int     `json:"maxScore"`
	Percentile     float64 `json:"percentile"`
	TScore         float64 `json:"tScore"`
	Interpretation string  `json:"interpretation"`
	PopulationMean float64 `json:"populationMean"`
	PopulationStd  float64 `json:"populationStd"`
}

type ContributingTrait struct {
	Trait       Trait
	Correlation float64
	NumStudies  int
}

// contributingTraitJSON muestra el nombre visible del rasgo en "trait" y la
// clave estable en "traitKey".
type contributingTraitJSON struct {
	Trait       string  `json:"trait"`
	TraitKey    Trait   `json:"traitKey,omitempty"`
	Correlation float64 `json:"correlation"`
	NumStudies  int     `json:"numStudies"`
}

func (c ContributingTrait) MarshalJSON() ([]byte, error) {
	return json.Marshal(contributingTraitJSON{
		Trait:       c.Trait.DisplayName(),
		TraitKey:    c.Trait,
		Correlation: c.Correlation,
		NumStudies:  c.NumStudies,
	})
}

// UnmarshalJSON acepta la clave o el nombre visible, asi que lee tanto
// filas guardadas antes de traitKey como las nuevas.
func (c *ContributingTrait) UnmarshalJSON(data []byte) error {
	var raw contributingTraitJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	name := string(raw.TraitKey)
	if name == "" {
		name = raw.Trait
	}
	trait, err := ParseTrait(name)
	if err != nil {
		return err
	}
	*c = ContributingTrait{Trait: trait, Correlation: raw.Correlation, NumStudies: raw.NumStudies}
	return nil
}

type PredictionResult struct {
	Score              float64             `json:"score"`
	Interpretation     string              `json:"interpretation"`
	ContributingTraits []ContributingTrait `json:"contributingTraits"`
}

// ScoreResult es la salida completa del motor de puntuacion.
type ScoreResult struct {
	Traits      map[Trait]TraitResult        `json:"traits"`
	Predictions map[Outcome]PredictionResult `json:"predictions"`
}
