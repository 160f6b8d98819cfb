package domain

import (
	"fmt"
	"strings"
)

// Trait identifica una de las cinco dimensiones Big Five.
type Trait string

const (
	TraitExtraversion      Trait = "extraversion"
	TraitAgreeableness     Trait = "agreeableness"
	TraitConscientiousness Trait = "conscientiousness"
	TraitNeuroticism       Trait = "neuroticism"
	TraitOpenness          Trait = "openness"
)

// AllTraits devuelve los rasgos en el orden canonico del cuestionario.
func AllTraits() []Trait {
	return []Trait{
		TraitExtraversion,
		TraitAgreeableness,
		TraitConscientiousness,
		TraitNeuroticism,
		TraitOpenness,
	}
}

var traitNames = map[Trait]string{
	TraitExtraversion:      "Extraversion",
	TraitAgreeableness:     "Agreeableness",
	TraitConscientiousness: "Conscientiousness",
	TraitNeuroticism:       "Neuroticism",
	TraitOpenness:          "Openness",
}

// ParseTrait acepta la clave ("openness") o el nombre visible ("Openness").
func ParseTrait(s string) (Trait, error) {
	t := Trait(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("unknown trait %q", s)
	}
	return t, nil
}

func (t Trait) Valid() bool {
	_, ok := traitNames[t]
	return ok
}

// DisplayName devuelve el nombre para UI.
func (t Trait) DisplayName() string {
	if name, ok := traitNames[t]; ok {
		return name
	}
	return string(t)
}

// Letter devuelve la inicial usada en el cuestionario (E, A, C, N, O).
func (t Trait) Letter() string {
	if t == "" {
		return ""
	}
	return strings.ToUpper(string(t)[:1])
}

// Outcome es una medida externa predicha a partir del perfil.
type Outcome string

const (
	OutcomeJobPerformance          Outcome = "job_performance"
	OutcomeAcademicPerformance     Outcome = "academic_performance"
	OutcomeLeadershipEffectiveness Outcome = "leadership_effectiveness"
)

// AllOutcomes devuelve los outcomes en orden estable.
func AllOutcomes() []Outcome {
	return []Outcome{
		OutcomeJobPerformance,
		OutcomeAcademicPerformance,
		OutcomeLeadershipEffectiveness,
	}
}

var outcomeNames = map[Outcome]string{
	OutcomeJobPerformance:          "Job Performance",
	OutcomeAcademicPerformance:     "Academic Performance",
	OutcomeLeadershipEffectiveness: "Leadership Effectiveness",
}

// ParseOutcome acepta la clave ("job_performance") o el nombre visible
// ("Job Performance").
func ParseOutcome(s string) (Outcome, error) {
	o := Outcome(outcomeKeyReplacer.Replace(strings.ToLower(strings.TrimSpace(s))))
	if !o.Valid() {
		return "", fmt.Errorf("unknown outcome %q", s)
	}
	return o, nil
}

var outcomeKeyReplacer = strings.NewReplacer(" ", "_", "-", "_")

func (o Outcome) Valid() bool {
	_, ok := outcomeNames[o]
	return ok
}

func (o Outcome) DisplayName() string {
	if name, ok := outcomeNames[o]; ok {
		return name
	}
	return string(o)
}

// Polarity indica si el item puntua en la direccion del rasgo o invertido.
type Polarity string

const (
	PolarityPositive Polarity = "positive"
	PolarityNegative Polarity = "negative"
)

func ParsePolarity(s string) (Polarity, error) {
	p := Polarity(strings.ToLower(strings.TrimSpace(s)))
	switch p {
	case PolarityPositive, PolarityNegative:
		return p, nil
	}
	return "", fmt.Errorf("unknown polarity %q", s)
}

// Reversed es true para items con clave negativa.
func (p Polarity) Reversed() bool {
	return p == PolarityNegative
}
