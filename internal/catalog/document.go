package catalog

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gopkg.in/yaml.v3"

	"bigfive-api/internal/domain"
)

const (
	questionsPerTrait = 10
	itemsPerPolarity  = 5
	likertPoints      = 5
)

// Document es la forma serializada (YAML) del catalogo.
type Document struct {
	Version       string            `yaml:"version"`
	Traits        []TraitInfoDoc    `yaml:"traits,omitempty"`
	Questions     []QuestionDoc     `yaml:"questions"`
	LikertOptions []LikertOptionDoc `yaml:"likert_options"`
	Norms         []NormDoc         `yaml:"norms"`
	Categories    []CategoryDoc     `yaml:"score_categories"`
	Correlations  []CorrelationDoc  `yaml:"correlations"`
}

type TraitInfoDoc struct {
	Trait string `yaml:"trait"`
	Key   string `yaml:"key"`
	Color string `yaml:"color"`
	Label string `yaml:"label"`
}

type QuestionDoc struct {
	ID       int    `yaml:"id"`
	Trait    string `yaml:"trait"`
	Polarity string `yaml:"polarity"`
	Text     string `yaml:"text"`
}

type LikertOptionDoc struct {
	Value int    `yaml:"value"`
	Label string `yaml:"label"`
}

// NormDoc usa punteros para distinguir "ausente" de cero.
type NormDoc struct {
	Trait      string   `yaml:"trait"`
	Mean       *float64 `yaml:"mean"`
	Std        *float64 `yaml:"std"`
	SampleSize int      `yaml:"sample_size,omitempty"`
}

type CategoryDoc struct {
	Name          string   `yaml:"name"`
	MinPercentile *float64 `yaml:"min_percentile"`
	MaxPercentile *float64 `yaml:"max_percentile"`
}

type CorrelationDoc struct {
	Outcome    string   `yaml:"outcome"`
	Trait      string   `yaml:"trait"`
	Value      *float64 `yaml:"value"`
	NumStudies int      `yaml:"num_studies"`
}

// ParseDocument decodifica YAML sin validar el contenido.
func ParseDocument(data []byte) (Document, error) {
	var doc Document
	if len(data) == 0 {
		return doc, errors.New("empty catalog document")
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("decode yaml: %w", err)
	}
	return doc, nil
}

// Marshal serializa el documento a YAML.
func (d Document) Marshal() ([]byte, error) {
	return yaml.Marshal(d)
}

// build valida el documento y lo convierte en un Catalog inmutable.
// Los warnings no son fatales (p. ej. correlaciones duplicadas).
func build(doc Document) (*Catalog, []string, error) {
	var warnings []string

	questions, keys, err := buildQuestions(doc.Questions)
	if err != nil {
		return nil, nil, err
	}
	likert, err := buildLikert(doc.LikertOptions)
	if err != nil {
		return nil, nil, err
	}
	norms, err := buildNorms(doc.Norms)
	if err != nil {
		return nil, nil, err
	}
	categories, err := buildCategories(doc.Categories)
	if err != nil {
		return nil, nil, err
	}
	correlations, order, dupes, err := buildCorrelations(doc.Correlations)
	if err != nil {
		return nil, nil, err
	}
	warnings = append(warnings, dupes...)
	info, err := buildTraitInfo(doc.Traits)
	if err != nil {
		return nil, nil, err
	}

	return &Catalog{
		version:      doc.Version,
		questions:    questions,
		likert:       likert,
		keys:         keys,
		norms:        norms,
		categories:   categories,
		correlations: correlations,
		outcomes:     order,
		traitInfo:    info,
	}, warnings, nil
}

func buildQuestions(items []QuestionDoc) ([]domain.Question, map[domain.Trait]domain.TraitKeys, error) {
	expected := questionsPerTrait * len(domain.AllTraits())
	if len(items) != expected {
		return nil, nil, fmt.Errorf("expected %d questions, got %d", expected, len(items))
	}

	seen := make(map[int]struct{}, len(items))
	keys := make(map[domain.Trait]domain.TraitKeys, len(domain.AllTraits()))
	questions := make([]domain.Question, 0, len(items))

	for _, item := range items {
		if item.ID < 1 || item.ID > expected {
			return nil, nil, fmt.Errorf("question id %d out of range 1..%d", item.ID, expected)
		}
		if _, dup := seen[item.ID]; dup {
			return nil, nil, fmt.Errorf("duplicate question id %d", item.ID)
		}
		seen[item.ID] = struct{}{}
		if item.Text == "" {
			return nil, nil, fmt.Errorf("question %d: missing text", item.ID)
		}
		trait, err := domain.ParseTrait(item.Trait)
		if err != nil {
			return nil, nil, fmt.Errorf("question %d: %w", item.ID, err)
		}
		polarity, err := domain.ParsePolarity(item.Polarity)
		if err != nil {
			return nil, nil, fmt.Errorf("question %d: %w", item.ID, err)
		}

		k := keys[trait]
		if polarity.Reversed() {
			k.Negative = append(k.Negative, item.ID)
		} else {
			k.Positive = append(k.Positive, item.ID)
		}
		keys[trait] = k

		questions = append(questions, domain.Question{
			ID:       item.ID,
			Text:     item.Text,
			Trait:    trait,
			Polarity: polarity,
		})
	}

	for _, trait := range domain.AllTraits() {
		k := keys[trait]
		if len(k.Positive) != itemsPerPolarity || len(k.Negative) != itemsPerPolarity {
			return nil, nil, fmt.Errorf("trait %s: expected %d positive and %d negative items, got %d/%d",
				trait, itemsPerPolarity, itemsPerPolarity, len(k.Positive), len(k.Negative))
		}
		sort.Ints(k.Positive)
		sort.Ints(k.Negative)
		keys[trait] = k
	}

	sort.Slice(questions, func(i, j int) bool { return questions[i].ID < questions[j].ID })
	return questions, keys, nil
}

func buildLikert(items []LikertOptionDoc) ([]domain.LikertOption, error) {
	if len(items) != likertPoints {
		return nil, fmt.Errorf("expected %d likert options, got %d", likertPoints, len(items))
	}
	seen := make(map[int]struct{}, len(items))
	options := make([]domain.LikertOption, 0, len(items))
	for _, item := range items {
		if item.Value < 1 || item.Value > likertPoints {
			return nil, fmt.Errorf("likert value %d out of range 1..%d", item.Value, likertPoints)
		}
		if _, dup := seen[item.Value]; dup {
			return nil, fmt.Errorf("duplicate likert value %d", item.Value)
		}
		seen[item.Value] = struct{}{}
		if item.Label == "" {
			return nil, fmt.Errorf("likert value %d: missing label", item.Value)
		}
		options = append(options, domain.LikertOption{Value: item.Value, Label: item.Label})
	}
	sort.Slice(options, func(i, j int) bool { return options[i].Value < options[j].Value })
	return options, nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func buildNorms(items []NormDoc) (map[domain.Trait]domain.TraitNorm, error) {
	norms := make(map[domain.Trait]domain.TraitNorm, len(items))
	for _, item := range items {
		trait, err := domain.ParseTrait(item.Trait)
		if err != nil {
			return nil, fmt.Errorf("norm: %w", err)
		}
		if _, dup := norms[trait]; dup {
			return nil, fmt.Errorf("norm for %s defined twice", trait)
		}
		if item.Mean == nil || item.Std == nil {
			return nil, fmt.Errorf("norm for %s: mean and std are required", trait)
		}
		if !isFinite(*item.Mean) {
			return nil, fmt.Errorf("norm for %s: invalid mean %v", trait, *item.Mean)
		}
		if *item.Std < 0 || !isFinite(*item.Std) {
			return nil, fmt.Errorf("norm for %s: invalid std %v", trait, *item.Std)
		}
		norms[trait] = domain.TraitNorm{
			Trait:          trait,
			PopulationMean: *item.Mean,
			PopulationStd:  *item.Std,
			SampleSize:     item.SampleSize,
		}
	}
	for _, trait := range domain.AllTraits() {
		if _, ok := norms[trait]; !ok {
			return nil, fmt.Errorf("missing norm for %s", trait)
		}
	}
	return norms, nil
}

// buildCategories exige que las bandas particionen [0, 100] sin huecos ni solapes.
func buildCategories(items []CategoryDoc) ([]domain.ScoreCategory, error) {
	if len(items) == 0 {
		return nil, errors.New("at least one score category is required")
	}
	categories := make([]domain.ScoreCategory, 0, len(items))
	for _, item := range items {
		if item.Name == "" {
			return nil, errors.New("score category: missing name")
		}
		if item.MinPercentile == nil || item.MaxPercentile == nil {
			return nil, fmt.Errorf("score category %q: min and max percentile are required", item.Name)
		}
		if *item.MinPercentile >= *item.MaxPercentile {
			return nil, fmt.Errorf("score category %q: min %v must be below max %v", item.Name, *item.MinPercentile, *item.MaxPercentile)
		}
		categories = append(categories, domain.ScoreCategory{
			Name:          item.Name,
			MinPercentile: *item.MinPercentile,
			MaxPercentile: *item.MaxPercentile,
		})
	}
	sort.SliceStable(categories, func(i, j int) bool {
		return categories[i].MinPercentile < categories[j].MinPercentile
	})

	if categories[0].MinPercentile != 0 {
		return nil, fmt.Errorf("score categories must start at 0, first starts at %v", categories[0].MinPercentile)
	}
	if last := categories[len(categories)-1]; last.MaxPercentile != 100 {
		return nil, fmt.Errorf("score categories must end at 100, last ends at %v", last.MaxPercentile)
	}
	for i := 1; i < len(categories); i++ {
		prev, cur := categories[i-1], categories[i]
		if prev.MaxPercentile < cur.MinPercentile {
			return nil, fmt.Errorf("gap between score categories %q and %q", prev.Name, cur.Name)
		}
		if prev.MaxPercentile > cur.MinPercentile {
			return nil, fmt.Errorf("score categories %q and %q overlap", prev.Name, cur.Name)
		}
	}
	return categories, nil
}

// buildCorrelations conserva el orden de insercion por outcome. Si un par
// (outcome, rasgo) se repite, el ultimo valor gana pero mantiene la posicion
// del primero.
func buildCorrelations(items []CorrelationDoc) (map[domain.Outcome][]domain.CorrelationFinding, []domain.Outcome, []string, error) {
	out := make(map[domain.Outcome][]domain.CorrelationFinding)
	var order []domain.Outcome
	var warnings []string

	for i, item := range items {
		outcome, err := domain.ParseOutcome(item.Outcome)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("correlation %d: %w", i, err)
		}
		trait, err := domain.ParseTrait(item.Trait)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("correlation %d: %w", i, err)
		}
		if item.Value == nil {
			return nil, nil, nil, fmt.Errorf("correlation %s/%s: value is required", outcome, trait)
		}
		value := *item.Value
		if math.IsNaN(value) || value < -1 || value > 1 {
			return nil, nil, nil, fmt.Errorf("correlation %s/%s: value %v outside [-1, 1]", outcome, trait, value)
		}
		if item.NumStudies < 0 {
			return nil, nil, nil, fmt.Errorf("correlation %s/%s: negative number of studies", outcome, trait)
		}

		finding := domain.CorrelationFinding{
			Outcome:          outcome,
			Trait:            trait,
			CorrelationValue: value,
			NumberOfStudies:  item.NumStudies,
		}

		findings, known := out[outcome]
		if !known {
			order = append(order, outcome)
		}
		replaced := false
		for j := range findings {
			if findings[j].Trait == trait {
				findings[j] = finding
				replaced = true
				warnings = append(warnings, fmt.Sprintf("duplicate correlation %s/%s: last value %v wins", outcome, trait, value))
				break
			}
		}
		if !replaced {
			findings = append(findings, finding)
		}
		out[outcome] = findings
	}
	return out, order, warnings, nil
}

var defaultTraitColors = map[domain.Trait]string{
	domain.TraitExtraversion:      "#ef4444",
	domain.TraitAgreeableness:     "#22c55e",
	domain.TraitConscientiousness: "#3b82f6",
	domain.TraitNeuroticism:       "#f59e0b",
	domain.TraitOpenness:          "#8b5cf6",
}

func buildTraitInfo(items []TraitInfoDoc) ([]domain.TraitInfo, error) {
	byTrait := make(map[domain.Trait]TraitInfoDoc, len(items))
	for _, item := range items {
		trait, err := domain.ParseTrait(item.Trait)
		if err != nil {
			return nil, fmt.Errorf("trait info: %w", err)
		}
		byTrait[trait] = item
	}

	info := make([]domain.TraitInfo, 0, len(domain.AllTraits()))
	for _, trait := range domain.AllTraits() {
		item := byTrait[trait]
		ti := domain.TraitInfo{
			Key:   item.Key,
			Name:  trait.DisplayName(),
			Color: item.Color,
			Label: item.Label,
		}
		if ti.Key == "" {
			ti.Key = trait.Letter()
		}
		if ti.Color == "" {
			ti.Color = defaultTraitColors[trait]
		}
		if ti.Label == "" {
			ti.Label = ti.Name
		}
		info = append(info, ti)
	}
	return info, nil
}
