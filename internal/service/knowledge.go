package service

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"bigfive-api/internal/domain"
)

//go:embed knowledge/*.md
var knowledgeFS embed.FS

const (
	levelHigh    = "High"
	levelAverage = "Average"
	levelLow     = "Low"

	careerTopic = "career_guidance"
	growthTopic = "personal_growth"

	sectionFallbackLimit = 1500
	sectionLimit         = 2000
	careerLimit          = 3000
	growthLimit          = 2000
	contextSeparator     = "\n\n---\n\n"
)

// KnowledgeBase guarda los documentos markdown por tema (nombre de archivo
// sin extension).
type KnowledgeBase struct {
	docs map[string]string
}

// LoadKnowledgeBase lee los documentos embebidos.
func LoadKnowledgeBase() (*KnowledgeBase, error) {
	return loadKnowledge(knowledgeFS, "knowledge")
}

func loadKnowledge(fsys fs.FS, dir string) (*KnowledgeBase, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("read knowledge dir: %w", err)
	}
	kb := &KnowledgeBase{docs: make(map[string]string, len(entries))}
	for _, e := range entries {
		if e.IsDir() || path.Ext(e.Name()) != ".md" {
			continue
		}
		data, err := fs.ReadFile(fsys, path.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", e.Name(), err)
		}
		kb.docs[strings.TrimSuffix(e.Name(), ".md")] = string(data)
	}
	return kb, nil
}

func (kb *KnowledgeBase) Topics() int {
	if kb == nil {
		return 0
	}
	return len(kb.docs)
}

func (kb *KnowledgeBase) doc(topic string) string {
	if kb == nil {
		return ""
	}
	return kb.docs[topic]
}

// traitLevel usa cortes 70/30, distintos de las bandas de interpretacion.
func traitLevel(percentile float64) string {
	switch {
	case percentile >= 70:
		return levelHigh
	case percentile <= 30:
		return levelLow
	default:
		return levelAverage
	}
}

// TraitContext arma el contexto de los rasgos mas las guias de carrera y
// crecimiento.
func (kb *KnowledgeBase) TraitContext(traits map[domain.Trait]domain.TraitResult) string {
	var parts []string
	for _, trait := range domain.AllTraits() {
		tr, ok := traits[trait]
		if !ok {
			continue
		}
		content := kb.doc(string(trait))
		if content == "" {
			continue
		}
		level := traitLevel(tr.Percentile)
		if section := extractLevelSection(content, level); section != "" {
			parts = append(parts, fmt.Sprintf("[%s - %s]\n%s", trait.DisplayName(), level, section))
		}
	}
	if career := kb.doc(careerTopic); career != "" {
		parts = append(parts, "[Career Guidance]\n"+truncateRunes(career, careerLimit))
	}
	if growth := kb.doc(growthTopic); growth != "" {
		parts = append(parts, "[Growth Strategies]\n"+truncateRunes(growth, growthLimit))
	}
	return strings.Join(parts, contextSeparator)
}

// ComprehensiveContext agrega al contexto de rasgos los focos derivados de
// la meta de carrera y del desafio principal.
func (kb *KnowledgeBase) ComprehensiveContext(traits map[domain.Trait]domain.TraitResult, answers LifestyleAnswers) string {
	parts := []string{kb.TraitContext(traits)}

	goal := strings.ToLower(answers.CareerGoal)
	switch {
	case strings.Contains(goal, "business") || strings.Contains(goal, "entrepreneur"):
		parts = append(parts, "[Entrepreneurship Focus]\nConsider traits that support entrepreneurship: High Openness for innovation, moderate Conscientiousness for planning, and emotional stability for handling uncertainty.")
	case strings.Contains(goal, "leadership") || strings.Contains(goal, "management"):
		parts = append(parts, "[Leadership Focus]\nLeadership effectiveness correlates with Extraversion, emotional stability (low Neuroticism), and Openness to experience.")
	}

	challenge := strings.ToLower(answers.MainChallenge)
	switch {
	case strings.Contains(challenge, "stress") || strings.Contains(challenge, "anxiety"):
		parts = append(parts, "[Stress Management]\nHigh Neuroticism individuals benefit from cognitive behavioral techniques, mindfulness, and structured routines for managing stress.")
	case strings.Contains(challenge, "confidence") || strings.Contains(challenge, "self-doubt"):
		parts = append(parts, "[Building Confidence]\nFocus on small wins, strength-based development, and gradual exposure to challenging situations.")
	}

	return strings.Join(parts, contextSeparator)
}

// extractLevelSection devuelve la seccion "## <level>" de un documento,
// hasta el siguiente encabezado de nivel 2. Sin seccion, devuelve el inicio.
func extractLevelSection(content, level string) string {
	var out []string
	capturing := false
	for _, line := range strings.Split(content, "\n") {
		if strings.Contains(line, "## "+level) || strings.Contains(line, "### "+level) {
			capturing = true
			out = append(out, line)
			continue
		}
		if capturing {
			if strings.HasPrefix(line, "## ") && !strings.Contains(line, level) {
				break
			}
			out = append(out, line)
		}
	}
	if len(out) == 0 {
		return truncateRunes(content, sectionFallbackLimit)
	}
	return truncateRunes(strings.Join(out, "\n"), sectionLimit)
}

func truncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
