package service

import (
	"strings"
	"testing"
	"testing/fstest"

	"bigfive-api/internal/domain"
)

func TestLoadKnowledgeBaseEmbedded(t *testing.T) {
	kb, err := LoadKnowledgeBase()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if kb.Topics() != 7 {
		t.Fatalf("expected 7 topics, got %d", kb.Topics())
	}
	for _, trait := range domain.AllTraits() {
		if kb.doc(string(trait)) == "" {
			t.Fatalf("missing document for %s", trait)
		}
	}
}

func TestLoadKnowledgeSkipsNonMarkdown(t *testing.T) {
	fsys := fstest.MapFS{
		"kb/openness.md": {Data: []byte("# Openness")},
		"kb/notes.txt":   {Data: []byte("ignored")},
	}
	kb, err := loadKnowledge(fsys, "kb")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if kb.Topics() != 1 || kb.doc("openness") != "# Openness" {
		t.Fatalf("unexpected docs: %+v", kb.docs)
	}
	if _, err := loadKnowledge(fsys, "missing"); err == nil {
		t.Fatalf("expected error for missing dir")
	}
}

func TestTraitLevelCutoffs(t *testing.T) {
	cases := map[float64]string{
		70:   levelHigh,
		69.9: levelAverage,
		30.1: levelAverage,
		30:   levelLow,
		2.3:  levelLow,
	}
	for p, want := range cases {
		if got := traitLevel(p); got != want {
			t.Fatalf("traitLevel(%v) = %s, want %s", p, got, want)
		}
	}
}

func TestExtractLevelSection(t *testing.T) {
	doc := "# Trait\nintro\n\n## High Trait\n- high one\n- high two\n\n## Average Trait\n- avg\n\n## Low Trait\n- low"

	high := extractLevelSection(doc, levelHigh)
	if !strings.HasPrefix(high, "## High Trait") || !strings.Contains(high, "- high two") {
		t.Fatalf("unexpected high section %q", high)
	}
	if strings.Contains(high, "avg") {
		t.Fatalf("high section leaked into next heading: %q", high)
	}

	low := extractLevelSection(doc, levelLow)
	if !strings.Contains(low, "- low") || strings.Contains(low, "high") {
		t.Fatalf("unexpected low section %q", low)
	}

	if got := extractLevelSection("no headings here", levelHigh); got != "no headings here" {
		t.Fatalf("expected fallback to document start, got %q", got)
	}
}

func TestComprehensiveContextFocus(t *testing.T) {
	kb := &KnowledgeBase{docs: map[string]string{
		"openness": "## High Openness\n- curious",
	}}
	traits := map[domain.Trait]domain.TraitResult{
		domain.TraitOpenness: {Percentile: 92.7},
	}

	ctx := kb.ComprehensiveContext(traits, LifestyleAnswers{
		CareerGoal:    "Start my own business or freelance",
		MainChallenge: "Building confidence / overcoming self-doubt",
	})
	for _, fragment := range []string{"[Openness - High]", "[Entrepreneurship Focus]", "[Building Confidence]"} {
		if !strings.Contains(ctx, fragment) {
			t.Fatalf("context missing %q:\n%s", fragment, ctx)
		}
	}
	if strings.Contains(ctx, "[Career Guidance]") {
		t.Fatalf("career section must be skipped when the document is absent")
	}

	var nilKB *KnowledgeBase
	if got := nilKB.TraitContext(traits); got != "" {
		t.Fatalf("expected empty context for nil knowledge base, got %q", got)
	}
}

func TestTruncateRunes(t *testing.T) {
	if got := truncateRunes("añoñoño", 3); got != "año" {
		t.Fatalf("expected rune-safe truncation, got %q", got)
	}
	if got := truncateRunes("abc", 0); got != "" {
		t.Fatalf("expected empty string, got %q", got)
	}
}

func TestCleanGuidanceText(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "   ", ""},
		{"bom and fence", "\uFEFF```\nHello\n```", "Hello"},
		{"headings", "### Career Direction\ntext", "Career Direction\ntext"},
		{"bold and italic", "***Very*** __strong__ **bold**", "Very strong bold"},
		{"star bullets", "* one\n  * two", "- one\n  - two"},
		{"blank runs", "a\n\n\n\nb", "a\n\nb"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := cleanGuidanceText(tc.in); got != tc.want {
				t.Fatalf("cleanGuidanceText(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}
