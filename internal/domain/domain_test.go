package domain

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestParseTraitAndOutcomeAcceptDisplayNames(t *testing.T) {
	for _, trait := range AllTraits() {
		got, err := ParseTrait(trait.DisplayName())
		if err != nil || got != trait {
			t.Fatalf("ParseTrait(%q) = %q, %v", trait.DisplayName(), got, err)
		}
	}
	for _, outcome := range AllOutcomes() {
		for _, in := range []string{string(outcome), outcome.DisplayName(), " " + strings.ToUpper(outcome.DisplayName()) + " "} {
			got, err := ParseOutcome(in)
			if err != nil || got != outcome {
				t.Fatalf("ParseOutcome(%q) = %q, %v", in, got, err)
			}
		}
	}
	if _, err := ParseOutcome("happiness"); err == nil {
		t.Fatal("expected unknown outcome error")
	}
}

func TestContributingTraitJSON(t *testing.T) {
	in := ContributingTrait{Trait: TraitConscientiousness, Correlation: 0.31, NumStudies: 45}
	data, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"trait":"Conscientiousness","traitKey":"conscientiousness","correlation":0.31,"numStudies":45}`
	if string(data) != want {
		t.Fatalf("unexpected json %s", data)
	}

	var out ContributingTrait
	if err := json.Unmarshal(data, &out); err != nil || out != in {
		t.Fatalf("round trip: %+v, %v", out, err)
	}

	var legacy ContributingTrait
	if err := json.Unmarshal([]byte(`{"trait":"extraversion","correlation":0.2,"numStudies":3}`), &legacy); err != nil {
		t.Fatalf("legacy row: %v", err)
	}
	if legacy.Trait != TraitExtraversion || legacy.NumStudies != 3 {
		t.Fatalf("unexpected legacy decode %+v", legacy)
	}

	if err := json.Unmarshal([]byte(`{"trait":"Humility"}`), &legacy); err == nil {
		t.Fatal("expected unknown trait error")
	}
}
