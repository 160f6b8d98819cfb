package service

import (
	"fmt"
	"strings"

	"bigfive-api/internal/domain"
)

const (
	guidanceTemperature = 0.45
	guidanceMaxTokens   = 4096
	promptContextLimit  = 1500
)

const guidanceSystemPrompt = `You are an expert personality psychologist and career counselor. Provide BRIEF, ACTIONABLE guidance.

CRITICAL RULES:
- Keep your response SHORT and SCANNABLE (max 550 words total)
- Use bullet points for all recommendations
- Be direct - no lengthy introductions or filler text
- Every bullet must be specific to their exact trait scores
- Focus on 2-3 KEY insights, not everything possible
- End with a clear "ACTION ITEMS" section with 3-5 specific things to work on

Do NOT use Markdown syntax (**, __, *, or ###).
Do NOT use asterisks or symbols for emphasis.

You speak directly to the person using "you". Be warm but concise.`

const guidanceResponseFormat = `## YOUR RESPONSE FORMAT (Keep it SHORT!):

Quick Profile Summary
2-3 sentences max about their unique personality blend.

Your Top Strengths
- Bullet 1 (specific to their scores)
- Bullet 2
- Bullet 3

Career Direction
- Best path: Job OR Business (explain briefly why based on their traits)
- 2-3 specific roles/industries that fit

Watch Out For
- 1-2 potential challenges based on their trait combination

ACTION ITEMS (Things to Work On)
1. [Specific action] - Brief explanation
2. [Specific action] - Brief explanation
3. [Specific action] - Brief explanation
4. [Specific action] - Brief explanation (optional)
5. [Specific action] - Brief explanation (optional)

Final Note
1-2 encouraging sentences.

REMEMBER: Be BRIEF. The reader won't read walls of text. Max 600 words total.`

// promptInput es todo lo que necesita el prompt de usuario.
type promptInput struct {
	Name        string
	Age         int
	Country     string
	Traits      map[domain.Trait]domain.TraitResult
	Predictions map[domain.Outcome]domain.PredictionResult
	Lifestyle   LifestyleAnswers
	Context     string
}

func lifeStage(age int) string {
	switch {
	case age < 20:
		return "Late teenager - exploring identity, education focused"
	case age < 25:
		return "Early adult - establishing career, building independence"
	case age < 30:
		return "Young professional - career growth, relationship building"
	case age < 40:
		return "Established adult - career advancement, possibly family"
	case age < 50:
		return "Mid-career - leadership roles, legacy building"
	case age < 60:
		return "Senior professional - mentoring, wisdom sharing"
	default:
		return "Experienced professional - reflection, transition planning"
	}
}

func buildGuidanceUserPrompt(in promptInput) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Generate BRIEF personalized guidance for %s.\n\n", in.Name)

	if in.Age > 0 || in.Country != "" {
		b.WriteString("## Demographics (IMPORTANT - tailor advice to their age and cultural context!)\n")
		if in.Age > 0 {
			fmt.Fprintf(&b, "- Age: %d years old\n", in.Age)
			fmt.Fprintf(&b, "- Life Stage: %s\n", lifeStage(in.Age))
		}
		if in.Country != "" {
			fmt.Fprintf(&b, "- Country: %s\n", in.Country)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Their Profile\n")
	for _, trait := range domain.AllTraits() {
		tr, ok := in.Traits[trait]
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "- %s: %.0fth percentile (%s) - Raw Score: %d/%d\n",
			trait.DisplayName(), tr.Percentile, tr.Interpretation, tr.RawScore, domain.MaxRawScore)
	}

	b.WriteString("\n## Predictions\n")
	for _, outcome := range domain.AllOutcomes() {
		p, ok := in.Predictions[outcome]
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "- %s: %.0f/100 (%s)\n", outcome.DisplayName(), p.Score, p.Interpretation)
	}

	b.WriteString("\n## Their Situation\n")
	for _, item := range in.Lifestyle.Labeled() {
		fmt.Fprintf(&b, "- %s: %s\n", item.Label, item.Answer)
	}

	b.WriteString("\n## Context\n")
	b.WriteString(truncateRunes(in.Context, promptContextLimit))
	b.WriteString("\n\n---\n\n")
	b.WriteString(guidanceResponseFormat)
	return b.String()
}
