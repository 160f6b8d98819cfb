package scoring

import "bigfive-api/internal/domain"

var interpretationTexts = map[domain.Trait][3]string{
	domain.TraitExtraversion: {
		"You tend to be reserved and prefer solitary activities. You may find large social gatherings draining.",
		"You have a balanced approach to social interaction, enjoying both social activities and time alone.",
		"You are outgoing and energetic. You thrive in social situations and enjoy being around others.",
	},
	domain.TraitAgreeableness: {
		"You tend to be more competitive and skeptical. You prioritize your own interests and may challenge others' ideas.",
		"You balance cooperation with healthy skepticism. You can work well with others while maintaining boundaries.",
		"You are cooperative and trusting. You value harmony and tend to put others' needs before your own.",
	},
	domain.TraitConscientiousness: {
		"You prefer flexibility and spontaneity over structure. You may find strict schedules constraining.",
		"You balance organization with flexibility. You can follow plans but adapt when needed.",
		"You are organized and disciplined. You set clear goals and work diligently to achieve them.",
	},
	domain.TraitNeuroticism: {
		"You tend to be emotionally stable and resilient. You handle stress well and remain calm under pressure.",
		"You experience normal emotional fluctuations. You can manage stress but may feel overwhelmed occasionally.",
		"You tend to experience emotions intensely. You may be more sensitive to stress and negative experiences.",
	},
	domain.TraitOpenness: {
		"You prefer familiar routines and practical approaches. You value tradition and conventional methods.",
		"You appreciate both new ideas and proven methods. You can adapt while valuing stability.",
		"You are curious and creative. You enjoy exploring new ideas, art, and unconventional perspectives.",
	},
}

// InterpretationText devuelve el texto descriptivo del rasgo: bajo (<35),
// medio (<65) o alto. Para un rasgo desconocido devuelve "".
func InterpretationText(trait domain.Trait, percentile float64) string {
	texts, ok := interpretationTexts[trait]
	if !ok {
		return ""
	}
	switch {
	case percentile < 35:
		return texts[0]
	case percentile < 65:
		return texts[1]
	default:
		return texts[2]
	}
}

// CareerRecommendations aplica reglas fijas sobre los percentiles. Un rasgo
// ausente cuenta como percentil 50.
func CareerRecommendations(traits map[domain.Trait]domain.TraitResult) []string {
	p := func(t domain.Trait) float64 {
		if tr, ok := traits[t]; ok {
			return tr.Percentile
		}
		return 50
	}
	e, a, c, n, o := p(domain.TraitExtraversion), p(domain.TraitAgreeableness), p(domain.TraitConscientiousness),
		p(domain.TraitNeuroticism), p(domain.TraitOpenness)

	var recs []string
	if e >= 60 && c >= 60 && n <= 50 {
		recs = append(recs, "Strong leadership potential - consider management or executive roles")
	}
	if o >= 65 {
		recs = append(recs, "High openness suggests aptitude for creative fields, research, or innovation")
	}
	if a >= 65 && e >= 50 {
		recs = append(recs, "Strong people skills - consider roles in customer service, HR, or counseling")
	}
	if c >= 65 {
		recs = append(recs, "High conscientiousness suits roles requiring attention to detail - finance, engineering, project management")
	}
	if e <= 40 && c >= 50 {
		recs = append(recs, "May excel in independent roles - research, writing, technical work")
	}
	if n <= 35 {
		recs = append(recs, "Emotional stability is an asset for high-pressure roles")
	} else if n >= 65 {
		recs = append(recs, "Consider roles with supportive environments and manageable stress levels")
	}
	return recs
}
