package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"bigfive-api/internal/domain"
	"bigfive-api/internal/llm"
	"bigfive-api/internal/repository"
	"bigfive-api/internal/scoring"
)

// LifestyleQuestion es una pregunta de seleccion para personalizar la guia.
type LifestyleQuestion struct {
	ID       string   `json:"id"`
	Question string   `json:"question"`
	Type     string   `json:"type"`
	Options  []string `json:"options"`
}

// LifestyleAnswers son las cinco respuestas de contexto del usuario.
type LifestyleAnswers struct {
	CurrentSituation string `json:"current_situation"`
	CareerGoal       string `json:"career_goal"`
	WorkEnvironment  string `json:"work_environment"`
	MainChallenge    string `json:"main_challenge"`
	LifePriority     string `json:"life_priority"`
}

type LabeledAnswer struct {
	Label  string
	Answer string
}

// Labeled devuelve las respuestas con su etiqueta legible, en orden fijo.
func (a LifestyleAnswers) Labeled() []LabeledAnswer {
	return []LabeledAnswer{
		{"Current Situation", a.CurrentSituation},
		{"Career Goal (3-5 years)", a.CareerGoal},
		{"Preferred Work Environment", a.WorkEnvironment},
		{"Main Challenge", a.MainChallenge},
		{"Top Life Priority", a.LifePriority},
	}
}

// Map es la forma persistida junto a la guia.
func (a LifestyleAnswers) Map() map[string]string {
	out := make(map[string]string, 5)
	for _, item := range a.Labeled() {
		out[item.Label] = item.Answer
	}
	return out
}

func (a LifestyleAnswers) validate() error {
	for _, item := range a.Labeled() {
		if strings.TrimSpace(item.Answer) == "" {
			return fmt.Errorf("%w: %s is required", ErrInvalidLifestyle, item.Label)
		}
	}
	return nil
}

type GuidanceRequest struct {
	AssessmentID string
	Lifestyle    LifestyleAnswers
}

type GuidanceOutput struct {
	Guidance     string `json:"guidance"`
	AssessmentID string `json:"assessment_id"`
	UserName     string `json:"user_name"`
}

type SavedGuidance struct {
	Guidance         string            `json:"guidance"`
	LifestyleAnswers map[string]string `json:"lifestyle_answers"`
	GeneratedAt      time.Time         `json:"generated_at"`
	UserName         string            `json:"user_name"`
}

// GuidanceService genera orientacion personalizada con un LLM a partir de
// una evaluacion guardada.
type GuidanceService struct {
	logger    *zap.Logger
	repo      repository.AssessmentRepository
	engine    *scoring.Engine
	llm       llm.LLMClient
	knowledge *KnowledgeBase
	now       func() time.Time
}

// NewGuidanceService acepta llmClient nil: Generate y Stream devuelven
// ErrGuidanceUnavailable.
func NewGuidanceService(logger *zap.Logger, repo repository.AssessmentRepository, catalogs scoring.CatalogProvider, llmClient llm.LLMClient, knowledge *KnowledgeBase) *GuidanceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GuidanceService{
		logger:    logger,
		repo:      repo,
		engine:    scoring.NewEngine(catalogs),
		llm:       llmClient,
		knowledge: knowledge,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *GuidanceService) LifestyleQuestions() []LifestyleQuestion {
	return lifestyleQuestions
}

// Generate produce la guia completa y la guarda en la evaluacion.
func (s *GuidanceService) Generate(ctx context.Context, req GuidanceRequest) (GuidanceOutput, error) {
	a, llmReq, err := s.prepare(ctx, req)
	if err != nil {
		guidanceTotal.WithLabelValues("sync", "rejected").Inc()
		return GuidanceOutput{}, err
	}

	raw, err := s.llm.Generate(ctx, llmReq)
	if err != nil {
		guidanceTotal.WithLabelValues("sync", "llm_error").Inc()
		return GuidanceOutput{}, fmt.Errorf("generate guidance: %w", err)
	}
	text := cleanGuidanceText(raw)
	s.save(ctx, a.ID, text, req.Lifestyle)
	guidanceTotal.WithLabelValues("sync", "ok").Inc()

	return GuidanceOutput{Guidance: text, AssessmentID: a.ID, UserName: displayName(a)}, nil
}

// Stream reenvia cada fragmento a onChunk y guarda el texto completo al
// terminar. Un texto parcial no se guarda.
func (s *GuidanceService) Stream(ctx context.Context, req GuidanceRequest, onChunk func(string) error) (GuidanceOutput, error) {
	a, llmReq, err := s.prepare(ctx, req)
	if err != nil {
		guidanceTotal.WithLabelValues("stream", "rejected").Inc()
		return GuidanceOutput{}, err
	}

	full, err := s.llm.Stream(ctx, llmReq, onChunk)
	if err != nil {
		guidanceTotal.WithLabelValues("stream", "llm_error").Inc()
		return GuidanceOutput{}, fmt.Errorf("stream guidance: %w", err)
	}
	text := cleanGuidanceText(full)
	s.save(ctx, a.ID, text, req.Lifestyle)
	guidanceTotal.WithLabelValues("stream", "ok").Inc()

	return GuidanceOutput{Guidance: text, AssessmentID: a.ID, UserName: displayName(a)}, nil
}

func (s *GuidanceService) Saved(ctx context.Context, assessmentID string) (SavedGuidance, error) {
	if s.repo == nil {
		return SavedGuidance{}, ErrPersistenceDisabled
	}
	a, err := s.repo.GetByID(ctx, assessmentID)
	if err != nil {
		return SavedGuidance{}, mapNotFound(err)
	}
	if a.Guidance == nil {
		return SavedGuidance{}, ErrGuidanceNotFound
	}
	return SavedGuidance{
		Guidance:         a.Guidance.Content,
		LifestyleAnswers: a.Guidance.LifestyleAnswers,
		GeneratedAt:      a.Guidance.GeneratedAt,
		UserName:         displayName(a),
	}, nil
}

func (s *GuidanceService) prepare(ctx context.Context, req GuidanceRequest) (domain.Assessment, llm.Request, error) {
	if s.llm == nil {
		return domain.Assessment{}, llm.Request{}, ErrGuidanceUnavailable
	}
	if s.repo == nil {
		return domain.Assessment{}, llm.Request{}, ErrPersistenceDisabled
	}
	if err := req.Lifestyle.validate(); err != nil {
		return domain.Assessment{}, llm.Request{}, err
	}
	a, err := s.repo.GetByID(ctx, req.AssessmentID)
	if err != nil {
		return domain.Assessment{}, llm.Request{}, mapNotFound(err)
	}

	traits, err := s.currentTraits(a)
	if err != nil {
		return domain.Assessment{}, llm.Request{}, err
	}
	prompt := buildGuidanceUserPrompt(promptInput{
		Name:        displayName(a),
		Age:         a.Participant.Age,
		Country:     a.Participant.Country,
		Traits:      traits,
		Predictions: a.Predictions,
		Lifestyle:   req.Lifestyle,
		Context:     s.knowledge.ComprehensiveContext(traits, req.Lifestyle),
	})
	return a, llm.Request{
		System:      guidanceSystemPrompt,
		User:        prompt,
		Temperature: guidanceTemperature,
		MaxTokens:   guidanceMaxTokens,
	}, nil
}

// currentTraits re-estandariza los puntajes brutos guardados con las normas
// vigentes del catalogo.
func (s *GuidanceService) currentTraits(a domain.Assessment) (map[domain.Trait]domain.TraitResult, error) {
	traits := make(map[domain.Trait]domain.TraitResult, len(a.Traits))
	for trait, stored := range a.Traits {
		tr, err := s.engine.StandardizeRaw(trait, stored.RawScore)
		if err != nil {
			return nil, err
		}
		traits[trait] = tr
	}
	return traits, nil
}

func (s *GuidanceService) save(ctx context.Context, id, text string, answers LifestyleAnswers) {
	g := domain.Guidance{
		Content:          text,
		LifestyleAnswers: answers.Map(),
		GeneratedAt:      s.now(),
	}
	if err := s.repo.UpdateGuidance(ctx, id, g); err != nil {
		s.logger.Warn("guidance save failed", zap.String("assessment_id", id), zap.Error(err))
	}
}

func displayName(a domain.Assessment) string {
	if name := strings.TrimSpace(a.Participant.Name); name != "" {
		return name
	}
	return "User"
}

var lifestyleQuestions = []LifestyleQuestion{
	{
		ID:       "current_situation",
		Question: "What best describes your current situation?",
		Type:     "select",
		Options: []string{
			"High school student",
			"University/college student",
			"Graduate student (Master's/PhD)",
			"Early career professional (0-5 years)",
			"Mid-career professional (5-15 years)",
			"Senior professional/executive (15+ years)",
			"Career transition/between jobs",
			"Entrepreneur/business owner",
			"Homemaker/caregiver",
			"Other",
		},
	},
	{
		ID:       "career_goal",
		Question: "What is your primary career goal for the next 3-5 years?",
		Type:     "select",
		Options: []string{
			"Get my first job / enter the workforce",
			"Advance in my current career path",
			"Make a career change to a different field",
			"Start my own business or freelance",
			"Achieve better work-life balance",
			"Develop new skills / stay relevant",
			"Transition to leadership/management",
			"Find more meaningful/purposeful work",
			"Increase my income significantly",
			"I'm not sure yet",
		},
	},
	{
		ID:       "work_environment",
		Question: "What type of work environment do you thrive in or desire?",
		Type:     "select",
		Options: []string{
			"Large corporation (structured, resources)",
			"Small company/startup (dynamic, flexible)",
			"Government/public sector (stability)",
			"Nonprofit/NGO (mission-driven)",
			"Academia/research (intellectual)",
			"Freelance/self-employed (autonomy)",
			"Remote work (location flexibility)",
			"Hybrid (mix of office and remote)",
			"On-site/in-person (collaboration)",
			"I'm open to different environments",
		},
	},
	{
		ID:       "main_challenge",
		Question: "What is your biggest personal or professional challenge right now?",
		Type:     "select",
		Options: []string{
			"Managing stress and anxiety",
			"Building confidence / overcoming self-doubt",
			"Improving relationships (work or personal)",
			"Finding motivation and staying disciplined",
			"Making important decisions",
			"Communicating effectively",
			"Managing time and priorities",
			"Dealing with conflict",
			"Building leadership skills",
			"Finding work-life balance",
			"Networking and building connections",
			"Other",
		},
	},
	{
		ID:       "life_priority",
		Question: "What matters most to you in life right now?",
		Type:     "select",
		Options: []string{
			"Financial security and wealth building",
			"Career achievement and professional success",
			"Family and close relationships",
			"Personal growth and self-improvement",
			"Health and well-being",
			"Freedom and independence",
			"Making a positive impact on society",
			"Creativity and self-expression",
			"Adventure and new experiences",
			"Stability and security",
			"Work-life balance",
		},
	},
}
