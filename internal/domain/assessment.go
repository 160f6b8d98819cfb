package domain

import "time"

// Participant son los datos que el frontend envia junto a las respuestas.
type Participant struct {
	UserID     string `json:"userId,omitempty"`
	Name       string `json:"name"`
	Age        int    `json:"age,omitempty"`
	Country    string `json:"country,omitempty"`
	University string `json:"university,omitempty"`
}

// SessionTiming guarda los tiempos del cuestionario en ms y derivados.
type SessionTiming struct {
	StartTimeMs       *int64     `json:"startTimeMs,omitempty"`
	EndTimeMs         *int64     `json:"endTimeMs,omitempty"`
	TotalDurationMs   *int64     `json:"totalDurationMs,omitempty"`
	StartTimeSec      *float64   `json:"startTimeSec,omitempty"`
	EndTimeSec        *float64   `json:"endTimeSec,omitempty"`
	TotalDurationSec  *float64   `json:"totalDurationSec,omitempty"`
	TotalDurationMin  *float64   `json:"totalDurationMin,omitempty"`
	TotalDurationHour *float64   `json:"totalDurationHour,omitempty"`
	CompletedAt       *time.Time `json:"completedAt,omitempty"`
}

type QuestionTiming struct {
	StartMs     *int64   `json:"startMs,omitempty"`
	EndMs       *int64   `json:"endMs,omitempty"`
	DurationMs  *int64   `json:"durationMs,omitempty"`
	DurationSec *float64 `json:"durationSec,omitempty"`
}

// Guidance es el texto generado por el LLM para una evaluacion.
type Guidance struct {
	Content          string            `json:"content"`
	LifestyleAnswers map[string]string `json:"lifestyleAnswers"`
	GeneratedAt      time.Time         `json:"generatedAt"`
}

// Assessment es el documento persistido de una evaluacion completa.
type Assessment struct {
	ID                 string                       `json:"id"`
	Participant        Participant                  `json:"user"`
	Session            SessionTiming                `json:"session"`
	Responses          ResponseSet                  `json:"responses"`
	QuestionTimestamps map[int]QuestionTiming       `json:"questionTimestamps,omitempty"`
	Traits             map[Trait]TraitResult        `json:"scores"`
	Predictions        map[Outcome]PredictionResult `json:"predictions"`
	Guidance           *Guidance                    `json:"guidance,omitempty"`
	CreatedAt          time.Time                    `json:"createdAt"`
}
