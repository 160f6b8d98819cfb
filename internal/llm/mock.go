package llm

import (
	"context"
	"strings"
)

// MockClient permite tests sin llamar a un LLM real.
// Chunks se usa en Stream; si está vacío se emite Response de una vez.
type MockClient struct {
	Response string
	Chunks   []string
	Err      error

	LastRequest Request
	Calls       int
}

func (m *MockClient) Generate(ctx context.Context, req Request) (string, error) {
	m.LastRequest = req
	m.Calls++
	return m.Response, m.Err
}

func (m *MockClient) Stream(ctx context.Context, req Request, onChunk func(string) error) (string, error) {
	m.LastRequest = req
	m.Calls++
	if m.Err != nil {
		return "", m.Err
	}
	chunks := m.Chunks
	if len(chunks) == 0 {
		chunks = []string{m.Response}
	}
	var full strings.Builder
	for _, c := range chunks {
		full.WriteString(c)
		if onChunk != nil {
			if err := onChunk(c); err != nil {
				return full.String(), err
			}
		}
	}
	return full.String(), nil
}
