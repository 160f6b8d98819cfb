package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"
)

//go:embed bigfive.yaml
var defaultCatalogYAML []byte

// Source entrega el documento crudo del catalogo.
type Source interface {
	Name() string
	Read() ([]byte, error)
}

type embeddedSource struct{}

// EmbeddedSource devuelve el catalogo IPIP-50 compilado en el binario.
func EmbeddedSource() Source {
	return embeddedSource{}
}

func (embeddedSource) Name() string { return "embedded:bigfive.yaml" }

func (embeddedSource) Read() ([]byte, error) {
	return append([]byte(nil), defaultCatalogYAML...), nil
}

// FileSource prueba las rutas candidatas en orden y usa la primera que exista.
type FileSource struct {
	Candidates []string
	resolved   string
}

func NewFileSource(candidates ...string) *FileSource {
	var cleaned []string
	for _, c := range candidates {
		if c = strings.TrimSpace(c); c != "" {
			cleaned = append(cleaned, c)
		}
	}
	return &FileSource{Candidates: cleaned}
}

func (s *FileSource) Name() string {
	if s.resolved != "" {
		return s.resolved
	}
	return "file:" + strings.Join(s.Candidates, ",")
}

func (s *FileSource) Read() ([]byte, error) {
	if len(s.Candidates) == 0 {
		return nil, errors.New("no catalog file candidates")
	}
	for _, path := range s.Candidates {
		data, err := os.ReadFile(path)
		if err == nil {
			s.resolved = path
			return data, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
	}
	return nil, fmt.Errorf("could not find catalog file, tried: %v", s.Candidates)
}

// BytesSource envuelve un documento en memoria (tests, herramientas).
type BytesSource struct {
	Label string
	Data  []byte
}

func (s BytesSource) Name() string {
	if s.Label == "" {
		return "bytes"
	}
	return s.Label
}

func (s BytesSource) Read() ([]byte, error) {
	return s.Data, nil
}

// DefaultDocument decodifica el catalogo embebido.
func DefaultDocument() (Document, error) {
	return ParseDocument(defaultCatalogYAML)
}
