package catalog

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"bigfive-api/internal/domain"
)

// ErrNotLoaded se devuelve al leer el catalogo antes de una carga exitosa.
var ErrNotLoaded = errors.New("catalog not loaded")

// LoadError indica que la fuente del catalogo falta o es invalida.
type LoadError struct {
	Source string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("catalog load %s: %v", e.Source, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Loader es el handle de proceso del catalogo: se carga una vez al iniciar
// y luego se lee sin locks.
type Loader struct {
	logger  *zap.Logger
	mu      sync.Mutex
	current atomic.Pointer[Catalog]
}

func NewLoader(logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{logger: logger}
}

// LoadOnce carga el catalogo desde src. Si ya estaba cargado devuelve el
// existente sin volver a leer la fuente.
func (l *Loader) LoadOnce(src Source) (*Catalog, error) {
	if c := l.current.Load(); c != nil {
		return c, nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if c := l.current.Load(); c != nil {
		return c, nil
	}
	if src == nil {
		return nil, &LoadError{Source: "<nil>", Err: errors.New("nil source")}
	}

	c, warnings, err := Load(src)
	if err != nil {
		return nil, err
	}
	for _, w := range warnings {
		l.logger.Warn("catalog warning", zap.String("source", src.Name()), zap.String("detail", w))
	}
	l.current.Store(c)
	l.logger.Info("catalog loaded",
		zap.String("source", src.Name()),
		zap.String("version", c.Version()),
		zap.Int("questions", len(c.questions)),
		zap.Int("outcomes", len(c.outcomes)),
	)
	return c, nil
}

// Load lee y valida un catalogo sin tocar ningun estado compartido.
func Load(src Source) (*Catalog, []string, error) {
	data, err := src.Read()
	if err != nil {
		return nil, nil, &LoadError{Source: src.Name(), Err: err}
	}
	doc, err := ParseDocument(data)
	if err != nil {
		return nil, nil, &LoadError{Source: src.Name(), Err: err}
	}
	c, warnings, err := build(doc)
	if err != nil {
		return nil, nil, &LoadError{Source: src.Name(), Err: err}
	}
	return c, warnings, nil
}

func (l *Loader) IsLoaded() bool {
	return l != nil && l.current.Load() != nil
}

// Catalog devuelve el catalogo cargado o ErrNotLoaded.
func (l *Loader) Catalog() (*Catalog, error) {
	if l == nil {
		return nil, ErrNotLoaded
	}
	c := l.current.Load()
	if c == nil {
		return nil, ErrNotLoaded
	}
	return c, nil
}

func (l *Loader) QuestionsByTrait() (map[domain.Trait]domain.TraitKeys, error) {
	c, err := l.Catalog()
	if err != nil {
		return nil, err
	}
	return c.QuestionsByTrait(), nil
}

func (l *Loader) Norms() (map[domain.Trait]domain.TraitNorm, error) {
	c, err := l.Catalog()
	if err != nil {
		return nil, err
	}
	return c.Norms(), nil
}

func (l *Loader) Categories() ([]domain.ScoreCategory, error) {
	c, err := l.Catalog()
	if err != nil {
		return nil, err
	}
	return c.Categories(), nil
}

func (l *Loader) Correlations() (map[domain.Outcome][]domain.CorrelationFinding, error) {
	c, err := l.Catalog()
	if err != nil {
		return nil, err
	}
	return c.Correlations(), nil
}
