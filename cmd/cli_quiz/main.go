package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"bigfive-api/internal/catalog"
	"bigfive-api/internal/config"
	"bigfive-api/internal/db"
	"bigfive-api/internal/domain"
	"bigfive-api/internal/repository"
	"bigfive-api/internal/scoring"
	"bigfive-api/internal/service"
)

func main() {
	ctx := context.Background()
	reader := bufio.NewReader(os.Stdin)

	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger := zap.NewExample()
	defer logger.Sync()

	var src catalog.Source = catalog.EmbeddedSource()
	if cfg.CatalogPath != "" {
		src = catalog.NewFileSource(cfg.CatalogPath)
	}
	catalogs := catalog.NewLoader(logger)
	c, err := catalogs.LoadOnce(src)
	if err != nil {
		log.Fatalf("cargar catalogo: %v", err)
	}

	var repo repository.AssessmentRepository
	if cfg.PersistenceEnabled() {
		pool, err := db.Open(ctx, cfg, logger)
		if err != nil {
			log.Fatal(err)
		}
		defer pool.Close()
		repo = repository.NewPgAssessmentRepository(pool)
	}
	assessments := service.NewAssessmentService(logger, catalogs, repo)

	fmt.Println("===== Big Five (IPIP-50) =====")
	fmt.Print("Tu nombre (opcional): ")
	name, _ := reader.ReadString('\n')
	participant := domain.Participant{Name: strings.TrimSpace(name)}

	started := time.Now()
	responses, err := askQuestions(reader, os.Stdout, c)
	if err != nil {
		log.Fatalf("cuestionario: %v", err)
	}
	total := time.Since(started).Milliseconds()
	startMs, endMs := started.UnixMilli(), started.UnixMilli()+total

	out, err := assessments.Submit(ctx, service.SubmitInput{
		Participant: participant,
		Responses:   responses,
		Timestamps: &service.SessionInput{
			SurveyStartTime: &startMs,
			SurveyEndTime:   &endMs,
			TotalDuration:   &total,
		},
	})
	if err != nil {
		log.Fatalf("puntuar: %v", err)
	}

	printResult(os.Stdout, out.Result)
	if out.SavedToDatabase {
		fmt.Printf("\nEvaluacion guardada con ID %s\n", out.AssessmentID)
	}
}

// askQuestions recorre el catalogo y repite cada pregunta hasta obtener un
// valor valido de la escala.
func askQuestions(reader *bufio.Reader, w io.Writer, c *catalog.Catalog) (domain.ResponseSet, error) {
	fmt.Fprintln(w, "\nResponde cada afirmacion con:")
	for _, opt := range c.LikertOptions() {
		fmt.Fprintf(w, "  %d = %s\n", opt.Value, opt.Label)
	}

	questions := c.Questions()
	responses := make(domain.ResponseSet, len(questions))
	for i, q := range questions {
		for {
			fmt.Fprintf(w, "\n[%d/%d] %s\n> ", i+1, len(questions), q.Text)
			line, err := reader.ReadString('\n')
			value, convErr := strconv.Atoi(strings.TrimSpace(line))
			if convErr == nil && scoring.ValidResponse(value) {
				responses[q.ID] = value
				break
			}
			if err != nil {
				return nil, fmt.Errorf("pregunta %d: %w", q.ID, err)
			}
			fmt.Fprintln(w, "Valor invalido, usa un numero del 1 al 5.")
		}
	}
	return responses, nil
}

func printResult(w io.Writer, result domain.ScoreResult) {
	fmt.Fprintln(w, "\n---- Rasgos ----")
	for _, trait := range domain.AllTraits() {
		tr, ok := result.Traits[trait]
		if !ok {
			continue
		}
		fmt.Fprintf(w, "%-18s %2d/%d  percentil %5.1f  T %4.1f  %s\n",
			tr.Name, tr.RawScore, tr.MaxScore, tr.Percentile, tr.TScore, tr.Interpretation)
		fmt.Fprintf(w, "    %s\n", scoring.InterpretationText(trait, tr.Percentile))
	}

	if len(result.Predictions) > 0 {
		fmt.Fprintln(w, "\n---- Predicciones ----")
		outcomes := make([]domain.Outcome, 0, len(result.Predictions))
		for o := range result.Predictions {
			outcomes = append(outcomes, o)
		}
		sort.Slice(outcomes, func(i, j int) bool { return outcomes[i] < outcomes[j] })
		for _, o := range outcomes {
			p := result.Predictions[o]
			fmt.Fprintf(w, "%-28s %5.1f  %s\n", o.DisplayName(), p.Score, p.Interpretation)
		}
	}

	if careers := scoring.CareerRecommendations(result.Traits); len(careers) > 0 {
		fmt.Fprintln(w, "\n---- Carreras sugeridas ----")
		for _, career := range careers {
			fmt.Fprintf(w, "- %s\n", career)
		}
	}
}
