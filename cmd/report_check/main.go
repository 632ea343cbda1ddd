package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"persona-profiler/internal/config"
	"persona-profiler/internal/domain"
	"persona-profiler/internal/llm"
	"persona-profiler/internal/service"
)

const (
	colorGreen = "\033[32m"
	colorRed   = "\033[31m"
	colorCyan  = "\033[36m"
	colorReset = "\033[0m"
)

// Scenario es una entrevista enlatada con el perfil que debería salir de ella.
type Scenario struct {
	Name     string
	Answers  []domain.QuestionAnswer
	Expected string
}

func main() {
	useJudge := flag.Bool("judge", false, "puntuar cada informe con un segundo llamado al modelo")
	flag.Parse()

	ctx := context.Background()
	_ = godotenv.Load()

	cfg, err := config.LoadCLIConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger := zap.NewExample()
	defer logger.Sync()

	provider := llm.New(llm.Settings{
		Provider:       cfg.LLMProvider,
		BaseURL:        cfg.LLMBaseURL,
		APIKey:         cfg.LLMAPIKey,
		Model:          cfg.LLMModel,
		Temperature:    cfg.LLMTemperature,
		ConnectTimeout: cfg.LLMConnectTimeout,
		ReadTimeout:    cfg.LLMReadTimeout,
	}, logger)

	profileSvc := service.NewProfileService(newMemoryProfileRepo(), provider, service.NewResponseExtractor(logger), logger)

	var passed, judged int
	var totalGround, totalSpec, totalCons int
	for _, sc := range scenarios {
		fmt.Printf("%s[Escenario]%s %s\n", colorCyan, colorReset, sc.Name)

		profile, err := profileSvc.Generate(ctx, service.GenerateInput{
			SessionID: "check-" + uuid.NewString(),
			Answers:   sc.Answers,
		})
		if err != nil {
			log.Fatalf("generate profile failed: %v", err)
		}

		res := checkReport(profile.Analysis)
		printCheck(res)
		if res.Passed() {
			passed++
		}
		fmt.Printf("Resumen: %q\n", profile.StructuredData.Summary)

		if *useJudge {
			jr, err := evaluateReport(ctx, provider, sc, profile.Analysis)
			if err != nil {
				log.Fatalf("judge failed: %v", err)
			}
			fmt.Printf("%sJuez%s %q\n", colorCyan, colorReset, jr.Reasoning)
			fmt.Printf("Scores: Fundamento %d/5 | Especificidad %d/5 | Consistencia %d/5\n",
				jr.GroundednessScore, jr.SpecificityScore, jr.ConsistencyScore)
			totalGround += jr.GroundednessScore
			totalSpec += jr.SpecificityScore
			totalCons += jr.ConsistencyScore
			judged++
		}
		fmt.Println()
	}

	n := len(scenarios)
	fmt.Println("==== Resultado ====")
	fmt.Printf("Informes válidos: %d/%d | Extracciones degradadas: %d\n", passed, n, profileSvc.DegradedExtractions())
	if judged > 0 {
		fmt.Printf("Fundamento: %.2f/5 | Especificidad: %.2f/5 | Consistencia: %.2f/5\n",
			float64(totalGround)/float64(judged), float64(totalSpec)/float64(judged), float64(totalCons)/float64(judged))
	}
}

func printCheck(res reportCheck) {
	mark := func(ok bool) string {
		if ok {
			return colorGreen + "ok" + colorReset
		}
		return colorRed + "FALLA" + colorReset
	}
	fmt.Printf("Encabezados: %s", mark(len(res.MissingHeadings) == 0 && !res.OutOfOrder))
	if len(res.MissingHeadings) > 0 {
		fmt.Printf(" (faltan: %s)", strings.Join(res.MissingHeadings, ", "))
	}
	if res.OutOfOrder {
		fmt.Print(" (fuera de orden)")
	}
	fmt.Println()
	fmt.Printf("Bloque JSON: %s | Cardinalidad 5/3/3/3: %s | Resumen: %s\n",
		mark(res.Structured), mark(res.CountsOK), mark(res.SummaryOK))
}
