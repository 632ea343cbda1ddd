package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"persona-profiler/internal/config"
	"persona-profiler/internal/db"
	"persona-profiler/internal/domain"
	"persona-profiler/internal/llm"
	"persona-profiler/internal/repository"
	"persona-profiler/internal/service"
)

func main() {
	resume := flag.String("session", "", "id de una sesión existente para continuarla")
	flag.Parse()

	ctx := context.Background()
	reader := bufio.NewReader(os.Stdin)

	_ = godotenv.Load()

	cfg, err := config.LoadCLIConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger := zap.NewExample()
	defer logger.Sync()

	conn, err := db.OpenSQLite(ctx, cfg.SQLitePath)
	if err != nil {
		log.Fatal(err)
	}
	defer conn.Close()

	provider := llm.New(llm.Settings{
		Provider:       cfg.LLMProvider,
		BaseURL:        cfg.LLMBaseURL,
		APIKey:         cfg.LLMAPIKey,
		Model:          cfg.LLMModel,
		Temperature:    cfg.LLMTemperature,
		ConnectTimeout: cfg.LLMConnectTimeout,
		ReadTimeout:    cfg.LLMReadTimeout,
	}, logger)

	profileSvc := service.NewProfileService(repository.NewSQLiteProfileRepository(conn), provider, service.NewResponseExtractor(logger), logger)
	interviewSvc := service.NewInterviewService(
		repository.NewSQLiteSessionRepository(conn),
		repository.NewSQLiteMessageRepository(conn),
		profileSvc,
		provider,
		cfg.ReportMinTurns,
		logger,
	)

	sessionID, err := openSession(ctx, interviewSvc, *resume)
	if err != nil {
		log.Fatalf("abrir sesion: %v", err)
	}

	fmt.Println("===== Personality Interview =====")
	fmt.Printf("Sesion: %s\n", sessionID)
	fmt.Println("Comandos: /report genera el informe, /state muestra el progreso, /quit sale.")

	state, err := interviewSvc.State(ctx, sessionID)
	if err != nil {
		log.Fatalf("leer estado: %v", err)
	}
	printTranscript(state.Transcript)
	announced := state.CanReport

	for {
		fmt.Print("Tu > ")
		text, err := reader.ReadString('\n')
		if err != nil {
			fmt.Println()
			return
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}

		switch strings.ToLower(text) {
		case "/quit", "salir":
			return
		case "/state":
			st, err := interviewSvc.State(ctx, sessionID)
			if err != nil {
				fmt.Printf("Error: %v\n", err)
				continue
			}
			fmt.Printf("Fase: %s | Turno: %d | Informe disponible: %v\n", st.Phase, st.Turn, st.CanReport)
			continue
		case "/report":
			runReport(ctx, interviewSvc, sessionID)
			continue
		}

		msg, st, err := interviewSvc.AskNextQuestion(ctx, sessionID, text)
		if err != nil {
			if errors.Is(err, llm.ErrProviderUnavailable) {
				fmt.Printf("[sistema] %s\n", msg.Content)
				continue
			}
			fmt.Printf("Error: %v\n", err)
			continue
		}
		fmt.Printf("Entrevistador > %s\n", msg.Content)
		if st.CanReport && !announced {
			fmt.Println("(Ya puedes pedir el informe con /report, o seguir respondiendo.)")
			announced = true
		}
	}
}

func openSession(ctx context.Context, svc *service.InterviewService, resume string) (string, error) {
	if resume = strings.TrimSpace(resume); resume != "" {
		if _, err := svc.State(ctx, resume); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return "", fmt.Errorf("sesion %s no existe", resume)
			}
			return "", err
		}
		return resume, nil
	}
	session, _, err := svc.StartInterview(ctx, "")
	if err != nil {
		return "", err
	}
	return session.ID, nil
}

func printTranscript(transcript []domain.Message) {
	for _, m := range transcript {
		switch m.Role {
		case domain.RoleAssistant:
			fmt.Printf("Entrevistador > %s\n", m.Content)
		case domain.RoleUser:
			fmt.Printf("Tu > %s\n", m.Content)
		default:
			fmt.Printf("[sistema] %s\n", m.Content)
		}
	}
}

func runReport(ctx context.Context, svc *service.InterviewService, sessionID string) {
	fmt.Println("Generando informe, puede tardar unos minutos...")
	profile, err := svc.GenerateReport(ctx, sessionID)
	switch {
	case errors.Is(err, service.ErrReportNotReady):
		fmt.Printf("Todavia no: %v\n", err)
		return
	case err != nil:
		fmt.Printf("Error generando informe: %v\n", err)
		return
	}

	fmt.Println()
	fmt.Println(profile.Analysis)
	fmt.Println("---- Resumen ----")
	data := profile.StructuredData
	fmt.Printf("Rasgos: %s\n", strings.Join(data.PersonalityTraits, ", "))
	fmt.Printf("Motivaciones: %s\n", strings.Join(data.Motivations, ", "))
	fmt.Printf("Valores: %s\n", strings.Join(data.Values, ", "))
	fmt.Printf("Tendencias: %s\n", strings.Join(data.BehavioralTendencies, ", "))
	fmt.Printf("Resumen: %s\n", data.Summary)
}
