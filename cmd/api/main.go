package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"persona-profiler/internal/config"
	"persona-profiler/internal/db"
	apihttp "persona-profiler/internal/http"
	"persona-profiler/internal/llm"
	"persona-profiler/internal/repository"
	"persona-profiler/internal/service"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type stores struct {
	sessions  repository.SessionRepository
	messages  repository.MessageRepository
	answers   repository.AnswerRepository
	profiles  repository.ProfileRepository
	questions repository.QuestionRepository
	close     func()
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	st, err := openStores(ctx, cfg)
	if err != nil {
		logger.Fatal("store init", zap.String("driver", cfg.StoreDriver), zap.Error(err))
	}
	defer st.close()

	provider := llm.New(llm.Settings{
		Provider:       cfg.LLMProvider,
		BaseURL:        cfg.LLMBaseURL,
		APIKey:         cfg.LLMAPIKey,
		Model:          cfg.LLMModel,
		Temperature:    cfg.LLMTemperature,
		ConnectTimeout: cfg.LLMConnectTimeout,
		ReadTimeout:    cfg.LLMReadTimeout,
	}, logger)

	limiter := service.NewMemoryRateLimiter(cfg.RateLimit, cfg.RateLimitWindow)
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer redisClient.Close()
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed, using in-memory rate limiter", zap.Error(err))
		} else {
			limiter = service.NewRedisRateLimiter(redisClient, cfg.RateLimit, cfg.RateLimitWindow, logger)
		}
		cancel()
	}

	var verifier service.TokenVerifier
	if cfg.JWTSecret != "" {
		verifier = service.NewJWTService(cfg.JWTSecret, "")
	} else {
		logger.Warn("jwt secret not configured, all requests are anonymous")
	}

	questionSvc := service.NewQuestionService(st.questions, logger)
	if err := questionSvc.EnsureCatalog(ctx); err != nil {
		logger.Fatal("question catalog", zap.Error(err))
	}

	extractor := service.NewResponseExtractor(logger)
	profileSvc := service.NewProfileService(st.profiles, provider, extractor, logger)
	profileSvc.SetGenerationTimeout(cfg.LLMConnectTimeout + cfg.LLMReadTimeout)
	answerSvc := service.NewAnswerService(st.answers, st.profiles, logger)
	interviewSvc := service.NewInterviewService(st.sessions, st.messages, profileSvc, provider, cfg.ReportMinTurns, logger)

	router := apihttp.NewRouter(
		logger,
		verifier,
		limiter,
		apihttp.NewQuestionHandler(logger, questionSvc),
		apihttp.NewAnswerHandler(logger, answerSvc),
		apihttp.NewProfileHandler(logger, profileSvc),
		apihttp.NewInterviewHandler(logger, interviewSvc),
	)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warn("server shutdown", zap.Error(err))
		}
	}()

	logger.Info("starting server",
		zap.String("port", cfg.HTTPPort),
		zap.String("store", cfg.StoreDriver),
		zap.String("provider", llmKind(cfg)),
	)

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("server error", zap.Error(err))
	}
}

func openStores(ctx context.Context, cfg *config.Config) (*stores, error) {
	if cfg.StoreDriver == config.StoreDriverSQLite {
		conn, err := db.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return sqliteStores(conn), nil
	}

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	if err := db.MigratePostgres(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return pgStores(pool), nil
}

func sqliteStores(conn *sql.DB) *stores {
	return &stores{
		sessions:  repository.NewSQLiteSessionRepository(conn),
		messages:  repository.NewSQLiteMessageRepository(conn),
		answers:   repository.NewSQLiteAnswerRepository(conn),
		profiles:  repository.NewSQLiteProfileRepository(conn),
		questions: repository.NewSQLiteQuestionRepository(conn),
		close:     func() { conn.Close() },
	}
}

func pgStores(pool *pgxpool.Pool) *stores {
	return &stores{
		sessions:  repository.NewPgSessionRepository(pool),
		messages:  repository.NewPgMessageRepository(pool),
		answers:   repository.NewPgAnswerRepository(pool),
		profiles:  repository.NewPgProfileRepository(pool),
		questions: repository.NewPgQuestionRepository(pool),
		close:     pool.Close,
	}
}

func llmKind(cfg *config.Config) string {
	return llm.Settings{Provider: cfg.LLMProvider, APIKey: cfg.LLMAPIKey}.Kind()
}
