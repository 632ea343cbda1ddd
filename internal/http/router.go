package http

import (
	"net/http"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"persona-profiler/internal/service"
)

var registerTagNameOnce sync.Once

// NewRouter configura el router de Gin con middlewares y rutas base.
func NewRouter(
	logger *zap.Logger,
	verifier service.TokenVerifier,
	limiter service.RateLimiter,
	questionH *QuestionHandler,
	answerH *AnswerHandler,
	profileH *ProfileHandler,
	interviewH *InterviewHandler,
) *gin.Engine {
	useJSONFieldNames()

	r := gin.New()

	// Middlewares basicos: logging, recovery, CORS, headers de seguridad y JSON content-type.
	// CORS va antes del grupo /api para que los preflight no consuman cupo del limitador.
	r.Use(zapLoggerMiddleware(logger), gin.Recovery(), corsMiddleware(), securityHeadersMiddleware(), jsonContentTypeMiddleware())

	r.GET("/health", profileH.Health)

	api := r.Group("/api")
	api.Use(OptionalAuthMiddleware(verifier, logger), RateLimitMiddleware(limiter, logger))

	questions := api.Group("/questions")
	questions.GET("/list", questionH.List)
	questions.GET("/:id", questionH.Get)

	answers := api.Group("/answer")
	answers.POST("/save", answerH.Save)
	answers.POST("/save-batch", answerH.SaveBatch)
	answers.GET("/session", answerH.ListBySession)

	profiles := api.Group("/profile")
	profiles.POST("/generate", profileH.Generate)
	profiles.GET("/list", profileH.List)
	profiles.GET("/recent", profileH.Recent)
	profiles.GET("/:id", profileH.Get)

	interview := api.Group("/interview")
	interview.POST("/start", interviewH.Start)
	interview.POST("/:session_id/answer", interviewH.Answer)
	interview.POST("/:session_id/report", interviewH.Report)
	interview.GET("/:session_id", interviewH.State)

	return r
}

// zapLoggerMiddleware crea un middleware simple de logging con zap.
func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

// jsonContentTypeMiddleware fuerza Content-Type: application/json en responses.
func jsonContentTypeMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Content-Type", "application/json")
		c.Next()
	}
}

// corsMiddleware permite cualquier origen y expone los headers del limitador al navegador.
func corsMiddleware() gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:    []string{"Content-Type", "Authorization", sessionHeader, "X-Requested-With"},
		ExposeHeaders:   []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"},
		MaxAge:          time.Hour,
	})
}

func securityHeadersMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		h.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		c.Next()
	}
}

// useJSONFieldNames hace que los errores del validator usen el nombre json del campo.
func useJSONFieldNames() {
	registerTagNameOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
}

func notFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
}
