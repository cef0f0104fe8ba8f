package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-redis/redis/v8"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/anzecare/anzeguard/api/internal/assessment/application"
	"github.com/anzecare/anzeguard/api/internal/auth"
	"github.com/anzecare/anzeguard/api/internal/config"
	"github.com/anzecare/anzeguard/api/internal/interfaces/http/checklist"
	commonhttp "github.com/anzecare/anzeguard/api/internal/interfaces/http/common"
)

// TokenVerifier validates bearer tokens.
type TokenVerifier interface {
	Verify(token string) (auth.Claims, error)
}

// Authenticator issues and validates consultant tokens.
type Authenticator interface {
	checklist.Authenticator
	TokenVerifier
}

// Dependencies are the components assembled by cmd/api.
type Dependencies struct {
	Logger   *zap.Logger
	Projects application.ProjectService
	Auth     Authenticator
	Reports  checklist.ReportComposer

	// Mongo and Redis are disconnected on shutdown when set.
	Mongo *mongo.Client
	Redis *redis.Client
}

// Server manages the HTTP lifecycle and wires handlers to application services.
type Server struct {
	logger         *zap.Logger
	projects       application.ProjectService
	verifier       TokenVerifier
	handler        *checklist.Handler
	mongo          *mongo.Client
	redis          *redis.Client
	addr           string
	allowedOrigins []string
	readHeader     time.Duration
	shutdownWait   time.Duration
	now            func() time.Time
}

// New assembles a Server from configuration and dependencies.
func New(cfg *config.Config, deps Dependencies) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Server{
		logger:   logger,
		projects: deps.Projects,
		verifier: deps.Auth,
		handler: checklist.NewHandler(checklist.Config{
			Logger:         logger.Named("checklist"),
			Projects:       deps.Projects,
			Auth:           deps.Auth,
			Reports:        deps.Reports,
			Location:       cfg.Location,
			RequestTimeout: cfg.HTTP.RequestTimeout,
		}),
		mongo:          deps.Mongo,
		redis:          deps.Redis,
		addr:           cfg.HTTP.Addr,
		allowedOrigins: append([]string(nil), cfg.HTTP.AllowedOrigins...),
		readHeader:     cfg.HTTP.ReadHeaderTimeout,
		shutdownWait:   cfg.HTTP.ShutdownTimeout,
		now:            time.Now,
	}
}

// Router builds the chi router with middleware and every route mounted.
func (s *Server) Router() http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(requestLogger(s.logger))
	router.Use(middleware.Recoverer)
	router.Use(withCORS(s.allowedOrigins))

	router.Get("/healthz", s.healthHandler())
	s.handler.Register(router, s.authMiddleware)
	return router
}

// Run starts the HTTP server and blocks until it stops.
func (s *Server) Run() error {
	httpServer := &http.Server{
		Addr:              s.addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: s.readHeader,
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", zap.String("addr", s.addr))
		errChan <- httpServer.ListenAndServe()
	}()

	return waitForShutdown(httpServer, errChan, s)
}

// withCORS adds CORS headers for allowed origins.
func withCORS(origins []string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{})
	allowAll := false
	for _, origin := range origins {
		origin = strings.TrimSpace(origin)
		if origin == "" {
			continue
		}
		if origin == "*" {
			allowAll = true
			continue
		}
		allowed[origin] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := strings.TrimSpace(r.Header.Get("Origin"))
			if origin == "" || (!allowAll && len(allowed) > 0 && !originAllowed(origin, allowed)) {
				if r.Method == http.MethodOptions {
					w.WriteHeader(http.StatusNoContent)
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Add("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,PATCH,OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Authorization,Content-Type")
			w.Header().Set("Access-Control-Expose-Headers", "Content-Disposition,"+commonhttp.HeaderReportWarning)
			w.Header().Set("Access-Control-Max-Age", "300")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func originAllowed(origin string, allowed map[string]struct{}) bool {
	if len(allowed) == 0 {
		return true
	}
	_, ok := allowed[origin]
	return ok
}

// requestLogger logs one line per request.
func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", status),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("requestId", middleware.GetReqID(r.Context())),
				zap.String("remoteAddr", r.RemoteAddr),
			}
			if status >= http.StatusInternalServerError {
				logger.Warn("HTTP request", fields...)
				return
			}
			logger.Info("HTTP request", fields...)
		})
	}
}

// healthHandler reports whether the project store is reachable.
func (s *Server) healthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := s.projects.Ping(ctx); err != nil {
			commonhttp.WriteJSON(s.logger, w, http.StatusServiceUnavailable, map[string]string{
				"status": "degraded",
				"error":  err.Error(),
			})
			return
		}

		commonhttp.WriteJSON(s.logger, w, http.StatusOK, map[string]string{
			"status": "ok",
			"time":   s.now().Format(time.RFC3339),
		})
	}
}

// authMiddleware verifies the bearer token and stores the principal in the context.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := strings.TrimSpace(r.Header.Get("Authorization"))
		if authHeader == "" {
			commonhttp.WriteError(s.logger, w, http.StatusUnauthorized, "missing Authorization header")
			return
		}

		const bearerPrefix = "Bearer "
		if !strings.HasPrefix(authHeader, bearerPrefix) {
			commonhttp.WriteError(s.logger, w, http.StatusUnauthorized, "bearer token required")
			return
		}

		tokenString := strings.TrimSpace(strings.TrimPrefix(authHeader, bearerPrefix))
		if tokenString == "" {
			commonhttp.WriteError(s.logger, w, http.StatusUnauthorized, "empty access token")
			return
		}

		claims, err := s.verifier.Verify(tokenString)
		if err != nil {
			s.logger.Debug("Rejected access token", zap.Error(err))
			commonhttp.WriteError(s.logger, w, http.StatusUnauthorized, "invalid access token")
			return
		}

		user := commonhttp.AuthenticatedUser{Subject: claims.Subject, ExpiresAt: claims.ExpiresAt}
		ctx := commonhttp.ContextWithUser(r.Context(), user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// shutdown releases the storage clients.
func (s *Server) shutdown(ctx context.Context) {
	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if s.mongo != nil {
		if err := s.mongo.Disconnect(shutdownCtx); err != nil {
			s.logger.Warn("MongoDB disconnect failed", zap.Error(err))
		}
	}
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.Warn("Redis close failed", zap.Error(err))
		}
	}
}

// waitForShutdown waits for ListenAndServe to fail or for a termination signal.
func waitForShutdown(httpServer *http.Server, errChan <-chan error, srv *Server) error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	var runErr error
	select {
	case err := <-errChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			runErr = err
		}
	case sig := <-sigChan:
		srv.logger.Info("Shutting down", zap.String("signal", sig.String()))
		ctx, cancel := context.WithTimeout(context.Background(), srv.shutdownWait)
		defer cancel()
		if err := httpServer.Shutdown(ctx); err != nil {
			srv.logger.Warn("HTTP server shutdown failed", zap.Error(err))
		}
	}

	srv.shutdown(context.Background())
	return runErr
}
