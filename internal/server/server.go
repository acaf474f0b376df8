package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/campusnav/apiserver/config"
	"github.com/campusnav/apiserver/internal/db"
	"github.com/campusnav/apiserver/internal/handlers"
	"github.com/campusnav/apiserver/internal/logging"
	"github.com/campusnav/apiserver/internal/metrics"
	"github.com/campusnav/apiserver/internal/mq"
	"github.com/campusnav/apiserver/internal/services"
	"github.com/campusnav/apiserver/internal/storage"
	"github.com/campusnav/apiserver/internal/store"
)

const (
	requestTimeout = 60 * time.Second
	closeTimeout   = 10 * time.Second
)

// Server wraps the HTTP server, router and the dependencies it owns.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	store      store.Database
	mq         *mq.MQ
	log        zerolog.Logger
}

// New opens the record store and the optional object storage and broker,
// then builds the router. Everything opened here is released by Shutdown.
func New(ctx context.Context, cfg config.Config, log zerolog.Logger) (*Server, error) {
	if cfg.Auth.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}

	database, err := OpenStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	objects, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		closeStore(database)
		return nil, fmt.Errorf("open object storage: %w", err)
	}

	broker, err := mq.Open(ctx, cfg.MQ)
	if err != nil {
		closeStore(database)
		return nil, fmt.Errorf("open message queue: %w", err)
	}

	var events *services.AccountEvents
	if broker != nil {
		events = services.NewAccountEvents(broker, cfg.MQ.AccountChannel, log)
	}
	var uploadStore services.ObjectStore
	if objects != nil {
		uploadStore = objects
	}

	accountRepo := store.NewAccountRepository(database)
	authService := services.NewAuthService(accountRepo, cfg.Auth, events, log)
	buildingService := services.NewBuildingService(database)
	userService := services.NewUserService(accountRepo)
	adminService := services.NewAdminService(store.NewAdminRepository(database), cfg.Auth.HashCost)
	placeService := services.NewPlaceService(database)
	uploadService := services.NewUploadService(uploadStore)

	authHandler := handlers.NewAuthHandler(authService, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, log)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		logging.AccessLog(log),
		metrics.Middleware,
		middleware.Timeout(requestTimeout),
		cors.Handler(cors.Options{
			AllowedOrigins: cfg.HTTP.AllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			MaxAge:         300,
		}),
	)

	health := handlers.Health(database, log)
	router.Get("/healthz", health)
	router.Handle("/metrics", promhttp.Handler())

	router.Route("/api", func(r chi.Router) {
		r.Get("/health", health)
		r.Route("/auth", func(r chi.Router) {
			if cfg.HTTP.AuthRateLimit > 0 {
				r.Use(httprate.LimitByIP(cfg.HTTP.AuthRateLimit, time.Minute))
			}
			handlers.AuthRouter(r, authHandler)
		})
		r.Route("/buildings", func(r chi.Router) {
			handlers.BuildingRouter(r, buildingService, log)
		})
		r.Route("/users", func(r chi.Router) {
			handlers.UserRouter(r, userService, log)
		})
		r.Route("/admins", func(r chi.Router) {
			handlers.AdminRouter(r, adminService, log)
		})
		r.Route("/coordinates", func(r chi.Router) {
			handlers.CoordinatesRouter(r, placeService, log)
		})
		r.Route("/links", func(r chi.Router) {
			handlers.LinkRouter(r, placeService, log)
		})
		r.Route("/routes", func(r chi.Router) {
			handlers.RouteRouter(r, placeService, log)
		})
		r.Route("/upload", func(r chi.Router) {
			handlers.UploadRouter(r, uploadService, log)
		})
	})

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 75 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		router:     router,
		store:      database,
		mq:         broker,
		log:        log,
	}, nil
}

// OpenStore opens the record store selected by cfg.StoreDriver.
func OpenStore(ctx context.Context, cfg config.Config) (store.Database, error) {
	switch cfg.StoreDriver {
	case config.StoreDriverPostgres, "":
		conn, err := db.Open(ctx, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		return store.NewPostgres(conn), nil
	case config.StoreDriverMongo:
		database, err := store.NewMongo(ctx, cfg.Mongo)
		if err != nil {
			return nil, fmt.Errorf("open mongo: %w", err)
		}
		return database, nil
	case config.StoreDriverMemory:
		return store.NewMemory(), nil
	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.StoreDriver)
	}
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server until Shutdown is called.
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.httpServer.Addr).Msg("server listening")
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests, then releases the broker and store.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	if s.mq != nil {
		if mqErr := s.mq.Close(); mqErr != nil {
			s.log.Warn().Err(mqErr).Msg("close message queue")
		}
	}
	closeStore(s.store)
	return err
}

func closeStore(database store.Database) {
	if database == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()
	_ = database.Close(ctx)
}
