// Package server is the composition root: it wires storage, services,
// handlers and middleware into one chi router and runs the HTTP server.
//
//	cmd/server/main.go → config.Load, sqlite.New → server.New → Start
//	server.New         → stores → services → handlers → routes
//
// Handlers receive services, services receive repository interfaces, and
// only this package knows the concrete *sqlite.DB behind them.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/devrel-dashboard/internal/auth"
	"github.com/sakif/devrel-dashboard/internal/config"
	"github.com/sakif/devrel-dashboard/internal/handler"
	"github.com/sakif/devrel-dashboard/internal/middleware"
	sqliteRepo "github.com/sakif/devrel-dashboard/internal/repository/sqlite"
	"github.com/sakif/devrel-dashboard/internal/service"
)

// Server owns the router and the database handle. Start closes the database
// on shutdown.
type Server struct {
	router *chi.Mux
	config config.Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New wires every dependency and registers the routes. If cfg.Admin.Email is
// set, the admin account is created or promoted before New returns.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger, db *sqliteRepo.DB) (*Server, error) {
	tokens, err := auth.NewTokenService(cfg.JWTSecret, cfg.SessionTTL)
	if err != nil {
		return nil, fmt.Errorf("creating token service: %w", err)
	}
	passwords := auth.NewPasswordService()

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}

	authService := service.NewAuthService(db.Users(), tokens, passwords, logger)
	if err := authService.BootstrapAdmin(ctx, cfg.Admin.Email, cfg.Admin.Password, cfg.Admin.Name); err != nil {
		return nil, fmt.Errorf("bootstrapping admin: %w", err)
	}

	s.routes(tokens, passwords, authService)
	return s, nil
}

// Handler exposes the router, e.g. for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// routes registers every endpoint.
//
// Middleware order: RequestID → RealIP → Logger → Recoverer, so a panic is
// still logged with its request id and a 500.
//
//	public        /healthz, /auth/*, sublists, repository reads,
//	              segment membership, geography
//	RequireUser   contributors, repository writes, segments, dashboard, /users/me
//	RequireAdmin  POST /api/users
func (s *Server) routes(tokens *auth.TokenService, passwords *auth.PasswordService, authService *service.AuthService) {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)

	users := s.db.Users()
	segmentService := service.NewSegmentService(s.db.Segments(), s.logger)
	dashboardService := service.NewDashboardService(s.db.Dashboard(), segmentService, s.logger)

	contributors := handler.NewContributorHandler(service.NewContributorService(s.db.Contributors(), s.logger), s.logger)
	repositories := handler.NewRepositoryHandler(service.NewRepositoryService(s.db.Repositories(), s.logger), s.logger)
	segments := handler.NewSegmentHandler(segmentService, s.logger)
	sublists := handler.NewSublistHandler(
		service.NewContributorSublistService(s.db.ContributorSublists(), s.db.Dashboard(), s.logger),
		service.NewRepositorySublistService(s.db.RepositorySublists(), s.db.Dashboard(), s.logger),
		s.logger,
	)
	dashboard := handler.NewDashboardHandler(dashboardService, s.logger)
	userHandler := handler.NewUserHandler(service.NewUserService(users, passwords, s.logger), s.logger)

	var github *auth.GitHubProvider
	if s.config.GitHub.Enabled() {
		github = auth.NewGitHubProvider(s.config.GitHub.ClientID, s.config.GitHub.ClientSecret, s.config.GitHub.CallbackURL)
	} else {
		s.logger.Warn("GITHUB_CLIENT_ID/GITHUB_CLIENT_SECRET not set, GitHub sign-in is disabled")
	}
	authHandler := handler.NewAuthHandler(github, authService, tokens.TTL(), s.config.SecureCookies, s.logger)

	requireUser := auth.RequireUser(tokens, users, s.logger)

	s.router.Get("/healthz", handler.HealthHandler(s.db, s.logger))

	s.router.Route("/auth", func(r chi.Router) {
		if github != nil {
			r.Get("/github/login", authHandler.HandleGitHubLogin)
			r.Get("/github/callback", authHandler.HandleGitHubCallback)
		}
		r.Post("/login", authHandler.HandlePasswordLogin)
		r.Post("/logout", authHandler.HandleLogout)
	})

	s.router.Route("/api", func(r chi.Router) {
		// === Public ===
		r.Get("/contributor-sublists", sublists.HandleListContributors)
		r.Post("/contributor-sublists", sublists.HandleCreateContributors)
		r.Get("/contributor-sublists/activity", sublists.HandleContributorActivity)
		r.Get("/contributor-sublists/retention", sublists.HandleContributorRetention)
		r.Get("/contributor-sublists/{id}", sublists.HandleGetContributors)
		r.Put("/contributor-sublists/{id}", sublists.HandleUpdateContributors)
		r.Delete("/contributor-sublists/{id}", sublists.HandleDeleteContributors)

		r.Get("/repositories", repositories.HandleList)
		r.Get("/repositories/sublists", sublists.HandleListRepositories)
		r.Post("/repositories/sublists", sublists.HandleCreateRepositories)
		r.Get("/repositories/sublists/{id}", sublists.HandleGetRepositories)
		r.Put("/repositories/sublists/{id}", sublists.HandleUpdateRepositories)
		r.Delete("/repositories/sublists/{id}", sublists.HandleDeleteRepositories)
		r.Get("/repositories/{id}", repositories.HandleGet)

		r.Post("/segments/{id}/contributors", segments.HandleAddContributor)
		r.Delete("/segments/{id}/contributors", segments.HandleRemoveContributor)
		r.Post("/segments/{id}/repositories", segments.HandleAddRepository)
		r.Delete("/segments/{id}/repositories", segments.HandleRemoveRepository)

		r.Get("/dashboard/developer-locations", dashboard.HandleDeveloperLocations)
		r.Get("/dashboard/developers-by-chain", dashboard.HandleDevelopersByChain)
		r.Get("/dashboard/developers-by-country", dashboard.HandleDevelopersByCountry)

		// === Signed in ===
		r.Group(func(r chi.Router) {
			r.Use(requireUser)

			r.Get("/contributors", contributors.HandleList)
			r.Post("/contributors", contributors.HandleCreate)
			r.Get("/contributors/{id}", contributors.HandleGet)
			r.Put("/contributors/{id}", contributors.HandleUpdate)
			r.Delete("/contributors/{id}", contributors.HandleDelete)

			r.Post("/repositories", repositories.HandleCreate)
			r.Put("/repositories/{id}", repositories.HandleUpdate)
			r.Delete("/repositories/{id}", repositories.HandleDelete)

			r.Get("/segments", segments.HandleList)
			r.Post("/segments", segments.HandleCreate)
			r.Get("/segments/{id}", segments.HandleGet)
			r.Put("/segments/{id}", segments.HandleUpdate)
			r.Delete("/segments/{id}", segments.HandleDelete)

			r.Get("/dashboard", dashboard.HandleOverview)
			r.Get("/dashboard/kpis", dashboard.HandleKPIs)
			r.Get("/dashboard/monthly-commits", dashboard.HandleMonthlyCommits)
			r.Get("/dashboard/monthly-prs-merged", dashboard.HandleMonthlyPRsMerged)
			r.Get("/dashboard/commits-by-dev-type", dashboard.HandleCommitsByDevType)
			r.Get("/dashboard/developer-activity", dashboard.HandleDeveloperActivity)
			r.Get("/dashboard/dev-activity", dashboard.HandleDevActivity)

			r.Get("/users/me", userHandler.HandleMe)
			r.With(auth.RequireAdmin).Post("/users", userHandler.HandleCreate)
		})
	})
}

// Start serves until SIGINT/SIGTERM, then drains in-flight requests for up
// to 30 seconds and closes the database.
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("database", s.config.DBPath),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}
	return nil
}
