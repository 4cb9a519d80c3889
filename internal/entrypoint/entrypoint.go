package entrypoint

import (
	"context"
	"encoding/hex"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/library-manager/internal/auth"
	"github.com/mrlokans/library-manager/internal/config"
	"github.com/mrlokans/library-manager/internal/database"
	"github.com/mrlokans/library-manager/internal/database/books"
	loansrepo "github.com/mrlokans/library-manager/internal/database/loans"
	"github.com/mrlokans/library-manager/internal/database/users"
	http_controllers "github.com/mrlokans/library-manager/internal/http"
	"github.com/mrlokans/library-manager/internal/loans"
)

// Serve runs the HTTP server until an interrupt or termination signal
// arrives, then shuts down gracefully within the configured timeout.
func Serve(router *gin.Engine, cfg *config.Config) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler: router,
	}

	go func() {
		fmt.Printf("Starting server at %s:%d\n", cfg.HTTP.Host, cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("Shutdown Server, waiting %v before killing\n", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server Shutdown:", err)
	}

	log.Println("Server exiting")
}

// Run wires the database, services and router together and serves HTTP.
func Run(cfg *config.Config, version string) {
	log.Printf("Starting Library Manager v%s", version)

	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()

	authService := auth.NewService(db.DB, cfg.Auth)

	sqlDB, err := db.DB.DB()
	if err != nil {
		log.Fatalf("Failed to get SQL DB for sessions: %v", err)
	}

	sessionManager, err := auth.NewSessionManager(sqlDB, cfg.Auth)
	if err != nil {
		log.Fatalf("Failed to initialize session manager: %v", err)
	}

	authMiddleware := auth.NewMiddleware(authService, sessionManager)

	csrfSecret := resolveCSRFSecret(cfg.Auth.SessionSecret)

	hasUsers, _ := authService.HasUsers()
	if !hasUsers {
		log.Printf("No users found. Visit /setup to create an administrator account.")
	}

	booksRepo := books.NewRepository(db.DB)
	usersRepo := users.NewRepository(db.DB)
	loansRepo := loansrepo.NewRepository(db.DB)
	loanService := loans.NewService(db.DB, cfg.Loans.PeriodDays)

	routerCfg := http_controllers.RouterConfig{
		Database:       db,
		BooksRepo:      booksRepo,
		UsersRepo:      usersRepo,
		LoansRepo:      loansRepo,
		LoanService:    loanService,
		AuthService:    authService,
		AuthMiddleware: authMiddleware,
		SessionManager: sessionManager,
		CSRFSecret:     csrfSecret,
		SecureCookies:  cfg.Auth.SecureCookies,
		TemplatesPath:  cfg.UI.TemplatesPath,
		Version:        version,
	}

	Serve(http_controllers.NewRouter(routerCfg), cfg)
}

// resolveCSRFSecret decodes the configured secret, or generates an
// ephemeral one when none is set.
func resolveCSRFSecret(configured string) []byte {
	if configured != "" {
		secret, err := hex.DecodeString(configured)
		if err != nil {
			// Not hex, use as raw bytes
			return []byte(configured)
		}
		return secret
	}

	generated, err := auth.GenerateSessionSecret()
	if err != nil {
		log.Fatalf("Failed to generate CSRF secret: %v", err)
	}
	secret, _ := hex.DecodeString(generated)
	log.Printf("Generated session secret (set AUTH_SESSION_SECRET to persist)")
	return secret
}
