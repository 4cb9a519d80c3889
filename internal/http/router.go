package http

import (
	"html/template"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/library-manager/internal/auth"
)

// NewRouter creates and configures the HTTP router with all endpoints.
// Uses RouterConfig to receive all dependencies, improving testability
// and reducing parameter count.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	// Apply security headers to all responses
	router.Use(auth.SecurityHeadersMiddleware())

	// CSRF must run before session so that session context is preserved
	if len(cfg.CSRFSecret) > 0 {
		router.Use(auth.CSRFMiddleware(cfg.CSRFSecret, cfg.SecureCookies))
	}

	// Session runs after CSRF so session context isn't overwritten by
	// CSRF's request replacement
	if cfg.SessionManager != nil {
		router.Use(cfg.SessionManager.SessionLoadSave())
	}

	if cfg.AuthMiddleware != nil {
		router.Use(cfg.AuthMiddleware.Handler())
	}

	funcMap := template.FuncMap{
		"formatDate": func(t time.Time) string {
			return t.Format("2006-01-02")
		},
	}

	tmpl := template.Must(template.New("").Funcs(funcMap).ParseGlob(cfg.TemplatesPath + "/*.html"))
	router.SetHTMLTemplate(tmpl)

	// Login, logout and first-run setup
	authController := auth.NewAuthController(cfg.AuthService, cfg.SessionManager)
	authController.RegisterRoutes(router)

	health := NewHealthController(cfg.Database, cfg.Version)
	catalog := NewCatalogController(cfg.BooksRepo)
	booksController := NewBooksController(cfg.BooksRepo, cfg.LoanService)
	usersController := NewUsersController(cfg.UsersRepo, cfg.AuthService)
	borrowings := NewBorrowingsController(cfg.LoanService, cfg.LoansRepo, cfg.BooksRepo, cfg.UsersRepo)
	dashboard := NewDashboardController(cfg.BooksRepo, cfg.UsersRepo, cfg.LoansRepo)

	// Health endpoints
	router.GET("/health", health.Status)
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	// Public pages
	router.GET("/", catalog.HomePage)
	router.GET("/catalog", catalog.CatalogPage)

	// Pages for any logged-in user
	if cfg.AuthMiddleware != nil {
		loggedIn := router.Group("/loans", cfg.AuthMiddleware.RequireAuth())
		loggedIn.GET("/mine", borrowings.MyLoansPage)

		// Admin-only management pages
		admin := router.Group("/admin", cfg.AuthMiddleware.RequireAdmin())
		admin.GET("", dashboard.Page)

		admin.GET("/books", booksController.ListPage)
		admin.GET("/books/new", booksController.NewPage)
		admin.POST("/books", booksController.Create)
		admin.GET("/books/:id/edit", booksController.EditPage)
		admin.POST("/books/:id", booksController.Update)
		admin.POST("/books/:id/delete", booksController.Delete)

		admin.GET("/users", usersController.ListPage)
		admin.GET("/users/new", usersController.NewPage)
		admin.POST("/users", usersController.Create)
		admin.GET("/users/:id/edit", usersController.EditPage)
		admin.POST("/users/:id", usersController.Update)
		admin.POST("/users/:id/delete", usersController.Delete)

		admin.GET("/borrowings", borrowings.ListPage)
		admin.GET("/borrowings/new", borrowings.NewPage)
		admin.POST("/borrowings", borrowings.Create)
		admin.POST("/borrowings/:id/return", borrowings.Return)
	}

	return router
}
