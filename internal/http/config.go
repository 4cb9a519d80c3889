package http

import (
	"github.com/mrlokans/library-manager/internal/auth"
	"github.com/mrlokans/library-manager/internal/database"
	"github.com/mrlokans/library-manager/internal/database/books"
	"github.com/mrlokans/library-manager/internal/database/loans"
	"github.com/mrlokans/library-manager/internal/database/users"
	loansvc "github.com/mrlokans/library-manager/internal/loans"
)

// RouterConfig holds all dependencies needed to construct the router.
// Using a config struct improves testability and keeps the constructor
// signature stable as dependencies grow.
type RouterConfig struct {
	Database *database.Database

	BooksRepo *books.Repository
	UsersRepo *users.Repository
	LoansRepo *loans.Repository

	LoanService *loansvc.Service

	AuthService    *auth.Service
	AuthMiddleware *auth.Middleware
	SessionManager *auth.SessionManager
	CSRFSecret     []byte
	SecureCookies  bool

	TemplatesPath string
	Version       string
}
