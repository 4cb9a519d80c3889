package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/library-manager/internal/database/books"
	loansrepo "github.com/mrlokans/library-manager/internal/database/loans"
	"github.com/mrlokans/library-manager/internal/database/users"
)

// DashboardController renders the admin landing page with library totals.
type DashboardController struct {
	booksRepo *books.Repository
	usersRepo *users.Repository
	loansRepo *loansrepo.Repository
}

// NewDashboardController creates a new dashboard controller.
func NewDashboardController(
	booksRepo *books.Repository,
	usersRepo *users.Repository,
	loansRepo *loansrepo.Repository,
) *DashboardController {
	return &DashboardController{
		booksRepo: booksRepo,
		usersRepo: usersRepo,
		loansRepo: loansRepo,
	}
}

// Page renders the admin dashboard.
func (controller *DashboardController) Page(c *gin.Context) {
	totalTitles, copiesOnShelf, err := controller.booksRepo.CountBooks()
	if err != nil {
		respondInternalError(c, err, "count books")
		return
	}
	userCount, err := controller.usersRepo.CountUsers()
	if err != nil {
		respondInternalError(c, err, "count users")
		return
	}
	outstanding, err := controller.loansRepo.CountOutstanding()
	if err != nil {
		respondInternalError(c, err, "count outstanding loans")
		return
	}

	c.HTML(http.StatusOK, "dashboard", htmlData(c, gin.H{
		"Title":            "Admin Dashboard",
		"TotalTitles":      totalTitles,
		"CopiesOnShelf":    copiesOnShelf,
		"UserCount":        userCount,
		"OutstandingLoans": outstanding,
	}))
}
