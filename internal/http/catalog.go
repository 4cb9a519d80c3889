package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/library-manager/internal/database/books"
)

// CatalogController serves the public pages: the landing page and the
// catalog of available books.
type CatalogController struct {
	books *books.Repository
}

// NewCatalogController creates a new catalog controller.
func NewCatalogController(booksRepo *books.Repository) *CatalogController {
	return &CatalogController{books: booksRepo}
}

// HomePage renders the landing page / user dashboard.
func (controller *CatalogController) HomePage(c *gin.Context) {
	c.HTML(http.StatusOK, "home", htmlData(c, gin.H{
		"Title": "Home",
	}))
}

// CatalogPage lists books with at least one copy available. An optional
// ?q= query filters by title or author.
func (controller *CatalogController) CatalogPage(c *gin.Context) {
	query := c.Query("q")

	available, err := controller.books.GetAvailableBooks()
	if err != nil {
		respondInternalError(c, err, "load catalog")
		return
	}

	if query != "" {
		matched, err := controller.books.SearchBooks(query)
		if err != nil {
			respondInternalError(c, err, "search catalog")
			return
		}
		// Keep only matches that are actually on the shelf
		available = available[:0]
		for _, book := range matched {
			if book.Quantity > 0 {
				available = append(available, book)
			}
		}
	}

	c.HTML(http.StatusOK, "catalog", htmlData(c, gin.H{
		"Title": "Catalog",
		"Books": available,
		"Query": query,
	}))
}
