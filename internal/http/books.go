package http

import (
	"errors"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/library-manager/internal/database"
	"github.com/mrlokans/library-manager/internal/database/books"
	"github.com/mrlokans/library-manager/internal/entities"
	"github.com/mrlokans/library-manager/internal/loans"
)

// isbnPattern accepts 10-17 digits and hyphens, covering ISBN-10 and
// ISBN-13 with or without separators.
var isbnPattern = regexp.MustCompile(`^[0-9-]{10,17}$`)

// BooksController handles the admin inventory screens.
type BooksController struct {
	books       *books.Repository
	loanService *loans.Service
}

// NewBooksController creates a new inventory controller.
func NewBooksController(booksRepo *books.Repository, loanService *loans.Service) *BooksController {
	return &BooksController{books: booksRepo, loanService: loanService}
}

// bookForm carries posted values back into the template on validation
// failure so the admin does not lose their input.
type bookForm struct {
	Title    string
	Author   string
	ISBN     string
	Quantity string
}

func readBookForm(c *gin.Context) bookForm {
	return bookForm{
		Title:    strings.TrimSpace(c.PostForm("title")),
		Author:   strings.TrimSpace(c.PostForm("author")),
		ISBN:     strings.TrimSpace(c.PostForm("isbn")),
		Quantity: strings.TrimSpace(c.PostForm("quantity")),
	}
}

// validate returns one message per invalid field; minQuantity is 1 for new
// books and 0 for edits (an edit may legitimately zero the shelf count).
func (f bookForm) validate(minQuantity int) (entities.Book, []string) {
	var fieldErrors []string

	if f.Title == "" {
		fieldErrors = append(fieldErrors, "Title is required.")
	}
	if f.Author == "" {
		fieldErrors = append(fieldErrors, "Author is required.")
	}
	if f.ISBN == "" {
		fieldErrors = append(fieldErrors, "ISBN is required.")
	} else if !isbnPattern.MatchString(f.ISBN) {
		fieldErrors = append(fieldErrors, "ISBN format is invalid.")
	}

	quantity, err := strconv.Atoi(f.Quantity)
	if err != nil || quantity < minQuantity {
		if minQuantity > 0 {
			fieldErrors = append(fieldErrors, "Quantity must be a positive whole number.")
		} else {
			fieldErrors = append(fieldErrors, "Quantity must be zero or a positive whole number.")
		}
	}

	return entities.Book{
		Title:    f.Title,
		Author:   f.Author,
		ISBN:     f.ISBN,
		Quantity: quantity,
	}, fieldErrors
}

// ListPage renders the full inventory.
func (controller *BooksController) ListPage(c *gin.Context) {
	allBooks, err := controller.books.GetAllBooks()
	if err != nil {
		respondInternalError(c, err, "list books")
		return
	}

	c.HTML(http.StatusOK, "books_admin", htmlData(c, gin.H{
		"Title": "Manage Books",
		"Books": allBooks,
	}))
}

// NewPage renders the add-book form.
func (controller *BooksController) NewPage(c *gin.Context) {
	c.HTML(http.StatusOK, "book_form", htmlData(c, gin.H{
		"Title":  "Add New Book",
		"Action": "/admin/books",
		"Form":   bookForm{},
	}))
}

// Create handles the add-book form submission.
func (controller *BooksController) Create(c *gin.Context) {
	form := readBookForm(c)
	book, fieldErrors := form.validate(1)

	if len(fieldErrors) == 0 {
		err := controller.books.CreateBook(&book)
		switch {
		case err == nil:
			redirectWithSuccess(c, "/admin/books", "Book added successfully.")
			return
		case errors.Is(err, database.ErrDuplicate):
			fieldErrors = append(fieldErrors, "A book with that ISBN already exists.")
		default:
			respondInternalError(c, err, "create book")
			return
		}
	}

	c.HTML(http.StatusOK, "book_form", htmlData(c, gin.H{
		"Title":  "Add New Book",
		"Action": "/admin/books",
		"Form":   form,
		"Errors": fieldErrors,
	}))
}

// EditPage renders the edit form for one book.
func (controller *BooksController) EditPage(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	book, err := controller.books.GetBookByID(id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			redirectWithError(c, "/admin/books", "Book not found.")
			return
		}
		respondInternalError(c, err, "load book")
		return
	}

	c.HTML(http.StatusOK, "book_form", htmlData(c, gin.H{
		"Title":  "Edit Book",
		"Action": "/admin/books/" + c.Param("id"),
		"Form": bookForm{
			Title:    book.Title,
			Author:   book.Author,
			ISBN:     book.ISBN,
			Quantity: strconv.Itoa(book.Quantity),
		},
	}))
}

// Update handles the edit form submission. The quantity field is written
// as-is and is not reconciled against outstanding loans.
func (controller *BooksController) Update(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	form := readBookForm(c)
	book, fieldErrors := form.validate(0)
	book.ID = id

	if len(fieldErrors) == 0 {
		err := controller.books.UpdateBook(&book)
		switch {
		case err == nil:
			redirectWithSuccess(c, "/admin/books", "Book updated successfully.")
			return
		case errors.Is(err, database.ErrNotFound):
			redirectWithError(c, "/admin/books", "Book not found.")
			return
		case errors.Is(err, database.ErrDuplicate):
			fieldErrors = append(fieldErrors, "A book with that ISBN already exists.")
		default:
			respondInternalError(c, err, "update book")
			return
		}
	}

	c.HTML(http.StatusOK, "book_form", htmlData(c, gin.H{
		"Title":  "Edit Book",
		"Action": "/admin/books/" + c.Param("id"),
		"Form":   form,
		"Errors": fieldErrors,
	}))
}

// Delete removes a book unless the ledger still references it.
func (controller *BooksController) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	err := controller.loanService.DeleteBook(id)
	switch {
	case err == nil:
		redirectWithSuccess(c, "/admin/books", "Book deleted successfully.")
	case errors.Is(err, loans.ErrBookInUse):
		redirectWithError(c, "/admin/books", "Cannot delete book: all loans must be returned first.")
	case errors.Is(err, database.ErrReferentialConflict):
		redirectWithError(c, "/admin/books", "Cannot delete book: it has borrowing history.")
	case errors.Is(err, database.ErrNotFound):
		redirectWithError(c, "/admin/books", "Book not found or could not be deleted.")
	default:
		respondInternalError(c, err, "delete book")
	}
}
