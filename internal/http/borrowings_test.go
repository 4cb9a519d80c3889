package http

import (
	"html/template"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strconv"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/library-manager/internal/database"
	"github.com/mrlokans/library-manager/internal/database/books"
	loansrepo "github.com/mrlokans/library-manager/internal/database/loans"
	"github.com/mrlokans/library-manager/internal/database/users"
	"github.com/mrlokans/library-manager/internal/entities"
	"github.com/mrlokans/library-manager/internal/loans"
)

// stubTemplates registers empty templates for every page name so HTML
// handlers can render without the real template files.
func stubTemplates(router *gin.Engine) {
	const stubs = `
{{define "home"}}home{{end}}
{{define "catalog"}}catalog{{end}}
{{define "dashboard"}}dashboard{{end}}
{{define "books_admin"}}books_admin{{end}}
{{define "book_form"}}book_form {{range .Errors}}[{{.}}]{{end}}{{end}}
{{define "users_admin"}}users_admin{{end}}
{{define "user_form"}}user_form {{range .Errors}}[{{.}}]{{end}}{{end}}
{{define "borrowings"}}borrowings {{len .Loans}}{{end}}
{{define "loan_form"}}loan_form{{end}}
{{define "my_loans"}}my_loans {{len .Loans}}{{end}}`
	router.SetHTMLTemplate(template.Must(template.New("").Parse(stubs)))
}

type borrowingsFixture struct {
	db         *database.Database
	controller *BorrowingsController
	router     *gin.Engine
	cleanup    func()
}

func setupBorrowingsTest(t *testing.T) *borrowingsFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dbPath := "./test_borrowings_" + strings.ReplaceAll(t.Name(), "/", "_") + ".db"
	db, err := database.NewDatabase(dbPath)
	require.NoError(t, err)

	booksRepo := books.NewRepository(db.DB)
	usersRepo := users.NewRepository(db.DB)
	loansRepo := loansrepo.NewRepository(db.DB)
	loanService := loans.NewService(db.DB, 14)

	controller := NewBorrowingsController(loanService, loansRepo, booksRepo, usersRepo)

	router := gin.New()
	stubTemplates(router)
	router.GET("/admin/borrowings", controller.ListPage)
	router.POST("/admin/borrowings", controller.Create)
	router.POST("/admin/borrowings/:id/return", controller.Return)

	return &borrowingsFixture{
		db:         db,
		controller: controller,
		router:     router,
		cleanup: func() {
			db.Close()
			os.Remove(dbPath)
		},
	}
}

func (f *borrowingsFixture) seedUser(t *testing.T, username string) *entities.User {
	user := &entities.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "not-a-real-hash",
		Role:         entities.UserRoleUser,
	}
	require.NoError(t, f.db.DB.Create(user).Error)
	return user
}

func (f *borrowingsFixture) seedBook(t *testing.T, isbn string, quantity int) *entities.Book {
	book := &entities.Book{Title: "Book " + isbn, Author: "Author", ISBN: isbn, Quantity: quantity}
	require.NoError(t, f.db.DB.Create(book).Error)
	return book
}

func (f *borrowingsFixture) postForm(path string, form url.Values) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	f.router.ServeHTTP(w, req)
	return w
}

func TestBorrowingsController_Create(t *testing.T) {
	t.Run("records a loan and decrements quantity", func(t *testing.T) {
		f := setupBorrowingsTest(t)
		defer f.cleanup()

		user := f.seedUser(t, "reader")
		book := f.seedBook(t, "978-0134190440", 2)

		w := f.postForm("/admin/borrowings", url.Values{
			"user_id": {strconv.Itoa(int(user.ID))},
			"book_id": {strconv.Itoa(int(book.ID))},
		})

		assert.Equal(t, http.StatusFound, w.Code)
		assert.Contains(t, w.Header().Get("Location"), "success=")

		var fresh entities.Book
		require.NoError(t, f.db.DB.First(&fresh, book.ID).Error)
		assert.Equal(t, 1, fresh.Quantity)
	})

	t.Run("rejects checkout of an out of stock book", func(t *testing.T) {
		f := setupBorrowingsTest(t)
		defer f.cleanup()

		user := f.seedUser(t, "reader")
		book := f.seedBook(t, "978-0134190440", 0)

		w := f.postForm("/admin/borrowings", url.Values{
			"user_id": {strconv.Itoa(int(user.ID))},
			"book_id": {strconv.Itoa(int(book.ID))},
		})

		assert.Equal(t, http.StatusFound, w.Code)
		assert.Contains(t, w.Header().Get("Location"), "error=")

		var count int64
		require.NoError(t, f.db.DB.Model(&entities.Loan{}).Count(&count).Error)
		assert.Zero(t, count)
	})

	t.Run("rejects missing form fields", func(t *testing.T) {
		f := setupBorrowingsTest(t)
		defer f.cleanup()

		w := f.postForm("/admin/borrowings", url.Values{})

		assert.Equal(t, http.StatusFound, w.Code)
		assert.Contains(t, w.Header().Get("Location"), "error=")
	})
}

func TestBorrowingsController_Return(t *testing.T) {
	t.Run("closes the loan and restores quantity", func(t *testing.T) {
		f := setupBorrowingsTest(t)
		defer f.cleanup()

		user := f.seedUser(t, "reader")
		book := f.seedBook(t, "978-0134190440", 1)

		service := loans.NewService(f.db.DB, 14)
		loan, err := service.CreateLoan(book.ID, user.ID)
		require.NoError(t, err)

		w := f.postForm("/admin/borrowings/"+strconv.Itoa(int(loan.ID))+"/return", url.Values{
			"book_id": {strconv.Itoa(int(book.ID))},
		})

		assert.Equal(t, http.StatusFound, w.Code)
		assert.Contains(t, w.Header().Get("Location"), "success=")

		var fresh entities.Book
		require.NoError(t, f.db.DB.First(&fresh, book.ID).Error)
		assert.Equal(t, 1, fresh.Quantity)
	})

	t.Run("double submit does not double the quantity", func(t *testing.T) {
		f := setupBorrowingsTest(t)
		defer f.cleanup()

		user := f.seedUser(t, "reader")
		book := f.seedBook(t, "978-0134190440", 1)

		service := loans.NewService(f.db.DB, 14)
		loan, err := service.CreateLoan(book.ID, user.ID)
		require.NoError(t, err)

		path := "/admin/borrowings/" + strconv.Itoa(int(loan.ID)) + "/return"
		form := url.Values{"book_id": {strconv.Itoa(int(book.ID))}}

		f.postForm(path, form)
		w := f.postForm(path, form)

		assert.Equal(t, http.StatusFound, w.Code)
		assert.Contains(t, w.Header().Get("Location"), "error=")

		var fresh entities.Book
		require.NoError(t, f.db.DB.First(&fresh, book.ID).Error)
		assert.Equal(t, 1, fresh.Quantity)
	})

	t.Run("rejects a book that does not match the loan", func(t *testing.T) {
		f := setupBorrowingsTest(t)
		defer f.cleanup()

		user := f.seedUser(t, "reader")
		book := f.seedBook(t, "978-0134190440", 1)
		other := f.seedBook(t, "978-0596009250", 1)

		service := loans.NewService(f.db.DB, 14)
		loan, err := service.CreateLoan(book.ID, user.ID)
		require.NoError(t, err)

		w := f.postForm("/admin/borrowings/"+strconv.Itoa(int(loan.ID))+"/return", url.Values{
			"book_id": {strconv.Itoa(int(other.ID))},
		})

		assert.Equal(t, http.StatusFound, w.Code)
		assert.Contains(t, w.Header().Get("Location"), "error=")
	})
}

func TestBorrowingsController_ListPage(t *testing.T) {
	t.Run("lists only outstanding loans", func(t *testing.T) {
		f := setupBorrowingsTest(t)
		defer f.cleanup()

		user := f.seedUser(t, "reader")
		book := f.seedBook(t, "978-0134190440", 2)

		service := loans.NewService(f.db.DB, 14)
		open, err := service.CreateLoan(book.ID, user.ID)
		require.NoError(t, err)
		closed, err := service.CreateLoan(book.ID, user.ID)
		require.NoError(t, err)
		_, err = service.ProcessReturn(closed.ID, book.ID)
		require.NoError(t, err)
		_ = open

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/admin/borrowings", nil)
		f.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "borrowings 1")
	})
}
