package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/library-manager/internal/auth"
	"github.com/mrlokans/library-manager/internal/database"
	"github.com/mrlokans/library-manager/internal/database/books"
	loansrepo "github.com/mrlokans/library-manager/internal/database/loans"
	"github.com/mrlokans/library-manager/internal/database/users"
	"github.com/mrlokans/library-manager/internal/entities"
	"github.com/mrlokans/library-manager/internal/loans"
)

// BorrowingsController handles the loan management screens: listing
// outstanding loans, recording a new loan, and processing returns.
type BorrowingsController struct {
	loanService *loans.Service
	loansRepo   *loansrepo.Repository
	booksRepo   *books.Repository
	usersRepo   *users.Repository
}

// NewBorrowingsController creates a new borrowings controller.
func NewBorrowingsController(
	loanService *loans.Service,
	loansRepo *loansrepo.Repository,
	booksRepo *books.Repository,
	usersRepo *users.Repository,
) *BorrowingsController {
	return &BorrowingsController{
		loanService: loanService,
		loansRepo:   loansRepo,
		booksRepo:   booksRepo,
		usersRepo:   usersRepo,
	}
}

// loanRow is the template view of one outstanding loan.
type loanRow struct {
	LoanID     uint
	BookID     uint
	Username   string
	Title      string
	ISBN       string
	BorrowDate time.Time
	DueDate    time.Time
	DaysLeft   int
	Status     string
	StatusTone string
}

func buildLoanRows(outstanding []entities.Loan, now time.Time) []loanRow {
	rows := make([]loanRow, 0, len(outstanding))
	for _, loan := range outstanding {
		row := loanRow{
			LoanID:     loan.ID,
			BookID:     loan.BookID,
			Username:   loan.User.Username,
			Title:      loan.Book.Title,
			ISBN:       loan.Book.ISBN,
			BorrowDate: loan.BorrowDate,
			DueDate:    loan.DueDate,
			DaysLeft:   loan.DaysUntilDue(now),
		}
		switch {
		case row.DaysLeft < 0:
			row.Status = "Overdue"
			row.StatusTone = "overdue"
		case row.DaysLeft <= 3:
			row.Status = "Due soon"
			row.StatusTone = "due-soon"
		default:
			row.Status = "On time"
			row.StatusTone = "on-time"
		}
		rows = append(rows, row)
	}
	return rows
}

// ListPage renders all outstanding loans, soonest due first.
func (controller *BorrowingsController) ListPage(c *gin.Context) {
	outstanding, err := controller.loansRepo.ListOutstanding()
	if err != nil {
		respondInternalError(c, err, "list outstanding loans")
		return
	}

	c.HTML(http.StatusOK, "borrowings", htmlData(c, gin.H{
		"Title": "Manage Borrowings",
		"Loans": buildLoanRows(outstanding, time.Now()),
	}))
}

// NewPage renders the new-loan form: every user plus every book with at
// least one copy on the shelf.
func (controller *BorrowingsController) NewPage(c *gin.Context) {
	allUsers, err := controller.usersRepo.GetAllUsers()
	if err != nil {
		respondInternalError(c, err, "load users for loan form")
		return
	}
	available, err := controller.booksRepo.GetAvailableBooks()
	if err != nil {
		respondInternalError(c, err, "load books for loan form")
		return
	}

	c.HTML(http.StatusOK, "loan_form", htmlData(c, gin.H{
		"Title":      "New Loan",
		"Users":      allUsers,
		"Books":      available,
		"PeriodDays": controller.loanService.PeriodDays(),
	}))
}

// Create records a new loan. Availability shown on the form is stale by
// submit time; the loan service re-checks it inside the transaction.
func (controller *BorrowingsController) Create(c *gin.Context) {
	userID, okUser := parseFormID(c, "user_id")
	bookID, okBook := parseFormID(c, "book_id")
	if !okUser || !okBook {
		redirectWithError(c, "/admin/borrowings/new", "Invalid user or book selected.")
		return
	}

	loan, err := controller.loanService.CreateLoan(bookID, userID)
	switch {
	case err == nil:
		redirectWithSuccess(c, "/admin/borrowings",
			"Loan recorded successfully. Book is due on "+loan.DueDate.Format("2006-01-02")+".")
	case errors.Is(err, loans.ErrBookUnavailable):
		redirectWithError(c, "/admin/borrowings/new", "Selected book is out of stock.")
	case errors.Is(err, database.ErrNotFound):
		redirectWithError(c, "/admin/borrowings/new", "Invalid user or book selected.")
	default:
		redirectWithError(c, "/admin/borrowings/new", "Transaction failed. No loan was recorded.")
	}
}

// Return closes a loan and restores the copy to the shelf. Submitting the
// same form twice is a rejected no-op.
func (controller *BorrowingsController) Return(c *gin.Context) {
	borrowID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	bookID, ok := parseFormID(c, "book_id")
	if !ok {
		redirectWithError(c, "/admin/borrowings", "Invalid return request.")
		return
	}

	_, err := controller.loanService.ProcessReturn(borrowID, bookID)
	switch {
	case err == nil:
		redirectWithSuccess(c, "/admin/borrowings", "Book successfully returned and inventory updated.")
	case errors.Is(err, loans.ErrNothingToReturn):
		redirectWithError(c, "/admin/borrowings", "Nothing to return: the loan is already closed or does not exist.")
	case errors.Is(err, loans.ErrLoanMismatch):
		redirectWithError(c, "/admin/borrowings", "Invalid return request.")
	default:
		redirectWithError(c, "/admin/borrowings", "Return failed. Inventory was not changed.")
	}
}

// MyLoansPage shows the logged-in user their own outstanding loans.
func (controller *BorrowingsController) MyLoansPage(c *gin.Context) {
	userID := auth.GetUserID(c)

	outstanding, err := controller.loansRepo.ListOutstandingForUser(userID)
	if err != nil {
		respondInternalError(c, err, "list own loans")
		return
	}

	c.HTML(http.StatusOK, "my_loans", htmlData(c, gin.H{
		"Title": "My Borrowings",
		"Loans": buildLoanRows(outstanding, time.Now()),
	}))
}
