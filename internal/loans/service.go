// Package loans implements the borrowing transaction manager.
//
// Creating a loan and processing a return each mutate two tables (the
// borrowings ledger and books.quantity) and therefore run as single database
// transactions. The invariant: for every book, loans created minus loans
// returned always equals the drop from its initial quantity.
package loans

import (
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/library-manager/internal/database"
	"github.com/mrlokans/library-manager/internal/entities"
)

var (
	// ErrBookUnavailable means no copy was on the shelf at commit time.
	ErrBookUnavailable = errors.New("book is out of stock")
	// ErrNothingToReturn means the loan is already closed or does not exist.
	ErrNothingToReturn = errors.New("loan is already returned or does not exist")
	// ErrLoanMismatch means the submitted book does not belong to the loan.
	ErrLoanMismatch = errors.New("loan does not reference that book")
	// ErrBookInUse blocks deleting a book with open loans.
	ErrBookInUse = errors.New("book has outstanding loans")
)

// Service orchestrates loan creation, returns and the guarded book delete.
type Service struct {
	db         *gorm.DB
	periodDays int
}

// NewService creates a loan transaction manager with the given loan period.
func NewService(db *gorm.DB, periodDays int) *Service {
	if periodDays <= 0 {
		periodDays = 14
	}
	return &Service{db: db, periodDays: periodDays}
}

// PeriodDays returns the configured loan period.
func (s *Service) PeriodDays() int {
	return s.periodDays
}

// CreateLoan checks out one copy of a book to a user as a single atomic
// unit: re-read the book inside the transaction, insert the ledger row, and
// decrement the shelf count with a guarded update. Quantity observed on the
// form is stale by submit time, so only the in-transaction state counts.
func (s *Service) CreateLoan(bookID, userID uint) (*entities.Loan, error) {
	var loan entities.Loan

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var book entities.Book
		if err := tx.First(&book, bookID).Error; err != nil {
			return database.TranslateError(err)
		}
		var user entities.User
		if err := tx.First(&user, userID).Error; err != nil {
			return database.TranslateError(err)
		}

		if book.Quantity <= 0 {
			return ErrBookUnavailable
		}

		borrowDate := today()
		loan = entities.Loan{
			BookID:     bookID,
			UserID:     userID,
			BorrowDate: borrowDate,
			DueDate:    borrowDate.AddDate(0, 0, s.periodDays),
		}
		if err := tx.Create(&loan).Error; err != nil {
			return database.TranslateError(err)
		}

		result := tx.Model(&entities.Book{}).
			Where("id = ? AND quantity > 0", bookID).
			UpdateColumn("quantity", gorm.Expr("quantity - 1"))
		if result.Error != nil {
			return database.TranslateError(result.Error)
		}
		if result.RowsAffected == 0 {
			// Lost the race for the last copy; rolling back removes the
			// ledger row written above.
			return ErrBookUnavailable
		}
		return nil
	})
	if err != nil {
		return nil, wrapTxError(err, "create loan")
	}
	return &loan, nil
}

// ProcessReturn closes a loan and puts the copy back on the shelf. The
// ledger update is conditional on return_date still being null, which makes
// a replayed return request a rejected no-op instead of a double increment.
// The submitted bookID must match the ledger row; the increment always uses
// the ledger's own book reference.
func (s *Service) ProcessReturn(borrowID, bookID uint) (*entities.Loan, error) {
	var loan entities.Loan

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&loan, borrowID).Error; err != nil {
			if errors.Is(database.TranslateError(err), database.ErrNotFound) {
				return ErrNothingToReturn
			}
			return database.TranslateError(err)
		}
		if loan.BookID != bookID {
			return ErrLoanMismatch
		}

		returnDate := today()
		result := tx.Model(&entities.Loan{}).
			Where("id = ? AND return_date IS NULL", borrowID).
			Update("return_date", returnDate)
		if result.Error != nil {
			return database.TranslateError(result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrNothingToReturn
		}

		if err := tx.Model(&entities.Book{}).
			Where("id = ?", loan.BookID).
			UpdateColumn("quantity", gorm.Expr("quantity + 1")).Error; err != nil {
			return database.TranslateError(err)
		}

		loan.ReturnDate = &returnDate
		return nil
	})
	if err != nil {
		return nil, wrapTxError(err, "process return")
	}
	return &loan, nil
}

// DeleteBook removes a book from the catalog unless the ledger still holds
// an open loan for it. Closed loans keep their foreign key, so a book with
// loan history is also refused, matching the schema constraint.
func (s *Service) DeleteBook(bookID uint) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var outstanding int64
		if err := tx.Model(&entities.Loan{}).
			Where("book_id = ? AND return_date IS NULL", bookID).
			Count(&outstanding).Error; err != nil {
			return database.TranslateError(err)
		}
		if outstanding > 0 {
			return ErrBookInUse
		}

		result := tx.Delete(&entities.Book{}, bookID)
		if result.Error != nil {
			return database.TranslateError(result.Error)
		}
		if result.RowsAffected == 0 {
			return database.ErrNotFound
		}
		return nil
	})
	return wrapTxError(err, "delete book")
}

// wrapTxError keeps domain sentinels intact and folds everything else into
// the generic transaction failure, logging the underlying cause.
func wrapTxError(err error, op string) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, ErrBookUnavailable),
		errors.Is(err, ErrNothingToReturn),
		errors.Is(err, ErrLoanMismatch),
		errors.Is(err, ErrBookInUse),
		errors.Is(err, database.ErrNotFound),
		errors.Is(err, database.ErrDuplicate),
		errors.Is(err, database.ErrReferentialConflict):
		return err
	}
	log.Printf("loan transaction failed (%s): %v", op, err)
	return fmt.Errorf("%w: %s", database.ErrTransactionFailed, op)
}

// today returns the current date with the time part stripped. Borrow, due
// and return dates are whole days.
func today() time.Time {
	year, month, day := time.Now().Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
