// Package loans provides read access to the borrowings ledger.
//
// Ledger rows are only ever written by the loans service; this repository
// covers the queries the borrowing screens need.
package loans

import (
	"gorm.io/gorm"

	"github.com/mrlokans/library-manager/internal/database"
	"github.com/mrlokans/library-manager/internal/entities"
)

// Repository handles borrowings ledger queries.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new ledger repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// GetLoanByID retrieves a single loan with its book and borrower loaded.
func (r *Repository) GetLoanByID(id uint) (*entities.Loan, error) {
	var loan entities.Loan
	err := r.db.Preload("Book").Preload("User").First(&loan, id).Error
	if err != nil {
		return nil, database.TranslateError(err)
	}
	return &loan, nil
}

// ListOutstanding returns every open loan with book and borrower loaded,
// soonest due first.
func (r *Repository) ListOutstanding() ([]entities.Loan, error) {
	var loans []entities.Loan
	err := r.db.Preload("Book").Preload("User").
		Where("return_date IS NULL").
		Order("due_date ASC").
		Find(&loans).Error
	return loans, database.TranslateError(err)
}

// ListOutstandingForUser returns the open loans of one borrower.
func (r *Repository) ListOutstandingForUser(userID uint) ([]entities.Loan, error) {
	var loans []entities.Loan
	err := r.db.Preload("Book").
		Where("user_id = ? AND return_date IS NULL", userID).
		Order("due_date ASC").
		Find(&loans).Error
	return loans, database.TranslateError(err)
}

// CountOutstanding returns how many loans are currently open.
func (r *Repository) CountOutstanding() (int64, error) {
	var count int64
	err := r.db.Model(&entities.Loan{}).Where("return_date IS NULL").Count(&count).Error
	return count, database.TranslateError(err)
}

// CountOutstandingForBook returns how many copies of one book are out.
func (r *Repository) CountOutstandingForBook(bookID uint) (int64, error) {
	var count int64
	err := r.db.Model(&entities.Loan{}).
		Where("book_id = ? AND return_date IS NULL", bookID).
		Count(&count).Error
	return count, database.TranslateError(err)
}
