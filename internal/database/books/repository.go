// Package books provides database operations for the catalog.
//
// # Usage
//
//	repo := books.NewRepository(db)
//	available, err := repo.GetAvailableBooks()
package books

import (
	"gorm.io/gorm"

	"github.com/mrlokans/library-manager/internal/database"
	"github.com/mrlokans/library-manager/internal/entities"
)

// Repository handles all catalog database operations. Deleting a book lives
// in the loans service because it has to check the ledger first.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new catalog repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateBook inserts a new book. A duplicate ISBN surfaces as
// database.ErrDuplicate.
func (r *Repository) CreateBook(book *entities.Book) error {
	if err := r.db.Create(book).Error; err != nil {
		return database.TranslateError(err)
	}
	return nil
}

// GetBookByID retrieves a book by ID.
func (r *Repository) GetBookByID(id uint) (*entities.Book, error) {
	var book entities.Book
	if err := r.db.First(&book, id).Error; err != nil {
		return nil, database.TranslateError(err)
	}
	return &book, nil
}

// GetBookByISBN retrieves a book by its ISBN.
func (r *Repository) GetBookByISBN(isbn string) (*entities.Book, error) {
	var book entities.Book
	if err := r.db.Where("isbn = ?", isbn).First(&book).Error; err != nil {
		return nil, database.TranslateError(err)
	}
	return &book, nil
}

// GetAllBooks lists the full catalog ordered by title.
func (r *Repository) GetAllBooks() ([]entities.Book, error) {
	var books []entities.Book
	err := r.db.Order("title ASC").Find(&books).Error
	return books, database.TranslateError(err)
}

// GetAvailableBooks lists books with at least one copy on the shelf.
func (r *Repository) GetAvailableBooks() ([]entities.Book, error) {
	var books []entities.Book
	err := r.db.Where("quantity > 0").Order("title ASC").Find(&books).Error
	return books, database.TranslateError(err)
}

// SearchBooks filters the catalog by a case-insensitive title/author match.
func (r *Repository) SearchBooks(query string) ([]entities.Book, error) {
	var books []entities.Book
	pattern := "%" + query + "%"
	err := r.db.
		Where("LOWER(title) LIKE LOWER(?) OR LOWER(author) LIKE LOWER(?)", pattern, pattern).
		Order("title ASC").
		Find(&books).Error
	return books, database.TranslateError(err)
}

// UpdateBook overwrites title, author, ISBN and quantity of an existing
// book. The admin edit path may set quantity to any non-negative value; it
// is not reconciled against outstanding loans.
func (r *Repository) UpdateBook(book *entities.Book) error {
	result := r.db.Model(&entities.Book{}).Where("id = ?", book.ID).
		Select("Title", "Author", "ISBN", "Quantity").
		Updates(book)
	if result.Error != nil {
		return database.TranslateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return database.ErrNotFound
	}
	return nil
}

// CountBooks returns catalog totals for the admin dashboard.
func (r *Repository) CountBooks() (totalTitles int64, copiesOnShelf int64, err error) {
	err = r.db.Model(&entities.Book{}).Count(&totalTitles).Error
	if err != nil {
		return 0, 0, database.TranslateError(err)
	}
	var sum *int64
	err = r.db.Model(&entities.Book{}).Select("SUM(quantity)").Scan(&sum).Error
	if err != nil {
		return 0, 0, database.TranslateError(err)
	}
	if sum != nil {
		copiesOnShelf = *sum
	}
	return totalTitles, copiesOnShelf, nil
}
