package loans

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/library-manager/internal/database"
	"github.com/mrlokans/library-manager/internal/entities"
)

func setupTestDB(t *testing.T) (*Repository, *gorm.DB, func()) {
	dbPath := "./test_loans_" + t.Name() + ".db"

	db, err := gorm.Open(sqlite.Open(dbPath+"?_foreign_keys=on"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(&entities.User{}, &entities.Book{}, &entities.Loan{})
	require.NoError(t, err)

	repo := NewRepository(db)

	cleanup := func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
		os.Remove(dbPath)
	}

	return repo, db, cleanup
}

func seedLoan(t *testing.T, db *gorm.DB, username, isbn string, dueInDays int, returned bool) *entities.Loan {
	user := &entities.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "not-a-real-hash",
		Role:         entities.UserRoleUser,
	}
	require.NoError(t, db.Create(user).Error)

	book := &entities.Book{Title: "Book " + isbn, Author: "Author", ISBN: isbn, Quantity: 1}
	require.NoError(t, db.Create(book).Error)

	now := time.Now().UTC().Truncate(24 * time.Hour)
	loan := &entities.Loan{
		BookID:     book.ID,
		UserID:     user.ID,
		BorrowDate: now,
		DueDate:    now.AddDate(0, 0, dueInDays),
	}
	if returned {
		returnDate := now
		loan.ReturnDate = &returnDate
	}
	require.NoError(t, db.Create(loan).Error)
	return loan
}

func TestRepository_GetLoanByID_PreloadsRelations(t *testing.T) {
	repo, db, cleanup := setupTestDB(t)
	defer cleanup()

	seeded := seedLoan(t, db, "reader", "1111111111", 14, false)

	loan, err := repo.GetLoanByID(seeded.ID)

	require.NoError(t, err)
	assert.Equal(t, "reader", loan.User.Username)
	assert.Equal(t, "Book 1111111111", loan.Book.Title)
	assert.True(t, loan.Outstanding())
}

func TestRepository_GetLoanByID_NotFound(t *testing.T) {
	repo, _, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := repo.GetLoanByID(999)

	assert.ErrorIs(t, err, database.ErrNotFound)
}

func TestRepository_ListOutstanding_SkipsReturned(t *testing.T) {
	repo, db, cleanup := setupTestDB(t)
	defer cleanup()

	seedLoan(t, db, "open", "1111111111", 14, false)
	seedLoan(t, db, "closed", "2222222222", 14, true)

	loans, err := repo.ListOutstanding()

	require.NoError(t, err)
	require.Len(t, loans, 1)
	assert.Equal(t, "open", loans[0].User.Username)
}

func TestRepository_ListOutstanding_SoonestDueFirst(t *testing.T) {
	repo, db, cleanup := setupTestDB(t)
	defer cleanup()

	seedLoan(t, db, "later", "1111111111", 14, false)
	seedLoan(t, db, "sooner", "2222222222", 3, false)

	loans, err := repo.ListOutstanding()

	require.NoError(t, err)
	require.Len(t, loans, 2)
	assert.Equal(t, "sooner", loans[0].User.Username)
	assert.Equal(t, "later", loans[1].User.Username)
}

func TestRepository_ListOutstandingForUser(t *testing.T) {
	repo, db, cleanup := setupTestDB(t)
	defer cleanup()

	mine := seedLoan(t, db, "me", "1111111111", 14, false)
	seedLoan(t, db, "someone", "2222222222", 14, false)

	loans, err := repo.ListOutstandingForUser(mine.UserID)

	require.NoError(t, err)
	require.Len(t, loans, 1)
	assert.Equal(t, mine.ID, loans[0].ID)
	assert.Equal(t, "Book 1111111111", loans[0].Book.Title)
}

func TestRepository_CountOutstanding(t *testing.T) {
	repo, db, cleanup := setupTestDB(t)
	defer cleanup()

	seedLoan(t, db, "open", "1111111111", 14, false)
	seedLoan(t, db, "closed", "2222222222", 14, true)

	count, err := repo.CountOutstanding()

	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestRepository_CountOutstandingForBook(t *testing.T) {
	repo, db, cleanup := setupTestDB(t)
	defer cleanup()

	open := seedLoan(t, db, "open", "1111111111", 14, false)
	closed := seedLoan(t, db, "closed", "2222222222", 14, true)

	count, err := repo.CountOutstandingForBook(open.BookID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	count, err = repo.CountOutstandingForBook(closed.BookID)
	require.NoError(t, err)
	assert.Zero(t, count)
}
