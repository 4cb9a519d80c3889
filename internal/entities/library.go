package entities

import "time"

type UserRole string

const (
	UserRoleUser  UserRole = "user"
	UserRoleAdmin UserRole = "admin"
)

type User struct {
	ID           uint     `gorm:"primaryKey" json:"id"`
	Username     string   `gorm:"uniqueIndex;size:100" json:"username"`
	Email        string   `gorm:"uniqueIndex;size:255" json:"email"`
	PasswordHash string   `gorm:"size:100" json:"-"`
	Role         UserRole `gorm:"size:20;default:'user'" json:"role"`

	LastLoginAt      *time.Time `json:"last_login_at,omitempty"`
	FailedLoginCount int        `gorm:"default:0" json:"-"`
	LockedUntil      *time.Time `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Book is one title in the catalog. Quantity counts the copies currently on
// the shelf, not the total the library owns; the loan manager decrements it
// on checkout and increments it on return.
type Book struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Title    string `gorm:"index;size:512" json:"title"`
	Author   string `gorm:"index;size:256" json:"author"`
	ISBN     string `gorm:"uniqueIndex;size:20" json:"isbn"`
	Quantity int    `gorm:"not null;default:0" json:"quantity"`

	Loans []Loan `gorm:"foreignKey:BookID" json:"loans,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Loan records one copy of a book lent to one user. It is outstanding while
// ReturnDate is null and closes exactly once when the copy comes back.
// Loan rows are only ever written by the loans service and are never deleted.
type Loan struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	BookID     uint       `gorm:"index;not null" json:"book_id"`
	UserID     uint       `gorm:"index;not null" json:"user_id"`
	BorrowDate time.Time  `json:"borrow_date"`
	DueDate    time.Time  `gorm:"index" json:"due_date"`
	ReturnDate *time.Time `gorm:"index" json:"return_date,omitempty"`

	Book Book `gorm:"foreignKey:BookID;constraint:OnDelete:RESTRICT" json:"-"`
	User User `gorm:"foreignKey:UserID;constraint:OnDelete:RESTRICT" json:"-"`

	CreatedAt time.Time `json:"created_at"`
}

func (User) TableName() string {
	return "users"
}

func (Book) TableName() string {
	return "books"
}

func (Loan) TableName() string {
	return "borrowings"
}

// IsAdmin reports whether the user holds the admin capability.
func (u User) IsAdmin() bool {
	return u.Role == UserRoleAdmin
}

// Outstanding reports whether the loan has not been returned yet.
func (l Loan) Outstanding() bool {
	return l.ReturnDate == nil
}

// DaysUntilDue returns the whole-day difference between the due date and
// now. Negative values mean the loan is overdue.
func (l Loan) DaysUntilDue(now time.Time) int {
	dueY, dueM, dueD := l.DueDate.Date()
	nowY, nowM, nowD := now.Date()
	due := time.Date(dueY, dueM, dueD, 0, 0, 0, 0, time.UTC)
	cur := time.Date(nowY, nowM, nowD, 0, 0, 0, 0, time.UTC)
	return int(due.Sub(cur).Hours() / 24)
}
