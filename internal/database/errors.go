package database

import (
	"errors"

	sqlite3 "github.com/mattn/go-sqlite3"
	"gorm.io/gorm"
)

// The storage layer exposes engine failures as a small closed set of error
// kinds. Domain and HTTP code match on these sentinels and never inspect
// driver-specific codes.
var (
	ErrNotFound            = errors.New("record not found")
	ErrDuplicate           = errors.New("a record with that unique value already exists")
	ErrReferentialConflict = errors.New("record is referenced by other records")
	ErrTransactionFailed   = errors.New("transaction failed")
)

// TranslateError maps gorm and sqlite driver errors onto the sentinel set.
// Unknown errors pass through unchanged so the caller can still log the
// underlying cause.
func TranslateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.ExtendedCode {
		case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
			return ErrDuplicate
		case sqlite3.ErrConstraintForeignKey, sqlite3.ErrConstraintTrigger:
			return ErrReferentialConflict
		}
		if sqliteErr.Code == sqlite3.ErrConstraint {
			return ErrReferentialConflict
		}
	}

	return err
}
