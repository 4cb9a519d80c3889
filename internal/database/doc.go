// Package database owns the SQLite schema and the repositories built on it.
//
// The sub-packages (books, users, loans) hold one repository per domain
// table; this package provides the connection bootstrap plus the error
// translation boundary that maps engine failures onto a closed sentinel set.
package database
