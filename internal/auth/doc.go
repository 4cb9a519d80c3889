// Package auth provides local username/password authentication for the
// library manager: bcrypt password hashing, SQLite-backed sessions, CSRF
// protection, and the middlewares that gate admin-only screens.
package auth
