package config

const (
	// DefaultDatabasePath is the default path for the application database
	DefaultDatabasePath = "./library-manager.db"

	// DefaultLoanPeriodDays is how long a borrowed book may be kept
	DefaultLoanPeriodDays = 14
)
