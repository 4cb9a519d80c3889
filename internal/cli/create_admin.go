// Package cli implements the command line subcommands.
package cli

import (
	"flag"
	"fmt"
	"os"

	"github.com/mrlokans/library-manager/internal/auth"
	"github.com/mrlokans/library-manager/internal/config"
	"github.com/mrlokans/library-manager/internal/database"
	"github.com/mrlokans/library-manager/internal/entities"
)

// CreateAdminCommand creates an administrator account from the command
// line, bypassing the web setup flow.
type CreateAdminCommand struct {
	Username     string
	Email        string
	Password     string
	DatabasePath string
}

// NewCreateAdminCommand creates a new CreateAdminCommand
func NewCreateAdminCommand() *CreateAdminCommand {
	return &CreateAdminCommand{}
}

// ParseFlags parses command line flags
func (cmd *CreateAdminCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("create-admin", flag.ExitOnError)

	fs.StringVar(&cmd.Username, "username", "", "Username for the new administrator")
	fs.StringVar(&cmd.Email, "email", "", "Email for the new administrator")
	fs.StringVar(&cmd.Password, "password", "", "Password for the new administrator")
	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the database file")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s create-admin [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Create an administrator account without going through /setup.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s create-admin -username admin -email admin@example.com -password secret123\n", os.Args[0])
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if cmd.Username == "" || cmd.Email == "" || cmd.Password == "" {
		fs.Usage()
		return fmt.Errorf("username, email and password are all required")
	}

	return nil
}

// Run executes the create-admin command
func (cmd *CreateAdminCommand) Run() error {
	cfg := config.NewConfig()
	cfg.Database.Path = cmd.DatabasePath

	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	authService := auth.NewService(db.DB, cfg.Auth)

	user, err := authService.CreateUser(cmd.Username, cmd.Email, cmd.Password, entities.UserRoleAdmin)
	if err != nil {
		return fmt.Errorf("failed to create administrator: %w", err)
	}

	fmt.Printf("Administrator %q (id %d) created\n", user.Username, user.ID)
	return nil
}
