package cli

import (
	"flag"
	"fmt"
	"os"

	"github.com/mrlokans/librarian/internal/config"
	"github.com/mrlokans/librarian/internal/entrypoint"
)

// CreateUserCommand adds an account to the catalog database.
type CreateUserCommand struct {
	Username     string
	Password     string
	Admin        bool
	DatabasePath string
}

func NewCreateUserCommand() *CreateUserCommand {
	return &CreateUserCommand{}
}

func (cmd *CreateUserCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("create-user", flag.ContinueOnError)

	fs.StringVar(&cmd.Username, "username", "", "Account name (required)")
	fs.StringVar(&cmd.Password, "password", "", "Account password (required)")
	fs.BoolVar(&cmd.Admin, "admin", false, "Grant administrative rights")
	fs.StringVar(&cmd.DatabasePath, "db", "", "Path to the SQLite database (defaults to DATABASE_PATH)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s create-user [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Create an account that can authenticate against the API.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s create-user -username curator -password s3cret -admin\n", os.Args[0])
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if cmd.Username == "" || cmd.Password == "" {
		fs.Usage()
		return fmt.Errorf("username and password are required")
	}

	return nil
}

func (cmd *CreateUserCommand) Run() error {
	cat, err := entrypoint.OpenCatalog(commandConfig(cmd.DatabasePath))
	if err != nil {
		return err
	}
	defer cat.Close()

	user, err := cat.Auth.CreateUser(cmd.Username, cmd.Password, cmd.Admin)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	role := "reader"
	if user.IsAdmin {
		role = "admin"
	}
	fmt.Printf("Created %s account %q (id %d)\n", role, user.Username, user.ID)
	return nil
}

// commandConfig loads the environment configuration and applies a
// database path given on the command line.
func commandConfig(databasePath string) *config.Config {
	cfg := config.NewConfig()
	if databasePath != "" {
		cfg.Database.Path = databasePath
	}
	return cfg
}
