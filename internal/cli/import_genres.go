package cli

import (
	"flag"
	"fmt"
	"os"

	"github.com/mrlokans/librarian/internal/audit"
	"github.com/mrlokans/librarian/internal/entities"
	"github.com/mrlokans/librarian/internal/entrypoint"
)

// ImportGenresCommand loads a YAML genre taxonomy into the catalog.
type ImportGenresCommand struct {
	File         string
	DatabasePath string
}

func NewImportGenresCommand() *ImportGenresCommand {
	return &ImportGenresCommand{}
}

func (cmd *ImportGenresCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("import-genres", flag.ContinueOnError)

	fs.StringVar(&cmd.File, "file", "", "Path to the YAML taxonomy (required)")
	fs.StringVar(&cmd.DatabasePath, "db", "", "Path to the SQLite database (defaults to DATABASE_PATH)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s import-genres [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Import a genre taxonomy. Genres that already exist are skipped.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s import-genres -file ./genres.yaml\n", os.Args[0])
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if cmd.File == "" {
		fs.Usage()
		return fmt.Errorf("file is required")
	}

	return nil
}

func (cmd *ImportGenresCommand) Run() error {
	cat, err := entrypoint.OpenCatalog(commandConfig(cmd.DatabasePath))
	if err != nil {
		return err
	}
	defer cat.Close()

	result, err := cat.Genres.ImportTaxonomy(cmd.File)
	cat.Audit.Record(audit.Entry{
		UserID:      entities.AdminAccountID,
		EventType:   entities.AuditEventGenre,
		Action:      "genre_import",
		Description: fmt.Sprintf("Imported taxonomy from %s", cmd.File),
		EntityType:  "genre",
		Metadata:    map[string]any{"added": result.Added, "skipped": result.Skipped, "source": "cli"},
		Err:         err,
	})
	if err != nil {
		return fmt.Errorf("failed to import taxonomy: %w", err)
	}

	fmt.Printf("Imported %d genres (%d already present)\n", result.Added, result.Skipped)
	return nil
}
