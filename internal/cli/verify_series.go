package cli

import (
	"flag"
	"fmt"
	"os"

	"github.com/mrlokans/librarian/internal/entrypoint"
)

// VerifySeriesCommand reports series whose book counter has drifted from
// the books that reference them. Nothing is repaired.
type VerifySeriesCommand struct {
	DatabasePath string
}

func NewVerifySeriesCommand() *VerifySeriesCommand {
	return &VerifySeriesCommand{}
}

func (cmd *VerifySeriesCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("verify-series", flag.ContinueOnError)

	fs.StringVar(&cmd.DatabasePath, "db", "", "Path to the SQLite database (defaults to DATABASE_PATH)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s verify-series [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Compare every series book counter with the books in the series.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	return fs.Parse(args)
}

func (cmd *VerifySeriesCommand) Run() error {
	cat, err := entrypoint.OpenCatalog(commandConfig(cmd.DatabasePath))
	if err != nil {
		return err
	}
	defer cat.Close()

	mismatches, err := cat.Series.CountMismatches()
	if err != nil {
		return fmt.Errorf("failed to verify series: %w", err)
	}

	if len(mismatches) == 0 {
		fmt.Println("All series counters match their books")
		return nil
	}

	fmt.Printf("%d series with a drifted counter:\n", len(mismatches))
	for _, m := range mismatches {
		fmt.Printf("  #%d %-40s counter=%d books=%d\n", m.SeriesID, m.Name, m.Counter, m.Books)
	}
	return fmt.Errorf("%d series counters disagree with their books", len(mismatches))
}
