// Command generate_demo creates a demo catalog database with public domain books.
// Usage: go run cmd/generate_demo/main.go [-db path/to/demo.db]
package main

import (
	"encoding/json"
	"flag"
	"os"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/mrlokans/librarian/internal/catalog"
	"github.com/mrlokans/librarian/internal/config"
	"github.com/mrlokans/librarian/internal/entrypoint"
	"github.com/mrlokans/librarian/internal/logging"
)

const defaultDemoDatabasePath = "./demo/demo.db"

const demoTaxonomy = `
genres:
  - name: Fiction
    keywords: [novel, prose]
    children:
      - name: Gothic
        keywords: [horror, romance]
      - name: Adventure
        equivalent: FIC002000
      - name: Detective
        keywords: [mystery, crime]
  - name: Philosophy
    children:
      - name: Stoicism
`

type demoBook struct {
	Title       string
	Authors     [][2]string
	Description string
	Series      string
	Edits       map[catalog.EditKind]any
}

func main() {
	dbPath := flag.String("db", defaultDemoDatabasePath, "path to the demo database file")
	flag.Parse()

	logging.Init("info", "console")
	log.Info().Str("path", *dbPath).Msg("Generating demo database")

	// Delete existing demo database to start fresh
	if err := os.Remove(*dbPath); err != nil && !os.IsNotExist(err) {
		log.Fatal().Err(err).Msg("Failed to remove existing demo database")
	}

	cfg := config.NewConfig()
	cfg.Database.Driver = "sqlite"
	cfg.Database.Path = *dbPath

	cat, err := entrypoint.OpenCatalog(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create database")
	}
	defer cat.Close()

	if _, err := cat.Genres.ImportTaxonomyFrom(strings.NewReader(demoTaxonomy)); err != nil {
		log.Fatal().Err(err).Msg("Failed to import demo taxonomy")
	}

	authorIDs := map[[2]string]uint{}
	seriesIDs := map[string]uint{}

	for _, b := range demoBooks() {
		var ids []uint
		for _, name := range b.Authors {
			id, ok := authorIDs[name]
			if !ok {
				author, err := cat.Authors.AddAuthor(name[0], name[1], "")
				if err != nil {
					log.Fatal().Err(err).Str("author", name[0]+" "+name[1]).Msg("Failed to add author")
				}
				id = author.ID
				authorIDs[name] = id
			}
			ids = append(ids, id)
		}

		bookID, err := cat.Books.AddBook(ids, b.Description, catalog.UnknownEdition, b.Title)
		if err != nil {
			log.Error().Err(err).Str("title", b.Title).Msg("Failed to add book")
			continue
		}

		if b.Series != "" {
			seriesID, ok := seriesIDs[b.Series]
			if !ok {
				s, err := cat.Series.AddSeries(b.Series, ids)
				if err != nil {
					log.Fatal().Err(err).Str("series", b.Series).Msg("Failed to add series")
				}
				seriesID = s.ID
				seriesIDs[b.Series] = seriesID
			}
			b.Edits[catalog.EditSetSeriesID] = seriesID
		}

		for kind, value := range b.Edits {
			raw, err := json.Marshal(value)
			if err != nil {
				log.Fatal().Err(err).Msg("Failed to encode edit")
			}
			if _, err := cat.Editor.Apply(bookID, string(kind), raw); err != nil {
				log.Error().Err(err).Str("title", b.Title).Str("kind", string(kind)).Msg("Failed to apply edit")
			}
		}

		log.Info().Str("title", b.Title).Uint("id", bookID).Msg("Saved")
	}

	log.Info().Msg("Demo database generated successfully!")
}

func demoBooks() []demoBook {
	return []demoBook{
		{
			Title:       "Meditations",
			Authors:     [][2]string{{"Marcus", "Aurelius"}},
			Description: "Private notes on Stoic philosophy written by a Roman emperor.",
			Edits: map[catalog.EditKind]any{
				catalog.EditSetGenres:      []string{"Philosophy", "Stoicism"},
				catalog.EditSetEdition:     1,
				catalog.EditSetAvgRating:   8.9,
				catalog.EditSetRatingCount: 1204,
			},
		},
		{
			Title:       "Letters from a Stoic",
			Authors:     [][2]string{{"Lucius Annaeus", "Seneca"}},
			Description: "A selection of the moral letters to Lucilius.",
			Edits: map[catalog.EditKind]any{
				catalog.EditSetGenres: []string{"Stoicism"},
			},
		},
		{
			Title:       "A Study in Scarlet",
			Authors:     [][2]string{{"Arthur", "Conan Doyle"}},
			Description: "The first appearance of Sherlock Holmes.",
			Series:      "Sherlock Holmes",
			Edits: map[catalog.EditKind]any{
				catalog.EditSetGenres:        []string{"Detective"},
				catalog.EditSetPublisher:     "Ward Lock & Co",
				catalog.EditSetPublishDate:   "1887-11-01",
				catalog.EditSetIndexInSeries: 1,
				catalog.EditSetIdentifiers:   []catalog.Identifier{{Scheme: "gutenberg", Value: "244"}},
			},
		},
		{
			Title:       "The Sign of the Four",
			Authors:     [][2]string{{"Arthur", "Conan Doyle"}},
			Description: "Holmes and Watson investigate the Agra treasure.",
			Series:      "Sherlock Holmes",
			Edits: map[catalog.EditKind]any{
				catalog.EditSetGenres:        []string{"Detective"},
				catalog.EditSetIndexInSeries: 2,
				catalog.EditSetIdentifiers:   []catalog.Identifier{{Scheme: "gutenberg", Value: "2097"}},
			},
		},
		{
			Title:       "Frankenstein",
			Authors:     [][2]string{{"Mary", "Shelley"}},
			Description: "A scientist creates life and is undone by it.",
			Edits: map[catalog.EditKind]any{
				catalog.EditSetGenres:      []string{"Gothic"},
				catalog.EditSetIdentifiers: []catalog.Identifier{{Scheme: "gutenberg", Value: "84"}},
			},
		},
		{
			Title:       "The Strange Case of Dr Jekyll and Mr Hyde",
			Authors:     [][2]string{{"Robert Louis", "Stevenson"}},
			Description: "A London lawyer investigates his friend's double life.",
			Edits: map[catalog.EditKind]any{
				catalog.EditSetGenres: []string{"Gothic", "Fiction"},
			},
		},
		{
			Title:       "Treasure Island",
			Authors:     [][2]string{{"Robert Louis", "Stevenson"}},
			Description: "Pirates, a map and buried gold.",
			Edits: map[catalog.EditKind]any{
				catalog.EditSetGenres:    []string{"Adventure"},
				catalog.EditSetPublisher: "Cassell and Company",
			},
		},
		{
			Title:       "The Wrong Box",
			Authors:     [][2]string{{"Robert Louis", "Stevenson"}, {"Lloyd", "Osbourne"}},
			Description: "A comic novel about a tontine.",
			Edits: map[catalog.EditKind]any{
				catalog.EditSetGenres: []string{"Fiction"},
			},
		},
	}
}
