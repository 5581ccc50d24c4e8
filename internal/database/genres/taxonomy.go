package genres

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/mrlokans/librarian/internal/catalog"
	"github.com/mrlokans/librarian/internal/entities"
)

// Taxonomy is the YAML document accepted by ImportTaxonomy:
//
//	genres:
//	  - name: Fiction
//	    keywords: [novel]
//	    children:
//	      - name: Fantasy
//	        equivalent: FIC009000
type Taxonomy struct {
	Genres []TaxonomyNode `yaml:"genres"`
}

type TaxonomyNode struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Keywords    []string       `yaml:"keywords"`
	Equivalent  string         `yaml:"equivalent"`
	Children    []TaxonomyNode `yaml:"children"`
}

// ImportResult summarizes an import.
type ImportResult struct {
	Added   int
	Skipped int
}

// ImportTaxonomy reads a taxonomy file and adds its genres.
func (r *Repository) ImportTaxonomy(path string) (ImportResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return ImportResult{}, fmt.Errorf("failed to open taxonomy: %w", err)
	}
	defer f.Close()
	return r.ImportTaxonomyFrom(f)
}

// ImportTaxonomyFrom adds every genre of the taxonomy, parents before
// children. Genres that already exist are skipped and keep their stored
// fields.
func (r *Repository) ImportTaxonomyFrom(reader io.Reader) (ImportResult, error) {
	var taxonomy Taxonomy
	if err := yaml.NewDecoder(reader).Decode(&taxonomy); err != nil && !errors.Is(err, io.EOF) {
		return ImportResult{}, fmt.Errorf("%w: malformed taxonomy: %v", catalog.ErrValidation, err)
	}

	var result ImportResult
	for _, node := range taxonomy.Genres {
		if err := r.importNode(node, nil, &result); err != nil {
			return result, err
		}
	}

	log.Info().Int("added", result.Added).Int("skipped", result.Skipped).Msg("Genre taxonomy imported")
	return result, nil
}

func (r *Repository) importNode(node TaxonomyNode, parent *string, result *ImportResult) error {
	genre := entities.Genre{
		Name:               node.Name,
		Description:        node.Description,
		ParentName:         parent,
		Keywords:           node.Keywords,
		ExternalEquivalent: node.Equivalent,
	}

	created, err := r.AddGenre(genre)
	switch {
	case errors.Is(err, catalog.ErrDuplicate):
		result.Skipped++
	case err != nil:
		return fmt.Errorf("genre %q: %w", node.Name, err)
	default:
		result.Added++
	}

	name := catalog.CanonicalGenre(node.Name)
	if created != nil {
		name = created.Name
	}
	for _, child := range node.Children {
		if err := r.importNode(child, &name, result); err != nil {
			return err
		}
	}
	return nil
}
