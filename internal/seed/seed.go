// Package seed loads reference data and stock levels from a YAML file.
package seed

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/erazemk/oprema/internal/db"
	"github.com/erazemk/oprema/internal/model"
	"github.com/erazemk/oprema/internal/store"
)

// File is the seed document.
//
//	marathons: [Spring 10k]
//	stations: [Water 1, Finish]
//	persons: [Ana]
//	equipment:
//	  - name: Cones
//	    quantity: 40
type File struct {
	Marathons []string    `yaml:"marathons"`
	Stations  []string    `yaml:"stations"`
	Persons   []string    `yaml:"persons"`
	Equipment []Equipment `yaml:"equipment"`
}

// Equipment is one seeded equipment type. A nil Quantity leaves the current
// stock untouched.
type Equipment struct {
	Name     string `yaml:"name"`
	Quantity *int   `yaml:"quantity"`
}

// Result counts the rows a seed run touched.
type Result struct {
	Marathons int
	Stations  int
	Persons   int
	Equipment int
}

// Load reads and parses a seed file.
func Load(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening seed file: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse decodes a seed document. Unknown keys are rejected.
func Parse(r io.Reader) (*File, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var file File
	if err := dec.Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return &file, nil
		}
		return nil, fmt.Errorf("parsing seed file: %w", err)
	}
	for i, e := range file.Equipment {
		if model.NormalizeName(e.Name) == "" {
			return nil, fmt.Errorf("equipment entry %d: %w", i+1, store.ErrNameRequired)
		}
		if e.Quantity != nil && *e.Quantity < 0 {
			return nil, fmt.Errorf("equipment %q: %w", e.Name, store.ErrInvalidQuantity)
		}
	}
	return &file, nil
}

// Apply writes the seed into the database in one transaction. Existing rows
// are matched by name the same way ledger submissions match them, so
// applying the same file twice changes nothing.
func Apply(ctx context.Context, conn *sql.DB, file *File) (*Result, error) {
	var res Result
	err := db.RunInTx(ctx, conn, func(tx db.DBTX) error {
		for _, name := range file.Marathons {
			if model.NormalizeName(name) == "" {
				continue
			}
			if _, err := store.CreateMarathon(ctx, tx, name); err != nil {
				return err
			}
			res.Marathons++
		}

		for _, name := range file.Stations {
			if model.NormalizeName(name) == "" {
				continue
			}
			if _, err := store.CreateStation(ctx, tx, name); err != nil {
				return err
			}
			res.Stations++
		}

		for _, name := range file.Persons {
			if model.NormalizeName(name) == "" {
				continue
			}
			if _, err := store.ResolvePerson(ctx, tx, name); err != nil {
				return err
			}
			res.Persons++
		}

		for _, e := range file.Equipment {
			eq, err := store.CreateEquipment(ctx, tx, e.Name)
			if err != nil {
				return err
			}
			if e.Quantity != nil {
				if err := store.SetAvailableQuantity(ctx, tx, eq.ID, *e.Quantity); err != nil {
					return err
				}
			}
			res.Equipment++
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("applying seed: %w", err)
	}
	return &res, nil
}
