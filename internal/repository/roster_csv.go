package repository

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"FinCast/internal/domain/models"
	domrepo "FinCast/internal/domain/repository"
)

const (
	rosterNameColumn   = "Company Name"
	rosterSymbolColumn = "Symbol"
)

// CSVRoster is the company roster loaded once from a CSV file.
type CSVRoster struct {
	companies []models.Company
	byID      map[int]models.Company
}

var _ domrepo.Roster = (*CSVRoster)(nil)

// LoadCSVRoster reads path. Company ids are assigned from row order, starting at 1.
func LoadCSVRoster(path string) (*CSVRoster, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open roster: %w", err)
	}
	defer f.Close()
	return ParseCSVRoster(f)
}

func ParseCSVRoster(r io.Reader) (*CSVRoster, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read roster header: %w", err)
	}
	nameIdx, symIdx := -1, -1
	for i, h := range header {
		switch strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")) {
		case rosterNameColumn:
			nameIdx = i
		case rosterSymbolColumn:
			symIdx = i
		}
	}
	if nameIdx < 0 || symIdx < 0 {
		return nil, fmt.Errorf("roster header must contain %q and %q", rosterNameColumn, rosterSymbolColumn)
	}

	roster := &CSVRoster{byID: make(map[int]models.Company)}
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read roster: %w", err)
		}
		c := models.Company{
			ID:     len(roster.companies) + 1,
			Name:   strings.TrimSpace(rec[nameIdx]),
			Symbol: strings.TrimSpace(rec[symIdx]),
		}
		if c.Symbol == "" {
			return nil, fmt.Errorf("roster row %d: empty symbol", c.ID)
		}
		roster.companies = append(roster.companies, c)
		roster.byID[c.ID] = c
	}
	return roster, nil
}

func (r *CSVRoster) All() []models.Company {
	out := make([]models.Company, len(r.companies))
	copy(out, r.companies)
	return out
}

func (r *CSVRoster) ByID(id int) (models.Company, bool) {
	c, ok := r.byID[id]
	return c, ok
}

func (r *CSVRoster) Len() int { return len(r.companies) }
