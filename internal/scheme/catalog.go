// Package scheme scores evaluated claim metrics against rule thresholds and
// emits ranked funding-scheme recommendations.
package scheme

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Scheme ids referenced by the rule engine.
const (
	SchemeWaterInfra      = "water_infra"
	SchemeLandDevelopment = "land_development"
	SchemeAgroforestry    = "agroforestry"
	SchemeConvergence     = "convergence"
	SchemeDataGap         = "data_gap"
)

// Scheme is one entry of the recommendation catalog. Rank breaks priority
// ties: lower rank wins.
type Scheme struct {
	ID    string `yaml:"id"`
	Title string `yaml:"title"`
	Rank  int    `yaml:"rank"`
}

// Catalog is the ordered scheme list.
type Catalog struct {
	Schemes []Scheme `yaml:"schemes"`
}

// DefaultCatalog returns the built-in scheme catalog.
func DefaultCatalog() Catalog {
	return Catalog{Schemes: []Scheme{
		{ID: SchemeWaterInfra, Title: "Rural water infrastructure (Jal Jeevan Mission / MGNREGA water conservation)", Rank: 1},
		{ID: SchemeConvergence, Title: "District convergence (multi-department) - water/irrigation priority", Rank: 2},
		{ID: SchemeLandDevelopment, Title: "MGNREGA watershed / soil and moisture conservation", Rank: 3},
		{ID: SchemeAgroforestry, Title: "Agroforestry / allied livelihood support", Rank: 4},
		{ID: SchemeDataGap, Title: "Data gap note", Rank: 5},
	}}
}

// LoadCatalog reads a scheme catalog from a YAML file. An empty path returns
// the built-in catalog.
func LoadCatalog(path string) (Catalog, error) {
	if path == "" {
		return DefaultCatalog(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}, eris.Wrapf(err, "scheme: read catalog %s", path)
	}

	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Catalog{}, eris.Wrapf(err, "scheme: parse catalog %s", path)
	}
	if len(c.Schemes) == 0 {
		return Catalog{}, eris.Errorf("scheme: catalog %s is empty", path)
	}
	return c, nil
}

// rank returns the tie-break rank for a scheme id; unknown ids sort last.
func (c Catalog) rank(id string) int {
	for _, s := range c.Schemes {
		if s.ID == id {
			return s.Rank
		}
	}
	return len(c.Schemes) + 1
}

// Title returns the display title for a scheme id, or the id itself when
// the catalog does not carry it.
func (c Catalog) Title(id string) string {
	for _, s := range c.Schemes {
		if s.ID == id {
			return s.Title
		}
	}
	return id
}
