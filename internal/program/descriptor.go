package program

import (
	"fmt"
	"net/url"
	"strings"
)

// Category groups programs for display.
type Category string

const (
	CategoryTaxes    Category = "taxes"
	CategoryBenefits Category = "benefits"
	CategoryBusiness Category = "business"
)

// IsValid reports whether c is one of the known categories.
func (c Category) IsValid() bool {
	switch c {
	case CategoryTaxes, CategoryBenefits, CategoryBusiness:
		return true
	}
	return false
}

// Descriptor is one allow-listed program and its official source.
type Descriptor struct {
	ID           string   `yaml:"id"`
	Name         string   `yaml:"name"`
	URL          string   `yaml:"url"`
	Jurisdiction string   `yaml:"jurisdiction"`
	Category     Category `yaml:"category"`
}

// Validate checks the descriptor invariants.
func (d Descriptor) Validate() error {
	if strings.TrimSpace(d.ID) == "" {
		return fmt.Errorf("program id is required")
	}
	if strings.TrimSpace(d.Name) == "" {
		return fmt.Errorf("program %s: name is required", d.ID)
	}
	if strings.TrimSpace(d.Jurisdiction) == "" {
		return fmt.Errorf("program %s: jurisdiction is required", d.ID)
	}
	if !d.Category.IsValid() {
		return fmt.Errorf("program %s: unknown category %q", d.ID, d.Category)
	}
	u, err := url.Parse(d.URL)
	if err != nil {
		return fmt.Errorf("program %s: invalid url: %w", d.ID, err)
	}
	if (u.Scheme != "https" && u.Scheme != "http") || u.Host == "" {
		return fmt.Errorf("program %s: url must be an absolute http(s) url", d.ID)
	}
	return nil
}
