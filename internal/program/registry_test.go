package program

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/suite"

	"plaingov/pkg/platform/sentinel"
)

type RegistrySuite struct {
	suite.Suite
	registry *Registry
}

func TestRegistrySuite(t *testing.T) {
	suite.Run(t, new(RegistrySuite))
}

func (s *RegistrySuite) SetupTest() {
	var err error
	s.registry, err = Default()
	s.Require().NoError(err)
}

func (s *RegistrySuite) TestDefaultCatalog() {
	s.Equal([]string{
		"alberta_family_employment_tax_credit",
		"ccb",
		"gst_credit",
		"gst_registration",
		"payroll_deductions",
	}, s.registry.IDs())

	d, err := s.registry.Lookup("alberta_family_employment_tax_credit")
	s.Require().NoError(err)
	s.Equal("Alberta", d.Jurisdiction)
	s.Equal(CategoryTaxes, d.Category)
	s.Equal("https://www.alberta.ca/alberta-family-employment-tax-credit.aspx", d.URL)
}

func (s *RegistrySuite) TestLookup() {
	s.Run("unknown id is not found", func() {
		_, err := s.registry.Lookup("oas_pension")
		s.True(errors.Is(err, sentinel.ErrNotFound))
	})

	s.Run("empty id is not found", func() {
		_, err := s.registry.Lookup("")
		s.True(errors.Is(err, sentinel.ErrNotFound))
	})
}

func (s *RegistrySuite) TestIDsIsACopy() {
	ids := s.registry.IDs()
	ids[0] = "mutated"
	s.NotEqual("mutated", s.registry.IDs()[0])
}

func (s *RegistrySuite) TestAllFollowsIDOrder() {
	all := s.registry.All()
	s.Require().Len(all, 5)
	for i, id := range s.registry.IDs() {
		s.Equal(id, all[i].ID)
	}
}

func (s *RegistrySuite) TestNewRejectsInvalidCatalogs() {
	valid := Descriptor{ID: "a", Name: "A", URL: "https://example.gc.ca/a", Jurisdiction: "Canada", Category: CategoryTaxes}

	tests := []struct {
		name    string
		descs   []Descriptor
		wantErr string
	}{
		{"empty catalog", nil, "empty"},
		{"duplicate id", []Descriptor{valid, valid}, "registered twice"},
		{"missing name", []Descriptor{{ID: "a", URL: valid.URL, Jurisdiction: "Canada", Category: CategoryTaxes}}, "name is required"},
		{"unknown category", []Descriptor{{ID: "a", Name: "A", URL: valid.URL, Jurisdiction: "Canada", Category: "grants"}}, "unknown category"},
		{"relative url", []Descriptor{{ID: "a", Name: "A", URL: "/a", Jurisdiction: "Canada", Category: CategoryTaxes}}, "absolute"},
		{"ftp url", []Descriptor{{ID: "a", Name: "A", URL: "ftp://example.gc.ca/a", Jurisdiction: "Canada", Category: CategoryTaxes}}, "absolute"},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			_, err := New(tt.descs)
			s.Require().Error(err)
			s.Contains(err.Error(), tt.wantErr)
		})
	}
}

func (s *RegistrySuite) TestNewAcceptsHTTPAndHTTPS() {
	r, err := New([]Descriptor{
		{ID: "mirror", Name: "Mirror", URL: "http://127.0.0.1:8080/ccb", Jurisdiction: "Canada", Category: CategoryBenefits},
		{ID: "live", Name: "Live", URL: "https://www.canada.ca/ccb", Jurisdiction: "Canada", Category: CategoryBenefits},
	})
	s.Require().NoError(err)
	s.Equal([]string{"live", "mirror"}, r.IDs())
}

func (s *RegistrySuite) TestLoadRejectsMalformedYAML() {
	_, err := Load([]byte("programs: [:"))
	s.Error(err)
}
