package provider_test

import (
	"strings"
	"testing"

	"github.com/goliatone/go-provider-api/problem"
	"github.com/goliatone/go-provider-api/provider"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validProvider() provider.Provider {
	return provider.Provider{
		Name:     "Acme Supplies",
		Document: "12345678901",
		Active:   true,
		Address:  "Rua das Flores, 10",
	}
}

func TestProviderValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *provider.Provider)
		fields []string
	}{
		{"valid", func(p *provider.Provider) {}, nil},
		{"valid cnpj", func(p *provider.Provider) { p.Document = "12345678000190" }, nil},
		{"empty address", func(p *provider.Provider) { p.Address = "" }, nil},
		{"missing name", func(p *provider.Provider) { p.Name = "" }, []string{"name"}},
		{"short name", func(p *provider.Provider) { p.Name = "A" }, []string{"name"}},
		{"long name", func(p *provider.Provider) { p.Name = strings.Repeat("a", 201) }, []string{"name"}},
		{"missing document", func(p *provider.Provider) { p.Document = "" }, []string{"document"}},
		{"short document", func(p *provider.Provider) { p.Document = "1234567890" }, []string{"document"}},
		{"long document", func(p *provider.Provider) { p.Document = "123456789012345" }, []string{"document"}},
		{"punctuated document", func(p *provider.Provider) { p.Document = "123.456.789-01" }, []string{"document"}},
		{"long address", func(p *provider.Provider) { p.Address = strings.Repeat("a", 301) }, []string{"address"}},
		{"everything", func(p *provider.Provider) {
			p.Name = ""
			p.Document = "x"
			p.Address = strings.Repeat("a", 301)
		}, []string{"address", "document", "name"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validProvider()
			tt.mutate(&p)

			err := p.Validate()
			if tt.fields == nil {
				assert.NoError(t, err)
				return
			}

			report, ok := problem.FromError(err)
			require.True(t, ok, "expected a validation error, got %v", err)
			assert.Equal(t, tt.fields, report.Fields())
		})
	}
}
