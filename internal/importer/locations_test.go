package importer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contractpulse/pkg/contracts/domain"
)

func TestExpander_Expand(t *testing.T) {
	e := DefaultExpander()

	assert.Equal(t, "SAO PAULO", e.Expand("SP"))
	assert.Equal(t, "CAMPINAS SAO PAULO", e.Expand("CAMPINAS SP"))
	assert.Equal(t, "SPX", e.Expand("SPX"))
	assert.Equal(t, "RIO DE JANEIRO / SAO PAULO", e.Expand("RJ / SP"))

	var nilExpander *Expander
	assert.Equal(t, "SP", nilExpander.Expand("SP"))
}

func TestLoadExpander(t *testing.T) {
	path := filepath.Join(t.TempDir(), "locations.yaml")
	require.NoError(t, os.WriteFile(path, []byte("abbreviations:\n  CPS: campinas\n  SP: S. PAULO\n"), 0644))

	e, err := LoadExpander(path)
	require.NoError(t, err)

	assert.Equal(t, "CAMPINAS", e.Expand("cps"))
	assert.Equal(t, "S. PAULO", e.Expand("SP"))
	assert.Equal(t, "RIO DE JANEIRO", e.Expand("RJ"))
}

func TestLoadExpander_Errors(t *testing.T) {
	_, err := LoadExpander(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("abbreviations: [not, a, map]"), 0644))
	_, err = LoadExpander(path)
	assert.Error(t, err)
}

func TestSortZonesByName_LocaleAware(t *testing.T) {
	zones := []domain.OriginZone{{Name: "ÉVORA"}, {Name: "ZONA"}, {Name: "ARACAJU"}, {Name: "ESTRELA"}}
	SortZonesByName(zones)

	names := make([]string, len(zones))
	for i, z := range zones {
		names[i] = z.Name
	}
	assert.Equal(t, []string{"ARACAJU", "ESTRELA", "ÉVORA", "ZONA"}, names)
}

func TestZoneKey(t *testing.T) {
	tests := map[string]string{
		"SP":                             "SP",
		"PERNAMBUCO":                     "NORDESTE",
		"PERNAMBUCO / PARAIBA / ALAGOAS": "NORDESTE",
		"PERNAMBUCO FORA DO CIRCUITO":    "NORDESTE",
		"FORA DO CIRCUITO":               "FORA DO CIRCUITO",
		"SANTOS FORA DO CIRCUITO":        "SANTOS",
	}
	for in, want := range tests {
		assert.Equal(t, want, ZoneKey(in), in)
	}
}
