package importer

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v2"
)

// defaultAbbreviations expands Brazilian state codes used in circuit sheets
var defaultAbbreviations = map[string]string{
	"AC": "ACRE",
	"AL": "ALAGOAS",
	"AP": "AMAPA",
	"AM": "AMAZONAS",
	"BA": "BAHIA",
	"CE": "CEARA",
	"DF": "DISTRITO FEDERAL",
	"ES": "ESPIRITO SANTO",
	"GO": "GOIAS",
	"MA": "MARANHAO",
	"MT": "MATO GROSSO",
	"MS": "MATO GROSSO DO SUL",
	"MG": "MINAS GERAIS",
	"PA": "PARA",
	"PB": "PARAIBA",
	"PR": "PARANA",
	"PE": "PERNAMBUCO",
	"PI": "PIAUI",
	"RJ": "RIO DE JANEIRO",
	"RN": "RIO GRANDE DO NORTE",
	"RS": "RIO GRANDE DO SUL",
	"RO": "RONDONIA",
	"RR": "RORAIMA",
	"SC": "SANTA CATARINA",
	"SP": "SAO PAULO",
	"SE": "SERGIPE",
	"TO": "TOCANTINS",
}

// Expander rewrites whole-word location abbreviations into display names
type Expander struct {
	abbreviations map[string]string
}

// NewExpander builds an expander from an abbreviation table. Keys are
// matched case-insensitively against whitespace-separated words.
func NewExpander(abbreviations map[string]string) *Expander {
	table := make(map[string]string, len(abbreviations))
	for k, v := range abbreviations {
		table[strings.ToUpper(strings.TrimSpace(k))] = strings.ToUpper(strings.TrimSpace(v))
	}
	return &Expander{abbreviations: table}
}

// DefaultExpander expands Brazilian state codes
func DefaultExpander() *Expander {
	return NewExpander(defaultAbbreviations)
}

type abbreviationFile struct {
	Abbreviations map[string]string `yaml:"abbreviations"`
}

// LoadExpander reads an abbreviation table from a YAML file of the form
//
//	abbreviations:
//	  SP: SAO PAULO
//
// Entries extend and override the default table.
func LoadExpander(path string) (*Expander, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read abbreviation file: %w", err)
	}

	var file abbreviationFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse abbreviation file %s: %w", path, err)
	}

	merged := make(map[string]string, len(defaultAbbreviations)+len(file.Abbreviations))
	for k, v := range defaultAbbreviations {
		merged[k] = v
	}
	for k, v := range file.Abbreviations {
		merged[k] = v
	}
	return NewExpander(merged), nil
}

// Expand returns name with every known abbreviation word replaced
func (e *Expander) Expand(name string) string {
	if e == nil || len(e.abbreviations) == 0 {
		return name
	}
	words := strings.Fields(name)
	changed := false
	for i, w := range words {
		if full, ok := e.abbreviations[strings.ToUpper(w)]; ok {
			words[i] = full
			changed = true
		}
	}
	if !changed {
		return name
	}
	return strings.Join(words, " ")
}
