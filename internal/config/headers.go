package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kirillkom/court-docket/internal/core/ingest"
)

//go:embed headers.yaml
var defaultHeaders []byte

// LoadHeaderDictionary reads a YAML document of canonical name -> synonyms.
// An empty path selects the built-in dictionary.
func LoadHeaderDictionary(path string) (*ingest.Dictionary, error) {
	raw := defaultHeaders
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read header dictionary: %w", err)
		}
		raw = data
	}
	return ParseHeaderDictionary(raw)
}

func ParseHeaderDictionary(raw []byte) (*ingest.Dictionary, error) {
	var synonyms map[string][]string
	if err := yaml.Unmarshal(raw, &synonyms); err != nil {
		return nil, fmt.Errorf("decode header dictionary: %w", err)
	}
	if len(synonyms) == 0 {
		return nil, fmt.Errorf("header dictionary is empty")
	}
	dict, err := ingest.NewDictionary(synonyms)
	if err != nil {
		return nil, fmt.Errorf("build header dictionary: %w", err)
	}
	return dict, nil
}
