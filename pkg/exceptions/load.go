package exceptions

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// File is the YAML layout of an exceptions file
type File struct {
	Rules []Rule `yaml:"rules"`
}

// Decode reads rules from YAML
func Decode(r io.Reader) ([]Rule, error) {
	var f File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to parse exception rules: %w", err)
	}
	return f.Rules, nil
}

// LoadFile reads rules from a YAML file
func LoadFile(path string) ([]Rule, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open exceptions file: %w", err)
	}
	defer fh.Close()

	rules, err := Decode(fh)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rules, nil
}

// Encode writes the rules of p as YAML
func (p *Policy) Encode(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(File{Rules: p.Rules()}); err != nil {
		return fmt.Errorf("failed to encode exception rules: %w", err)
	}
	return enc.Close()
}
