// Package sheet reads and writes plant input tables as YAML documents and
// Excel workbooks, and exports reforecast results to workbooks.
package sheet

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/theirongolddev/rfcst/internal/model"

	"gopkg.in/yaml.v3"
)

// document is the on-disk YAML shape. The month is a label, not an index.
type document struct {
	Plant   string               `yaml:"plant"`
	Month   string               `yaml:"month"`
	Formats []model.FormatInputs `yaml:"formats"`
}

// ReadYAML decodes a plant inputs document.
func ReadYAML(r io.Reader) (model.PlantInputs, error) {
	var doc document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return model.PlantInputs{}, fmt.Errorf("decoding yaml: %w", err)
	}

	in := model.PlantInputs{
		PlantID:         strings.ToUpper(strings.TrimSpace(doc.Plant)),
		ReforecastMonth: model.DefaultReforecastMonth,
		Formats:         doc.Formats,
	}
	if doc.Month != "" {
		m, err := model.MonthIndex(doc.Month)
		if err != nil {
			return in, err
		}
		in.ReforecastMonth = m
	}
	return in, nil
}

// WriteYAML encodes plant inputs as a YAML document.
func WriteYAML(w io.Writer, in model.PlantInputs) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(document{
		Plant:   in.PlantID,
		Month:   in.MonthLabel(),
		Formats: in.Formats,
	}); err != nil {
		return fmt.Errorf("encoding yaml: %w", err)
	}
	return enc.Close()
}

// Kind is a supported file format.
type Kind int

const (
	KindYAML Kind = iota
	KindWorkbook
)

// KindOf picks the file format from a path's extension.
func KindOf(path string) (Kind, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return KindYAML, nil
	case ".xlsx":
		return KindWorkbook, nil
	default:
		return 0, fmt.Errorf("unsupported file type %q (want .yaml, .yml or .xlsx)", filepath.Ext(path))
	}
}

// ReadFile loads plant inputs from a YAML or workbook file.
func ReadFile(path string) (model.PlantInputs, error) {
	kind, err := KindOf(path)
	if err != nil {
		return model.PlantInputs{}, err
	}
	f, err := os.Open(path)
	if err != nil {
		return model.PlantInputs{}, err
	}
	defer f.Close()

	if kind == KindWorkbook {
		return ReadWorkbook(f)
	}
	return ReadYAML(f)
}

// WriteFile saves plant inputs to a YAML or workbook file.
func WriteFile(path string, plant model.Plant, in model.PlantInputs) error {
	kind, err := KindOf(path)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	if kind == KindWorkbook {
		err = WriteWorkbook(f, plant, in)
	} else {
		err = WriteYAML(f, in)
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return err
}
