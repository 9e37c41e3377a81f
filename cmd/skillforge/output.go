package main

import (
	"encoding/json"
	"io"
	"os"

	"github.com/jingkaihe/skillforge/pkg/presenter"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Output formats accepted by --output
const (
	OutputTable = "table"
	OutputJSON  = "json"
	OutputYAML  = "yaml"
)

// table is the tabular rendering of a listing
type table struct {
	headers []string
	rows    [][]string
}

// writeOutput renders v as JSON or YAML to w, or t through the presenter
func writeOutput(w io.Writer, p presenter.Presenter, format string, v any, t table) error {
	switch format {
	case OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case OutputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	case OutputTable, "":
		p.Table(t.headers, t.rows)
		return nil
	default:
		return errors.Errorf("unknown output format %q, expected table, json or yaml", format)
	}
}

// exitOnError reports err and terminates the process
func exitOnError(err error, context string) {
	if err == nil {
		return
	}
	presenter.Error(err, context)
	os.Exit(1)
}
