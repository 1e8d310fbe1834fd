package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"
)

type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatText Format = "text"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "", FormatJSON:
		return FormatJSON, nil
	case FormatYAML, FormatText:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format %q (json|yaml|text)", s)
	}
}

// Row is implemented by values that have a one-line text rendering.
type Row interface {
	Header() []string
	Columns() []string
}

// Write renders v. Text output falls back to YAML for values that are not rows.
func Write(w io.Writer, format Format, v any) error {
	switch format {
	case FormatYAML:
		return writeYAML(w, v)
	case FormatText:
		switch rows := v.(type) {
		case Row:
			return writeTable(w, []Row{rows})
		case []Row:
			return writeTable(w, rows)
		}
		return writeYAML(w, v)
	default:
		b, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(b))
		return err
	}
}

// writeYAML goes through JSON first so json tags and custom marshalers decide the field names.
func writeYAML(w io.Writer, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var generic any
	if err := json.Unmarshal(b, &generic); err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(generic); err != nil {
		return err
	}
	return enc.Close()
}

func writeTable(w io.Writer, rows []Row) error {
	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, "no results")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(rows[0].Header(), "\t"))
	for _, r := range rows {
		fmt.Fprintln(tw, strings.Join(r.Columns(), "\t"))
	}
	return tw.Flush()
}
