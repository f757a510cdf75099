package options

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
	FormatICS   = "ics"
)

// OutputOptions
type OutputOptions struct {
	JSON   bool
	ICS    bool
	Format string
}

func AddOutputArg(cmd *cobra.Command, po *OutputOptions) {
	cmd.Flags().BoolVar(&po.JSON, "json", false,
		"Output as JSON.")
}

func AddICSArg(cmd *cobra.Command, po *OutputOptions) {
	cmd.Flags().BoolVar(&po.ICS, "ics", false,
		"Output as an iCalendar file.")
}

func AddFormatArg(cmd *cobra.Command, po *OutputOptions) {
	cmd.Flags().StringVarP(&po.Format, "output", "o", FormatTable,
		"Output format. One of 'table', 'yaml' or 'json'.")
}

// Resolved folds the boolean flags into one format.
func (o *OutputOptions) Resolved() (string, error) {
	switch {
	case o.JSON && o.ICS:
		return "", errors.New("--json and --ics are exclusive")
	case o.JSON:
		return FormatJSON, nil
	case o.ICS:
		return FormatICS, nil
	}
	switch o.Format {
	case "", FormatTable:
		return FormatTable, nil
	case FormatJSON, FormatYAML:
		return o.Format, nil
	}
	return "", errors.Errorf("unknown output format %q", o.Format)
}

// Encode writes v as JSON or YAML.
func Encode(w io.Writer, format string, v any) error {
	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
}

func (o *OutputOptions) HandleError(err error) error {
	if o.JSON && err != nil {
		out := map[string]string{
			"error": err.Error(),
		}
		b, err := json.Marshal(out)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintln(color.Output, string(b))
		return nil
	}
	return err
}
