package cmd

import (
	"bytes"
	"fmt"
	"io"
	"reflect"
	"strings"
	"text/template"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"
	jsoniter "github.com/json-iterator/go"
	"gopkg.in/yaml.v2"
)

const (
	outputTable = "table"
	outputJSON  = "json"
	outputYAML  = "yaml"
)

// Formatter renders the result of a command
type Formatter interface {
	Format(io.Writer, interface{}) error
}

// FormatterFunc adapts a function to a Formatter
type FormatterFunc func(io.Writer, interface{}) error

// Format the data
func (f FormatterFunc) Format(w io.Writer, data interface{}) error {
	return f(w, data)
}

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var structuredFormatters = map[string]Formatter{
	outputJSON: FormatterFunc(func(w io.Writer, data interface{}) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(data)
	}),
	outputYAML: FormatterFunc(func(w io.Writer, data interface{}) error {
		buf, err := yaml.Marshal(data)
		if err != nil {
			return err
		}
		_, err = w.Write(buf)
		return err
	}),
}

// userTemplate parses the template given with --format, if any
func userTemplate(opts flagsT) (*template.Template, error) {
	if opts.core.Template == "" {
		return nil, nil
	}
	return template.New("user").Parse(opts.core.Template)
}

// render prints data in the requested output format.
//
// A user template is applied to each element of a slice, one line per element.
// Otherwise the human formatter of the command renders the table output.
func render(data interface{}, human Formatter) error {
	w := infoLogger.Writer()
	t, err := userTemplate(refstoreFlags)
	if err != nil {
		return fmt.Errorf("invalid template: %w", err)
	}
	if t != nil {
		return applyTemplate(w, t, data)
	}

	if refstoreFlags.core.Output == outputTable || refstoreFlags.core.Output == "" {
		return human.Format(w, data)
	}
	f, ok := structuredFormatters[refstoreFlags.core.Output]
	if !ok {
		return fmt.Errorf("unsupported output format %q", refstoreFlags.core.Output)
	}
	return f.Format(w, data)
}

func applyTemplate(w io.Writer, t *template.Template, data interface{}) error {
	v := reflect.ValueOf(data)
	if v.Kind() != reflect.Slice {
		return executeLine(w, t, data)
	}
	for i := 0; i < v.Len(); i++ {
		if err := executeLine(w, t, v.Index(i).Interface()); err != nil {
			return err
		}
	}
	return nil
}

func executeLine(w io.Writer, t *template.Template, data interface{}) error {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return fmt.Errorf("executing template: %w", err)
	}
	_, err := fmt.Fprintln(w, buf.String())
	return err
}

func newTable(headers ...interface{}) *uitable.Table {
	table := uitable.New()
	table.MaxColWidth = 60
	table.Wrap = true
	table.AddRow(headers...)
	return table
}

func printTable(w io.Writer, table *uitable.Table) error {
	_, err := fmt.Fprintln(w, table.String())
	return err
}

// details prints aligned "key: value" lines, skipping empty values
func details(w io.Writer, rows [][2]string) error {
	table := uitable.New()
	table.Separator = "  "
	for _, row := range rows {
		if row[1] == "" {
			continue
		}
		table.AddRow(color.HiBlackString(row[0]+":"), row[1])
	}
	return printTable(w, table)
}

func joinTags(tags []string) string {
	if len(tags) == 0 {
		return ""
	}
	return "[" + strings.Join(tags, ", ") + "]"
}
