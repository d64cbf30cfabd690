// Package output provides formatters for command output.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"reflect"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/mattn/go-isatty"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Format types for output.
type Format string

const (
	// FormatText is the plain tab-separated report.
	FormatText Format = "text"
	// FormatTable represents table output format.
	FormatTable Format = "table"
	// FormatJSON represents JSON output format.
	FormatJSON Format = "json"
	// FormatYAML represents YAML output format.
	FormatYAML Format = "yaml"
	// FormatAuto picks table on a terminal and text otherwise.
	FormatAuto Format = "auto"
)

// Formatter interface for all output types.
type Formatter interface {
	Format(w io.Writer, data any) error
}

// FormatterFunc allows functions to implement Formatter.
type FormatterFunc func(io.Writer, any) error

// Format implements the Formatter interface.
func (f FormatterFunc) Format(w io.Writer, data any) error {
	return f(w, data)
}

// NewFormatter creates appropriate formatter based on format.
func NewFormatter(format Format) Formatter {
	switch format {
	case FormatJSON:
		return &JSONFormatter{Indent: "  "}
	case FormatYAML:
		return &YAMLFormatter{}
	default:
		return &TableFormatter{}
	}
}

// JSONFormatter outputs JSON format.
type JSONFormatter struct {
	Indent string
}

// Format implements the Formatter interface for JSON output.
func (f *JSONFormatter) Format(w io.Writer, data any) error {
	encoder := json.NewEncoder(w)
	if f.Indent != "" {
		encoder.SetIndent("", f.Indent)
	}
	return encoder.Encode(data)
}

// YAMLFormatter outputs YAML format.
type YAMLFormatter struct{}

// Format outputs data in YAML format.
func (f *YAMLFormatter) Format(w io.Writer, data any) error {
	yamlData, err := yaml.MarshalWithOptions(data,
		yaml.Indent(2),
		yaml.IndentSequence(false),
	)
	if err != nil {
		return err
	}
	_, err = w.Write(yamlData)
	return err
}

// TableFormatter renders Data, or a struct or slice of structs, as a
// bordered table. Anything else is written as JSON.
type TableFormatter struct{}

// Format implements the Formatter interface for table output.
func (f *TableFormatter) Format(w io.Writer, data any) error {
	var table *Data
	switch v := data.(type) {
	case Data:
		table = &v
	case *Data:
		table = v
	default:
		table = reflectTable(reflect.ValueOf(data))
	}
	if table == nil {
		return NewFormatter(FormatJSON).Format(w, data)
	}
	return renderTable(w, *table)
}

var twAlignments = map[Align]tw.Align{
	AlignLeft:   tw.AlignLeft,
	AlignCenter: tw.AlignCenter,
	AlignRight:  tw.AlignRight,
}

func renderTable(w io.Writer, data Data) error {
	var config tablewriter.Config
	if len(data.ColumnAlignment) > 0 {
		perColumn := make([]tw.Align, len(data.ColumnAlignment))
		for i, align := range data.ColumnAlignment {
			if a, ok := twAlignments[align]; ok {
				perColumn[i] = a
			} else {
				perColumn[i] = tw.Skip
			}
		}
		config.Header.Alignment = tw.CellAlignment{PerColumn: perColumn}
		config.Row.Alignment = tw.CellAlignment{PerColumn: perColumn}
	}

	table := tablewriter.NewTable(w, tablewriter.WithConfig(config))
	if len(data.Headers) > 0 {
		table.Header(cells(data.Headers)...)
	}
	for _, row := range data.Rows {
		if err := table.Append(cells(row)...); err != nil {
			return err
		}
	}
	return table.Render()
}

func cells(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

// Align is the horizontal alignment of a table column.
type Align int

// Column alignments.
const (
	AlignDefault Align = iota
	AlignLeft
	AlignCenter
	AlignRight
)

// Data represents data formatted for table output.
type Data struct {
	Headers         []string
	Rows            [][]string
	ColumnAlignment []Align
}

// DetectFormat resolves "auto" and the empty format. An explicit format
// is returned as is.
func DetectFormat(explicitFormat string) Format {
	format := Format(strings.ToLower(strings.TrimSpace(explicitFormat)))
	if format != "" && format != FormatAuto {
		return format
	}
	if format == FormatAuto && (isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())) {
		return FormatTable
	}
	return FormatText
}

// ParseFormat converts string to Format with validation.
func ParseFormat(s string) (Format, error) {
	format := Format(strings.ToLower(strings.TrimSpace(s)))
	switch format {
	case FormatText, FormatTable, FormatJSON, FormatYAML, FormatAuto, "":
		return format, nil
	default:
		return "", fmt.Errorf("invalid format %q: must be one of: text, table, json, yaml, auto", s)
	}
}

// reflectTable lays out a slice of structs as one row per element, and a
// single struct as property/value pairs. Numeric columns are right aligned.
// It returns nil for any other shape.
func reflectTable(v reflect.Value) *Data {
	if v.Kind() == reflect.Pointer && !v.IsNil() {
		v = v.Elem()
	}

	switch {
	case v.Kind() == reflect.Struct:
		fields := exportedFields(v.Type())
		data := &Data{Headers: []string{"Property", "Value"}}
		for _, i := range fields {
			data.Rows = append(data.Rows, []string{
				columnName(v.Type().Field(i)),
				fmt.Sprint(v.Field(i).Interface()),
			})
		}
		return data

	case v.Kind() == reflect.Slice && v.Len() > 0 && v.Index(0).Kind() == reflect.Struct:
		elemType := v.Index(0).Type()
		fields := exportedFields(elemType)
		data := &Data{}
		for _, i := range fields {
			data.Headers = append(data.Headers, columnName(elemType.Field(i)))
			data.ColumnAlignment = append(data.ColumnAlignment, alignFor(elemType.Field(i).Type.Kind()))
		}
		for row := 0; row < v.Len(); row++ {
			elem := v.Index(row)
			values := make([]string, 0, len(fields))
			for _, i := range fields {
				values = append(values, fmt.Sprint(elem.Field(i).Interface()))
			}
			data.Rows = append(data.Rows, values)
		}
		return data
	}
	return nil
}

func exportedFields(t reflect.Type) []int {
	var idx []int
	for i := 0; i < t.NumField(); i++ {
		if t.Field(i).IsExported() && t.Field(i).Tag.Get("json") != "-" {
			idx = append(idx, i)
		}
	}
	return idx
}

func alignFor(kind reflect.Kind) Align {
	switch kind {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return AlignRight
	}
	return AlignLeft
}

// columnName titles the json tag of a field, or falls back to its Go name.
func columnName(field reflect.StructField) string {
	name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
	if name == "" {
		return field.Name
	}
	return cases.Title(language.English).String(strings.ReplaceAll(name, "_", " "))
}
