package main

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
	"unicode"
)

// GoRegister is a register prepared for the template.
type GoRegister struct {
	GoName      string
	Name        string
	Address     uint8
	Width       int
	Access      string
	Description string
	Fields      []GoField
}

// GoField is a field prepared for the template.
type GoField struct {
	GoName string
	Name   string
	Offset uint16
	Width  uint8
}

type templateData struct {
	Package   string
	Source    string
	Schema    string
	Version   int
	Registers []GoRegister
}

var funcMap = template.FuncMap{
	"hex": func(v uint8) string { return fmt.Sprintf("0x%02X", v) },
}

var registersTmpl = template.Must(template.New("registers").Funcs(funcMap).Parse(`// Code generated by tpsregen from {{.Source}}. DO NOT EDIT.

package {{.Package}}

// Schema the register table was generated from.
const (
	SchemaName    = "{{.Schema}}"
	SchemaVersion = {{.Version}}
)
{{range $r := .Registers}}{{range .Fields}}
// {{$r.GoName}}{{.GoName}} is the {{.Name}} field of {{$r.Name}}.
var {{$r.GoName}}{{.GoName}} = Field{Name: "{{.Name}}", Offset: {{.Offset}}, Width: {{.Width}}}
{{end}}
// {{.GoName}}: {{.Description}}
var {{.GoName}} = Descriptor{
	Name:    "{{.Name}}",
	Address: {{hex .Address}},
	Width:   {{.Width}},
	Access:  {{.Access}},
{{- if .Fields}}
	Fields: []Field{
{{- range .Fields}}
		{{$r.GoName}}{{.GoName}},
{{- end}}
	},
{{- end}}
}
{{end}}
// Registers lists every register in schema order.
var Registers = []Descriptor{
{{- range .Registers}}
	{{.GoName}},
{{- end}}
}
`))

// Generate renders the Go source of the register table for schema.
func Generate(schema *RawSchema, pkg, source string) (string, error) {
	data := templateData{
		Package: pkg,
		Source:  source,
		Schema:  schema.Schema,
		Version: schema.Version,
	}
	for _, r := range schema.Registers {
		access, err := accessConst(r.Access)
		if err != nil {
			return "", fmt.Errorf("register %s: %w", r.Name, err)
		}
		gr := GoRegister{
			GoName:      goName(r.Name),
			Name:        r.Name,
			Address:     r.Address,
			Width:       r.Width,
			Access:      access,
			Description: strings.TrimSpace(r.Description),
		}
		for _, f := range r.Fields {
			gr.Fields = append(gr.Fields, GoField{
				GoName: goName(f.Name),
				Name:   f.Name,
				Offset: f.Offset,
				Width:  f.Width,
			})
		}
		data.Registers = append(data.Registers, gr)
	}

	var buf bytes.Buffer
	if err := registersTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("executing template: %w", err)
	}
	return buf.String(), nil
}

// goName converts a schema name such as "INT_EVENT_BUS1" or "plug_event" to
// an exported Go identifier ("IntEventBus1", "PlugEvent").
func goName(s string) string {
	var b strings.Builder
	for _, part := range strings.FieldsFunc(s, func(r rune) bool {
		return r == '_' || r == '-' || r == ' '
	}) {
		part = strings.ToLower(part)
		rs := []rune(part)
		rs[0] = unicode.ToUpper(rs[0])
		b.WriteString(string(rs))
	}
	return b.String()
}
