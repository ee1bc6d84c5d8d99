package json

import (
	"bytes"
	"fmt"
	"go/format"
	"strconv"
	"text/template"
)

// CodeGen writes Go source that registers compile-time member descriptors,
// so composite values can be encoded without reflecting over their fields.
type CodeGen struct {
	Package string
	Types   []GenType
}

// GenType describes one struct type of the target package.
type GenType struct {
	Name   string
	Fields []GenField
}

// GenField is one member of a GenType.
type GenField struct {
	// GoName is the Go field name, Key the JSON key
	GoName string
	Key    string
	// EmptyCheck is a boolean Go expression over v, set for omitempty fields
	EmptyCheck string
}

var codegenTemplate = template.Must(template.New("descriptors").Funcs(template.FuncMap{
	"quote": strconv.Quote,
}).Parse(`// Code generated by genencoder. DO NOT EDIT.

package {{.Package}}

import nanojson "github.com/freekieb7/nanojson/json"

func init() {
{{- range .Types}}
	nanojson.RegisterMembers(func(v *{{.Name}}, dst []nanojson.Member) []nanojson.Member {
	{{- range .Fields}}
		{{- if .EmptyCheck}}
		if !({{.EmptyCheck}}) {
			dst = append(dst, nanojson.Member{Name: {{quote .Key}}, Value: v.{{.GoName}}})
		}
		{{- else}}
		dst = append(dst, nanojson.Member{Name: {{quote .Key}}, Value: v.{{.GoName}}})
		{{- end}}
	{{- end}}
		return dst
	})
{{- end}}
}
`))

// GenerateEncoders returns the formatted source of the descriptor file.
func (g *CodeGen) GenerateEncoders() (string, error) {
	if g.Package == "" {
		return "", fmt.Errorf("json: codegen without package name")
	}

	var buf bytes.Buffer
	if err := codegenTemplate.Execute(&buf, g); err != nil {
		return "", fmt.Errorf("json: codegen template: %w", err)
	}

	src, err := format.Source(buf.Bytes())
	if err != nil {
		return "", fmt.Errorf("json: codegen format: %w", err)
	}
	return string(src), nil
}
