package json

import (
	"go/parser"
	"go/token"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodeGen_GenerateEncoders(t *testing.T) {
	gen := &CodeGen{
		Package: "model",
		Types: []GenType{
			{
				Name: "User",
				Fields: []GenField{
					{GoName: "ID", Key: "id"},
					{GoName: "Email", Key: "email", EmptyCheck: "len(v.Email) == 0"},
					{GoName: "Quote", Key: `say "hi"`},
				},
			},
			{Name: "Empty"},
		},
	}

	src, err := gen.GenerateEncoders()
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(src, "// Code generated by genencoder. DO NOT EDIT."))
	assert.Contains(t, src, "package model")
	assert.Contains(t, src, `nanojson "github.com/freekieb7/nanojson/json"`)
	assert.Contains(t, src, "nanojson.RegisterMembers(func(v *User, dst []nanojson.Member) []nanojson.Member {")
	assert.Contains(t, src, `if !(len(v.Email) == 0) {`)
	assert.Contains(t, src, `nanojson.Member{Name: "say \"hi\"", Value: v.Quote}`)
	assert.Contains(t, src, "func(v *Empty, dst []nanojson.Member) []nanojson.Member {\n\t\treturn dst\n\t})")

	file, err := parser.ParseFile(token.NewFileSet(), "members_gen.go", src, parser.ParseComments)
	require.NoError(t, err)
	assert.Equal(t, "model", file.Name.Name)
}

func TestCodeGen_RequiresPackage(t *testing.T) {
	_, err := (&CodeGen{}).GenerateEncoders()
	assert.Error(t, err)
}

func TestCodeGen_InvalidExpression(t *testing.T) {
	gen := &CodeGen{
		Package: "model",
		Types:   []GenType{{Name: "T", Fields: []GenField{{GoName: "A", Key: "a", EmptyCheck: "v.A ==="}}}},
	}
	_, err := gen.GenerateEncoders()
	assert.Error(t, err)
}
