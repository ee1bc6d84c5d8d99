// Command genencoder writes compile-time member descriptors for the struct
// types of a package. With the generated file compiled in, json.Generated can
// encode those types without reflecting over their fields.
//
//	go run github.com/freekieb7/nanojson/json/cmd/genencoder -package ./model -output model/members_gen.go
package main

import (
	"flag"
	"fmt"
	"go/types"
	"log"
	"os"
	"reflect"

	"golang.org/x/tools/go/packages"

	nanojson "github.com/freekieb7/nanojson/json"
)

func main() {
	var (
		packagePath = flag.String("package", "", "Package path to analyze")
		outputFile  = flag.String("output", "members_generated.go", "Output file name")
		typeName    = flag.String("type", "", "Specific type name to generate descriptors for")
	)
	flag.Parse()

	if *packagePath == "" {
		log.Fatal("Package path is required")
	}

	// Load the package
	cfg := &packages.Config{
		Mode: packages.NeedTypes | packages.NeedSyntax | packages.NeedName,
	}

	pkgs, err := packages.Load(cfg, *packagePath)
	if err != nil {
		log.Fatalf("Failed to load package: %v", err)
	}

	if len(pkgs) == 0 {
		log.Fatal("No packages found")
	}

	pkg := pkgs[0]
	if len(pkg.Errors) > 0 {
		for _, err := range pkg.Errors {
			log.Printf("Package error: %v", err)
		}
	}

	codegen := &nanojson.CodeGen{
		Package: pkg.Name,
		Types:   collectTypes(pkg.Types, *typeName),
	}

	if *typeName != "" && len(codegen.Types) == 0 {
		log.Fatalf("Type %s not found or not a struct", *typeName)
	}

	generatedCode, err := codegen.GenerateEncoders()
	if err != nil {
		log.Fatalf("Failed to generate descriptors: %v", err)
	}

	if err := os.WriteFile(*outputFile, []byte(generatedCode), 0o644); err != nil {
		log.Fatalf("Failed to write generated code: %v", err)
	}

	fmt.Printf("Generated descriptors for %d types in %s\n", len(codegen.Types), *outputFile)
}

// collectTypes finds the named, non-generic struct types of pkg in scope order
func collectTypes(pkg *types.Package, only string) []nanojson.GenType {
	var out []nanojson.GenType

	scope := pkg.Scope()
	for _, name := range scope.Names() {
		if only != "" && name != only {
			continue
		}

		obj, ok := scope.Lookup(name).(*types.TypeName)
		if !ok || obj.IsAlias() {
			continue
		}
		named, ok := obj.Type().(*types.Named)
		if !ok || named.TypeParams().Len() > 0 {
			continue
		}
		st, ok := named.Underlying().(*types.Struct)
		if !ok {
			continue
		}

		out = append(out, nanojson.GenType{Name: name, Fields: collectFields(st)})
	}
	return out
}

// collectFields mirrors what json.Reflection reads: exported fields, json tag
// names, omitempty, no function, channel or reflection metadata members
func collectFields(st *types.Struct) []nanojson.GenField {
	var fields []nanojson.GenField
	for i := 0; i < st.NumFields(); i++ {
		f := st.Field(i)
		if !f.Exported() || isExcluded(f.Type()) {
			continue
		}

		tag := reflect.StructTag(st.Tag(i)).Get("json")
		key, omitEmpty, skip := nanojson.ParseFieldTag(tag, f.Name())
		if skip {
			continue
		}

		field := nanojson.GenField{GoName: f.Name(), Key: key}
		if omitEmpty {
			field.EmptyCheck = emptyCheck("v."+f.Name(), f.Type())
		}
		fields = append(fields, field)
	}
	return fields
}

func isExcluded(t types.Type) bool {
	switch u := t.Underlying().(type) {
	case *types.Signature, *types.Chan:
		return true
	case *types.Pointer:
		return isNamed(u.Elem(), "runtime", "Func")
	}
	return isNamed(t, "reflect", "Type") || isNamed(t, "reflect", "Value") ||
		isNamed(t, "reflect", "Method") || isNamed(t, "reflect", "StructField")
}

func isNamed(t types.Type, pkgPath, name string) bool {
	named, ok := t.(*types.Named)
	if !ok {
		return false
	}
	obj := named.Obj()
	return obj.Pkg() != nil && obj.Pkg().Path() == pkgPath && obj.Name() == name
}

// emptyCheck returns the omitempty test for expr, empty when the type is never
// considered empty
func emptyCheck(expr string, t types.Type) string {
	switch u := t.Underlying().(type) {
	case *types.Basic:
		switch {
		case u.Info()&types.IsBoolean != 0:
			return "!" + expr
		case u.Info()&types.IsString != 0:
			return "len(" + expr + ") == 0"
		case u.Info()&types.IsNumeric != 0:
			return expr + " == 0"
		}
	case *types.Slice, *types.Map, *types.Array:
		return "len(" + expr + ") == 0"
	case *types.Pointer, *types.Interface:
		return expr + " == nil"
	}
	return ""
}
