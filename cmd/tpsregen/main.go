// Command tpsregen compiles a register layout schema (YAML) into a static Go
// table of regmap descriptors and fields.
//
//	tpsregen -schema tps6699x.yaml -output registers_gen.go -package regmap
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/tools/imports"
)

func main() {
	schemaPath := flag.String("schema", "", "Path to the register schema YAML")
	outputPath := flag.String("output", "", "Output path for the generated Go file")
	pkg := flag.String("package", "regmap", "Package name of the generated file")
	flag.Parse()

	if *schemaPath == "" || *outputPath == "" {
		fmt.Fprintln(os.Stderr, "Usage: tpsregen -schema <path> -output <path> [-package <name>]")
		flag.PrintDefaults()
		os.Exit(1)
	}

	if err := run(*schemaPath, *outputPath, *pkg); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(schemaPath, outputPath, pkg string) error {
	schema, err := LoadSchema(schemaPath)
	if err != nil {
		return fmt.Errorf("loading schema: %w", err)
	}
	if err := schema.Validate(); err != nil {
		return fmt.Errorf("validating schema: %w", err)
	}
	code, err := Generate(schema, pkg, filepath.Base(schemaPath))
	if err != nil {
		return fmt.Errorf("generating: %w", err)
	}
	if err := writeFormatted(outputPath, code); err != nil {
		return err
	}
	fmt.Printf("  generated %s (%d registers)\n", outputPath, len(schema.Registers))
	return nil
}

// writeFormatted formats Go source code with goimports and writes it to a file.
func writeFormatted(path string, code string) error {
	formatted, err := imports.Process(path, []byte(code), nil)
	if err != nil {
		// Write unformatted so the generator output can be inspected
		_ = os.WriteFile(path+".broken", []byte(code), 0o644)
		return fmt.Errorf("goimports %s: %w", filepath.Base(path), err)
	}
	return os.WriteFile(path, formatted, 0o644)
}
