// Command pansqlc compiles a PanSQL script into a Go program plus its
// project/connectors manifests.
//
// Run: pansqlc -script orders.psql -input dicts/in.dict -output dicts/out.dict -out ./gen -pkg generated
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/carlodf/pansql/compiler"
	"github.com/carlodf/pansql/dict"
)

func main() {
	var (
		scriptPath = flag.String("script", "", "path to the PanSQL script to compile (required)")
		inputPath  = flag.String("input", "", "path to the input data dictionary file (required)")
		outputPath = flag.String("output", "", "path to the output data dictionary file (required)")
		outDir     = flag.String("out", "./gen", "directory the emitted program and manifests are written to")
		pkg        = flag.String("pkg", "generated", "Go package name for the emitted program")
		scriptName = flag.String("name", "", "name stamped on the emitted program and manifests (defaults to -script's base name)")
	)
	flag.Parse()

	if *scriptPath == "" || *inputPath == "" || *outputPath == "" {
		fmt.Fprintln(os.Stderr, "pansqlc: -script, -input, and -output are required")
		flag.Usage()
		os.Exit(2)
	}

	if err := run(*scriptPath, *inputPath, *outputPath, *outDir, *pkg, *scriptName); err != nil {
		fmt.Fprintf(os.Stderr, "pansqlc: %v\n", err)
		os.Exit(1)
	}
}

func run(scriptPath, inputPath, outputPath, outDir, pkg, scriptName string) error {
	src, err := os.ReadFile(scriptPath)
	if err != nil {
		return fmt.Errorf("read script: %w", err)
	}

	inputDict, err := loadDictFile(inputPath)
	if err != nil {
		return fmt.Errorf("load input dictionary: %w", err)
	}
	outputDict, err := loadDictFile(outputPath)
	if err != nil {
		return fmt.Errorf("load output dictionary: %w", err)
	}

	if scriptName == "" {
		scriptName = baseName(scriptPath)
	}

	opts := compiler.Options{
		Load:       dictLoader,
		InputDict:  inputDict,
		OutputDict: outputDict,
		OutDir:     outDir,
		Package:    pkg,
	}
	return compiler.Compile(compiler.Script{Name: scriptName, Source: string(src)}, opts)
}

// loadDictFile is the one real "dictionary file" collaborator this
// command owns end to end: it reads the compressed blob format this
// module's own dict.Compress/Decompress round-trips, since the source
// data-dictionary format itself is an external collaborator the spec
// treats as opaque.
func loadDictFile(path string) (*dict.Dictionary, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return dict.Decompress(string(raw))
}

// dictLoader resolves a script's `load` statement path the same way:
// relative to the working directory, through the compressed blob codec.
func dictLoader(path string) (*dict.Dictionary, error) {
	return loadDictFile(path)
}

func baseName(path string) string {
	start, end := 0, len(path)
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' || path[i] == '\\' {
			start = i + 1
			break
		}
	}
	for i := end - 1; i > start; i-- {
		if path[i] == '.' {
			end = i
			break
		}
	}
	return path[start:end]
}
