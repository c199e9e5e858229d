package compiler_test

import (
	"context"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carlodf/pansql/compiler"
	"github.com/carlodf/pansql/dict"
	"github.com/carlodf/pansql/types"
)

func productsStream() *dict.StreamDefinition {
	return &dict.StreamDefinition{
		Name: "products",
		Fields: []dict.FieldDefinition{
			{Name: "Vendor", Type: types.FieldType{Tag: types.TagInt32}},
			{Name: "Price", Type: types.FieldType{Tag: types.TagDecimal}},
		},
	}
}

func products2Stream() *dict.StreamDefinition {
	return &dict.StreamDefinition{
		Name: "products2",
		Fields: []dict.FieldDefinition{
			{Name: "Vendor", Type: types.FieldType{Tag: types.TagInt32}},
			{Name: "Price", Type: types.FieldType{Tag: types.TagDecimal, Nullable: true}},
		},
	}
}

func testDict() *dict.Dictionary {
	d := dict.New("MyDataDict")
	d.Add(productsStream())
	d.Add(products2Stream())
	return d
}

func testLoad(path string) (*dict.Dictionary, error) { return testDict(), nil }

const fullScript = `
load 'dicts/main.dict' as MyDataDict
stream products for MyDataDict.products
stream products2 for MyDataDict.products2
open in as CSV for read MyDataDict.products with 'in.csv'
open out as CSV for write MyDataDict.products2 with 'out.csv'

select p.Vendor, p.Price from products p where p.Vendor = 1 into products2

sync in to out
`

func TestCompileRendersParsableProgram(t *testing.T) {
	dir := t.TempDir()
	opts := compiler.Options{
		Load:       testLoad,
		InputDict:  testDict(),
		OutputDict: testDict(),
		OutDir:     dir,
		Package:    "generated",
	}
	err := compiler.Compile(compiler.Script{Name: "orders", Source: fullScript}, opts)
	require.NoError(t, err)

	raw, err := os.ReadFile(filepath.Join(dir, "program.go"))
	require.NoError(t, err)

	fset := token.NewFileSet()
	_, err = parser.ParseFile(fset, "program.go", raw, parser.AllErrors)
	assert.NoError(t, err)

	_, err = os.Stat(filepath.Join(dir, "project.yaml"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "connectors.yaml"))
	assert.NoError(t, err)
}

func TestCompileRejectsMissingOptions(t *testing.T) {
	err := compiler.Compile(compiler.Script{Name: "orders", Source: fullScript}, compiler.Options{})
	assert.Error(t, err)
}

func TestCompileFilesRunsConcurrently(t *testing.T) {
	dir := t.TempDir()
	opts := compiler.Options{
		Load:       testLoad,
		InputDict:  testDict(),
		OutputDict: testDict(),
		OutDir:     dir,
		Package:    "generated",
	}
	scripts := []compiler.Script{
		{Name: "one", Source: fullScript},
		{Name: "two", Source: fullScript},
	}
	err := compiler.CompileFiles(context.Background(), scripts, opts, 2)
	require.NoError(t, err)

	for _, name := range []string{"one", "two"} {
		_, err := os.Stat(filepath.Join(dir, name, "program.go"))
		assert.NoError(t, err)
	}
}
