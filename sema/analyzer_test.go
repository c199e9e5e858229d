package sema_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carlodf/pansql/dict"
	"github.com/carlodf/pansql/diag"
	"github.com/carlodf/pansql/parser"
	"github.com/carlodf/pansql/sema"
	"github.com/carlodf/pansql/types"
)

func usersStream() *dict.StreamDefinition {
	return &dict.StreamDefinition{
		Name: "users",
		Fields: []dict.FieldDefinition{
			{Name: "id", Type: types.FieldType{Tag: types.TagInt32}},
			{Name: "name", Type: types.FieldType{Tag: types.TagVarChar}},
			{Name: "address", Type: types.FieldType{Tag: types.TagVarChar, Nullable: true}},
			{Name: "typeId", Type: types.FieldType{Tag: types.TagInt32}},
		},
		PrimaryKey: []string{"id"},
	}
}

func typesStream() *dict.StreamDefinition {
	return &dict.StreamDefinition{
		Name: "types",
		Fields: []dict.FieldDefinition{
			{Name: "Id", Type: types.FieldType{Tag: types.TagInt32}},
			{Name: "name", Type: types.FieldType{Tag: types.TagVarChar}},
		},
		PrimaryKey: []string{"Id"},
	}
}

func users2Stream() *dict.StreamDefinition {
	return &dict.StreamDefinition{
		Name: "users2",
		Fields: []dict.FieldDefinition{
			{Name: "Id", Type: types.FieldType{Tag: types.TagInt32}},
			{Name: "name", Type: types.FieldType{Tag: types.TagVarChar}},
			{Name: "address", Type: types.FieldType{Tag: types.TagVarChar, Nullable: true}},
			{Name: "type", Type: types.FieldType{Tag: types.TagVarChar, Nullable: true}},
		},
	}
}

func testDict() *dict.Dictionary {
	d := dict.New("MyDataDict")
	d.Add(usersStream())
	d.Add(typesStream())
	d.Add(users2Stream())
	return d
}

func testLoader(path string) (*dict.Dictionary, error) {
	return testDict(), nil
}

func analyze(t *testing.T, src string) (*sema.Program, error) {
	t.Helper()
	script, err := parser.Parse(src)
	require.NoError(t, err)
	return sema.NewAnalyzer(testLoader).Analyze(script)
}

const preamble = `
load 'dicts/main.dict' as MyDataDict
stream users for MyDataDict.users
table types for MyDataDict.types
stream users2 for MyDataDict.users2
`

func TestAnalyzeCleanJoin(t *testing.T) {
	src := preamble + `
select u.id, u.name, u.address, t.name AS type from users u join types t on u.typeId = t.Id into users2
`
	prog, err := analyze(t, src)
	require.NoError(t, err)
	require.Len(t, prog.Selects, 1)
	res := prog.Selects[0]
	assert.Equal(t, "users", res.Query.From.Name)
	require.Len(t, res.Columns, 4)
	assert.Equal(t, "id", res.Columns[0].OutputName)
	assert.True(t, res.Columns[3].FromJoin)
}

func TestAnalyzeMissingNonNullableField(t *testing.T) {
	// Scenario B: omit u.id, leaving users2.Id uncovered.
	src := preamble + `
select u.name, u.address, t.name AS type from users u join types t on u.typeId = t.Id into users2
`
	_, err := analyze(t, src)
	require.Error(t, err)
	assert.True(t, diag.IsTypeError(err))
	assert.Contains(t, err.Error(), "The following field(s) on users2 are not nullable, but are not assigned a value: Id")
}

func TestAnalyzeDuplicateStreamConsumption(t *testing.T) {
	// Scenario C: users consumed by two select statements.
	src := preamble + `
select u.id, u.name, u.address from users u into users2
select u.id, u.name, u.address from users u into users2
`
	_, err := analyze(t, src)
	require.Error(t, err)
	assert.True(t, diag.IsStructuralError(err))
	assert.Contains(t, err.Error(), "has already been processed")
}

func TestAnalyzeOrderByRejectedOnStream(t *testing.T) {
	// Scenario I: ORDER BY over a Stream-declared FROM.
	src := preamble + `
select u.id, u.name, u.address, u.typeId AS type from users u order by u.id into users2
`
	_, err := analyze(t, src)
	require.Error(t, err)
	assert.True(t, diag.IsStructuralError(err))
	assert.Contains(t, err.Error(), "ORDER BY is not supported for queries involving a STREAM input")
}

func TestAnalyzeJoinAgainstNonTableFails(t *testing.T) {
	src := `
load 'dicts/main.dict' as MyDataDict
stream users for MyDataDict.users
stream types for MyDataDict.types
stream users2 for MyDataDict.users2
select u.id, u.name, u.address, t.name AS type from users u join types t on u.typeId = t.Id into users2
`
	_, err := analyze(t, src)
	require.Error(t, err)
	assert.True(t, diag.IsStructuralError(err))
}

func TestAnalyzeCaseInsensitiveBoundNames(t *testing.T) {
	src := `
load 'dicts/main.dict' as MyDataDict
stream Users for MyDataDict.users
table types for MyDataDict.types
stream users2 for MyDataDict.users2
select u.id, u.name, u.address, t.name AS type from users u join types t on u.typeId = t.Id into users2
`
	_, err := analyze(t, src)
	require.NoError(t, err)
}

func TestAnalyzeRedeclarationFails(t *testing.T) {
	src := `
load 'dicts/main.dict' as MyDataDict
stream users for MyDataDict.users
stream users for MyDataDict.users2
`
	_, err := analyze(t, src)
	require.Error(t, err)
	assert.True(t, diag.IsResolveError(err))
}
