package link_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/carlodf/pansql/ast"
	"github.com/carlodf/pansql/dict"
	"github.com/carlodf/pansql/ir"
	"github.com/carlodf/pansql/link"
	"github.com/carlodf/pansql/parser"
	"github.com/carlodf/pansql/sema"
	"github.com/carlodf/pansql/types"
)

func ordersStream() *dict.StreamDefinition {
	return &dict.StreamDefinition{
		Name: "Orders",
		Fields: []dict.FieldDefinition{
			{Name: "OrderId", Type: types.FieldType{Tag: types.TagInt32}},
			{Name: "Amount", Type: types.FieldType{Tag: types.TagDecimal}},
		},
	}
}

func orderDataStream() *dict.StreamDefinition {
	return &dict.StreamDefinition{
		Name: "OrderData",
		Fields: []dict.FieldDefinition{
			{Name: "Id", Type: types.FieldType{Tag: types.TagInt32}},
			{Name: "Total", Type: types.FieldType{Tag: types.TagDecimal}},
		},
	}
}

func unmatchedStream() *dict.StreamDefinition {
	return &dict.StreamDefinition{
		Name: "Leftovers",
		Fields: []dict.FieldDefinition{
			{Name: "Note", Type: types.FieldType{Tag: types.TagVarChar}},
		},
	}
}

func compatibleLeftoverStream() *dict.StreamDefinition {
	return &dict.StreamDefinition{
		Name: "Spare",
		Fields: []dict.FieldDefinition{
			{Name: "Note", Type: types.FieldType{Tag: types.TagVarChar, Nullable: true}},
		},
	}
}

func TestLinkExplicitMapTakesPrecedence(t *testing.T) {
	script, err := parser.Parse(`map Orders to OrderData with (Id = OrderId, Total = Amount)`)
	require.NoError(t, err)

	// A select from Orders implies Orders -> Elsewhere; the explicit map
	// for the same source wins and the implied one is dropped.
	implied := []*sema.SelectResolution{{Query: &ast.Query{From: ast.TableRef{Name: "Orders"}}, IntoName: "Elsewhere"}}
	maps := link.CollectMaps(script, implied)
	require.Len(t, maps, 1)
	assert.Equal(t, "Orders", maps[0].Src)
	assert.Equal(t, "OrderData", maps[0].Dst)
	assert.Equal(t, "OrderId", maps[0].FieldMap["Id"])
}

func TestAutoMapIdentityPassThrough(t *testing.T) {
	in := dict.New("In")
	in.Add(compatibleLeftoverStream())
	out := dict.New("Out")
	out.Add(compatibleLeftoverStream())

	syms := sema.NewSymbolTable()
	entries, warnings := link.AutoMap(syms, map[string]bool{}, in, out)
	require.Len(t, entries, 1)
	assert.Empty(t, warnings)
	assert.Equal(t, "Spare", entries[0].Src)
	assert.True(t, entries[0].AutoMapped)
}

func TestAutoMapWarnsWhenNoCandidate(t *testing.T) {
	in := dict.New("In")
	in.Add(unmatchedStream())
	out := dict.New("Out")

	syms := sema.NewSymbolTable()
	entries, warnings := link.AutoMap(syms, map[string]bool{}, in, out)
	assert.Empty(t, entries)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "Leftovers")
}

func TestAutoMapSkipsTableDeclaredStreams(t *testing.T) {
	in := dict.New("In")
	in.Add(unmatchedStream())
	out := dict.New("Out")
	out.Add(unmatchedStream())

	syms := sema.NewSymbolTable()
	syms.Declare("leftoversTable", &sema.Symbol{Kind: sema.SymTableVar, Stream: unmatchedStream()})

	entries, warnings := link.AutoMap(syms, map[string]bool{}, in, out)
	assert.Empty(t, entries)
	assert.Empty(t, warnings)
}

func TestNetworkPairAndResolve(t *testing.T) {
	// Scenario H: writer in script 0 pairs with reader in script 1.
	endpoints := []link.NetworkEndpoint{
		{ScriptIndex: 0, OpenName: "writer", Direction: ast.DirWrite, ConnString: "127.0.0.1"},
		{ScriptIndex: 1, OpenName: "reader", Direction: ast.DirRead, ConnString: "127.0.0.1"},
	}
	pairs, err := link.Pair(endpoints)
	require.NoError(t, err)
	require.Len(t, pairs, 1)

	destDict := dict.New("Dest")
	destDict.Add(ordersStream())

	counter := &ir.Counter{}
	resolved, err := link.Resolve(pairs, func(link.NetworkPair) *dict.Dictionary { return destDict }, counter)
	require.NoError(t, err)
	require.Len(t, resolved, 1)
	defer os.Remove(resolved[0].TempPath)

	assert.Equal(t, "filename__1", resolved[0].TempFileName)
	assert.Contains(t, resolved[0].WriterConnString, resolved[0].TempPath)
	assert.Contains(t, resolved[0].ReaderConnString, resolved[0].TempPath)

	raw, err := os.ReadFile(resolved[0].TempPath)
	require.NoError(t, err)
	var decoded dict.Dictionary
	require.NoError(t, msgpack.Unmarshal(raw, &decoded))
	assert.Equal(t, "Dest", decoded.Name)
}

func TestNetworkPairUnmatchedWriterFails(t *testing.T) {
	endpoints := []link.NetworkEndpoint{
		{ScriptIndex: 0, OpenName: "writer", Direction: ast.DirWrite, ConnString: "127.0.0.1"},
	}
	_, err := link.Pair(endpoints)
	require.Error(t, err)
}
