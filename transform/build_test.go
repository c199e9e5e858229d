package transform_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carlodf/pansql/dict"
	"github.com/carlodf/pansql/ir"
	"github.com/carlodf/pansql/parser"
	"github.com/carlodf/pansql/sema"
	"github.com/carlodf/pansql/transform"
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

func productsAggStream() *dict.StreamDefinition {
	return &dict.StreamDefinition{
		Name: "productsAgg",
		Fields: []dict.FieldDefinition{
			{Name: "Vendor", Type: types.FieldType{Tag: types.TagInt32}},
			{Name: "max", Type: types.FieldType{Tag: types.TagDecimal}},
			{Name: "count", Type: types.FieldType{Tag: types.TagInt64}},
		},
	}
}

func productsQtyStream() *dict.StreamDefinition {
	return &dict.StreamDefinition{
		Name: "productsQty",
		Fields: []dict.FieldDefinition{
			{Name: "Vendor", Type: types.FieldType{Tag: types.TagInt32}},
			{Name: "max", Type: types.FieldType{Tag: types.TagDecimal}},
			{Name: "Quantity", Type: types.FieldType{Tag: types.TagInt64}},
		},
	}
}

func loader(path string) (*dict.Dictionary, error) {
	d := dict.New("MyDataDict")
	d.Add(productsStream())
	d.Add(products2Stream())
	d.Add(productsAggStream())
	d.Add(productsQtyStream())
	return d, nil
}

func resolveOne(t *testing.T, src string) *sema.SelectResolution {
	t.Helper()
	script, err := parser.Parse(src)
	require.NoError(t, err)
	prog, err := sema.NewAnalyzer(loader).Analyze(script)
	require.NoError(t, err)
	require.Len(t, prog.Selects, 1)
	return prog.Selects[0]
}

const productsPreamble = `
load 'dicts/main.dict' as MyDataDict
stream products for MyDataDict.products
stream products2 for MyDataDict.products2
stream productsAgg for MyDataDict.productsAgg
stream productsQty for MyDataDict.productsQty
`

func TestBuildFilterOverInt(t *testing.T) {
	// Scenario D.
	res := resolveOne(t, productsPreamble+`
select p.Vendor, p.Price from products p where p.Vendor = 1 into products2
`)
	b := transform.NewBuilder(&ir.Counter{})
	trs, err := b.Build(res)
	require.NoError(t, err)
	require.Len(t, trs, 1)
	tr := trs[0]
	require.NotNil(t, tr.Filter)
	assert.Equal(t, ir.FilterEq, tr.Filter.Op)
	assert.Equal(t, ir.OperandReaderColumn, tr.Filter.Left.Kind)
	assert.Equal(t, 0, tr.Filter.Left.Column)
	assert.Equal(t, ir.OperandLiteral, tr.Filter.Right.Kind)
	assert.Equal(t, "1", tr.Filter.Right.Literal)
}

func TestBuildGroupByMultipleAggregates(t *testing.T) {
	// Scenario E.
	res := resolveOne(t, productsPreamble+`
select p.Vendor, max(p.Price), count(p.Price) from products p group by Vendor into productsAgg
`)
	b := transform.NewBuilder(&ir.Counter{})
	trs, err := b.Build(res)
	require.NoError(t, err)
	require.Len(t, trs, 1)
	tr := trs[0]
	require.NotNil(t, tr.Aggregate)
	require.Len(t, tr.Aggregate.Aggregators, 2)
	assert.Equal(t, ir.AggMax, tr.Aggregate.Aggregators[0].Func)
	assert.Equal(t, 0, tr.Aggregate.Aggregators[0].Index)
	assert.Equal(t, ir.AggCount, tr.Aggregate.Aggregators[1].Func)
	assert.Equal(t, 1, tr.Aggregate.Aggregators[1].Index)
	require.Len(t, tr.Slots, 3)
	assert.Equal(t, ir.SlotReaderColumn, tr.Slots[0].Kind)
	assert.Equal(t, ir.SlotAggregatorOutput, tr.Slots[1].Kind)
	assert.Equal(t, 0, tr.Slots[1].Source)
	assert.Equal(t, ir.SlotAggregatorOutput, tr.Slots[2].Kind)
	assert.Equal(t, 1, tr.Slots[2].Source)
}

func TestBuildHaving(t *testing.T) {
	// Scenario F.
	res := resolveOne(t, productsPreamble+`
select p.Vendor, max(p.Price), count(p.Price) from products p group by Vendor having count(*) > 5 into productsAgg
`)
	b := transform.NewBuilder(&ir.Counter{})
	trs, err := b.Build(res)
	require.NoError(t, err)
	tr := trs[0]
	require.NotNil(t, tr.Aggregate.Having)
	assert.Equal(t, ir.FilterGt, tr.Aggregate.Having.Op)
	assert.Equal(t, ir.OperandAggregatorOutput, tr.Aggregate.Having.Left.Kind)
	assert.Equal(t, 1, tr.Aggregate.Having.Left.Aggregator)
	assert.Equal(t, "5", tr.Aggregate.Having.Right.Literal)
}

func TestBuildLiteralSlotInAggregation(t *testing.T) {
	// Scenario G.
	res := resolveOne(t, productsPreamble+`
select p.Vendor, max(p.Price), 10 Quantity from products p group by Vendor into productsQty
`)
	b := transform.NewBuilder(&ir.Counter{})
	trs, err := b.Build(res)
	require.NoError(t, err)
	tr := trs[0]
	require.Len(t, tr.Slots, 3)
	assert.Equal(t, ir.SlotConstLiteral, tr.Slots[2].Kind)
	assert.Equal(t, "10", tr.Slots[2].Literal)
	assert.Equal(t, "Quantity", tr.Slots[2].Name)
}

func TestBuildNumbersTransformersMonotonically(t *testing.T) {
	counter := &ir.Counter{}
	b := transform.NewBuilder(counter)
	res1 := resolveOne(t, productsPreamble+`
select p.Vendor, p.Price from products p into products2
`)
	trs1, err := b.Build(res1)
	require.NoError(t, err)
	require.Len(t, trs1, 1)
	assert.Equal(t, "Transformer__1", trs1[0].Name)

	res2 := resolveOne(t, productsPreamble+`
select p.Vendor, max(p.Price), count(p.Price) from products p group by Vendor into productsAgg
`)
	trs2, err := b.Build(res2)
	require.NoError(t, err)
	require.Len(t, trs2, 1)
	assert.Equal(t, "Transformer__2", trs2[0].Name)
}
