package types_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/carlodf/pansql/types"
)

func TestAssignableTo(t *testing.T) {
	tests := []struct {
		name string
		src  types.FieldType
		dst  types.FieldType
		want bool
	}{
		{
			name: "identical int32",
			src:  types.FieldType{Tag: types.TagInt32},
			dst:  types.FieldType{Tag: types.TagInt32},
			want: true,
		},
		{
			name: "int32 widens to int64",
			src:  types.FieldType{Tag: types.TagInt32},
			dst:  types.FieldType{Tag: types.TagInt64},
			want: true,
		},
		{
			name: "int64 does not narrow to int32",
			src:  types.FieldType{Tag: types.TagInt64},
			dst:  types.FieldType{Tag: types.TagInt32},
			want: false,
		},
		{
			name: "varchar assigns to text",
			src:  types.FieldType{Tag: types.TagVarChar},
			dst:  types.FieldType{Tag: types.TagText},
			want: true,
		},
		{
			name: "nullable source into non-nullable destination fails",
			src:  types.FieldType{Tag: types.TagInt32, Nullable: true},
			dst:  types.FieldType{Tag: types.TagInt32, Nullable: false},
			want: false,
		},
		{
			name: "non-nullable source into nullable destination succeeds",
			src:  types.FieldType{Tag: types.TagInt32, Nullable: false},
			dst:  types.FieldType{Tag: types.TagInt32, Nullable: true},
			want: true,
		},
		{
			name: "incompatible tags",
			src:  types.FieldType{Tag: types.TagGUID},
			dst:  types.FieldType{Tag: types.TagInt32},
			want: false,
		},
		{
			name: "collection mismatch",
			src:  types.FieldType{Tag: types.TagVarChar, Collection: true},
			dst:  types.FieldType{Tag: types.TagVarChar, Collection: false},
			want: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.src.AssignableTo(tt.dst))
		})
	}
}

func TestTypeTagString(t *testing.T) {
	assert.Equal(t, "Int32", types.TagInt32.String())
	assert.Equal(t, "Decimal", types.TagDecimal.String())
	assert.Equal(t, "Invalid", types.TagInvalid.String())
}

func TestAtlasMapping(t *testing.T) {
	ft := types.FieldType{Tag: types.TagDecimal, Info: types.TypeInfo{Precision: 10, Scale: 2}}
	assert.NotNil(t, ft.Atlas())

	ft = types.FieldType{Tag: types.TagGUID}
	assert.NotNil(t, ft.Atlas())
}
