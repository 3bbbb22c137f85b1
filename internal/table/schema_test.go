package table

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func driversSchema() Schema {
	return Schema{
		Table: "drivers",
		Columns: []SchemaColumn{
			{Name: "driverId", Type: TypeInt},
			{Name: "forename", Type: TypeString},
			{Name: "surname", Type: TypeString},
			{Name: "skill", Type: TypeFloat},
			{Name: "nationality", Type: TypeString, Optional: true},
		},
	}
}

func TestSchemaValidateOK(t *testing.T) {
	require.NoError(t, driversSchema().Validate(driversTable()))
}

func TestSchemaValidateMissingColumn(t *testing.T) {
	tbl := MustNew("drivers", []Column{{Name: "driverId", Type: TypeInt}}, nil)

	err := driversSchema().Validate(tbl)
	require.Error(t, err)

	var se *SchemaError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "forename", se.Column)
	assert.Equal(t, -1, se.Row)
	assert.Contains(t, err.Error(), "required column missing")
}

func TestSchemaValidateTypeDrift(t *testing.T) {
	tbl := MustNew("drivers",
		[]Column{
			{Name: "driverId", Type: TypeString},
			{Name: "forename", Type: TypeString},
			{Name: "surname", Type: TypeString},
			{Name: "skill", Type: TypeFloat},
		},
		[][]any{{"one", "Lewis", "Hamilton", 1.0}},
	)

	err := driversSchema().Validate(tbl)
	var se *SchemaError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "driverId", se.Column)
	assert.Equal(t, 0, se.Row)
}

func TestSchemaValidateIntInFloatColumn(t *testing.T) {
	tbl := MustNew("drivers",
		[]Column{
			{Name: "driverId", Type: TypeInt},
			{Name: "forename", Type: TypeString},
			{Name: "surname", Type: TypeString},
			{Name: "skill", Type: TypeInt},
		},
		[][]any{{int64(1), "Lewis", "Hamilton", int64(2)}},
	)
	require.NoError(t, driversSchema().Validate(tbl))

	conformed := driversSchema().Conform(tbl)
	idx, _ := conformed.ColumnIndex("skill")
	assert.Equal(t, TypeFloat, conformed.Columns[idx].Type)
	assert.Equal(t, TypeInt, tbl.Columns[idx].Type, "input untouched")
}
