package validator

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name   string `validate:"required"`
	Amount int    `validate:"gte=1,lte=100"`
}

func TestValidate_Valid(t *testing.T) {
	err := Validate(sample{Name: "Tênis", Amount: 2})
	assert.NoError(t, err)
}

func TestValidate_MissingRequired(t *testing.T) {
	err := Validate(sample{Amount: 2})

	require.Error(t, err)
	var valErr *ValidationError
	require.True(t, errors.As(err, &valErr))
	assert.Contains(t, valErr.Fields(), "Name")
	assert.Equal(t, "is required", valErr.Fields()["Name"])
}

func TestValidate_OutOfRange(t *testing.T) {
	err := Validate(sample{Name: "Tênis", Amount: 0})

	require.Error(t, err)
	var valErr *ValidationError
	require.True(t, errors.As(err, &valErr))
	assert.Contains(t, valErr.Fields()["Amount"], "greater than or equal to 1")
}

func TestValidate_MultipleFailures(t *testing.T) {
	err := Validate(sample{Amount: 999})

	require.Error(t, err)
	var valErr *ValidationError
	require.True(t, errors.As(err, &valErr))
	assert.Len(t, valErr.Fields(), 2)
	assert.Contains(t, valErr.Error(), "Name")
	assert.Contains(t, valErr.Error(), "Amount")
}
