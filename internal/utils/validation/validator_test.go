package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fieldRequest struct {
	Value *string `json:"value" validate:"required,max=8"`
}

func strPtr(s string) *string { return &s }

func TestRequestValidator_Struct(t *testing.T) {
	v := New()

	assert.Empty(t, v.Struct(fieldRequest{Value: strPtr("")}))
	assert.Empty(t, v.Struct(fieldRequest{Value: strPtr("12345678")}))

	errs := v.Struct(fieldRequest{})
	require.Len(t, errs, 1)
	assert.Equal(t, "value", errs[0].Field)
	assert.Equal(t, "is required", errs[0].Message)

	errs = v.Struct(fieldRequest{Value: strPtr("123456789")})
	require.Len(t, errs, 1)
	assert.Equal(t, "must be at most 8 characters", errs[0].Message)
	assert.Equal(t, "value: must be at most 8 characters", errs[0].Error())
}

func TestRequestValidator_Var(t *testing.T) {
	v := New()

	assert.Nil(t, v.Var("field", "cvv", "oneof=number cvv"))

	err := v.Var("field", "pin", "oneof=number cvv")
	require.NotNil(t, err)
	assert.Equal(t, "field", err.Field)
	assert.Equal(t, "must be one of: number cvv", err.Message)
}
