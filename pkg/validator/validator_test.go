package validator

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/utafrali/PizzaGo/pkg/errors"
)

type testForm struct {
	Address string `json:"address" validate:"required,min=5,max=200"`
	Phone   string `json:"phone" validate:"required,phone"`
	Qty     int    `json:"quantity" validate:"gte=1,lte=99"`
	Dialect string `json:"dialect" validate:"omitempty,oneof=session token legacy"`
}

func validForm() testForm {
	return testForm{Address: "Tverskaya 1", Phone: "+7 (999) 123-45-67", Qty: 1}
}

func TestValidate_Success(t *testing.T) {
	assert.NoError(t, Validate(validForm()))
}

func TestValidate_MissingRequired_UsesJSONName(t *testing.T) {
	f := validForm()
	f.Address = ""
	err := Validate(f)
	require.Error(t, err)

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	fields := valErr.Fields()
	assert.Equal(t, "is required", fields["address"])
}

func TestValidate_Phone(t *testing.T) {
	tests := map[string]bool{
		"+79991234567":       true,
		"8 999 123 45 67":    true,
		"+7 (999) 123-45-67": true,
		"call me":            false,
		"12":                 false,
	}
	for phone, ok := range tests {
		f := validForm()
		f.Phone = phone
		err := Validate(f)
		if ok {
			assert.NoError(t, err, phone)
			continue
		}
		var valErr *ValidationError
		require.ErrorAs(t, err, &valErr, phone)
		assert.Equal(t, "must be a valid phone number", valErr.Fields()["phone"])
	}
}

func TestValidate_RangeMessages(t *testing.T) {
	f := validForm()
	f.Address = "abc"
	f.Qty = 0
	f.Dialect = "grpc"

	var valErr *ValidationError
	require.ErrorAs(t, Validate(f), &valErr)
	fields := valErr.Fields()
	assert.Equal(t, "must be at least 5 characters", fields["address"])
	assert.Equal(t, "must be greater than or equal to 1", fields["quantity"])
	assert.Equal(t, "must be one of: session token legacy", fields["dialect"])
	assert.Contains(t, valErr.Error(), "field 'address'")
}

func TestValidationError_AppError(t *testing.T) {
	f := validForm()
	f.Phone = ""

	var valErr *ValidationError
	require.ErrorAs(t, Validate(f), &valErr)

	appErr := valErr.AppError()
	assert.True(t, errors.Is(appErr, apperrors.ErrValidation))
	assert.Equal(t, []string{"is required"}, appErr.Fields["phone"])
	assert.Equal(t, []string{"phone: is required"}, appErr.Messages())
}

func TestValidate_NonStruct(t *testing.T) {
	err := Validate("not a struct")
	require.Error(t, err)
	var valErr *ValidationError
	assert.False(t, errors.As(err, &valErr))
}
