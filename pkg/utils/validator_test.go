package utils

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
)

type helmUserForm struct {
	SubscriberID int64  `validate:"required,min=1"`
	Name         string `validate:"required,max=5,alphanum"`
	Ports        []int  `validate:"omitempty,dive,min=1,max=65535"`
}

func TestFormatValidationError(t *testing.T) {
	v := validator.New()

	err := v.Struct(helmUserForm{})
	assert.Equal(t, "field 'SubscriberID' is required; field 'Name' is required", FormatValidationError(err))

	err = v.Struct(helmUserForm{SubscriberID: 1, Name: "ops-team", Ports: []int{0}})
	assert.Equal(t,
		"field 'Name' must be at most 5 characters; field 'Ports[0]' must be at least 1",
		FormatValidationError(err))

	err = v.Struct(helmUserForm{SubscriberID: 1, Name: "ops!"})
	assert.Equal(t, "field 'Name' must be alphanumeric", FormatValidationError(err))
}

func TestFormatJSONErrors(t *testing.T) {
	var out struct {
		ID int64 `json:"id"`
	}
	assert.Equal(t, "field 'id' should be int64", FormatValidationError(json.Unmarshal([]byte(`{"id":"x"}`), &out)))
	assert.Equal(t, "invalid JSON format", FormatValidationError(json.Unmarshal([]byte(`{`), &out)))
	assert.Equal(t, "boom", FormatValidationError(errors.New("boom")))
	assert.Empty(t, FormatValidationError(nil))
}
