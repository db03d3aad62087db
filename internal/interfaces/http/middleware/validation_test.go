package middleware

import (
	"errors"
	"testing"

	"github.com/gin-gonic/gin/binding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type validationItem struct {
	ProductID int64  `json:"product_id" binding:"required,gt=0"`
	Note      string `json:"note" binding:"max=3"`
}

type validationBody struct {
	Items    []validationItem `json:"items" binding:"dive"`
	OrderDir string           `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

func TestValidationDetails(t *testing.T) {
	SetupValidator()

	body := validationBody{
		Items:    []validationItem{{ProductID: 1}, {ProductID: 0, Note: "too long"}},
		OrderDir: "sideways",
	}
	err := binding.Validator.ValidateStruct(&body)
	require.Error(t, err)

	details := ValidationDetails(err)
	require.Len(t, details, 3)

	byField := make(map[string]string)
	for _, d := range details {
		byField[d.Field] = d.Message
	}
	assert.Equal(t, "This field is required", byField["items[1].product_id"])
	assert.Equal(t, "Must be at most 3 characters", byField["items[1].note"])
	assert.Equal(t, "Must be one of: asc desc", byField["order_dir"])
}

func TestValidationDetails_NotValidationError(t *testing.T) {
	assert.Nil(t, ValidationDetails(errors.New("unexpected EOF")))
	assert.Nil(t, ValidationDetails(nil))
}
