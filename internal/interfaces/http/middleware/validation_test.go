package middleware

import (
	"errors"
	"testing"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type validatedRequest struct {
	Email string `json:"email" binding:"required,email"`
	Name  string `json:"name" binding:"required,min=2"`
	Kind  string `json:"kind" binding:"omitempty,oneof=static dynamic"`
}

func TestValidationErrors(t *testing.T) {
	SetupValidator()

	t.Run("maps failures to json field names", func(t *testing.T) {
		err := binding.Validator.ValidateStruct(validatedRequest{
			Email: "not-an-email",
			Name:  "x",
			Kind:  "other",
		})
		require.Error(t, err)

		fields, ok := ValidationErrors(err)
		require.True(t, ok)
		require.Len(t, fields, 3)

		byField := map[string]string{}
		for _, f := range fields {
			byField[f.Field] = f.Message
		}
		assert.Equal(t, "Invalid email format", byField["email"])
		assert.Equal(t, "Must be at least 2 characters", byField["name"])
		assert.Equal(t, "Must be one of: static dynamic", byField["kind"])
	})

	t.Run("missing required fields", func(t *testing.T) {
		err := binding.Validator.ValidateStruct(validatedRequest{})
		require.Error(t, err)

		fields, ok := ValidationErrors(err)
		require.True(t, ok)
		require.Len(t, fields, 2)
		assert.Equal(t, "This field is required", fields[0].Message)
	})

	t.Run("non-validation errors pass through", func(t *testing.T) {
		_, ok := ValidationErrors(errors.New("unexpected EOF"))
		assert.False(t, ok)
	})
}

func TestValidationMessageFallback(t *testing.T) {
	type numeric struct {
		Count int `json:"count" binding:"gte=1"`
	}
	err := binding.Validator.ValidateStruct(numeric{Count: 0})
	require.Error(t, err)

	fields, ok := ValidationErrors(err)
	require.True(t, ok)
	require.Len(t, fields, 1)
	assert.Equal(t, "count", fields[0].Field)
	assert.Equal(t, "Invalid value", fields[0].Message)
}

func TestValidatorEngineIsConfigured(t *testing.T) {
	_, ok := binding.Validator.Engine().(*validator.Validate)
	assert.True(t, ok)
}
