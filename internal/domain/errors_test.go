package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidationError_EsErrInvalidInput(t *testing.T) {
	err := fmt.Errorf("crear cliente: %w", Invalid("nip", "requerido"))
	assert.True(t, errors.Is(err, ErrInvalidInput))

	var ve *ValidationError
	assert.True(t, errors.As(err, &ve))
	assert.Equal(t, "nip", ve.Field)
	assert.Equal(t, "nip: requerido", ve.Error())
}
