package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidatePassword(t *testing.T) {
	assert.True(t, ValidatePassword("password123"))
	assert.True(t, ValidatePassword("123456"))
	assert.False(t, ValidatePassword("12345"))
	assert.False(t, ValidatePassword(""))
}

func TestValidateEmail(t *testing.T) {
	assert.True(t, ValidateEmail("ana@example.com"))
	assert.False(t, ValidateEmail("ana"))
	assert.False(t, ValidateEmail("@example.com"))
	assert.False(t, ValidateEmail("ana@"))
	assert.False(t, ValidateEmail("ana@nodot"))
}

func TestRegisterRejectsInvalidInput(t *testing.T) {
	svc := newTestService(newFakeStore())

	_, _, err := svc.Register(context.Background(), RegisterInput{
		Email:    "not-an-email",
		Password: "password123",
		Cedula:   "123",
	})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, _, err = svc.Register(context.Background(), RegisterInput{
		Email:    "ana@example.com",
		Password: "short",
		Cedula:   "123",
	})
	assert.ErrorIs(t, err, ErrInvalidInput)
}
