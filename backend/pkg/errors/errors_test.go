package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTypeOf_WalksWrappedChain(t *testing.T) {
	err := fmt.Errorf("listing friends: %w", NewStoreFailure("friends", errors.New("connection reset")))

	assert.Equal(t, ErrorTypeStore, TypeOf(err))
	assert.True(t, IsErrorType(err, ErrorTypeStore))
	assert.False(t, IsErrorType(err, ErrorTypeNotFound))
	assert.Equal(t, ErrorType(""), TypeOf(errors.New("plain")))
}

func TestSearchUnsupported_IsComparable(t *testing.T) {
	err := fmt.Errorf("search: %w", ErrSearchUnsupported)

	assert.True(t, errors.Is(err, ErrSearchUnsupported))
	assert.Equal(t, ErrorTypeSearchUnsupported, TypeOf(err))
}

func TestFieldsOf(t *testing.T) {
	nf := NewNotFound(map[string]string{"userId2": "not found"})
	assert.Equal(t, map[string]string{"userId2": "not found"}, FieldsOf(nf))

	is := fmt.Errorf("wrap: %w", NewInvalidState(map[string]string{"userId1": "not invited"}))
	assert.Equal(t, map[string]string{"userId1": "not invited"}, FieldsOf(is))

	assert.Equal(t, map[string]string{"mail": "already exists"}, FieldsOf(NewConflict("mail")))
	assert.Nil(t, FieldsOf(errors.New("plain")))
}

func TestBaseError_Message(t *testing.T) {
	err := NewStoreFailure("count users", errors.New("boom"))
	assert.Equal(t, "[store] store operation failed: count users: boom", err.Error())
	assert.Equal(t, "[search_unsupported] search phrase could not be embedded", ErrSearchUnsupported.Error())
}
