package diag_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/carlodf/pansql/diag"
)

func TestLexError(t *testing.T) {
	t.Run("Error", func(t *testing.T) {
		err := diag.NewLexError(3, 7, "unterminated string")
		assert.Equal(t, "pansql: lex error at 3:7: unterminated string", err.Error())
	})

	t.Run("Is", func(t *testing.T) {
		err := diag.NewLexError(1, 1, "bad token")
		assert.True(t, errors.Is(err, diag.ErrLex))
	})

	t.Run("IsLexError", func(t *testing.T) {
		err := diag.NewLexError(1, 1, "bad token")
		assert.True(t, diag.IsLexError(err))

		wrapped := fmt.Errorf("wrapper: %w", err)
		assert.True(t, diag.IsLexError(wrapped))

		assert.False(t, diag.IsLexError(errors.New("other error")))
		assert.False(t, diag.IsLexError(nil))
	})
}

func TestParseError(t *testing.T) {
	err := diag.NewParseError(2, 4, "INTO", "EOF")
	assert.Equal(t, "pansql: parse error at 2:4: expected INTO, got EOF", err.Error())
	assert.True(t, errors.Is(err, diag.ErrParse))
	assert.True(t, diag.IsParseError(err))
}

func TestResolveError(t *testing.T) {
	err := diag.NewResolveError("users", "the stream 'users' has already been processed")
	assert.Equal(t, "pansql: users: the stream 'users' has already been processed", err.Error())
	assert.True(t, diag.IsResolveError(err))
	assert.False(t, diag.IsStructuralError(err))
}

func TestTypeError(t *testing.T) {
	t.Run("with stream", func(t *testing.T) {
		err := diag.NewTypeError("users2", "The following field(s) on users2 are not nullable, but are not assigned a value: Id")
		assert.Equal(t, "pansql: users2: The following field(s) on users2 are not nullable, but are not assigned a value: Id", err.Error())
	})
	t.Run("without stream", func(t *testing.T) {
		err := diag.NewTypeError("", "incompatible assignment")
		assert.Equal(t, "pansql: incompatible assignment", err.Error())
	})
	assert.True(t, diag.IsTypeError(diag.NewTypeError("x", "y")))
}

func TestStructuralError(t *testing.T) {
	err := diag.NewStructuralError("The stream 'users' has already been processed; a Stream can be consumed at most once")
	assert.True(t, errors.Is(err, diag.ErrStructural))
	assert.True(t, diag.IsStructuralError(err))
}

func TestIOError(t *testing.T) {
	cause := errors.New("no such file")
	err := diag.NewIOError("dicts/main.dict", "dictionary file missing", cause)
	assert.Equal(t, "pansql: dicts/main.dict: dictionary file missing: no such file", err.Error())
	assert.True(t, errors.Is(err, diag.ErrIO))
	assert.Same(t, cause, errors.Unwrap(err))
}

func TestCompilerError(t *testing.T) {
	inner := diag.NewStructuralError("ORDER BY is not supported for queries involving a STREAM input.")
	err := diag.NewCompilerError("sync.pansql", inner)
	assert.Equal(t, "sync.pansql: pansql: ORDER BY is not supported for queries involving a STREAM input.", err.Error())
	assert.True(t, diag.IsStructuralError(err))
	assert.ErrorIs(t, err, diag.ErrStructural)
}
