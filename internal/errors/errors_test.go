package xerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorFormatting(t *testing.T) {
	cause := errors.New("unexpected EOF")
	err := New(ParseError, "failed to parse troops.xml", cause)

	assert.Equal(t, "[PARSE_ERROR] failed to parse troops.xml: unexpected EOF", err.Error())
	assert.ErrorIs(t, err, cause)

	bare := Newf(SameIdentifier, "old and new identifiers are both %q", "wulf")
	assert.Equal(t, `[SAME_IDENTIFIER] old and new identifiers are both "wulf"`, bare.Error())
}

func TestCodeOfWrapped(t *testing.T) {
	err := fmt.Errorf("rename: %w", Newf(InvalidIdentifier, "new identifier is empty"))

	code, ok := CodeOf(err)
	require.True(t, ok)
	assert.Equal(t, InvalidIdentifier, code)
	assert.True(t, Is(err, InvalidIdentifier))
	assert.False(t, Is(err, SameIdentifier))
	assert.False(t, Is(errors.New("plain"), InternalError))
}
