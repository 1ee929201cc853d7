package domerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewCarriesCodeAndMessage(t *testing.T) {
	err := New(CodeValidation, "document code is required")
	require.Equal(t, "document code is required", err.Error())
	require.True(t, HasCode(err, CodeValidation))
	require.False(t, HasCode(err, CodeNotFound))
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(cause, CodeInternal, "failed to load document")

	require.ErrorIs(t, err, cause)
	require.Equal(t, "failed to load document: connection refused", err.Error())
	require.Equal(t, CodeInternal, CodeOf(err))
}

func TestCodeOfSeesThroughWrapping(t *testing.T) {
	inner := New(CodeConflict, "document is in a terminal state")
	outer := fmt.Errorf("transition rejected: %w", inner)

	require.Equal(t, CodeConflict, CodeOf(outer))
	require.True(t, HasCode(outer, CodeConflict))
}

func TestUnknownErrorsClassifyAsInternal(t *testing.T) {
	require.Equal(t, CodeInternal, CodeOf(errors.New("boom")))
	require.Equal(t, CodeInternal, CodeOf(nil))
}
