package statusview

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRenderErrorWrapping(t *testing.T) {
	err := NewRenderError(ErrorTypeTooLarge, "description exceeds 10 bytes")
	require.Equal(t, "too_large: description exceeds 10 bytes", err.Error())
	require.Nil(t, err.Unwrap())

	originalErr := errors.New("parse error on line 2")
	wrappedErr := &RenderError{
		Type:    ErrorTypeInvalidDiagram,
		Cause:   originalErr.Error(),
		Wrapped: originalErr,
	}
	require.Equal(t, "invalid_diagram: parse error on line 2", wrappedErr.Error())
	require.True(t, errors.Is(wrappedErr, originalErr))

	var rErr *RenderError
	require.True(t, errors.As(fmt.Errorf("render: %w", wrappedErr), &rErr))
	require.Equal(t, ErrorTypeInvalidDiagram, rErr.Type)
}

func TestRenderErrorClassification(t *testing.T) {
	classified := ClassifyRenderError(context.DeadlineExceeded)
	require.Equal(t, ErrorTypeTimeout, classified.Type)
	require.True(t, errors.Is(classified, context.DeadlineExceeded))

	classified = ClassifyRenderError(errors.New("engine crashed"))
	require.Equal(t, ErrorTypeRenderFailed, classified.Type)

	original := NewRenderError(ErrorTypeTooLarge, "big")
	require.Equal(t, original, ClassifyRenderError(fmt.Errorf("wrapped: %w", original)))
}

func TestRenderErrorMatching(t *testing.T) {
	tooLarge := NewRenderError(ErrorTypeTooLarge, "big")

	require.True(t, MatchesErrorType(tooLarge, ErrorTypeTooLarge))
	require.True(t, MatchesErrorType(tooLarge, ErrorTypeAll))
	require.False(t, MatchesErrorType(tooLarge, ErrorTypeTimeout))
	require.True(t, MatchesErrorType(context.Canceled, ErrorTypeTimeout))
	require.False(t, MatchesErrorType(nil, ErrorTypeAll))
}
