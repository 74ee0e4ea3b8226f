package response

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/twinchat/twinchat/internal/pkg/errcode"
	appErr "github.com/twinchat/twinchat/internal/pkg/errors"
)

func TestCodeFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", fmt.Errorf("profile: %w", appErr.ErrNotFound), errcode.ErrNotFound},
		{"invalid", fmt.Errorf("%w: bad threshold", appErr.ErrInvalid), errcode.ErrInvalid},
		{"conflict", appErr.Wrap(appErr.ErrConflict, "create profile", errors.New("dup")), errcode.ErrConflict},
		{"store failure is internal", appErr.Wrap(appErr.ErrStore, "list", errors.New("down")), errcode.ErrInternal},
		{"unknown is internal", errors.New("boom"), errcode.ErrInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, message := codeFor(tt.err)
			require.Equal(t, tt.want, code)
			require.NotEmpty(t, message)
			require.NotContains(t, message, "down", "internal detail must not leak")
		})
	}
}

func TestAsCodeErr(t *testing.T) {
	err := AsCodeErr(uint32(errcode.ErrInvalid), "invalid request")
	require.Equal(t, "invalid request", err.Error())
	coded, ok := err.(interface{ Code() uint32 })
	require.True(t, ok)
	require.Equal(t, uint32(errcode.ErrInvalid), coded.Code())
}
