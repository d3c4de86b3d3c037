package errno

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantMsg  string
	}{
		{"nil", nil, 0, "Success"},
		{"plain errno", ErrInvalidNonce, 30103, "Nonce must be an integer"},
		{"wrapped detail", ErrInvalidAddress.Wrap("missing prefix"), 30101, "Entered address is not valid: missing prefix"},
		{"fmt wrapped", fmt.Errorf("build: %w", ErrPrecision.Wrap("1.0000000001")), 30104, "Amount has more precision than the atomic unit allows: 1.0000000001"},
		{"unknown", errors.New("boom"), 10001, "boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, msg := Decode(tt.err)
			assert.Equal(t, tt.wantCode, code)
			assert.Equal(t, tt.wantMsg, msg)
		})
	}
}

func TestErrorsIsMatchesSentinel(t *testing.T) {
	err := fmt.Errorf("payment: %w", ErrSigningFailure.Wrapf("memo too long (%d bytes)", 40))

	assert.True(t, errors.Is(err, ErrSigningFailure))
	assert.False(t, errors.Is(err, ErrCancelled))
	assert.True(t, Is(err, ErrSigningFailure))
	assert.False(t, Is(nil, OK))
}
