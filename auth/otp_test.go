package auth

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateOTP(t *testing.T) {
	for i := 0; i < 100; i++ {
		code, err := GenerateOTP()
		require.NoError(t, err)
		require.Len(t, code, 6, "Codes are always 6 characters")

		n, err := strconv.Atoi(code)
		require.NoError(t, err, "Codes are numeric")
		assert.GreaterOrEqual(t, n, 100000, "No leading zeros")
		assert.LessOrEqual(t, n, 999999)
	}
}
