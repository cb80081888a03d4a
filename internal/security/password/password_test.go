package password

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// parámetros baratos para tests
var fast = Params{Memory: 1024, Time: 1, Parallelism: 1, KeyLen: 16}

func TestHashVerify(t *testing.T) {
	h, err := Hash(fast, "s3cret-pass")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(h, "$argon2id$v=19$m=1024,t=1,p=1$"), h)

	assert.True(t, Verify("s3cret-pass", h))
	assert.False(t, Verify("other", h))

	h2, err := Hash(fast, "s3cret-pass")
	require.NoError(t, err)
	assert.NotEqual(t, h, h2, "salt must differ")
}

func TestHash_Empty(t *testing.T) {
	_, err := Hash(fast, "")
	require.Error(t, err)
}

func TestVerify_Malformed(t *testing.T) {
	for _, phc := range []string{
		"",
		"plain",
		"$argon2i$v=19$m=1024,t=1,p=1$c2FsdA$a2V5",
		"$argon2id$v=18$m=1024,t=1,p=1$c2FsdA$a2V5",
		"$argon2id$v=19$m=x,t=1,p=1$c2FsdA$a2V5",
		"$argon2id$v=19$m=1024,t=1,p=1$!!$a2V5",
	} {
		assert.False(t, Verify("x", phc), phc)
		_, err := decode(phc)
		assert.ErrorIs(t, err, ErrMalformedHash, phc)
	}
}

func TestNeedsRehash(t *testing.T) {
	h, err := Hash(fast, "s3cret-pass")
	require.NoError(t, err)
	assert.False(t, NeedsRehash(h, fast))
	assert.True(t, NeedsRehash(h, Default))
	assert.True(t, NeedsRehash("garbage", fast))
}

func TestPolicy(t *testing.T) {
	ok, reasons := DefaultPolicy.Validate("short")
	assert.False(t, ok)
	assert.Contains(t, reasons, "too_short")
	assert.Contains(t, reasons, "missing_digit")

	ok, _ = DefaultPolicy.Validate("longenough1")
	assert.True(t, ok)

	_, err := DefaultPolicy.HashChecked("nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too_short")
}
