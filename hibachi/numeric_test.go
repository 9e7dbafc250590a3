package hibachi

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNum(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "63000", Num("63000.0").String())
	assert.Equal(t, "0.01", Num("0.01").String())
	assert.Panics(t, func() { Num("not a number") })

	p := NumPtr("1.5")
	require.NotNil(t, p)
	assert.Equal(t, "1.5", p.String())
}

func TestValidDecimalString(t *testing.T) {
	t.Parallel()

	valid := []string{"0", "1", "0.01", "63000.5", "100"}
	for _, s := range valid {
		assert.True(t, validDecimalString(s), s)
	}
	invalid := []string{"", "-1", "1.", ".5", "1e5", "abc", "1.2.3", " 1"}
	for _, s := range invalid {
		assert.False(t, validDecimalString(s), s)
	}
}

func TestNewNonceResolution(t *testing.T) {
	t.Parallel()

	before := time.Now().UnixMicro()
	nonce := newNonce()
	after := time.Now().UnixMicro()
	assert.GreaterOrEqual(t, nonce, before)
	assert.LessOrEqual(t, nonce, after)
}

func TestAbsoluteCreationDeadline(t *testing.T) {
	t.Parallel()

	now := time.Now().Unix()
	deadline := absoluteCreationDeadline(Num("30"))
	assert.GreaterOrEqual(t, deadline, now+30)
	assert.LessOrEqual(t, deadline, now+31)
}
