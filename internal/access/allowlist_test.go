package access

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAllowlist(t *testing.T) {
	t.Run("case insensitive membership", func(t *testing.T) {
		a := NewAllowlist([]string{"a@x.com"})
		assert.True(t, a.IsAllowed("A@X.COM"))
		assert.True(t, a.IsAllowed(" a@x.com "))
		assert.False(t, a.IsAllowed("b@x.com"))
		assert.False(t, a.Open())
	})

	t.Run("entries are normalized", func(t *testing.T) {
		a := NewAllowlist([]string{"  Admin@Example.COM ", ""})
		assert.True(t, a.IsAllowed("admin@example.com"))
	})

	t.Run("empty list admits any non-empty email", func(t *testing.T) {
		a := NewAllowlist(nil)
		assert.True(t, a.Open())
		assert.True(t, a.IsAllowed("anyone@anywhere.io"))
		assert.False(t, a.IsAllowed(""))
		assert.False(t, a.IsAllowed("   "))
	})

	t.Run("nil allowlist behaves as empty", func(t *testing.T) {
		var a *Allowlist
		assert.True(t, a.IsAllowed("x@y.z"))
	})
}
