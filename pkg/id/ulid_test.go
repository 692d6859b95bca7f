package id_test

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/portal/pkg/id"
)

var crockford = regexp.MustCompile(`^[0-7][0-9A-HJKMNP-TV-Z]{25}$`)

func TestNewULID(t *testing.T) {
	t.Parallel()

	t.Run("format", func(t *testing.T) {
		t.Parallel()
		u := id.NewULID()
		assert.Len(t, u, id.ULIDLen)
		require.Regexp(t, crockford, u)
	})

	t.Run("unique", func(t *testing.T) {
		t.Parallel()
		seen := make(map[string]struct{}, 1000)
		for range 1000 {
			u := id.NewULID()
			_, dup := seen[u]
			require.False(t, dup, u)
			seen[u] = struct{}{}
		}
	})

	t.Run("sorted by time", func(t *testing.T) {
		t.Parallel()
		base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		prev := id.NewULIDAt(base)
		for i := 1; i < 100; i++ {
			next := id.NewULIDAt(base.Add(time.Duration(i) * time.Millisecond))
			assert.Less(t, prev, next)
			prev = next
		}
	})

	t.Run("timestamp prefix", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "0000000000", id.NewULIDAt(time.UnixMilli(0))[:10])
		assert.Equal(t, "0000000001", id.NewULIDAt(time.UnixMilli(1))[:10])
	})
}
