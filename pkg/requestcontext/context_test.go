package requestcontext

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAccessors(t *testing.T) {
	t.Run("empty context yields zero values", func(t *testing.T) {
		ctx := context.Background()
		assert.Empty(t, ActorID(ctx))
		assert.Empty(t, RequestID(ctx))
		assert.WithinDuration(t, time.Now(), Now(ctx), time.Second)
	})

	t.Run("injected values round trip", func(t *testing.T) {
		fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
		ctx := WithTime(WithRequestID(WithActorID(context.Background(), "admin-1"), "req-9"), fixed)
		assert.Equal(t, "admin-1", ActorID(ctx))
		assert.Equal(t, "req-9", RequestID(ctx))
		assert.Equal(t, fixed, Now(ctx))
	})
}
