package auth

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	herr "github.com/Haventide/haventide-core/pkg/errors"
)

func TestRequestIDContext(t *testing.T) {
	t.Parallel()

	ctx := ContextWithRequestID(context.Background(), "req-123")
	id, ok := RequestIDFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, "req-123", id)

	_, ok = RequestIDFromContext(context.Background())
	assert.False(t, ok)

	_, ok = RequestIDFromContext(ContextWithRequestID(context.Background(), ""))
	assert.False(t, ok, "an empty ID is the same as none")
}

func TestUserContext(t *testing.T) {
	t.Parallel()

	user := NewUserContext("user-1", "clinic-a", nil)
	ctx := ContextWithUser(context.Background(), user)

	got, ok := UserFromContext(ctx)
	require.True(t, ok)
	assert.Same(t, user, got)

	_, ok = UserFromContext(context.Background())
	assert.False(t, ok)

	_, ok = UserFromContext(ContextWithUser(context.Background(), nil))
	assert.False(t, ok)
}

func TestMustUserFromContext(t *testing.T) {
	t.Parallel()

	t.Run("present", func(t *testing.T) {
		t.Parallel()
		ctx := ContextWithUser(context.Background(), NewUserContext("user-1", "clinic-a", nil))
		user, err := MustUserFromContext(ctx)
		require.NoError(t, err)
		assert.Equal(t, "user-1", user.UserID)
	})

	t.Run("absent fails closed", func(t *testing.T) {
		t.Parallel()
		_, err := MustUserFromContext(context.Background())
		require.Error(t, err)
		assert.Equal(t, herr.CodeAuthorizationTenantMissing, herr.GetCode(err))
	})
}

func TestTenantIDFromContext(t *testing.T) {
	t.Parallel()

	ctx := ContextWithUser(context.Background(), NewUserContext("user-1", "clinic-a", nil))
	tenantID, ok := TenantIDFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, "clinic-a", tenantID)

	_, ok = TenantIDFromContext(context.Background())
	assert.False(t, ok)
}

// Concurrent requests must each see their own identity; a leak across
// contexts here would be a tenant isolation break.
func TestUserContext_ConcurrentIsolation(t *testing.T) {
	t.Parallel()

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			userID := fmt.Sprintf("user-%d", i)
			tenantID := fmt.Sprintf("tenant-%d", i)
			ctx := ContextWithUser(context.Background(), NewUserContext(userID, tenantID, nil))

			got, ok := UserFromContext(ctx)
			assert.True(t, ok)
			assert.Equal(t, userID, got.UserID)
			assert.Equal(t, tenantID, got.TenantID)
		}()
	}
	wg.Wait()
}

func TestTraceIDFromContext_NoSpan(t *testing.T) {
	t.Parallel()
	assert.Empty(t, TraceIDFromContext(context.Background()))
	assert.Empty(t, SpanIDFromContext(context.Background()))
}
