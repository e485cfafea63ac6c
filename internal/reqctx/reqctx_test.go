package reqctx

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrom_Empty(t *testing.T) {
	info := From(context.Background())
	assert.Empty(t, info.ClientAddr)
	assert.Nil(t, info.Principal)
	assert.Zero(t, UserID(context.Background()))
}

func TestWithPrincipal_DerivesNewRecord(t *testing.T) {
	base := With(context.Background(), Info{ClientAddr: "203.0.113.7", UserAgent: "curl"})
	authed := WithPrincipal(base, Principal{UserID: 42, Role: RoleAdmin, TokenID: "jti"})

	// The seeded record is untouched.
	assert.Nil(t, From(base).Principal)

	p := PrincipalFrom(authed)
	require.NotNil(t, p)
	assert.Equal(t, int64(42), p.UserID)
	assert.True(t, p.IsAdmin())
	assert.Equal(t, "203.0.113.7", From(authed).ClientAddr)
	assert.Equal(t, int64(42), UserID(authed))
}

func TestPrincipal_IsAdmin(t *testing.T) {
	var nilPrincipal *Principal
	assert.False(t, nilPrincipal.IsAdmin())
	assert.False(t, (&Principal{Role: RoleUser}).IsAdmin())
}
