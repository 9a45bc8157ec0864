package payment

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStubGateway_InitializeThenVerify(t *testing.T) {
	g := NewStubGateway("pk_test_1", nil)
	ctx := context.Background()

	co, err := g.Initialize(ctx, Handoff{Reference: "LL-1", Email: "a@b.org", Amount: 11500})
	require.NoError(t, err)
	assert.Equal(t, "pk_test_1", co.PublicKey)
	assert.Equal(t, int64(11500), co.Amount)

	v, err := g.Verify(ctx, "LL-1")
	require.NoError(t, err)
	assert.True(t, v.Paid)
	assert.Equal(t, int64(11500), v.Amount)
}

func TestStubGateway_Rejects(t *testing.T) {
	g := NewStubGateway("", nil)
	ctx := context.Background()

	_, err := g.Initialize(ctx, Handoff{Reference: "", Amount: 1})
	assert.Error(t, err)
	_, err = g.Initialize(ctx, Handoff{Reference: "LL-2", Amount: 0})
	assert.Error(t, err)

	_, err = g.Verify(ctx, "LL-404")
	assert.ErrorIs(t, err, ErrUnknownReference)
}
