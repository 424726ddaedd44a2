package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inheritx/internal/registry/service"
	"inheritx/internal/registry/store"
	id "inheritx/pkg/domain"
)

func TestNewOpensRegistry(t *testing.T) {
	ctx := context.Background()
	owner := id.MustParseAddress("0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed")
	st := store.NewInMemory()
	cfg := Config{RegistryID: id.RegistryIDForOwner(owner), Owner: owner, Store: st}

	mod, err := New(ctx, cfg)
	require.NoError(t, err)
	require.NotNil(t, mod.Handler)

	confirmed, err := mod.Service.IsDeathConfirmed(ctx)
	require.NoError(t, err)
	assert.False(t, confirmed)

	cfg.Owner = id.MustParseAddress("0xfb6916095ca1df60bb79ce92ce3ea74c37c5d359")
	_, err = New(ctx, cfg)
	require.ErrorIs(t, err, service.ErrOwnerMismatch)
}
