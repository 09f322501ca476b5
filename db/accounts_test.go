// ABOUTME: Tests for account persistence
// ABOUTME: Covers upsert semantics and lookup by admin id
package db

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tylercowie/intercomconnector/models"
)

func testDatabase(t *testing.T) *AccountStore {
	t.Helper()
	database, err := OpenDatabase(filepath.Join(t.TempDir(), "connector.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return NewAccountStore(database)
}

func TestAccountStoreRoundtrip(t *testing.T) {
	store := testDatabase(t)
	ctx := context.Background()

	account := models.Account{
		AccountID:     "admin-1",
		Token:         "tok-1",
		Auth:          models.AuthOAuth2,
		IntercomAppID: "app-1",
	}
	require.NoError(t, store.SetByID(ctx, "admin-1", account))

	got, err := store.FindByID(ctx, "admin-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "admin-1", got.AccountID)
	assert.Equal(t, "tok-1", got.Token)
	assert.Equal(t, "app-1", got.IntercomAppID)
}

func TestAccountStoreUpsertReplacesToken(t *testing.T) {
	store := testDatabase(t)
	ctx := context.Background()

	require.NoError(t, store.SetByID(ctx, "admin-1", models.Account{Token: "old"}))
	require.NoError(t, store.SetByID(ctx, "admin-1", models.Account{Token: "new", IntercomAppID: "app-9"}))

	got, err := store.FindByID(ctx, "admin-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "new", got.Token)
	assert.Equal(t, "app-9", got.IntercomAppID)
}

func TestAccountStoreFindMissing(t *testing.T) {
	store := testDatabase(t)

	got, err := store.FindByID(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Nil(t, got)
}
