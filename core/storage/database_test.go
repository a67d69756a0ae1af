package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/evcc-io/ownerportal/vehicle/mitsubishi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTest(t *testing.T) {
	t.Helper()

	require.NoError(t, Open(filepath.Join(t.TempDir(), "ownerportal.db")))
	t.Cleanup(func() { db = nil })
}

func TestNotOpened(t *testing.T) {
	assert.Nil(t, Account("user"))

	_, err := Load("user")
	assert.Error(t, err)
	assert.Error(t, Save("user", mitsubishi.Credentials{}))
}

func TestLoadSave(t *testing.T) {
	openTest(t)

	creds, err := Load("user@example.com")
	require.NoError(t, err)
	assert.Equal(t, mitsubishi.Credentials{}, creds)

	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	creds = mitsubishi.Credentials{
		UID:              "uid-1",
		AccessToken:      "at",
		TokenTime:        now,
		RefreshToken:     "rt",
		RefreshTokenTime: now.Add(-time.Hour),
	}

	require.NoError(t, Save("user@example.com", creds))

	// update
	creds.AccessToken = "at2"
	require.NoError(t, Save("user@example.com", creds))

	res, err := Load("user@example.com")
	require.NoError(t, err)
	assert.Equal(t, "uid-1", res.UID)
	assert.Equal(t, "at2", res.AccessToken)
	assert.True(t, now.Equal(res.TokenTime))
	assert.True(t, now.Add(-time.Hour).Equal(res.RefreshTokenTime))

	other, err := Load("other@example.com")
	require.NoError(t, err)
	assert.Empty(t, other.UID)
}

func TestAccount(t *testing.T) {
	openTest(t)

	store := Account("user@example.com")
	require.NotNil(t, store)

	require.NoError(t, store.Save(mitsubishi.Credentials{UID: "uid-1"}))

	res, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "uid-1", res.UID)
}
