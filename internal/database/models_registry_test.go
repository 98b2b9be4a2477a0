package database

import (
	"testing"

	modelspkg "socialhub/internal/models"

	"github.com/stretchr/testify/require"
)

func TestPersistentModels_UsersBeforeLedgers(t *testing.T) {
	all := PersistentModels()
	require.Len(t, all, 4)
	_, ok := all[0].(*modelspkg.User)
	require.True(t, ok, "users must be migrated first")
	_, ok = all[3].(*modelspkg.Follow)
	require.True(t, ok, "PersistentModels should include Follow")
}
