package khub

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestACLAuthenticate(t *testing.T) {
	acl := NewACL()
	require.NoError(t, acl.Register("admin", "hunter2", CredAdmin))

	cred, err := acl.Authenticate("admin", "hunter2")
	require.NoError(t, err)
	assert.Equal(t, CredAdmin, cred)

	// Registered nicks are case-insensitive.
	cred, err = acl.Authenticate("ADMIN", "hunter2")
	require.NoError(t, err)
	assert.Equal(t, CredAdmin, cred)

	_, err = acl.Authenticate("admin", "wrong")
	assert.ErrorIs(t, err, ErrAccessDenied)

	// Unknown nicks fall through to guest access.
	cred, err = acl.Authenticate("stranger", "")
	require.NoError(t, err)
	assert.Equal(t, CredGuest, cred)
}

func TestACLRegisterDuplicate(t *testing.T) {
	acl := NewACL()
	require.NoError(t, acl.Register("op", "secret", CredOperator))
	assert.ErrorIs(t, acl.Register("OP", "other", CredOperator), ErrUserExists)
}

func TestACLBans(t *testing.T) {
	acl := NewACL()

	acl.BanNick("Mallory")
	assert.True(t, acl.IsNickBanned("mallory"))
	assert.False(t, acl.IsNickBanned("alice"))

	assert.True(t, acl.UnbanNick("MALLORY"))
	assert.False(t, acl.IsNickBanned("mallory"))
	assert.False(t, acl.UnbanNick("mallory"))

	acl.BanAddr("203.0.113.7")
	assert.True(t, acl.IsAddrBanned("203.0.113.7"))
	assert.True(t, acl.UnbanAddr("203.0.113.7"))
	assert.False(t, acl.IsAddrBanned("203.0.113.7"))
	assert.False(t, acl.UnbanAddr("203.0.113.7"))
}
