package user

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	cases := map[string]Role{
		"Advertiser":     RoleAdvertiser,
		"ADVERTISER":     RoleAdvertiser,
		"Property Owner": RolePropertyOwner,
		"PROPERTY_OWNER": RolePropertyOwner,
		" owner ":        RolePropertyOwner,
	}
	for in, want := range cases {
		got, err := ParseRole(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseRole("admin")
	assert.ErrorIs(t, err, ErrInvalidRole)
}

func TestPrincipalIs(t *testing.T) {
	assert.True(t, Principal{ID: "u1", Role: RoleAdvertiser}.Is(RoleAdvertiser))
	assert.False(t, Principal{ID: "u1", Role: RoleAdvertiser}.Is(RolePropertyOwner))
	assert.False(t, Principal{Role: RoleAdvertiser}.Is(RoleAdvertiser))
	assert.Equal(t, "Property Owner", RolePropertyOwner.Label())
}
