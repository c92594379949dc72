package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRole_AtLeast(t *testing.T) {
	cases := []struct {
		have, need Role
		want       bool
	}{
		{RoleUser, RoleUser, true},
		{RoleUser, RoleAdmin, false},
		{RoleUser, RoleSuperAdmin, false},
		{RoleAdmin, RoleUser, true},
		{RoleAdmin, RoleAdmin, true},
		{RoleAdmin, RoleSuperAdmin, false},
		{RoleSuperAdmin, RoleUser, true},
		{RoleSuperAdmin, RoleAdmin, true},
		{RoleSuperAdmin, RoleSuperAdmin, true},
		{Role(0), RoleUser, false},
		{Role(9), RoleUser, false},
		{RoleSuperAdmin, Role(0), false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, tc.have.AtLeast(tc.need), "%s.AtLeast(%s)", tc.have, tc.need)
	}
}

func TestParseRole(t *testing.T) {
	r, err := ParseRole(" super_admin ")
	require.NoError(t, err)
	assert.Equal(t, RoleSuperAdmin, r)

	_, err = ParseRole("root")
	assert.Error(t, err)
}

func TestRole_JSON(t *testing.T) {
	out, err := json.Marshal(struct {
		Role Role `json:"role"`
	}{RoleAdmin})
	require.NoError(t, err)
	assert.JSONEq(t, `{"role":"ADMIN"}`, string(out))

	var in struct {
		Role Role `json:"role"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"role":"USER"}`), &in))
	assert.Equal(t, RoleUser, in.Role)

	assert.Error(t, json.Unmarshal([]byte(`{"role":"GOD"}`), &in))

	_, err = json.Marshal(struct{ R Role }{Role(0)})
	assert.Error(t, err)
}
