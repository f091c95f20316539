package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAuthorizePlaylist(t *testing.T) {
	actions := []PlaylistAction{
		ActionView,
		ActionEditSongs,
		ActionEditDetails,
		ActionManagePrivacy,
		ActionManageCollaborators,
		ActionDelete,
	}

	allowed := map[PlaylistRole]map[PlaylistAction]bool{
		RoleCreator: {
			ActionView: true, ActionEditSongs: true, ActionEditDetails: true,
			ActionManagePrivacy: true, ActionManageCollaborators: true, ActionDelete: true,
		},
		RoleCollaborator: {ActionView: true, ActionEditSongs: true},
		RoleNone:         {},
	}

	for role, rights := range allowed {
		for _, action := range actions {
			for _, public := range []bool{false, true} {
				err := AuthorizePlaylist(role, action, public)
				want := rights[action] || (action == ActionView && public)
				if want {
					assert.NoError(t, err, "%s action %d public=%v", role, action, public)
					continue
				}
				assert.True(t, IsKind(err, KindForbidden), "%s action %d public=%v: %v", role, action, public, err)
			}
		}
	}
}

func TestPlaylistRoleString(t *testing.T) {
	assert.Equal(t, "creator", RoleCreator.String())
	assert.Equal(t, "collaborator", RoleCollaborator.String())
	assert.Equal(t, "none", RoleNone.String())
}
