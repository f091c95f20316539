package services

import (
	"github.com/google/uuid"
	"github.com/synesthesie/catalog/internal/models"
	"gorm.io/gorm"
)

// PlaylistRole is the relation between a caller and a playlist.
type PlaylistRole int

const (
	RoleNone PlaylistRole = iota
	RoleCollaborator
	RoleCreator
)

func (r PlaylistRole) String() string {
	switch r {
	case RoleCreator:
		return "creator"
	case RoleCollaborator:
		return "collaborator"
	default:
		return "none"
	}
}

// PlaylistAction is something a caller wants to do with a playlist.
type PlaylistAction int

const (
	ActionView PlaylistAction = iota
	ActionEditSongs
	ActionEditDetails
	ActionManagePrivacy
	ActionManageCollaborators
	ActionDelete
)

// AuthorizePlaylist decides whether role may perform action on a playlist
// with the given visibility. The creator may do everything, collaborators
// may view and change the song list, everyone else may only view public
// playlists.
func AuthorizePlaylist(role PlaylistRole, action PlaylistAction, isPublic bool) error {
	if role == RoleCreator {
		return nil
	}

	switch action {
	case ActionView:
		if isPublic || role == RoleCollaborator {
			return nil
		}
		return ForbiddenError("this playlist is private")
	case ActionEditSongs:
		if role == RoleCollaborator {
			return nil
		}
		return ForbiddenError("only the creator or a collaborator can change the songs of this playlist")
	case ActionManageCollaborators:
		return ForbiddenError("only the creator can manage collaborators")
	case ActionDelete:
		return ForbiddenError("only the creator can delete this playlist")
	default:
		return ForbiddenError("only the creator can update this playlist")
	}
}

// playlistRole resolves the role of userID on p. A nil userID is an
// anonymous caller.
func playlistRole(tx *gorm.DB, p *models.Playlist, userID *uuid.UUID) (PlaylistRole, error) {
	if userID == nil {
		return RoleNone, nil
	}
	if p.CreatorID == *userID {
		return RoleCreator, nil
	}
	var n int64
	err := tx.Model(&models.PlaylistCollaborator{}).
		Where("playlist_id = ? AND user_id = ?", p.ID, *userID).
		Count(&n).Error
	if err != nil {
		return RoleNone, UpstreamError("failed to look up collaborators", err)
	}
	if n > 0 {
		return RoleCollaborator, nil
	}
	return RoleNone, nil
}
