package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/synesthesie/catalog/internal/services"
)

type UserHandler struct {
	userService    *services.UserService
	storageService *services.StorageService
}

func NewUserHandler(userService *services.UserService, storageService *services.StorageService) *UserHandler {
	return &UserHandler{
		userService:    userService,
		storageService: storageService,
	}
}

// GetProfile retrieves the current user's profile
func (h *UserHandler) GetProfile(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	user, err := h.userService.GetProfile(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// UpdateProfile accepts JSON or multipart with an optional profilePicture.
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req services.UpdateProfileInput
	if err := c.ShouldBind(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	files := newUploads(h.storageService)
	defer files.cleanup()
	picture, err := files.stage(c, "profilePicture")
	if err != nil {
		respondError(c, err)
		return
	}

	user, err := h.userService.UpdateProfile(c.Request.Context(), userID, req, picture)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// ListUsers is admin only.
func (h *UserHandler) ListUsers(c *gin.Context) {
	var q services.ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, "invalid query parameters")
		return
	}

	page, err := h.userService.ListUsers(c.Request.Context(), q)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, pageResponse("users", "totalUsers", page))
}

type toggleFunc func(ctx context.Context, userID uuid.UUID, rawID string) (*services.ToggleResult, error)

// toggle builds a handler for one of the like/follow toggles. setName is
// the response key carrying the caller's updated set.
func (h *UserHandler) toggle(fn toggleFunc, setName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUser(c)
		if !ok {
			return
		}

		res, err := fn(c.Request.Context(), userID, c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"message": res.Message,
			setName:   res.IDs,
		})
	}
}

func (h *UserHandler) ToggleLikeSong() gin.HandlerFunc {
	return h.toggle(h.userService.ToggleLikeSong, "likedSongs")
}

func (h *UserHandler) ToggleLikeAlbum() gin.HandlerFunc {
	return h.toggle(h.userService.ToggleLikeAlbum, "likedAlbums")
}

func (h *UserHandler) ToggleFollowArtist() gin.HandlerFunc {
	return h.toggle(h.userService.ToggleFollowArtist, "followedArtists")
}

func (h *UserHandler) ToggleFollowPlaylist() gin.HandlerFunc {
	return h.toggle(h.userService.ToggleFollowPlaylist, "followedPlaylists")
}
