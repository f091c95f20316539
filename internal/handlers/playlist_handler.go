package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/synesthesie/catalog/internal/services"
)

type PlaylistHandler struct {
	playlistService *services.PlaylistService
	storageService  *services.StorageService
}

func NewPlaylistHandler(playlistService *services.PlaylistService, storageService *services.StorageService) *PlaylistHandler {
	return &PlaylistHandler{
		playlistService: playlistService,
		storageService:  storageService,
	}
}

// List returns public playlists only.
func (h *PlaylistHandler) List(c *gin.Context) {
	var q services.ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, "invalid query parameters")
		return
	}

	page, err := h.playlistService.ListPublic(c.Request.Context(), q)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, pageResponse("playlists", "totalPlaylists", page))
}

func (h *PlaylistHandler) Featured(c *gin.Context) {
	playlists, err := h.playlistService.Featured(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, playlists)
}

func (h *PlaylistHandler) Mine(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	playlists, err := h.playlistService.ListForUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, playlists)
}

// Get runs behind OptionalAuth; private playlists need the creator or a
// collaborator.
func (h *PlaylistHandler) Get(c *gin.Context) {
	playlist, err := h.playlistService.Get(c.Request.Context(), c.Param("id"), optionalUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, playlist)
}

func (h *PlaylistHandler) Create(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req services.CreatePlaylistInput
	if err := c.ShouldBind(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	files := newUploads(h.storageService)
	defer files.cleanup()
	cover, err := files.stage(c, "coverImage")
	if err != nil {
		respondError(c, err)
		return
	}

	playlist, err := h.playlistService.Create(c.Request.Context(), userID, req, cover)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, playlist)
}

func (h *PlaylistHandler) Update(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req services.UpdatePlaylistInput
	if err := c.ShouldBind(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	files := newUploads(h.storageService)
	defer files.cleanup()
	cover, err := files.stage(c, "coverImage")
	if err != nil {
		respondError(c, err)
		return
	}

	playlist, err := h.playlistService.Update(c.Request.Context(), c.Param("id"), userID, req, cover)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, playlist)
}

func (h *PlaylistHandler) Delete(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	if err := h.playlistService.Delete(c.Request.Context(), c.Param("id"), userID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Playlist removed"})
}

func (h *PlaylistHandler) AddSongs(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req services.SongIDsInput
	if err := c.ShouldBind(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	req.SongIDs = splitList(req.SongIDs)

	playlist, err := h.playlistService.AddSongs(c.Request.Context(), c.Param("id"), userID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, playlist)
}

func (h *PlaylistHandler) RemoveSong(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	playlist, err := h.playlistService.RemoveSong(c.Request.Context(), c.Param("id"), userID, c.Param("songId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, playlist)
}

func (h *PlaylistHandler) AddCollaborator(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req services.CollaboratorInput
	if err := c.ShouldBind(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	playlist, err := h.playlistService.AddCollaborator(c.Request.Context(), c.Param("id"), userID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, playlist)
}

func (h *PlaylistHandler) RemoveCollaborator(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req services.CollaboratorInput
	if err := c.ShouldBind(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	playlist, err := h.playlistService.RemoveCollaborator(c.Request.Context(), c.Param("id"), userID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, playlist)
}
