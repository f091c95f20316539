package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/synesthesie/catalog/internal/services"
)

type SongHandler struct {
	songService    *services.SongService
	storageService *services.StorageService
}

func NewSongHandler(songService *services.SongService, storageService *services.StorageService) *SongHandler {
	return &SongHandler{
		songService:    songService,
		storageService: storageService,
	}
}

func (h *SongHandler) List(c *gin.Context) {
	var q services.ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, "invalid query parameters")
		return
	}

	page, err := h.songService.List(c.Request.Context(), q)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, pageResponse("songs", "totalSongs", page))
}

func (h *SongHandler) Top(c *gin.Context) {
	songs, err := h.songService.Top(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, songs)
}

func (h *SongHandler) NewReleases(c *gin.Context) {
	songs, err := h.songService.NewReleases(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, songs)
}

// Get returns the song and counts a play.
func (h *SongHandler) Get(c *gin.Context) {
	song, err := h.songService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, song)
}

// Create requires the audio file, cover is optional.
func (h *SongHandler) Create(c *gin.Context) {
	var req services.CreateSongInput
	if err := c.ShouldBind(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	req.FeaturedArtists = splitList(req.FeaturedArtists)

	files := newUploads(h.storageService)
	defer files.cleanup()
	audio, err := files.stage(c, "audio")
	if err != nil {
		respondError(c, err)
		return
	}
	cover, err := files.stage(c, "cover")
	if err != nil {
		respondError(c, err)
		return
	}

	song, err := h.songService.Create(c.Request.Context(), req, audio, cover)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, song)
}

func (h *SongHandler) Update(c *gin.Context) {
	var req services.UpdateSongInput
	if err := c.ShouldBind(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	req.FeaturedArtists = splitList(req.FeaturedArtists)

	files := newUploads(h.storageService)
	defer files.cleanup()
	audio, err := files.stage(c, "audio")
	if err != nil {
		respondError(c, err)
		return
	}
	cover, err := files.stage(c, "cover")
	if err != nil {
		respondError(c, err)
		return
	}

	song, err := h.songService.Update(c.Request.Context(), c.Param("id"), req, audio, cover)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, song)
}

func (h *SongHandler) Delete(c *gin.Context) {
	if err := h.songService.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Song removed"})
}
