package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/synesthesie/catalog/internal/services"
)

type ArtistHandler struct {
	artistService  *services.ArtistService
	storageService *services.StorageService
}

func NewArtistHandler(artistService *services.ArtistService, storageService *services.StorageService) *ArtistHandler {
	return &ArtistHandler{
		artistService:  artistService,
		storageService: storageService,
	}
}

func (h *ArtistHandler) List(c *gin.Context) {
	var q services.ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, "invalid query parameters")
		return
	}

	page, err := h.artistService.List(c.Request.Context(), q)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, pageResponse("artists", "totalArtists", page))
}

func (h *ArtistHandler) Top(c *gin.Context) {
	artists, err := h.artistService.Top(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, artists)
}

func (h *ArtistHandler) TopSongs(c *gin.Context) {
	songs, err := h.artistService.TopSongs(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, songs)
}

func (h *ArtistHandler) Get(c *gin.Context) {
	artist, err := h.artistService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, artist)
}

// Create accepts multipart with an optional image.
func (h *ArtistHandler) Create(c *gin.Context) {
	var req services.CreateArtistInput
	if err := c.ShouldBind(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	req.Genres = splitList(req.Genres)

	files := newUploads(h.storageService)
	defer files.cleanup()
	image, err := files.stage(c, "image")
	if err != nil {
		respondError(c, err)
		return
	}

	artist, err := h.artistService.Create(c.Request.Context(), req, image)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, artist)
}

func (h *ArtistHandler) Update(c *gin.Context) {
	var req services.UpdateArtistInput
	if err := c.ShouldBind(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	req.Genres = splitList(req.Genres)

	files := newUploads(h.storageService)
	defer files.cleanup()
	image, err := files.stage(c, "image")
	if err != nil {
		respondError(c, err)
		return
	}

	artist, err := h.artistService.Update(c.Request.Context(), c.Param("id"), req, image)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, artist)
}

func (h *ArtistHandler) Delete(c *gin.Context) {
	if err := h.artistService.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Artist removed"})
}
