package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/synesthesie/catalog/internal/services"
)

type AlbumHandler struct {
	albumService   *services.AlbumService
	storageService *services.StorageService
}

func NewAlbumHandler(albumService *services.AlbumService, storageService *services.StorageService) *AlbumHandler {
	return &AlbumHandler{
		albumService:   albumService,
		storageService: storageService,
	}
}

func (h *AlbumHandler) List(c *gin.Context) {
	var q services.ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, "invalid query parameters")
		return
	}

	page, err := h.albumService.List(c.Request.Context(), q)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, pageResponse("albums", "totalAlbums", page))
}

func (h *AlbumHandler) NewReleases(c *gin.Context) {
	albums, err := h.albumService.NewReleases(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, albums)
}

func (h *AlbumHandler) Get(c *gin.Context) {
	album, err := h.albumService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, album)
}

// Create accepts multipart with an optional coverImage.
func (h *AlbumHandler) Create(c *gin.Context) {
	var req services.CreateAlbumInput
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

	album, err := h.albumService.Create(c.Request.Context(), req, cover)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, album)
}

func (h *AlbumHandler) Update(c *gin.Context) {
	var req services.UpdateAlbumInput
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

	album, err := h.albumService.Update(c.Request.Context(), c.Param("id"), req, cover)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, album)
}

func (h *AlbumHandler) Delete(c *gin.Context) {
	if err := h.albumService.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Album removed"})
}

func (h *AlbumHandler) AddSongs(c *gin.Context) {
	var req services.SongIDsInput
	if err := c.ShouldBind(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	req.SongIDs = splitList(req.SongIDs)

	album, err := h.albumService.AddSongs(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, album)
}

func (h *AlbumHandler) RemoveSong(c *gin.Context) {
	album, err := h.albumService.RemoveSong(c.Request.Context(), c.Param("id"), c.Param("songId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, album)
}
