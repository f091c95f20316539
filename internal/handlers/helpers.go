package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/synesthesie/catalog/internal/middleware"
	"github.com/synesthesie/catalog/internal/services"
)

// currentUserID returns the id Auth stored on the context.
func currentUserID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(middleware.ContextUserID)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}

// optionalUserID is currentUserID for routes behind OptionalAuth.
func optionalUserID(c *gin.Context) *uuid.UUID {
	id, ok := currentUserID(c)
	if !ok {
		return nil
	}
	return &id
}

func requireUser(c *gin.Context) (uuid.UUID, bool) {
	id, ok := currentUserID(c)
	if !ok {
		respondError(c, services.UnauthorizedError("not authorized"))
	}
	return id, ok
}

// uploads stages the multipart files of one request and discards whatever
// the media store did not consume once the handler returns.
type uploads struct {
	storage *services.StorageService
	paths   []string
}

func newUploads(storage *services.StorageService) *uploads {
	return &uploads{storage: storage}
}

// stage returns the local path of the file sent as field, or "" when the
// request carries none.
func (u *uploads) stage(c *gin.Context, field string) (string, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return "", nil
		}
		return "", services.ValidationError("could not read %s upload", field)
	}
	path, err := u.storage.StageUpload(fh)
	if err != nil {
		return "", err
	}
	u.paths = append(u.paths, path)
	return path, nil
}

func (u *uploads) cleanup() {
	u.storage.Discard(u.paths...)
}

// splitList accepts both repeated form fields and comma separated values.
func splitList(in []string) []string {
	if in == nil {
		return nil
	}
	out := []string{}
	for _, v := range in {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func pageResponse[T any](key, totalKey string, p *services.Page[T]) gin.H {
	return gin.H{
		key:      p.Items,
		"page":   p.Page,
		"pages":  p.Pages,
		totalKey: p.Total,
	}
}
