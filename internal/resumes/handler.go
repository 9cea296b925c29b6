package resumes

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"resume-builder/internal/extract"
	"resume-builder/internal/shared/server/middleware"
	"resume-builder/internal/shared/server/respond"
)

const maxUploadSize = extract.MaxSourceBytes + 1<<20

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches resume routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/resumes", h.create)
	rg.GET("/resumes/:id", h.get)
	rg.DELETE("/resumes/:id", h.delete)
	rg.POST("/resumes/:id/versions", h.update)
	rg.GET("/resumes/:id/versions", h.listVersions)
	rg.GET("/resumes/:id/versions/:version", h.getVersion)
	rg.GET("/resumes/:id/versions/:version/markup", h.markup)
	rg.GET("/users/:telegramId/resumes", h.listByUser)
}

// create accepts either a JSON body or a multipart form with a JSON "payload"
// field and an optional "source" document for imported resumes.
func (h *Handler) create(c *gin.Context) {
	var in CreateInput
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadSize)
		if err := json.Unmarshal([]byte(c.PostForm("payload")), &in); err != nil {
			respond.Error(c, http.StatusBadRequest, "invalid_request", "payload must be a JSON object", nil)
			return
		}
		if fileHeader, err := c.FormFile("source"); err == nil {
			file, err := fileHeader.Open()
			if err != nil {
				respond.Error(c, http.StatusBadRequest, "invalid_request", "unable to read source document", nil)
				return
			}
			defer file.Close()
			text, err := extract.Text(c.Request.Context(), file, fileHeader.Header.Get("Content-Type"), fileHeader.Filename)
			if err != nil {
				writeExtractError(c, err)
				return
			}
			in.SourceText = text
			if in.CreationMode == "" {
				in.CreationMode = ModeImported
			}
		}
	} else if err := c.ShouldBindJSON(&in); err != nil {
		respond.Error(c, http.StatusBadRequest, "invalid_request", "invalid JSON body", nil)
		return
	}

	detail, err := h.Svc.Create(requestContext(c), in)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.JSON(c, http.StatusCreated, detail)
}

func (h *Handler) update(c *gin.Context) {
	var in UpdateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respond.Error(c, http.StatusBadRequest, "invalid_request", "invalid JSON body", nil)
		return
	}
	detail, err := h.Svc.Update(requestContext(c), c.Param("id"), in)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.JSON(c, http.StatusCreated, detail)
}

func (h *Handler) get(c *gin.Context) {
	detail, err := h.Svc.Get(requestContext(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, detail)
}

func (h *Handler) delete(c *gin.Context) {
	if err := h.Svc.Delete(requestContext(c), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) listVersions(c *gin.Context) {
	versions, err := h.Svc.ListVersions(requestContext(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, gin.H{"items": versions})
}

func (h *Handler) getVersion(c *gin.Context) {
	number, ok := versionParam(c)
	if !ok {
		return
	}
	version, err := h.Svc.GetVersion(requestContext(c), c.Param("id"), number)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, version)
}

func (h *Handler) markup(c *gin.Context) {
	number, ok := versionParam(c)
	if !ok {
		return
	}
	rc, err := h.Svc.OpenMarkup(requestContext(c), c.Param("id"), number)
	if err != nil {
		writeError(c, err)
		return
	}
	defer rc.Close()
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(http.StatusOK)
	_, _ = io.Copy(c.Writer, rc)
}

func (h *Handler) listByUser(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("telegramId"), 10, 64)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "invalid_request", "telegramId must be an integer", nil)
		return
	}
	items, err := h.Svc.ListByUser(requestContext(c), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, gin.H{"items": items})
}

func versionParam(c *gin.Context) (int, bool) {
	n, err := strconv.Atoi(c.Param("version"))
	if err != nil || n < 1 {
		respond.Error(c, http.StatusBadRequest, "invalid_request", "version must be a positive integer", nil)
		return 0, false
	}
	return n, true
}

func requestContext(c *gin.Context) context.Context {
	return WithRequestID(c.Request.Context(), middleware.RequestIDFromContext(c))
}

func writeExtractError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, extract.ErrTooLarge):
		respond.Error(c, http.StatusRequestEntityTooLarge, "document_too_large", err.Error(), nil)
	case errors.Is(err, extract.ErrUnsupported), errors.Is(err, extract.ErrNoText):
		respond.Error(c, http.StatusUnprocessableEntity, "unreadable_document", err.Error(), nil)
	default:
		respond.Error(c, http.StatusBadRequest, "invalid_request", "unable to read source document", nil)
	}
}

func writeError(c *gin.Context, err error) {
	var persistErr *PersistenceError
	switch {
	case errors.As(err, &persistErr):
		var details any
		if persistErr.ArtifactPath != "" {
			details = gin.H{"artifactPath": persistErr.ArtifactPath}
		}
		respond.Error(c, http.StatusInternalServerError, "persistence_failure", "failed to persist resume version", details)
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "invalid_request", err.Error(), nil)
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", err.Error(), nil)
	case errors.Is(err, ErrPriorArtifactMissing):
		respond.Error(c, http.StatusConflict, "prior_artifact_missing", "previous version markup is no longer cached", nil)
	case errors.Is(err, ErrConflict):
		respond.Error(c, http.StatusConflict, "conflict", "resume was modified concurrently", nil)
	case errors.Is(err, ErrUpstreamExhausted):
		respond.Error(c, http.StatusBadGateway, "upstream_exhausted", "all generation models failed", nil)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		respond.Error(c, http.StatusGatewayTimeout, "timeout", "request was cancelled", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to process resume", nil)
	}
}
