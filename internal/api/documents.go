package api

import (
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path"

	"github.com/JaimeStill/rapid/pkg/handlers"
	"github.com/JaimeStill/rapid/pkg/openapi"
	"github.com/JaimeStill/rapid/pkg/routes"
	"github.com/JaimeStill/rapid/pkg/storage"
)

// documentHandler lets reviewers fetch the document behind a result.
type documentHandler struct {
	store  storage.System
	logger *slog.Logger
}

func newDocumentHandler(store storage.System, logger *slog.Logger) *documentHandler {
	return &documentHandler{
		store:  store,
		logger: logger.With("handler", "documents"),
	}
}

func (h *documentHandler) routes() routes.Group {
	return routes.Group{
		Prefix: "/documents",
		Routes: []routes.Route{
			{Method: "HEAD", Pattern: "/{key...}", Handler: h.head},
			{Method: "GET", Pattern: "/{key...}", Handler: h.download},
		},
	}
}

func (h *documentHandler) head(w http.ResponseWriter, r *http.Request) {
	ok, err := h.store.Exists(r.Context(), r.PathValue("key"))
	if err != nil {
		w.WriteHeader(storage.MapHTTPStatus(err))
		return
	}
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *documentHandler) download(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")

	body, err := h.store.Download(r.Context(), key)
	if err != nil {
		handlers.RespondError(w, h.logger, storage.MapHTTPStatus(err), err)
		return
	}
	defer body.Close()

	contentType := mime.TypeByExtension(path.Ext(key))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set(
		"Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", path.Base(key)),
	)
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, body); err != nil {
		h.logger.Error("document stream interrupted", "key", key, "error", err)
	}
}

func documentPaths() map[string]*openapi.PathItem {
	key := openapi.PathParam("key", "", "Storage key of the document")
	tags := []string{"Documents"}

	return map[string]*openapi.PathItem{
		"/documents/{key}": {
			Get: &openapi.Operation{
				Summary:    "Download a reviewed document",
				Tags:       tags,
				Parameters: []*openapi.Parameter{key},
				Responses: map[int]*openapi.Response{
					200: {Description: "Document content"},
					400: openapi.ResponseRef("BadRequest"),
					404: openapi.ResponseRef("NotFound"),
				},
			},
			Head: &openapi.Operation{
				Summary:    "Check that a document exists",
				Tags:       tags,
				Parameters: []*openapi.Parameter{key},
				Responses: map[int]*openapi.Response{
					200: {Description: "Document exists"},
					404: {Description: "Document not found"},
				},
			},
		},
	}
}
