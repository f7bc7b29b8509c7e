package handler

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"github.com/a-h/templ"
	"github.com/wadjakorntonsri/ecli-publisher/pkg/adapters/render"
	"github.com/wadjakorntonsri/ecli-publisher/pkg/core/domain"
	"github.com/wadjakorntonsri/ecli-publisher/pkg/ports"
	"github.com/wadjakorntonsri/ecli-publisher/pkg/views"
	"go.uber.org/zap"
)

type HTTPHandler struct {
	service  ports.DocumentService
	renderer ports.Renderer
	logger   *zap.Logger
}

func NewHTTPHandler(service ports.DocumentService, renderer ports.Renderer, logger *zap.Logger) *HTTPHandler {
	return &HTTPHandler{service: service, renderer: renderer, logger: logger}
}

// Create stores a new submission
func (h *HTTPHandler) Create(w http.ResponseWriter, r *http.Request) {
	var sub domain.Submission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	sub.Token = tokenFrom(r)

	doc, err := h.service.Submit(r.Context(), sub)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{
		"result": "ok",
		"hash":   doc.Hash,
		"ecli":   doc.ECLI,
	})
}

// Hash serves a document through its private link. Published documents
// redirect to their canonical page.
func (h *HTTPHandler) Hash(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.ViewByHash(r.Context(), r.PathValue("dochash"), tokenFrom(r))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if view.Redirect {
		http.Redirect(w, r, "/html/"+url.PathEscape(view.Document.ECLI), http.StatusFound)
		return
	}
	h.page(w, r, view.Document)
}

// HTML serves a published document by its ECLI
func (h *HTTPHandler) HTML(w http.ResponseWriter, r *http.Request) {
	doc, err := h.service.ViewByECLI(r.Context(), r.PathValue("ecli"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	h.page(w, r, doc)
}

func (h *HTTPHandler) page(w http.ResponseWriter, r *http.Request, doc *domain.Document) {
	body, err := h.renderer.HTML(doc.Text)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	templ.Handler(views.DocumentPage(doc, body)).ServeHTTP(w, r)
}

// Text returns the raw markdown of a document
func (h *HTTPHandler) Text(w http.ResponseWriter, r *http.Request) {
	doc, ok := h.byHash(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(doc.Text))
}

func (h *HTTPHandler) Latex(w http.ResponseWriter, r *http.Request) {
	doc, ok := h.byHash(w, r)
	if !ok {
		return
	}
	out, err := h.renderer.LaTeX(r.Context(), doc)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	w.Header().Set("Content-Type", "application/x-latex; charset=utf-8")
	_, _ = w.Write(out)
}

func (h *HTTPHandler) PDF(w http.ResponseWriter, r *http.Request) {
	doc, ok := h.byHash(w, r)
	if !ok {
		return
	}
	out, err := h.renderer.PDF(r.Context(), doc)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `inline; filename="`+render.FileName(doc.Identifier)+`.pdf"`)
	_, _ = w.Write(out)
}

// byHash applies the hash-link policy for the download formats. Published
// documents are served in place.
func (h *HTTPHandler) byHash(w http.ResponseWriter, r *http.Request) (*domain.Document, bool) {
	view, err := h.service.ViewByHash(r.Context(), r.PathValue("dochash"), tokenFrom(r))
	if err != nil {
		writeError(w, r, h.logger, err)
		return nil, false
	}
	return view.Document, true
}

// Read returns the full record to a moderator
func (h *HTTPHandler) Read(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid id")
		return
	}

	doc, err := h.service.Read(r.Context(), tokenFrom(r), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// Update applies a moderator edit
func (h *HTTPHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var upd domain.Update
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	doc, err := h.service.Update(r.Context(), tokenFrom(r), id, upd)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"result":   "ok",
		"document": doc,
	})
}
