package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/wadjakorntonsri/ecli-publisher/pkg/core/domain"
	"github.com/wadjakorntonsri/ecli-publisher/pkg/core/services"
	"github.com/wadjakorntonsri/ecli-publisher/pkg/ports"
	"go.uber.org/zap"
)

type BrowseHandler struct {
	service ports.BrowseService
	status  *services.StatusService
	logger  *zap.Logger
}

func NewBrowseHandler(service ports.BrowseService, status *services.StatusService, logger *zap.Logger) *BrowseHandler {
	return &BrowseHandler{service: service, status: status, logger: logger}
}

// listRequest is the legacy `data` parameter of /list
type listRequest struct {
	Level   string `json:"level"`
	Country string `json:"country"`
	Court   string `json:"court"`
	Year    int    `json:"year"`
}

func (h *BrowseHandler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.status.Status())
}

func (h *BrowseHandler) Labels(w http.ResponseWriter, r *http.Request) {
	labels, err := h.service.Labels(r.Context(), r.PathValue("begin"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, labels)
}

// List walks the public index one level at a time. Filters come from the
// query string or from a JSON `data` parameter.
func (h *BrowseHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := listRequest{
		Level:   q.Get("level"),
		Country: q.Get("country"),
		Court:   q.Get("court"),
	}
	if y := q.Get("year"); y != "" {
		year, err := strconv.Atoi(y)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid year")
			return
		}
		req.Year = year
	}
	if data := q.Get("data"); data != "" {
		if err := json.Unmarshal([]byte(data), &req); err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid data parameter")
			return
		}
	}

	items, err := h.service.Browse(r.Context(), domain.BrowseQuery{
		Level:   domain.BrowseLevel(req.Level),
		Country: req.Country,
		Court:   req.Court,
		Year:    req.Year,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"level": req.Level,
		"items": items,
	})
}
