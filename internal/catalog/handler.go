package catalog

import (
	"net/http"

	"github.com/wolfman30/nail-studio-api/internal/http/httpjson"
	"github.com/wolfman30/nail-studio-api/pkg/logging"
)

// Handler serves the read-only menu and roster.
type Handler struct {
	catalog *Catalog
	logger  *logging.Logger
}

// NewHandler creates a catalog handler.
func NewHandler(catalog *Catalog, logger *logging.Logger) *Handler {
	if catalog == nil {
		catalog = Default()
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{catalog: catalog, logger: logger}
}

// ListServices handles GET /api/services.
func (h *Handler) ListServices(w http.ResponseWriter, r *http.Request) {
	httpjson.List(w, h.logger, h.catalog.Services(r.URL.Query().Get("category")))
}

// ListTeam handles GET /api/team.
func (h *Handler) ListTeam(w http.ResponseWriter, r *http.Request) {
	httpjson.List(w, h.logger, h.catalog.FeaturedTechnicians())
}
