package handler

import (
	"net/http"
	"strings"

	"github.com/forgo/ludoteca/api/internal/model"
)

// PublicHandler serves the unauthenticated catalog under /v1/public
type PublicHandler struct {
	centers CenterService
	catalog CatalogService
}

// NewPublicHandler creates a new public handler
func NewPublicHandler(centers CenterService, catalog CatalogService) *PublicHandler {
	return &PublicHandler{centers: centers, catalog: catalog}
}

// RegisterRoutes mounts /v1/public
func (h *PublicHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /v1/public/centers", h.ListCenters)
	mux.HandleFunc("GET /v1/public/centers/{centerId}", h.GetCenter)
	mux.HandleFunc("GET /v1/public/centers/{centerId}/games", h.CenterGames)
	mux.HandleFunc("GET /v1/public/games", h.ListGames)
	mux.HandleFunc("GET /v1/public/games/{gameId}", h.GetGame)
}

// ListCenters handles GET /v1/public/centers; inactive centers are hidden
func (h *PublicHandler) ListCenters(w http.ResponseWriter, r *http.Request) {
	page, pd := pageParams(r)
	if pd != nil {
		WriteError(w, pd)
		return
	}

	q := r.URL.Query()
	result, err := h.centers.List(r.Context(), model.CenterFilter{
		Search:     strings.TrimSpace(q.Get("search")),
		City:       strings.TrimSpace(q.Get("city")),
		ActiveOnly: true,
		Page:       page,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	WritePage(w, result, page)
}

// GetCenter handles GET /v1/public/centers/{centerId}
func (h *PublicHandler) GetCenter(w http.ResponseWriter, r *http.Request) {
	center, err := h.centers.GetActive(r.Context(), r.PathValue("centerId"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	WriteData(w, http.StatusOK, center)
}

// CenterGames handles GET /v1/public/centers/{centerId}/games
func (h *PublicHandler) CenterGames(w http.ResponseWriter, r *http.Request) {
	games, err := h.catalog.ListByCenter(r.Context(), r.PathValue("centerId"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	WriteList(w, games)
}

// ListGames handles GET /v1/public/games?search=&category=
func (h *PublicHandler) ListGames(w http.ResponseWriter, r *http.Request) {
	page, pd := pageParams(r)
	if pd != nil {
		WriteError(w, pd)
		return
	}

	q := r.URL.Query()
	result, err := h.catalog.List(r.Context(), model.GameFilter{
		Search:   q.Get("search"),
		Category: q.Get("category"),
		Page:     page,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	WritePage(w, result, page)
}

// GetGame handles GET /v1/public/games/{gameId} with per-center availability
func (h *PublicHandler) GetGame(w http.ResponseWriter, r *http.Request) {
	detail, err := h.catalog.GetDetail(r.Context(), r.PathValue("gameId"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	WriteData(w, http.StatusOK, detail)
}
