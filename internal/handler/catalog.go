package handler

import (
	"net/http"

	"github.com/forgo/ludoteca/api/internal/middleware"
	"github.com/forgo/ludoteca/api/internal/model"
)

// CatalogHandler handles catalog writes for admins and coordinators
type CatalogHandler struct {
	catalog CatalogService
}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler(catalog CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// RegisterAdminRoutes mounts /v1/admin/games behind guard
func (h *CatalogHandler) RegisterAdminRoutes(mux *http.ServeMux, guard middleware.Middleware) {
	mux.Handle("POST /v1/admin/games", wrap(guard, h.Create))
	mux.Handle("PATCH /v1/admin/games/{gameId}", wrap(guard, h.Update))
	mux.Handle("DELETE /v1/admin/games/{gameId}", wrap(guard, h.Delete))
}

// RegisterCoordinatorRoutes mounts /v1/coordinator/games behind guard
func (h *CatalogHandler) RegisterCoordinatorRoutes(mux *http.ServeMux, guard middleware.Middleware) {
	mux.Handle("POST /v1/coordinator/games", wrap(guard, h.Create))
}

// Create handles POST /v1/{admin,coordinator}/games
func (h *CatalogHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.CreateGameRequest
	if !decodeBody(w, r, &req) {
		return
	}

	game, err := h.catalog.Create(r.Context(), &req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	WriteData(w, http.StatusCreated, game)
}

// Update handles PATCH /v1/admin/games/{gameId}
func (h *CatalogHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req model.UpdateGameRequest
	if !decodeBody(w, r, &req) {
		return
	}

	game, err := h.catalog.Update(r.Context(), r.PathValue("gameId"), &req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	WriteData(w, http.StatusOK, game)
}

// Delete handles DELETE /v1/admin/games/{gameId}
func (h *CatalogHandler) Delete(w http.ResponseWriter, r *http.Request) {
	gameID := r.PathValue("gameId")
	if err := h.catalog.Delete(r.Context(), gameID); err != nil {
		writeServiceError(w, r, err)
		return
	}

	WriteData(w, http.StatusOK, map[string]string{"id": gameID})
}
