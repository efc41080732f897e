package handler

import (
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/moneymanager/moneymanager/internal/handler/dto"
	"github.com/moneymanager/moneymanager/internal/service"
)

// CategoryHandler handles HTTP requests for categories and their
// subcategories.
type CategoryHandler struct {
	svc    *service.CategoryService
	logger *slog.Logger
}

// NewCategoryHandler creates a new CategoryHandler.
func NewCategoryHandler(svc *service.CategoryService, logger *slog.Logger) *CategoryHandler {
	return &CategoryHandler{
		svc:    svc,
		logger: logger,
	}
}

// List handles GET /api/categories.
func (h *CategoryHandler) List(w http.ResponseWriter, r *http.Request) {
	cs, err := h.svc.List(r.Context(), identity(r), listOptions(r))
	if err != nil {
		handleServiceError(w, r, h.logger, categoryResource, "fetch", err)
		return
	}
	writeJSON(w, http.StatusOK, dto.ToCategoryListResponse(cs))
}

// Get handles GET /api/categories/{id}.
func (h *CategoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	c, err := h.svc.Get(r.Context(), identity(r), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, r, h.logger, categoryResource, "fetch", err)
		return
	}
	writeJSON(w, http.StatusOK, dto.ToCategoryResponse(c))
}

// Create handles POST /api/categories.
func (h *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CategoryRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	c, err := h.svc.Create(r.Context(), identity(r), req.Input())
	if err != nil {
		handleServiceError(w, r, h.logger, categoryResource, "create", err)
		return
	}

	h.logger.Info("category_created", "category_id", c.ID)
	writeJSON(w, http.StatusOK, dto.ToCategoryResponse(c))
}

// Update handles PUT /api/categories/{id}. A subCategories field replaces
// the whole list.
func (h *CategoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req dto.CategoryRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	c, err := h.svc.Update(r.Context(), identity(r), chi.URLParam(r, "id"), req.Input())
	if err != nil {
		handleServiceError(w, r, h.logger, categoryResource, "update", err)
		return
	}

	h.logger.Info("category_updated", "category_id", c.ID)
	writeJSON(w, http.StatusOK, dto.ToCategoryResponse(c))
}

// Delete handles DELETE /api/categories/{id}.
func (h *CategoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.svc.Delete(r.Context(), identity(r), id); err != nil {
		handleServiceError(w, r, h.logger, categoryResource, "delete", err)
		return
	}

	h.logger.Info("category_deleted", "category_id", id)
	writeJSON(w, http.StatusOK, dto.SuccessResponse{Success: true})
}

// AddSubCategory handles POST /api/categories/{id}/subcategories.
// Adding a name that is already present returns the category unchanged.
func (h *CategoryHandler) AddSubCategory(w http.ResponseWriter, r *http.Request) {
	var req dto.SubCategoryRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	c, err := h.svc.AddSubCategory(r.Context(), identity(r), chi.URLParam(r, "id"), req.Name)
	if err != nil {
		handleServiceError(w, r, h.logger, categoryResource, "update", err)
		return
	}
	writeJSON(w, http.StatusOK, dto.ToCategoryResponse(c))
}

// RemoveSubCategory handles DELETE /api/categories/{id}/subcategories/{name}.
func (h *CategoryHandler) RemoveSubCategory(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	// chi routes on RawPath when it is set, and then the param is still escaped.
	if r.URL.RawPath != "" {
		if unescaped, err := url.PathUnescape(name); err == nil {
			name = unescaped
		}
	}

	c, err := h.svc.RemoveSubCategory(r.Context(), identity(r), chi.URLParam(r, "id"), name)
	if err != nil {
		handleServiceError(w, r, h.logger, categoryResource, "update", err)
		return
	}
	writeJSON(w, http.StatusOK, dto.ToCategoryResponse(c))
}
