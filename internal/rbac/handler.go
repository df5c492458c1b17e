package rbac

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/inkwell-blog/inkwell/internal/platform/httpx"
	"github.com/inkwell-blog/inkwell/internal/shared"
)

// Handler exposes the administrative role-assignment endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	rbac      Middleware
	validator *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, rbac Middleware) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		rbac:      rbac,
		validator: validator.New(),
	}
}

// MountRoutes registers role management routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAll(shared.PermAssignRole))
		r.Post("/assign-role", h.assignRole)
		r.Post("/revoke-role", h.revokeRole)
		r.Get("/permissions", h.listPermissions)
	})
}

type roleChangeRequest struct {
	UserID   int64  `json:"user_id" validate:"required,gt=0"`
	RoleName string `json:"role_name" validate:"required,max=100"`
}

func (h *Handler) assignRole(w http.ResponseWriter, r *http.Request) {
	h.changeRole(w, r, h.service.AssignRole)
}

func (h *Handler) revokeRole(w http.ResponseWriter, r *http.Request) {
	h.changeRole(w, r, h.service.RevokeRole)
}

func (h *Handler) changeRole(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, userID int64, roleName string) (*UserWithRoles, error)) {
	var req roleChangeRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}

	user, err := op(r.Context(), req.UserID, req.RoleName)
	if err != nil {
		h.logger.Error("change role", slog.Any("error", err), slog.Int64("user_id", req.UserID))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, user)
}

func (h *Handler) listPermissions(w http.ResponseWriter, r *http.Request) {
	perms, err := h.service.ListPermissions(r.Context())
	if err != nil {
		h.logger.Error("list permissions", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"permissions": perms})
}
