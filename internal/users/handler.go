package users

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/userdir/internal/platform/httpx"
	"github.com/odyssey-erp/userdir/internal/shared"
	"github.com/odyssey-erp/userdir/internal/view"
)

// View names rendered by Handler.
const (
	ViewIndex   = "users/index"
	ViewForm    = "users/form"
	ViewDetails = "users/details"
	ViewEdit    = "users/edit"
	ViewDelete  = "users/delete"
)

// ViewNames lists every view Handler needs registered on its engine.
var ViewNames = []string{ViewIndex, ViewForm, ViewDetails, ViewEdit, ViewDelete}

const listPath = "/users"

// Handler manages user directory endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	views   *view.Engine
	csrf    *shared.CSRFManager
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, views *view.Engine, csrf *shared.CSRFManager) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, views: views, csrf: csrf}
}

// MountRoutes registers user routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.index)
	r.Get("/new", h.showCreateForm)
	r.Post("/", h.create)
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.details)
		r.Get("/edit", h.showEditForm)
		r.Post("/edit", h.update)
		r.Get("/delete", h.showDeleteConfirm)
		r.Post("/delete", h.delete)
	})
}

func (h *Handler) index(w http.ResponseWriter, r *http.Request) {
	search := r.URL.Query().Get("search")
	users, err := h.service.ListUsers(r.Context(), search)
	if err != nil {
		h.fail(w, "list users", err)
		return
	}
	h.render(w, r, ViewIndex, "Users", map[string]any{"Users": users, "Search": search}, http.StatusOK)
}

func (h *Handler) showCreateForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, ViewForm, "New User", map[string]any{"User": UserInput{}}, http.StatusOK)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	in, err := bindInput(r)
	if err != nil {
		h.fail(w, "bind user", err)
		return
	}
	user, err := h.service.CreateUser(r.Context(), in)
	if err != nil {
		h.fail(w, "create user", err)
		return
	}
	h.logger.Info("user created", slog.Int64("id", user.ID))
	if httpx.AcceptsJSON(r) {
		w.Header().Set("Location", listPath)
		httpx.JSON(w, http.StatusCreated, user)
		return
	}
	h.redirectWithFlash(w, r, "User created")
}

func (h *Handler) details(w http.ResponseWriter, r *http.Request) {
	h.showUser(w, r, ViewDetails, "User")
}

func (h *Handler) showEditForm(w http.ResponseWriter, r *http.Request) {
	h.showUser(w, r, ViewEdit, "Edit User")
}

func (h *Handler) showDeleteConfirm(w http.ResponseWriter, r *http.Request) {
	h.showUser(w, r, ViewDelete, "Delete User")
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := userID(r)
	if err != nil {
		h.fail(w, "update user", err)
		return
	}
	in, err := bindInput(r)
	if err != nil {
		h.fail(w, "bind user", err)
		return
	}
	user, err := h.service.UpdateUser(r.Context(), id, in)
	if err != nil {
		h.fail(w, "update user", err)
		return
	}
	h.logger.Info("user updated", slog.Int64("id", user.ID))
	if httpx.AcceptsJSON(r) {
		httpx.JSON(w, http.StatusOK, user)
		return
	}
	h.redirectWithFlash(w, r, "User updated")
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := userID(r)
	if err != nil {
		h.fail(w, "delete user", err)
		return
	}
	if err := h.service.DeleteUser(r.Context(), id); err != nil {
		h.fail(w, "delete user", err)
		return
	}
	h.logger.Info("user deleted", slog.Int64("id", id))
	if httpx.AcceptsJSON(r) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	h.redirectWithFlash(w, r, "User deleted")
}

func (h *Handler) showUser(w http.ResponseWriter, r *http.Request, name, title string) {
	id, err := userID(r)
	if err != nil {
		h.fail(w, "get user", err)
		return
	}
	user, err := h.service.GetUser(r.Context(), id)
	if err != nil {
		h.fail(w, "get user", err)
		return
	}
	h.render(w, r, name, title, map[string]any{"User": user}, http.StatusOK)
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, name, title string, data map[string]any, status int) {
	csrfToken, _ := h.csrf.EnsureToken(shared.SessionFromContext(r.Context()))
	viewData := view.TemplateData{
		Title:       title,
		CSRFToken:   csrfToken,
		Flash:       shared.PopFlash(r.Context()),
		CurrentPath: r.URL.Path,
		Data:        data,
	}
	if err := h.views.Render(w, name, status, viewData); err != nil {
		h.logger.Error("render view", slog.String("view", name), slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}

func (h *Handler) redirectWithFlash(w http.ResponseWriter, r *http.Request, message string) {
	shared.AddFlash(r.Context(), "success", message)
	http.Redirect(w, r, listPath, http.StatusSeeOther)
}

func (h *Handler) fail(w http.ResponseWriter, action string, err error) {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		h.logger.Debug(action, slog.Any("error", err))
	case errors.Is(err, shared.ErrBadRequest):
		h.logger.Warn(action, slog.Any("error", err))
	default:
		h.logger.Error(action, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}

// userID reads the {id} URL parameter. Ids that do not parse cannot be stored, so they are not found.
func userID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("id %q: %w", raw, ErrNotFound)
	}
	return id, nil
}

func bindInput(r *http.Request) (UserInput, error) {
	var in UserInput
	if httpx.IsJSON(r) {
		err := httpx.DecodeJSON(r, &in)
		return in, err
	}
	if err := r.ParseForm(); err != nil {
		return in, fmt.Errorf("%w: %v", shared.ErrBadRequest, err)
	}
	in.Name = r.PostFormValue("name")
	in.Email = r.PostFormValue("email")
	in.Phone = r.PostFormValue("phone")
	return in, nil
}
