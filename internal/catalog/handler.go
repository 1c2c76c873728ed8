package catalog

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"refdata/internal/query"
	dErrors "refdata/pkg/domain-errors"
	"refdata/pkg/platform/httputil"
	"refdata/pkg/platform/validation"
	"refdata/pkg/requestcontext"
)

// Handler serves the REST surface of one entity.
type Handler[D any] struct {
	name         string
	service      Operations[D]
	validator    *validation.Validator
	logger       *slog.Logger
	scopes       []Scope
	hierarchical bool
}

// NewHandler creates a handler for the entity described by def.
func NewHandler[R, D any](def Definition[R, D], service Operations[D], validator *validation.Validator, logger *slog.Logger) *Handler[D] {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler[D]{
		name:         def.Name,
		service:      service,
		validator:    validator,
		logger:       logger,
		scopes:       def.Scopes,
		hierarchical: def.Hierarchical(),
	}
}

// Register mounts the entity routes on r. writeGuard wraps the mutating
// routes and may be nil.
func (h *Handler[D]) Register(r chi.Router, writeGuard func(http.Handler) http.Handler) {
	r.Get("/", h.handleList)
	r.Post("/filter", h.handleFilter)
	r.Get("/code/{code}", h.handleGetByCode)
	for _, scope := range h.scopes {
		r.Get("/"+scope.Path+"/{value}", h.handleScope(scope))
	}
	r.Get("/{id}", h.handleGet)
	if h.hierarchical {
		r.Get("/{id}/children", h.handleChildren)
	}

	r.Group(func(w chi.Router) {
		if writeGuard != nil {
			w.Use(writeGuard)
		}
		w.Post("/", h.handleCreate)
		w.Put("/{id}", h.handleUpdate)
		w.Delete("/{id}", h.handleDelete)
	})
}

func (h *Handler[D]) handleList(w http.ResponseWriter, r *http.Request) {
	req, err := filterFromQuery(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var page query.Page[*D]
	if len(req.Filters) == 0 {
		page, err = h.service.List(r.Context(), req.PageRequest)
	} else {
		page, err = h.service.Filter(r.Context(), req)
	}
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, page)
}

func (h *Handler[D]) handleFilter(w http.ResponseWriter, r *http.Request) {
	var req query.FilterRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	page, err := h.service.Filter(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, page)
}

func (h *Handler[D]) handleScope(scope Scope) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, err := filterFromQuery(r)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		page, err := h.service.ListScope(r.Context(), scope.Path, chi.URLParam(r, "value"), req)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, page)
	}
}

func (h *Handler[D]) handleChildren(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	req, err := filterFromQuery(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	page, err := h.service.Children(r.Context(), id, req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, page)
}

func (h *Handler[D]) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	dto, err := h.service.Get(r.Context(), id)
	h.writeFound(w, r, dto, err)
}

func (h *Handler[D]) handleGetByCode(w http.ResponseWriter, r *http.Request) {
	dto, err := h.service.GetByCode(r.Context(), chi.URLParam(r, "code"))
	h.writeFound(w, r, dto, err)
}

func (h *Handler[D]) handleCreate(w http.ResponseWriter, r *http.Request) {
	dto, err := h.decode(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	created, err := h.service.Create(r.Context(), dto)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, created)
}

func (h *Handler[D]) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	dto, err := h.decode(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	updated, err := h.service.Update(r.Context(), id, dto)
	h.writeFound(w, r, updated, err)
}

func (h *Handler[D]) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	existed, err := h.service.Delete(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if !existed {
		h.writeError(w, r, h.notFound())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler[D]) decode(r *http.Request) (*D, error) {
	dto := new(D)
	if err := httputil.DecodeJSON(r, dto); err != nil {
		return nil, err
	}
	if err := h.validator.Struct(dto); err != nil {
		return nil, err
	}
	return dto, nil
}

func (h *Handler[D]) writeFound(w http.ResponseWriter, r *http.Request, dto *D, err error) {
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if dto == nil {
		h.writeError(w, r, h.notFound())
		return
	}
	httputil.WriteJSON(w, http.StatusOK, dto)
}

func (h *Handler[D]) notFound() error {
	return dErrors.New(dErrors.CodeNotFound, h.name+" record not found")
}

func (h *Handler[D]) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if code := dErrors.CodeOf(err); code == dErrors.CodeBadRequest || code == dErrors.CodeValidation {
		h.logger.WarnContext(r.Context(), "rejected request",
			"entity", h.name,
			"request_id", requestcontext.RequestID(r.Context()),
			"error", err.Error(),
		)
	}
	httputil.WriteError(w, err)
}

func parseID(r *http.Request) (uuid.UUID, error) {
	raw := chi.URLParam(r, "id")
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, dErrors.Validation("invalid id", map[string]string{"id": fmt.Sprintf("%q is not a UUID", raw)})
	}
	return id, nil
}

// filterFromQuery reads page, size, sort (repeatable, "field,dir") and
// status query parameters. An explicit size must be positive.
func filterFromQuery(r *http.Request) (query.FilterRequest, error) {
	q := r.URL.Query()
	var req query.FilterRequest
	problems := map[string]string{}

	if v := q.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			problems["page"] = "must be an integer"
		}
		req.Page = n
	}
	if v := q.Get("size"); v != "" {
		n, err := strconv.Atoi(v)
		switch {
		case err != nil:
			problems["size"] = "must be an integer"
		case n < 1:
			// A zero Size means "default" further down, so reject it here.
			problems["size"] = fmt.Sprintf("must be between 1 and %d", query.MaxPageSize)
		}
		req.Size = n
	}
	for i, v := range q["sort"] {
		s, err := query.ParseSort(v)
		if err != nil {
			problems[fmt.Sprintf("sort[%d]", i)] = err.Error()
			continue
		}
		req.Sort = append(req.Sort, s)
	}
	if v := q.Get("status"); v != "" {
		req.Filters = append(req.Filters, query.Eq("status", v))
	}

	if len(problems) > 0 {
		return query.FilterRequest{}, dErrors.Validation("invalid query parameters", problems)
	}
	return req, nil
}
