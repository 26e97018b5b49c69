// Package v1 provides the v1 REST API handlers: repositories, their package
// versions and their sync runs.
package v1

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/stacklok/toolhive-content-sync/internal/api/common"
	"github.com/stacklok/toolhive-content-sync/internal/service"
	pkgsync "github.com/stacklok/toolhive-content-sync/internal/sync"
)

// RepositoryListResponse is the body of GET /v1/repositories
type RepositoryListResponse struct {
	Repositories []service.RepositoryInfo `json:"repositories"`
}

// Routes handles HTTP requests for the v1 endpoints.
type Routes struct {
	service service.ContentService
}

// NewRoutes creates a new Routes instance with the given service.
func NewRoutes(svc service.ContentService) *Routes {
	return &Routes{service: svc}
}

// Router creates and configures the HTTP router for the v1 endpoints.
func Router(svc service.ContentService) http.Handler {
	routes := NewRoutes(svc)

	r := chi.NewRouter()
	r.Get("/repositories", routes.listRepositories)
	r.Route("/repositories/{name}", func(r chi.Router) {
		r.Get("/", routes.getRepository)
		r.Get("/packages", routes.listPackages)
		r.Get("/sync", routes.getSyncStatus)
		r.Post("/sync", routes.syncNow)
	})

	return r
}

// listRepositories handles GET /v1/repositories
func (routes *Routes) listRepositories(w http.ResponseWriter, r *http.Request) {
	repos, err := routes.service.ListRepositories(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	common.WriteJSONResponse(w, RepositoryListResponse{Repositories: repos}, http.StatusOK)
}

// getRepository handles GET /v1/repositories/{name}
func (routes *Routes) getRepository(w http.ResponseWriter, r *http.Request) {
	name, ok := repositoryName(w, r)
	if !ok {
		return
	}

	repo, err := routes.service.GetRepository(r.Context(), name)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	common.WriteJSONResponse(w, repo, http.StatusOK)
}

// listPackages handles GET /v1/repositories/{name}/packages
func (routes *Routes) listPackages(w http.ResponseWriter, r *http.Request) {
	name, ok := repositoryName(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()
	opts := []service.Option{}

	if limitStr := query.Get("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil {
			common.WriteErrorResponse(w, "Invalid limit parameter: must be an integer", http.StatusBadRequest)
			return
		}
		opts = append(opts, service.WithLimit(limit))
	}
	if offsetStr := query.Get("offset"); offsetStr != "" {
		offset, err := strconv.Atoi(offsetStr)
		if err != nil {
			common.WriteErrorResponse(w, "Invalid offset parameter: must be an integer", http.StatusBadRequest)
			return
		}
		opts = append(opts, service.WithOffset(offset))
	}
	if pkgName := query.Get("name"); pkgName != "" {
		opts = append(opts, service.WithName(pkgName))
	}
	if constraint := query.Get("constraint"); constraint != "" {
		opts = append(opts, service.WithConstraint(constraint))
	}

	list, err := routes.service.ListPackages(r.Context(), name, opts...)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	common.WriteJSONResponse(w, list, http.StatusOK)
}

// getSyncStatus handles GET /v1/repositories/{name}/sync
func (routes *Routes) getSyncStatus(w http.ResponseWriter, r *http.Request) {
	name, ok := repositoryName(w, r)
	if !ok {
		return
	}

	st, err := routes.service.GetSyncStatus(r.Context(), name)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	common.WriteJSONResponse(w, st, http.StatusOK)
}

// syncNow handles POST /v1/repositories/{name}/sync. A run that finished
// is reported with 200 whatever its status; the body carries the outcome.
func (routes *Routes) syncNow(w http.ResponseWriter, r *http.Request) {
	name, ok := repositoryName(w, r)
	if !ok {
		return
	}

	result, err := routes.service.SyncNow(r.Context(), name)
	if result != nil {
		if err != nil {
			slog.Info("Sync run did not complete",
				"repository", name,
				"status", result.Status,
				"error", err)
		}
		common.WriteJSONResponse(w, result, http.StatusOK)
		return
	}
	writeServiceError(w, err)
}

func repositoryName(w http.ResponseWriter, r *http.Request) (string, bool) {
	name, err := common.PathParam(r, "name")
	if err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return "", false
	}
	return name, true
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrRepositoryNotFound):
		common.WriteErrorResponse(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, service.ErrAlreadyInProgress):
		common.WriteErrorResponse(w, err.Error(), http.StatusConflict)
	case errors.Is(err, service.ErrInvalidArgument):
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, pkgsync.ErrCancelled):
		common.WriteErrorResponse(w, err.Error(), http.StatusServiceUnavailable)
	default:
		slog.Error("Request failed", "error", err)
		common.WriteErrorResponse(w, "internal server error", http.StatusInternalServerError)
	}
}
