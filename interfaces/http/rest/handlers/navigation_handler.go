// Package handlers holds the HTTP request handlers.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"wayfinder-backend/application/services"
	"wayfinder-backend/domain/core/entities"
	"wayfinder-backend/domain/navigation"
	pkgerrors "wayfinder-backend/pkg/errors"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// NavigationHandler handles navigation-related HTTP requests
type NavigationHandler struct {
	navigation *services.NavigationService
	logger     *zap.Logger
}

// NewNavigationHandler creates a new navigation handler
func NewNavigationHandler(navigation *services.NavigationService, logger *zap.Logger) *NavigationHandler {
	return &NavigationHandler{
		navigation: navigation,
		logger:     logger,
	}
}

// nodeSummary is the wire shape of a routed-to node.
type nodeSummary struct {
	ID    string   `json:"id"`
	Slug  string   `json:"slug"`
	Title string   `json:"title"`
	Tags  []string `json:"tags,omitempty"`
}

// NextNodeResponse represents the response for a routing call
type NextNodeResponse struct {
	Next    *nodeSummary                 `json:"next,omitempty"`
	Reason  string                       `json:"reason,omitempty"`
	Trace   []navigation.TransitionTrace `json:"trace"`
	Metrics navigation.RouteMetrics      `json:"metrics"`
}

// NextNode handles GET /nodes/{slug}/next.
//
// Query parameters: mode, preview, seed, max_time_ms, max_queries,
// max_filters and chain (comma-separated policy names). Identity comes
// from the X-User-ID / X-Workspace-ID headers set by the gateway.
func (h *NavigationHandler) NextNode(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	if slug == "" {
		h.respondError(w, http.StatusBadRequest, "Missing node slug")
		return
	}

	user, scope, err := identityFromRequest(r)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	query := r.URL.Query()

	var mode navigation.ProviderKind
	if raw := query.Get("mode"); raw != "" {
		mode, err = navigation.ParseProviderKind(raw)
		if err != nil {
			h.respondError(w, http.StatusBadRequest, "Invalid mode: "+raw)
			return
		}
	}

	previewMode, err := navigation.ParsePreviewMode(query.Get("preview"))
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid preview mode: "+query.Get("preview"))
		return
	}
	preview := navigation.Preview{Mode: previewMode}
	if raw := query.Get("seed"); raw != "" {
		seed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			h.respondError(w, http.StatusBadRequest, "Invalid seed: "+raw)
			return
		}
		preview.Seed = &seed
	}

	budget, err := budgetFromQuery(query)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.navigation.NextNode(r.Context(), user, scope, slug, mode, budget, preview)
	if err != nil {
		h.logger.Error("Routing call failed",
			zap.String("slug", slug),
			zap.String("scope", scope),
			zap.Error(err),
		)
		h.respondError(w, pkgerrors.HTTPStatus(err), errorMessage(err))
		return
	}

	response := NextNodeResponse{
		Reason:  string(result.Reason),
		Trace:   result.Trace,
		Metrics: result.Metrics,
	}
	if result.Next != nil {
		response.Next = &nodeSummary{
			ID:    result.Next.ID.String(),
			Slug:  result.Next.Slug,
			Title: result.Next.Title,
			Tags:  result.Next.Tags,
		}
	}
	h.respondJSON(w, http.StatusOK, response)
}

// InvalidateUserCache handles DELETE /users/{userID}/navigation-cache
func (h *NavigationHandler) InvalidateUserCache(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if userID == "" {
		h.respondError(w, http.StatusBadRequest, "Missing user ID")
		return
	}

	if err := h.navigation.InvalidateUser(r.Context(), userID); err != nil {
		h.logger.Error("Cache invalidation failed",
			zap.String("userID", userID),
			zap.Error(err),
		)
		h.respondError(w, pkgerrors.HTTPStatus(err), errorMessage(err))
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Navigation cache invalidated",
	})
}

// identityFromRequest builds the user from gateway-injected headers. An
// absent X-User-ID routes as the shared anonymous identity.
func identityFromRequest(r *http.Request) (*entities.User, string, error) {
	scope := r.Header.Get("X-Workspace-ID")
	if scope == "" {
		return nil, "", pkgerrors.NewValidationError("missing X-Workspace-ID header")
	}

	userID := r.Header.Get("X-User-ID")
	if userID == "" {
		userID = "anonymous"
	}
	user := &entities.User{
		ID:          userID,
		WorkspaceID: scope,
		Premium:     r.Header.Get("X-Premium") == "true",
	}
	if raw := r.Header.Get("X-Premium-Until"); raw != "" {
		until, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return nil, "", pkgerrors.NewValidationError("invalid X-Premium-Until header")
		}
		user.PremiumUntil = until
	}
	if raw := r.Header.Get("X-User-NFTs"); raw != "" {
		user.NFTs = strings.Split(raw, ",")
	}
	return user, scope, nil
}

// budgetFromQuery parses the optional budget ceilings. Absent parameters
// stay zero, which the service layer replaces with its defaults.
func budgetFromQuery(query map[string][]string) (navigation.Budget, error) {
	var budget navigation.Budget

	get := func(key string) string {
		if values := query[key]; len(values) > 0 {
			return values[0]
		}
		return ""
	}

	if raw := get("max_time_ms"); raw != "" {
		value, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || value < 0 {
			return budget, pkgerrors.NewValidationError("invalid max_time_ms: " + raw)
		}
		budget.MaxTimeMS = value
	}
	if raw := get("max_queries"); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil || value < 0 {
			return budget, pkgerrors.NewValidationError("invalid max_queries: " + raw)
		}
		budget.MaxQueries = value
	}
	if raw := get("max_filters"); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil || value < 0 {
			return budget, pkgerrors.NewValidationError("invalid max_filters: " + raw)
		}
		budget.MaxFilters = value
	}
	if raw := get("chain"); raw != "" {
		for _, name := range strings.Split(raw, ",") {
			kind, err := navigation.ParseProviderKind(strings.TrimSpace(name))
			if err != nil {
				return budget, pkgerrors.NewValidationError("invalid chain entry: " + name)
			}
			budget.FallbackChain = append(budget.FallbackChain, kind)
		}
	}
	return budget, nil
}

// errorMessage maps an error to its client-facing message, hiding
// internals behind a generic line for non-AppError failures.
func errorMessage(err error) string {
	var appErr *pkgerrors.AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "Internal server error"
}

func (h *NavigationHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("Failed to encode response", zap.Error(err))
	}
}

func (h *NavigationHandler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]interface{}{
		"error":   true,
		"message": message,
		"code":    status,
	})
}
