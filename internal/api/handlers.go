package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"fula-deployer/internal/models"
	"fula-deployer/internal/storage"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// handleIndex returns basic registry information
// GET / - Returns service info and available endpoints
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	info := map[string]interface{}{
		"service":     "FULA Deployment Registry",
		"version":     "1.0.0",
		"description": "Journal of FULA token deployments",
		"endpoints": map[string]string{
			"GET /":                       "This page - Service information",
			"GET /health":                 "Health check endpoint",
			"GET /metrics":                "Prometheus metrics for monitoring",
			"GET /deployments":            "List deployments (supports ?network=, ?limit=, ?offset=)",
			"GET /deployments/{id}":       "Get a deployment with its steps",
			"GET /deployments/{id}/steps": "Get the step timeline of a deployment",
		},
	}

	writeJSON(w, http.StatusOK, info)
}

// handleHealth returns health status
// GET /health - Health check for monitoring systems
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	code := http.StatusOK
	if err := s.repository.Ping(r.Context()); err != nil {
		slog.Warn("Journal ping failed", "error", err)
		status = "unhealthy"
		code = http.StatusServiceUnavailable
	}

	health := map[string]interface{}{
		"status":    status,
		"timestamp": time.Now().UTC(),
		"service":   "fula-registry",
	}

	writeJSON(w, code, health)
}

// handleMetrics returns Prometheus metrics
// GET /metrics - Prometheus scraping endpoint
func (s *Server) handleMetrics() http.Handler {
	return promhttp.Handler()
}

// =============================================================================
// DEPLOYMENT ENDPOINTS
// =============================================================================

// handleListDeployments lists deployments newest first
// GET /deployments?network=testnet&limit=50&offset=0
func (s *Server) handleListDeployments(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	query := r.URL.Query()
	limit, offset := parsePagination(query)
	network := query.Get("network")

	// Get total count
	total, err := s.repository.CountDeployments(ctx, network)
	if err != nil {
		slog.Error("Failed to count deployments", "error", err)
		s.sendError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	deployments, err := s.repository.ListDeployments(ctx, network, limit, offset)
	if err != nil {
		slog.Error("Failed to list deployments", "error", err)
		s.sendError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	// Build summaries
	summaries := make([]models.DeploymentSummary, len(deployments))
	for i, d := range deployments {
		summaries[i] = models.NewDeploymentSummary(d)
	}

	writeJSON(w, http.StatusOK, models.DeploymentListResponse{
		Deployments: summaries,
		Total:       total,
		Limit:       limit,
		Offset:      offset,
	})
}

// handleGetDeployment returns one deployment with its steps
// GET /deployments/{id}
func (s *Server) handleGetDeployment(w http.ResponseWriter, r *http.Request, rawID string) {
	runID, ok := s.parseRunID(w, rawID)
	if !ok {
		return
	}
	ctx := r.Context()

	deployment, err := s.repository.GetDeployment(ctx, runID)
	if err != nil {
		s.sendLookupError(w, runID.String(), err)
		return
	}

	steps, err := s.repository.ListSteps(ctx, runID)
	if err != nil {
		slog.Error("Failed to get steps", "run_id", runID, "error", err)
		steps = nil // Continue without steps
	}

	response := models.NewDeploymentResponse(deployment, steps)
	if tokens, err := BaseUnitsToTokens(deployment.InitialSupply, s.decimals); err == nil {
		response.InitialSupplyTokens = tokens
	}

	writeJSON(w, http.StatusOK, response)
}

// handleGetSteps returns the step timeline of a deployment
// GET /deployments/{id}/steps
func (s *Server) handleGetSteps(w http.ResponseWriter, r *http.Request, rawID string) {
	runID, ok := s.parseRunID(w, rawID)
	if !ok {
		return
	}
	ctx := r.Context()

	if _, err := s.repository.GetDeployment(ctx, runID); err != nil {
		s.sendLookupError(w, runID.String(), err)
		return
	}

	steps, err := s.repository.ListSteps(ctx, runID)
	if err != nil {
		slog.Error("Failed to get steps", "run_id", runID, "error", err)
		s.sendError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	responses := make([]models.StepResponse, len(steps))
	for i, step := range steps {
		responses[i] = models.NewStepResponse(step)
	}

	writeJSON(w, http.StatusOK, models.StepsResponse{
		RunID: runID.String(),
		Steps: responses,
		Total: len(responses),
	})
}

func (s *Server) sendLookupError(w http.ResponseWriter, runID string, err error) {
	if errors.Is(err, storage.ErrNotFound) {
		s.sendError(w, "Deployment not found", http.StatusNotFound)
		return
	}
	slog.Error("Failed to get deployment", "run_id", runID, "error", err)
	s.sendError(w, "Internal server error", http.StatusInternalServerError)
}

// sendError sends a JSON error response
func (s *Server) sendError(w http.ResponseWriter, message string, code int) {
	writeJSON(w, code, models.ErrorResponse{
		Error:   http.StatusText(code),
		Message: message,
		Code:    code,
	})
}
