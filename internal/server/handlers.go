package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/MeKo-Tech/fieldmark/internal/mapping"
	"github.com/MeKo-Tech/fieldmark/internal/matcher"
	"github.com/MeKo-Tech/fieldmark/internal/version"
	"github.com/google/uuid"
)

// healthHandler returns server health status.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := HealthResponse{
		Status:  "healthy",
		Version: version.Version,
		Rules:   s.store.Snapshot().Len(),
		Time:    time.Now().UTC().Format(time.RFC3339),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		slog.Error("Failed to encode health response", "error", err)
	}
}

// matchHandler runs a matching pass over the posted fragments.
func (s *Server) matchHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	requestID := uuid.NewString()

	r.Body = http.MaxBytesReader(w, r.Body, s.maxBodyMB*1024*1024)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeErrorResponse(w, "Request body too large", http.StatusRequestEntityTooLarge, requestID)
		} else {
			s.writeErrorResponse(w, "Failed to read request body", http.StatusBadRequest, requestID)
		}
		return
	}
	requestBodyBytes.Observe(float64(len(body)))

	var req MatchRequest
	if err := json.Unmarshal(body, &req); err != nil {
		s.writeErrorResponse(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest, requestID)
		return
	}

	start := time.Now()
	result, err := s.matcher.Match(req.Fragments, s.store.Snapshot())
	duration := time.Since(start)

	if err != nil {
		matchRequestsTotal.WithLabelValues("http", "error").Inc()
		s.writeErrorResponse(w, fmt.Sprintf("Matching failed: %v", err), http.StatusInternalServerError, requestID)
		return
	}

	recordMatchMetrics("http", &result, duration)

	w.Header().Set("Content-Type", "application/json")
	response := MatchResponse{
		Success:   true,
		Result:    &result,
		RequestID: requestID,
	}
	if err := json.NewEncoder(w).Encode(response); err != nil {
		slog.Error("Failed to encode match response", "error", err, "request_id", requestID)
	}
}

// mappingsHandler serves and replaces the published mapping table.
func (s *Server) mappingsHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.getMappings(w)
	case http.MethodPut:
		s.putMappings(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) getMappings(w http.ResponseWriter) {
	doc := mapping.DocumentFromTable(s.store.Snapshot())

	response := MappingsResponse{
		Fields: doc.Fields,
		Count:  len(doc.Fields),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		slog.Error("Failed to encode mappings response", "error", err)
	}
}

func (s *Server) putMappings(w http.ResponseWriter, r *http.Request) {
	requestID := uuid.NewString()

	r.Body = http.MaxBytesReader(w, r.Body, s.maxBodyMB*1024*1024)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.writeErrorResponse(w, "Failed to read request body", http.StatusBadRequest, requestID)
		return
	}

	table, err := mapping.ParseDocument(body)
	if err != nil {
		s.writeErrorResponse(w, fmt.Sprintf("Invalid mapping document: %v", err), http.StatusBadRequest, requestID)
		return
	}

	// Persist before publishing so a restart picks up the same table.
	if s.mappingFile != "" {
		if err := mapping.SaveFile(s.mappingFile, mapping.DocumentFromTable(table)); err != nil {
			s.writeErrorResponse(w, fmt.Sprintf("Failed to persist mappings: %v", err), http.StatusInternalServerError, requestID)
			return
		}
	}
	s.store.Replace(table)
	mappingTableRules.Set(float64(table.Len()))

	slog.Info("Mapping table replaced", "rules", table.Len(), "request_id", requestID)

	response := MappingsResponse{
		Fields: mapping.DocumentFromTable(table).Fields,
		Count:  table.Len(),
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		slog.Error("Failed to encode mappings response", "error", err, "request_id", requestID)
	}
}

// recordMatchMetrics updates prometheus metrics for a completed pass.
func recordMatchMetrics(transport string, result *matcher.Result, duration time.Duration) {
	matchRequestsTotal.WithLabelValues(transport, "success").Inc()
	matchDuration.WithLabelValues(transport).Observe(duration.Seconds())
	fragmentsPerRequest.Observe(float64(result.Diagnostics.Fragments))
	fieldsResolved.WithLabelValues(transport).Observe(float64(len(result.Fields)))
	for _, diag := range result.Diagnostics.Fields {
		fieldsByStrategy.WithLabelValues(string(diag.Strategy)).Inc()
	}
}

// writeErrorResponse writes a JSON error response.
func (s *Server) writeErrorResponse(w http.ResponseWriter, message string, statusCode int, requestID string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := MatchResponse{
		Success:   false,
		Error:     message,
		RequestID: requestID,
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		slog.Error("Failed to write error response", "error", err)
	}
}
