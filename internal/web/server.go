// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package web exposes the validation pipeline over HTTP so other systems
// can submit certificates without shelling out to the CLI.
package web

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"cert-scan/internal/cert"
	"cert-scan/internal/pipeline"
	"cert-scan/internal/version"
)

const maxUploadBytes = 25 << 20

var (
	validationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "certscan_validations_total",
		Help: "Validation results by disposition.",
	}, []string{"disposition"})

	validationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "certscan_validation_duration_seconds",
		Help:    "Wall time spent validating one certificate.",
		Buckets: prometheus.DefBuckets,
	})
)

// Server serves the validation API.
type Server struct {
	port     int
	pipe     *pipeline.Pipeline
	server   *http.Server
	listener net.Listener
}

// ValidateRequest is the JSON body for POST /api/validate.
type ValidateRequest struct {
	Text          string `json:"text"`
	StateOverride string `json:"state_override,omitempty"`
	CertificateID string `json:"certificate_id,omitempty"`
}

// ValidateResponse wraps a validation result for the API.
type ValidateResponse struct {
	Success bool                   `json:"success"`
	Result  *cert.ValidationResult `json:"result,omitempty"`
	Error   string                 `json:"error,omitempty"`
}

// NewServer creates a server for the given pipeline.
func NewServer(port int, pipe *pipeline.Pipeline) *Server {
	return &Server{
		port: port,
		pipe: pipe,
	}
}

// Start binds a port and serves until ctx is cancelled. If the requested
// port is busy, the next nine ports are tried before giving up.
func (s *Server) Start(ctx context.Context) error {
	listener, port, err := s.listen()
	if err != nil {
		return err
	}
	s.listener = listener
	s.server = s.createSecureServer(port)

	fmt.Printf("cert-scan API listening on port %d\n", port)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := s.server.Serve(listener); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// Stop closes the server immediately.
func (s *Server) Stop() error {
	if s.server != nil {
		return s.server.Close()
	}
	return nil
}

func (s *Server) listen() (net.Listener, int, error) {
	var lastError error
	for i := 0; i < 10; i++ {
		port := s.port + i
		listener, err := net.Listen("tcp", ":"+strconv.Itoa(port))
		if err != nil {
			lastError = err
			if i == 0 {
				fmt.Printf("Port %d is not available, trying alternative ports...\n", port)
			}
			continue
		}
		return listener, port, nil
	}
	return nil, 0, fmt.Errorf("could not find an available port in range %d-%d: %v",
		s.port, s.port+9, lastError)
}

// createSecureServer creates an HTTP server with security timeouts
func (s *Server) createSecureServer(port int) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/api/validate", s.handleValidate)
	mux.Handle("/metrics", promhttp.Handler())

	return &http.Server{
		Addr: ":" + strconv.Itoa(port),
		// Timeout for reading request headers (prevents slow header attacks)
		ReadHeaderTimeout: 15 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		Handler:           mux,
	}
}

// handleHealth provides a health check endpoint with version information
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	versionInfo := version.Full()
	healthData := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"service":   "cert-scan-web",
		"version":   versionInfo["version"],
		"build_info": map[string]interface{}{
			"version":    versionInfo["version"],
			"commit":     versionInfo["commit"],
			"build_date": versionInfo["buildDate"],
			"go_version": versionInfo["goVersion"],
			"platform":   versionInfo["platform"],
		},
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(healthData)
}

// handleValidate accepts either a JSON body with raw certificate text or
// a multipart upload with a document file, runs the pipeline, and returns
// the validation result.
func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	start := time.Now()
	var result *cert.ValidationResult
	var err error

	contentType := r.Header.Get("Content-Type")
	if contentType == "application/json" || contentType == "" {
		result, err = s.validateJSON(r)
	} else {
		result, err = s.validateUpload(r)
	}
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ValidateResponse{Success: false, Error: err.Error()})
		return
	}

	validationDuration.Observe(time.Since(start).Seconds())
	validationsTotal.WithLabelValues(string(result.Disposition)).Inc()

	writeJSON(w, http.StatusOK, ValidateResponse{Success: true, Result: result})
}

func (s *Server) validateJSON(r *http.Request) (*cert.ValidationResult, error) {
	var req ValidateRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxUploadBytes)).Decode(&req); err != nil {
		return nil, fmt.Errorf("decoding request body: %w", err)
	}
	if req.Text == "" {
		return nil, fmt.Errorf("request field 'text' is required")
	}
	return s.pipe.ValidateText(r.Context(), req.Text, pipeline.Options{
		StateOverride: req.StateOverride,
		CertificateID: req.CertificateID,
	}), nil
}

func (s *Server) validateUpload(r *http.Request) (*cert.ValidationResult, error) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return nil, fmt.Errorf("parsing upload: %w", err)
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, fmt.Errorf("reading uploaded file: %w", err)
	}
	defer file.Close()

	// The document readers work on paths, so stage the upload in a
	// temp file with its original extension.
	tmp, err := os.CreateTemp("", "cert-scan-upload-*"+filepath.Ext(header.Filename))
	if err != nil {
		return nil, fmt.Errorf("staging upload: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, io.LimitReader(file, maxUploadBytes)); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("staging upload: %w", err)
	}
	tmp.Close()

	return s.pipe.ValidateFile(r.Context(), tmp.Name(), pipeline.Options{
		StateOverride: r.FormValue("state_override"),
		SourceFile:    header.Filename,
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
