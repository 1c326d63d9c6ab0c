/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package api provides the HTTP API server for devicewatch
package api

import (
	"context"
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"github.com/carverauto/devicewatch/pkg/core"
	dwHttp "github.com/carverauto/devicewatch/pkg/http"
	"github.com/carverauto/devicewatch/pkg/logger"
	"github.com/carverauto/devicewatch/pkg/models"
)

const (
	defaultReadTimeout  = 10 * time.Second
	defaultWriteTimeout = 60 * time.Second
	defaultIdleTimeout  = 120 * time.Second
	maxRequestBodyBytes = 1 << 20

	healthOK       = "ok"
	healthDegraded = "degraded"
)

var errServiceNotConfigured = errors.New("device service not configured")

// APIServer serves the device API under /api.
type APIServer struct {
	router     *mux.Router
	service    core.Service
	logger     logger.Logger
	corsConfig models.CORSConfig

	streamPingInterval time.Duration

	mu       sync.Mutex
	srv      *http.Server
	done     chan struct{}
	doneOnce sync.Once
}

// NewAPIServer creates a new API server instance with the given configuration
func NewAPIServer(config models.CORSConfig, options ...func(server *APIServer)) *APIServer {
	s := &APIServer{
		router:             mux.NewRouter(),
		corsConfig:         config,
		logger:             logger.NewTestLogger(),
		streamPingInterval: defaultStreamPingInterval,
		done:               make(chan struct{}),
	}

	for _, o := range options {
		o(s)
	}

	s.setupRoutes()

	return s
}

// WithDeviceService sets the service backing the handlers.
func WithDeviceService(svc core.Service) func(server *APIServer) {
	return func(server *APIServer) {
		server.service = svc
	}
}

// WithLogger sets the logger used by the handlers and middleware.
func WithLogger(log logger.Logger) func(server *APIServer) {
	return func(server *APIServer) {
		server.logger = log
	}
}

// WithStreamPingInterval sets how often idle websocket streams are pinged.
func WithStreamPingInterval(d time.Duration) func(server *APIServer) {
	return func(server *APIServer) {
		if d > 0 {
			server.streamPingInterval = d
		}
	}
}

// Handler exposes the router, mainly for tests.
func (s *APIServer) Handler() http.Handler {
	return s.router
}

func (s *APIServer) setupRoutes() {
	s.router.Use(func(next http.Handler) http.Handler {
		return dwHttp.CommonMiddleware(next, s.corsConfig, s.logger)
	})

	api := s.router.PathPrefix("/api").Subrouter()

	api.HandleFunc("/devices", s.getDevices).Methods(http.MethodGet)
	api.HandleFunc("/device", s.addDevice).Methods(http.MethodPost)
	api.HandleFunc("/device/{id}", s.getDevice).Methods(http.MethodGet)
	api.HandleFunc("/device/{id}", s.deleteDevice).Methods(http.MethodDelete)
	api.HandleFunc("/device/{id}/check", s.checkDevice).Methods(http.MethodPost)
	api.HandleFunc("/check-all", s.checkAll).Methods(http.MethodPost)
	api.HandleFunc("/health", s.getHealth).Methods(http.MethodGet)
	api.HandleFunc("/stream", s.handleStream).Methods(http.MethodGet)

	// preflight requests are answered by the middleware, but mux only runs
	// middleware for matched routes
	api.PathPrefix("/").Methods(http.MethodOptions).HandlerFunc(func(http.ResponseWriter, *http.Request) {})
}

func (s *APIServer) getDevices(w http.ResponseWriter, r *http.Request) {
	if !s.ready(w) {
		return
	}

	s.encodeJSONResponse(w, http.StatusOK, s.service.ListWithStatus(r.Context()))
}

func (s *APIServer) addDevice(w http.ResponseWriter, r *http.Request) {
	if !s.ready(w) {
		return
	}

	req, err := decodeDeviceRequest(w, r)
	if err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	device, err := s.service.AddDevice(r.Context(), req.Name, req.Address)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	s.encodeJSONResponse(w, http.StatusCreated, device)
}

// decodeDeviceRequest accepts a JSON body or a form-encoded one.
func decodeDeviceRequest(w http.ResponseWriter, r *http.Request) (models.NewDeviceRequest, error) {
	var req models.NewDeviceRequest

	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	switch mediaType {
	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return req, err
		}

		req.Name = r.PostFormValue("name")
		req.Address = r.PostFormValue("ip")

		return req, nil
	default:
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return req, err
		}

		return req, nil
	}
}

func (s *APIServer) getDevice(w http.ResponseWriter, r *http.Request) {
	if !s.ready(w) {
		return
	}

	detail, err := s.service.GetOneWithStatus(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	s.encodeJSONResponse(w, http.StatusOK, detail)
}

func (s *APIServer) deleteDevice(w http.ResponseWriter, r *http.Request) {
	if !s.ready(w) {
		return
	}

	if err := s.service.RemoveDevice(r.Context(), mux.Vars(r)["id"]); err != nil {
		s.writeServiceError(w, err)
		return
	}

	s.encodeJSONResponse(w, http.StatusOK, models.SuccessResponse{Success: true})
}

func (s *APIServer) checkDevice(w http.ResponseWriter, r *http.Request) {
	if !s.ready(w) {
		return
	}

	detail, err := s.service.CheckOneNow(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	s.encodeJSONResponse(w, http.StatusOK, models.CheckResponse{
		Success: true,
		Message: "Device checked",
		Device:  detail.Device,
		Status:  detail.Status,
	})
}

func (s *APIServer) checkAll(w http.ResponseWriter, r *http.Request) {
	if !s.ready(w) {
		return
	}

	// a full sweep is bounded only by the request context, not the server write timeout
	if err := http.NewResponseController(w).SetWriteDeadline(time.Time{}); err != nil {
		s.logger.Debug().Err(err).Msg("Could not clear write deadline for check-all")
	}

	if err := s.service.CheckAllNow(r.Context()); err != nil {
		s.writeServiceError(w, err)
		return
	}

	s.encodeJSONResponse(w, http.StatusOK, models.SuccessResponse{
		Success: true,
		Message: "All devices checked",
	})
}

func (s *APIServer) getHealth(w http.ResponseWriter, r *http.Request) {
	if !s.ready(w) {
		return
	}

	state := s.service.Health(r.Context())

	resp := models.HealthResponse{Status: healthOK, HealthState: state}
	if state.Degraded {
		resp.Status = healthDegraded
	}

	s.encodeJSONResponse(w, http.StatusOK, resp)
}

func (s *APIServer) ready(w http.ResponseWriter) bool {
	if s.service != nil {
		return true
	}

	s.logger.Error().Err(errServiceNotConfigured).Msg("Rejecting request")
	writeError(w, "Service unavailable", http.StatusServiceUnavailable)

	return false
}

func (s *APIServer) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrDeviceNotFound):
		writeError(w, "Device not found", http.StatusNotFound)
	case errors.Is(err, models.ErrInvalidDevice):
		writeError(w, "Name and IP are required", http.StatusBadRequest)
	case errors.Is(err, models.ErrDuplicateAddress):
		writeError(w, "A device with this IP already exists", http.StatusBadRequest)
	default:
		s.logger.Error().Err(err).Msg("Request failed")
		writeError(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (s *APIServer) encodeJSONResponse(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error().Err(err).Msg("Error encoding response")
	}
}

// Start serves the API on addr until Shutdown is called.
func (s *APIServer) Start(addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  defaultReadTimeout,
		WriteTimeout: defaultWriteTimeout,
		IdleTimeout:  defaultIdleTimeout,
	}

	s.mu.Lock()
	s.srv = srv
	s.mu.Unlock()

	s.logger.Info().Str("addr", addr).Msg("Starting API server")

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

// Shutdown closes open streams and gracefully stops the HTTP server.
func (s *APIServer) Shutdown(ctx context.Context) error {
	s.doneOnce.Do(func() { close(s.done) })

	s.mu.Lock()
	srv := s.srv
	s.mu.Unlock()

	if srv == nil {
		return nil
	}

	return srv.Shutdown(ctx)
}

func writeError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")

	w.WriteHeader(statusCode)

	errResponse := models.ErrorResponse{
		Message: message,
		Status:  statusCode,
	}

	if err := json.NewEncoder(w).Encode(errResponse); err != nil {
		// Fallback in case encoding fails
		http.Error(w, "Failed to encode error response", http.StatusInternalServerError)
	}
}
