package server

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/dohome/internal/discovery"
	"github.com/muurk/dohome/internal/entity"
	"github.com/muurk/dohome/internal/logging"
	"github.com/muurk/dohome/internal/protocol"
	"github.com/muurk/dohome/internal/version"
)

// maxBodySize bounds command request bodies
const maxBodySize = 4096

// routes builds the API mux
func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/devices", s.handleDevices)
	mux.HandleFunc("GET /api/entities", s.handleEntities)
	mux.HandleFunc("GET /api/entities/{id}", s.handleEntity)
	mux.HandleFunc("POST /api/entities/{id}", s.handleCommand)
	mux.HandleFunc("POST /api/discover", s.handleDiscover)
	mux.HandleFunc("GET /api/events", s.hub.ServeWS)
	mux.HandleFunc("GET /api/version", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, version.Get())
	})
	return logRequests(mux)
}

func (s *Server) handleDevices(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.registry.Snapshot())
}

func (s *Server) handleEntities(w http.ResponseWriter, _ *http.Request) {
	all := s.entities.All()
	out := make([]entity.Info, 0, len(all))
	for _, e := range all {
		out = append(out, entity.Describe(e))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleEntity(w http.ResponseWriter, r *http.Request) {
	e, ok := s.entities.Get(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "unknown entity")
		return
	}
	writeJSON(w, http.StatusOK, entity.Describe(e))
}

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	e, ok := s.entities.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown entity")
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read body")
		return
	}
	cmd, err := entity.ParseCommand(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := cmd.Apply(r.Context(), e); err != nil {
		logging.Warn("Command failed",
			zap.String("unique_id", id),
			zap.String("state", cmd.State),
			zap.Error(err),
		)
		writeError(w, commandStatus(err), protocol.GetShortErrorMessage(err))
		return
	}

	if s.OnStateChange != nil {
		s.OnStateChange(e)
	}
	writeJSON(w, http.StatusOK, entity.Describe(e))
}

// commandStatus maps a device exchange error to an HTTP status
func commandStatus(err error) int {
	switch {
	case protocol.IsNoResponse(err):
		return http.StatusGatewayTimeout
	case protocol.IsType(err, protocol.ErrTypeInvalidDevice),
		protocol.IsType(err, protocol.ErrTypeInvalidOperation):
		return http.StatusBadRequest
	default:
		return http.StatusBadGateway
	}
}

type discoverResponse struct {
	Window string        `json:"window"`
	Added  []entity.Info `json:"added"`
}

func (s *Server) handleDiscover(w http.ResponseWriter, r *http.Request) {
	if s.discover == nil {
		writeError(w, http.StatusServiceUnavailable, "discovery is not available")
		return
	}

	var window time.Duration
	if v := r.URL.Query().Get("duration"); v != "" {
		seconds, err := strconv.ParseFloat(v, 64)
		if err != nil || seconds < 0 {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid duration %q", v))
			return
		}
		window = discovery.ClampWindow(time.Duration(seconds * float64(time.Second)))
	}

	added, err := s.discover(r.Context(), window)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := discoverResponse{Added: make([]entity.Info, 0, len(added))}
	if window > 0 {
		resp.Window = window.String()
	}
	for _, e := range added {
		resp.Added = append(resp.Added, entity.Describe(e))
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Warn("Failed to write response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// statusRecorder captures the response status for request logging
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Hijack lets the WebSocket upgrade through the recorder
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	r.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logging.LogHTTPRequest(r.RemoteAddr, r.Method, r.URL.Path, rec.status)
	})
}
