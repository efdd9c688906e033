// internal/api/api.go
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/csheoganj-del/deora-plaza-sub004/internal/apperr"
	"github.com/csheoganj-del/deora-plaza-sub004/internal/events"
	"github.com/csheoganj-del/deora-plaza-sub004/internal/geo"
	"github.com/csheoganj-del/deora-plaza-sub004/internal/pool"
	"github.com/csheoganj-del/deora-plaza-sub004/internal/route"
	"github.com/csheoganj-del/deora-plaza-sub004/internal/routing"
	"github.com/csheoganj-del/deora-plaza-sub004/internal/traffic"
	ratelimiter "github.com/csheoganj-del/deora-plaza-sub004/rate_limiter"
)

// keepaliveInterval is how often an idle event stream receives a comment.
const keepaliveInterval = 30 * time.Second

// API exposes the routing engine over JSON HTTP endpoints
type API struct {
	Engine  *routing.Engine
	Limiter *ratelimiter.Limiter
	Logger  *zap.Logger
}

// CreatedResponse is returned when a pool or route is created
type CreatedResponse struct {
	ID string `json:"id"`
}

// SelectionResponse is returned from the select endpoint
type SelectionResponse struct {
	PoolID string    `json:"poolId"`
	Node   pool.Node `json:"node"`
}

// CreateRouteRequest is the body of POST /api/routes
type CreateRouteRequest struct {
	Name        string           `json:"name"`
	Origin      route.NodeSpec   `json:"origin"`
	Destination route.NodeSpec   `json:"destination"`
	Waypoints   []route.NodeSpec `json:"waypoints"`
	RouteType   route.Type       `json:"routeType"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// NewAPI creates a new API handler. A nil limiter disables rate limiting.
func NewAPI(engine *routing.Engine, limiter *ratelimiter.Limiter, logger *zap.Logger) *API {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &API{
		Engine:  engine,
		Limiter: limiter,
		Logger:  logger.Named("api"),
	}
}

// RegisterHandlers registers all API endpoints with the given mux
func (api *API) RegisterHandlers(mux *http.ServeMux) {
	// Pool endpoints
	mux.HandleFunc("/api/pools", api.handlePools)
	mux.HandleFunc("/api/pools/", api.handlePoolRequests)

	// Route endpoints
	mux.HandleFunc("/api/routes", api.handleRoutes)
	mux.HandleFunc("/api/routes/", api.handleRouteRequests)

	// Aggregate engine metrics
	mux.HandleFunc("/api/metrics", api.getMetrics)

	// Server-sent events for realtime updates
	mux.HandleFunc("/api/events", api.handleEvents)

	// Prometheus exposition
	mux.Handle("/metrics", promhttp.Handler())
}

// handlePools lists or registers pools
func (api *API) handlePools(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		api.writeJSON(w, http.StatusOK, api.Engine.Pools())
	case http.MethodPost:
		var spec pool.PoolSpec
		if err := json.NewDecoder(r.Body).Decode(&spec); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		id, err := api.Engine.AddPool(spec)
		if err != nil {
			api.writeError(w, err)
			return
		}
		api.writeJSON(w, http.StatusCreated, CreatedResponse{ID: id})
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// handlePoolRequests manages all endpoints under /api/pools/...
func (api *API) handlePoolRequests(w http.ResponseWriter, r *http.Request) {
	// URL format: /api/pools/{poolID}[/select | /nodes/{nodeID}[/{action}]]
	parts := splitPath(r.URL.Path[len("/api/pools/"):])
	if len(parts) == 0 {
		http.Error(w, "Pool not found", http.StatusNotFound)
		return
	}
	poolID := parts[0]

	switch {
	case len(parts) == 1:
		api.getPool(w, r, poolID)
	case len(parts) == 2 && parts[1] == "select":
		api.selectNode(w, r, poolID)
	case len(parts) == 3 && parts[1] == "nodes":
		api.updateNode(w, r, poolID, parts[2])
	case len(parts) == 4 && parts[1] == "nodes" && parts[3] == "samples":
		api.reportSample(w, r, poolID, parts[2])
	case len(parts) == 4 && parts[1] == "nodes" && parts[3] == "traffic":
		api.getTraffic(w, r, poolID, parts[2])
	default:
		http.Error(w, "Unknown action", http.StatusNotFound)
	}
}

func (api *API) getPool(w http.ResponseWriter, r *http.Request, poolID string) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	p, ok := api.Engine.GetPool(poolID)
	if !ok {
		http.Error(w, "Pool not found", http.StatusNotFound)
		return
	}
	api.writeJSON(w, http.StatusOK, p)
}

// selectNode picks the optimal node for the caller at ?lat=&lon=. Both are
// optional; without them the engine's location provider is used.
func (api *API) selectNode(w http.ResponseWriter, r *http.Request, poolID string) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	// Unknown pools are rejected before they can claim a limiter bucket.
	if _, ok := api.Engine.GetPool(poolID); !ok {
		http.Error(w, "Pool not found", http.StatusNotFound)
		return
	}
	if api.Limiter != nil && !api.Limiter.Allow(poolID) {
		http.Error(w, "Too many requests", http.StatusTooManyRequests)
		return
	}

	caller, err := parseCaller(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	n, err := api.Engine.SelectOptimalNode(poolID, caller)
	if err != nil {
		api.writeError(w, err)
		return
	}
	api.writeJSON(w, http.StatusOK, SelectionResponse{PoolID: poolID, Node: *n})
}

func (api *API) updateNode(w http.ResponseWriter, r *http.Request, poolID, nodeID string) {
	if r.Method != http.MethodPatch {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var patch pool.NodePatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := api.Engine.UpdateNode(poolID, nodeID, patch); err != nil {
		api.writeError(w, err)
		return
	}

	p, _ := api.Engine.GetPool(poolID)
	api.writeJSON(w, http.StatusOK, p.Node(nodeID))
}

func (api *API) reportSample(w http.ResponseWriter, r *http.Request, poolID, nodeID string) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var s traffic.Sample
	if err := json.NewDecoder(r.Body).Decode(&s); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := api.Engine.ReportSample(poolID, nodeID, s); err != nil {
		api.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (api *API) getTraffic(w http.ResponseWriter, r *http.Request, poolID, nodeID string) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	hours := 0
	if v := r.URL.Query().Get("hours"); v != "" {
		h, err := strconv.Atoi(v)
		if err != nil || h < 0 {
			http.Error(w, "hours must be a non-negative integer", http.StatusBadRequest)
			return
		}
		hours = h
	}

	samples, err := api.Engine.TrafficData(poolID, nodeID, hours)
	if err != nil {
		api.writeError(w, err)
		return
	}
	api.writeJSON(w, http.StatusOK, samples)
}

// handleRoutes lists or creates routes
func (api *API) handleRoutes(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		var status *route.Status
		if v := r.URL.Query().Get("status"); v != "" {
			s := route.Status(v)
			status = &s
		}
		api.writeJSON(w, http.StatusOK, api.Engine.ListRoutes(status))
	case http.MethodPost:
		var req CreateRouteRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		id, err := api.Engine.CreateRoute(req.Name, req.Origin, req.Destination, req.Waypoints, req.RouteType)
		if err != nil {
			api.writeError(w, err)
			return
		}
		api.writeJSON(w, http.StatusCreated, CreatedResponse{ID: id})
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleRouteRequests manages /api/routes/{routeID}
func (api *API) handleRouteRequests(w http.ResponseWriter, r *http.Request) {
	parts := splitPath(r.URL.Path[len("/api/routes/"):])
	if len(parts) != 1 {
		http.Error(w, "Route not found", http.StatusNotFound)
		return
	}
	routeID := parts[0]

	switch r.Method {
	case http.MethodGet:
		rt, ok := api.Engine.GetRoute(routeID)
		if !ok {
			http.Error(w, "Route not found", http.StatusNotFound)
			return
		}
		api.writeJSON(w, http.StatusOK, rt)
	case http.MethodPatch:
		var patch route.Patch
		if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		rt, err := api.Engine.UpdateRoute(routeID, patch)
		if err != nil {
			api.writeError(w, err)
			return
		}
		api.writeJSON(w, http.StatusOK, rt)
	case http.MethodDelete:
		if err := api.Engine.DeleteRoute(routeID); err != nil {
			api.writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// getMetrics returns the aggregate engine metrics
func (api *API) getMetrics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	api.writeJSON(w, http.StatusOK, api.Engine.Metrics())
}

// handleEvents sets up a Server-Sent Events connection
func (api *API) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	// Set headers for SSE
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	es := api.Engine.Events()
	subscriber := es.Subscribe()
	defer es.Unsubscribe(subscriber)

	// Send welcome event
	es.Publish(events.Event{Type: events.InfoEvent, Message: "Connected to event stream"})

	notify := r.Context().Done()
	for {
		select {
		case <-notify:
			return // Client disconnected
		case msg, ok := <-subscriber:
			if !ok {
				return // Channel closed
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		case <-time.After(keepaliveInterval):
			fmt.Fprintf(w, ": keepalive\n\n")
			flusher.Flush()
		}
	}
}

// writeError maps engine errors onto status codes
func (api *API) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, apperr.ErrInvalidSpec):
		status = http.StatusBadRequest
	case errors.Is(err, apperr.ErrNoHealthyNode):
		status = http.StatusServiceUnavailable
	default:
		api.Logger.Error("request failed", zap.Error(err))
	}
	api.writeJSON(w, status, errorResponse{Error: err.Error()})
}

// writeJSON encodes v up front; encoding failures are logged and answered
// with a 500.
func (api *API) writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		api.Logger.Error("encode response", zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(append(data, '\n'))
}

func splitPath(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}

func parseCaller(r *http.Request) (*geo.Coordinate, error) {
	q := r.URL.Query()
	latStr, lonStr := q.Get("lat"), q.Get("lon")
	if latStr == "" && lonStr == "" {
		return nil, nil
	}

	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid lat %q", latStr)
	}
	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid lon %q", lonStr)
	}
	c := geo.Coordinate{Latitude: lat, Longitude: lon}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}
