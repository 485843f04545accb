package service

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/mosaicnetworks/weave/src/common"
	"github.com/mosaicnetworks/weave/src/node"
	"github.com/mosaicnetworks/weave/src/registry"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// Backend is what the service exposes.
type Backend interface {
	Stats() map[string]string
	Nodes() []registry.Handle
	Node(id uint32) (node.Info, error)
}

// Service serves a read-only HTTP API over a Backend.
type Service struct {
	bindAddress string
	backend     Backend
	mux         *http.ServeMux
	server      *http.Server
	logger      *logrus.Entry
}

// NewService ...
func NewService(bindAddress string, backend Backend, logger *logrus.Entry) *Service {
	service := Service{
		bindAddress: bindAddress,
		backend:     backend,
		mux:         http.NewServeMux(),
		logger:      logger,
	}

	service.registerHandlers()

	service.server = &http.Server{
		Addr:    bindAddress,
		Handler: service.mux,
	}

	return &service
}

// registerHandlers registers the API handlers with the service's own
// ServeMux, so that several services can live in the same process.
func (s *Service) registerHandlers() {
	s.logger.Debug("Registering weave API handlers")
	s.mux.HandleFunc("/stats", s.makeHandler(s.GetStats))
	s.mux.HandleFunc("/nodes", s.makeHandler(s.GetNodes))
	s.mux.HandleFunc("/node/", s.makeHandler(s.GetNode))
	s.mux.Handle("/metrics", promhttp.Handler())
}

func (s *Service) makeHandler(fn func(http.ResponseWriter, *http.Request)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// enable CORS
		w.Header().Set("Access-Control-Allow-Origin", "*")

		fn(w, r)
	}
}

// Handler returns the http.Handler of the API.
func (s *Service) Handler() http.Handler {
	return s.mux
}

// Serve calls ListenAndServe. This is a blocking call.
func (s *Service) Serve() {
	s.logger.WithField("bind_address", s.bindAddress).Debug("Serving weave API")

	err := s.server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		s.logger.Error(err)
	}
}

// Shutdown stops the server.
func (s *Service) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		s.logger.WithError(err).Debug("Shutting down service")
	}
}

// GetStats ...
func (s *Service) GetStats(w http.ResponseWriter, r *http.Request) {
	stats := s.backend.Stats()

	w.Header().Set("Content-Type", "application/json")

	json.NewEncoder(w).Encode(stats)
}

// GetNodes ...
func (s *Service) GetNodes(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	json.NewEncoder(w).Encode(s.backend.Nodes())
}

// GetNode ...
func (s *Service) GetNode(w http.ResponseWriter, r *http.Request) {
	param := strings.TrimPrefix(r.URL.Path, "/node/")

	id, err := strconv.ParseUint(param, 10, 32)
	if err != nil {
		s.logger.WithError(err).Errorf("Parsing node id parameter %s", param)

		http.Error(w, err.Error(), http.StatusBadRequest)

		return
	}

	info, err := s.backend.Node(uint32(id))
	if err != nil {
		s.logger.WithError(err).Debugf("Retrieving node %d", id)

		status := http.StatusInternalServerError
		if common.IsNodeErr(err, common.NodeNotFound) {
			status = http.StatusNotFound
		}

		http.Error(w, err.Error(), status)

		return
	}

	w.Header().Set("Content-Type", "application/json")

	json.NewEncoder(w).Encode(info)
}
