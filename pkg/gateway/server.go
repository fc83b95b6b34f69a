// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

// Package gateway is the HTTP front of a node: bucket and object handlers on
// top of the local store, cross-node redirects through the resolver, node
// registration, and the API key gate.
package gateway

import (
	"context"
	"net/http"

	"github.com/LeeDigitalWorks/zapgate/pkg/coord"
	"github.com/LeeDigitalWorks/zapgate/pkg/resolver"
	"github.com/LeeDigitalWorks/zapgate/pkg/storage"
	"github.com/LeeDigitalWorks/zapgate/pkg/types"

	"golang.org/x/time/rate"
)

const (
	// APIKeyHeader carries the shared secret checked by the auth gate.
	APIKeyHeader = "X-API-Key"

	// NodeIDHeader names the node a redirect points at.
	NodeIDHeader = "X-Zapgate-Node-Id"
)

// Config holds the per-node settings of the HTTP front.
type Config struct {
	// APIKey enables the auth gate when non-empty.
	APIKey string

	// Self is this node as other nodes should reach it. It is recorded as
	// the owner of every upload and used as the default for registrations.
	Self types.NodeDescriptor

	// MaxUploadSize caps the request body of an upload. Zero means no cap.
	MaxUploadSize int64

	// RateLimitRPS enables a node-wide token bucket when positive.
	RateLimitRPS   float64
	RateLimitBurst int
}

type Server struct {
	cfg       Config
	store     *storage.Store
	directory *coord.Directory
	registry  *coord.Registry
	resolver  *resolver.Resolver
	limiter   *rate.Limiter

	mux     *http.ServeMux
	handler http.Handler
}

func NewServer(cfg Config, store *storage.Store, directory *coord.Directory, registry *coord.Registry) *Server {
	s := &Server{
		cfg:       cfg,
		store:     store,
		directory: directory,
		registry:  registry,
		resolver:  resolver.New(store, directory, cfg.Self),
		mux:       http.NewServeMux(),
	}
	if cfg.RateLimitRPS > 0 {
		burst := cfg.RateLimitBurst
		if burst <= 0 {
			burst = int(cfg.RateLimitRPS)
		}
		if burst < 1 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), burst)
	}

	s.registerRoutes()
	s.handler = s.recoverer(s.requestLogger(s.cors(s.rateLimit(s.auth(s.mux)))))
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// Self returns the descriptor this node advertises.
func (s *Server) Self() types.NodeDescriptor {
	return s.cfg.Self
}

// RegisterSelf adds this node to the shared registry.
func (s *Server) RegisterSelf(ctx context.Context) coord.Outcome {
	return s.registry.Register(ctx, s.cfg.Self)
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.health)

	// Buckets
	s.mux.HandleFunc("GET /api/buckets", s.listBuckets)
	s.mux.HandleFunc("POST /api/buckets", s.createBucket)
	s.mux.HandleFunc("DELETE /api/buckets/{bucket}", s.deleteBucket)

	// Objects
	s.mux.HandleFunc("GET /api/buckets/{bucket}/files", s.listFiles)
	s.mux.HandleFunc("POST /api/buckets/{bucket}/upload", s.uploadFile)
	s.mux.HandleFunc("GET /api/buckets/{bucket}/files/{filename}", s.downloadFile)
	s.mux.HandleFunc("DELETE /api/buckets/{bucket}/files/{filename}", s.deleteFile)
	s.mux.HandleFunc("GET /api/buckets/{bucket}/files/{filename}/info", s.fileInfo)

	// Nodes
	s.mux.HandleFunc("POST /api/nodes/register", s.registerNode)
	s.mux.HandleFunc("GET /api/nodes", s.listNodes)
}
