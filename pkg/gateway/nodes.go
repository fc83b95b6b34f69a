// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package gateway

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/LeeDigitalWorks/zapgate/pkg/logger"
)

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, healthResponse{Status: "ok"}, http.StatusOK)
}

// registerNode adds a descriptor to the registry. Missing fields default to
// this node, and an empty body registers this node as is. Registration is
// best effort: a degraded registry still answers success.
func (s *Server) registerNode(w http.ResponseWriter, r *http.Request) {
	var req registerNodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, errorResponse{Error: "invalid request body", Details: err.Error()}, http.StatusBadRequest)
		return
	}

	node := s.cfg.Self
	if req.ID != nil {
		node.ID = *req.ID
	}
	if req.Host != nil {
		node.Host = *req.Host
	}
	if req.Port != nil {
		node.Port = *req.Port
	}

	out := s.registry.Register(r.Context(), node)
	out.Log(r.Context())
	if !out.Degraded() {
		logger.Ctx(r.Context()).Info().Str("node", node.String()).Msg("node registered")
	}
	writeJSON(w, messageResponse{Success: true}, http.StatusOK)
}

func (s *Server) listNodes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, listNodesResponse{Nodes: s.registry.List(r.Context())}, http.StatusOK)
}
