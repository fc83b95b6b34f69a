// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/LeeDigitalWorks/zapgate/pkg/logger"
	"github.com/LeeDigitalWorks/zapgate/pkg/storage"
	"github.com/LeeDigitalWorks/zapgate/pkg/types"
)

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

type bucketInfo struct {
	Name      string `json:"name"`
	Size      int64  `json:"size"`
	Created   string `json:"created"`
	Modified  string `json:"modified"`
	FileCount int    `json:"fileCount"`
}

type listBucketsResponse struct {
	Buckets []bucketInfo `json:"buckets"`
}

type createBucketRequest struct {
	Name string `json:"name"`
}

type bucketName struct {
	Name string `json:"name"`
}

type createBucketResponse struct {
	Success bool       `json:"success"`
	Bucket  bucketName `json:"bucket"`
}

type messageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

type fileEntry struct {
	Name     string `json:"name"`
	Size     int64  `json:"size"`
	Created  string `json:"created"`
	Modified string `json:"modified"`
	Bucket   string `json:"bucket"`
}

type listFilesResponse struct {
	Files  []fileEntry `json:"files"`
	Bucket string      `json:"bucket"`
}

type uploadedFile struct {
	Name         string `json:"name"`
	OriginalName string `json:"originalName"`
	Size         int64  `json:"size"`
	Path         string `json:"path"`
	Bucket       string `json:"bucket"`
	SHA256       string `json:"sha256"`
}

type uploadResponse struct {
	Success bool         `json:"success"`
	File    uploadedFile `json:"file"`
}

type fileInfoResponse struct {
	Filename   string                `json:"filename"`
	Size       int64                 `json:"size"`
	CreatedAt  string                `json:"createdAt"`
	ModifiedAt string                `json:"modifiedAt"`
	Bucket     string                `json:"bucket"`
	Location   *types.NodeDescriptor `json:"location,omitempty"`
}

type registerNodeRequest struct {
	ID   *string `json:"id"`
	Host *string `json:"host"`
	Port *int    `json:"port"`
}

type listNodesResponse struct {
	Nodes []types.NodeDescriptor `json:"nodes"`
}

type healthResponse struct {
	Status string `json:"status"`
}

func writeJSON(w http.ResponseWriter, data any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeJSONError(w http.ResponseWriter, message string, status int) {
	writeJSON(w, errorResponse{Error: message}, status)
}

// writeStoreError maps local store errors to HTTP responses. I/O failures
// carry the underlying cause in "details".
func writeStoreError(ctx context.Context, w http.ResponseWriter, err error) {
	var maxBytesErr *http.MaxBytesError
	var ioErr *storage.IOError

	switch {
	case errors.Is(err, storage.ErrInvalidBucketName), errors.Is(err, storage.ErrInvalidObjectKey):
		writeJSONError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, storage.ErrBucketExists):
		writeJSONError(w, "bucket already exists", http.StatusConflict)
	case errors.Is(err, storage.ErrBucketNotFound):
		writeJSONError(w, "bucket not found", http.StatusNotFound)
	case errors.Is(err, storage.ErrObjectNotFound):
		writeJSONError(w, "file not found", http.StatusNotFound)
	case errors.As(err, &maxBytesErr):
		writeJSON(w, errorResponse{
			Error:   "upload too large",
			Details: err.Error(),
		}, http.StatusRequestEntityTooLarge)
	case errors.Is(err, storage.ErrPayloadRead):
		logger.Ctx(ctx).Debug().Err(err).Msg("upload aborted while reading payload")
		writeJSON(w, errorResponse{Error: "failed to read file", Details: err.Error()}, http.StatusBadRequest)
	case errors.As(err, &ioErr):
		logger.Ctx(ctx).Error().Err(err).Str("op", ioErr.Op).Str("path", ioErr.Path).Msg("local storage failure")
		writeJSON(w, errorResponse{Error: ioErr.Op + " failed", Details: ioErr.Err.Error()}, http.StatusInternalServerError)
	default:
		logger.Ctx(ctx).Error().Err(err).Msg("unexpected storage error")
		writeJSON(w, errorResponse{Error: "internal server error", Details: err.Error()}, http.StatusInternalServerError)
	}
}
