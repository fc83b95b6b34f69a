// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package gateway

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/LeeDigitalWorks/zapgate/pkg/logger"
	"github.com/LeeDigitalWorks/zapgate/pkg/types"
)

func (s *Server) listBuckets(w http.ResponseWriter, r *http.Request) {
	buckets, err := s.store.ListBuckets(r.Context())
	if err != nil {
		writeStoreError(r.Context(), w, err)
		return
	}

	resp := listBucketsResponse{Buckets: make([]bucketInfo, 0, len(buckets))}
	for _, b := range buckets {
		resp.Buckets = append(resp.Buckets, bucketInfo{
			Name:      b.Name,
			Size:      b.Size,
			Created:   types.UnixString(b.CreatedAt),
			Modified:  types.UnixString(b.ModifiedAt),
			FileCount: b.ObjectCount,
		})
	}
	writeJSON(w, resp, http.StatusOK)
}

func (s *Server) createBucket(w http.ResponseWriter, r *http.Request) {
	var req createBucketRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, errorResponse{Error: "invalid request body", Details: err.Error()}, http.StatusBadRequest)
		return
	}

	bucket, err := s.store.CreateBucket(r.Context(), req.Name)
	if err != nil {
		writeStoreError(r.Context(), w, err)
		return
	}

	logger.Ctx(r.Context()).Info().Str("bucket", bucket.Name).Msg("bucket created")
	writeJSON(w, createBucketResponse{Success: true, Bucket: bucketName{Name: bucket.Name}}, http.StatusOK)
}

// deleteBucket removes the bucket and then drops the directory entries of
// the objects it held. Entries that cannot be dropped are left dangling.
func (s *Server) deleteBucket(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	bucket := r.PathValue("bucket")

	objects, _ := s.store.ListObjects(ctx, bucket)
	if err := s.store.DeleteBucket(ctx, bucket); err != nil {
		writeStoreError(ctx, w, err)
		return
	}

	forgetCtx := context.WithoutCancel(ctx)
	for _, obj := range objects {
		s.directory.Forget(forgetCtx, bucket, obj.Key).Log(ctx)
	}

	logger.Ctx(ctx).Info().Str("bucket", bucket).Int("objects", len(objects)).Msg("bucket deleted")
	writeJSON(w, messageResponse{Success: true, Message: "bucket deleted"}, http.StatusOK)
}

func (s *Server) listFiles(w http.ResponseWriter, r *http.Request) {
	bucket := r.PathValue("bucket")
	objects, err := s.store.ListObjects(r.Context(), bucket)
	if err != nil {
		writeStoreError(r.Context(), w, err)
		return
	}

	resp := listFilesResponse{Files: make([]fileEntry, 0, len(objects)), Bucket: bucket}
	for _, o := range objects {
		resp.Files = append(resp.Files, fileEntry{
			Name:     o.Key,
			Size:     o.Size,
			Created:  types.UnixString(o.CreatedAt),
			Modified: types.UnixString(o.ModifiedAt),
			Bucket:   bucket,
		})
	}
	writeJSON(w, resp, http.StatusOK)
}
