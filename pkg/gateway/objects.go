// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package gateway

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/LeeDigitalWorks/zapgate/pkg/logger"
	"github.com/LeeDigitalWorks/zapgate/pkg/resolver"
	"github.com/LeeDigitalWorks/zapgate/pkg/storage"
	"github.com/LeeDigitalWorks/zapgate/pkg/types"
	"github.com/LeeDigitalWorks/zapgate/pkg/utils"
)

// uploadFile streams the first "file" part of a multipart body to disk and
// records this node as its owner. Other parts are skipped.
func (s *Server) uploadFile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	bucket := r.PathValue("bucket")
	if err := storage.ValidateBucketName(bucket); err != nil {
		writeStoreError(ctx, w, err)
		return
	}

	if s.cfg.MaxUploadSize > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadSize)
	}
	mr, err := r.MultipartReader()
	if err != nil {
		writeJSON(w, errorResponse{Error: "expected multipart/form-data body", Details: err.Error()}, http.StatusBadRequest)
		return
	}

	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var maxBytesErr *http.MaxBytesError
			if errors.As(err, &maxBytesErr) {
				writeStoreError(ctx, w, err)
				return
			}
			writeJSON(w, errorResponse{Error: "failed to read file", Details: err.Error()}, http.StatusBadRequest)
			return
		}
		if name := part.FormName(); name != "" && name != "file" {
			part.Close()
			continue
		}

		obj, err := s.store.PutObject(ctx, bucket, part.FileName(), part)
		part.Close()
		if err != nil {
			writeStoreError(ctx, w, err)
			return
		}
		BytesTransferred.WithLabelValues("upload").Add(float64(obj.Size))

		// The bytes are durable; publishing the pointer must not depend on
		// the client staying connected.
		s.directory.Record(context.WithoutCancel(ctx), bucket, obj.Key, s.cfg.Self).Log(ctx)

		logger.Ctx(ctx).Info().
			Str("bucket", bucket).
			Str("key", obj.Key).
			Int64("size", obj.Size).
			Msg("object stored")
		writeJSON(w, uploadResponse{
			Success: true,
			File: uploadedFile{
				Name:         obj.Key,
				OriginalName: obj.OriginalName,
				Size:         obj.Size,
				Path:         obj.Path,
				Bucket:       bucket,
				SHA256:       obj.SHA256,
			},
		}, http.StatusOK)
		return
	}

	writeJSONError(w, "no file uploaded", http.StatusBadRequest)
}

func (s *Server) downloadFile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	bucket, key := r.PathValue("bucket"), r.PathValue("filename")

	res, err := s.resolver.Open(ctx, bucket, key)
	if err != nil {
		writeStoreError(ctx, w, err)
		return
	}

	switch res.State {
	case resolver.LocalHit:
		defer res.Reader.Close()

		h := w.Header()
		h.Set("Content-Type", "application/octet-stream")
		h.Set("Content-Length", strconv.FormatInt(res.Object.Size, 10))
		h.Set("Content-Disposition", "attachment; filename="+strconv.Quote(key))
		w.WriteHeader(http.StatusOK)

		buf := utils.GetCopyBuffer()
		defer utils.PutCopyBuffer(buf)
		n, err := io.CopyBuffer(w, res.Reader, *buf)
		BytesTransferred.WithLabelValues("download").Add(float64(n))
		if err != nil {
			logger.Ctx(ctx).Debug().Err(err).Int64("sent", n).Msg("download interrupted")
		}
	case resolver.Redirected:
		redirect(w, r, res)
	default:
		writeJSONError(w, "file not found", http.StatusNotFound)
	}
}

// deleteFile removes a local object. A miss is a 404 even when another node
// owns the key: deletes are never redirected.
func (s *Server) deleteFile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	bucket, key := r.PathValue("bucket"), r.PathValue("filename")

	if err := s.store.DeleteObject(ctx, bucket, key); err != nil {
		writeStoreError(ctx, w, err)
		return
	}
	s.directory.Forget(context.WithoutCancel(ctx), bucket, key).Log(ctx)

	logger.Ctx(ctx).Info().Str("bucket", bucket).Str("key", key).Msg("object deleted")
	writeJSON(w, messageResponse{Success: true, Message: "file deleted"}, http.StatusOK)
}

func (s *Server) fileInfo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	bucket, key := r.PathValue("bucket"), r.PathValue("filename")

	res, err := s.resolver.Stat(ctx, bucket, key)
	if err != nil {
		writeStoreError(ctx, w, err)
		return
	}

	switch res.State {
	case resolver.LocalHit:
		resp := fileInfoResponse{
			Filename:   key,
			Size:       res.Object.Size,
			CreatedAt:  types.UnixString(res.Object.CreatedAt),
			ModifiedAt: types.UnixString(res.Object.ModifiedAt),
			Bucket:     bucket,
		}
		if owner, ok := s.directory.Lookup(ctx, bucket, key); ok {
			resp.Location = &owner
		}
		writeJSON(w, resp, http.StatusOK)
	case resolver.Redirected:
		redirect(w, r, res)
	default:
		writeJSONError(w, "file not found", http.StatusNotFound)
	}
}

func redirect(w http.ResponseWriter, r *http.Request, res resolver.Resolution) {
	logger.Ctx(r.Context()).Debug().
		Str("owner", res.Owner.String()).
		Str("location", res.Location).
		Msg("redirecting to owner")
	w.Header().Set(NodeIDHeader, res.Owner.ID)
	http.Redirect(w, r, res.Location, http.StatusTemporaryRedirect)
}
