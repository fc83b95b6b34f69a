// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"

	"github.com/LeeDigitalWorks/zapgate/pkg/types"
)

type Bucket struct {
	Name      string `json:"name"`
	Size      int64  `json:"size"`
	Created   string `json:"created"`
	Modified  string `json:"modified"`
	FileCount int    `json:"fileCount"`
}

type File struct {
	Name     string `json:"name"`
	Size     int64  `json:"size"`
	Created  string `json:"created"`
	Modified string `json:"modified"`
	Bucket   string `json:"bucket"`
}

type UploadedFile struct {
	Name         string `json:"name"`
	OriginalName string `json:"originalName"`
	Size         int64  `json:"size"`
	Path         string `json:"path"`
	Bucket       string `json:"bucket"`
	SHA256       string `json:"sha256"`
}

type FileInfo struct {
	Filename   string                `json:"filename"`
	Size       int64                 `json:"size"`
	CreatedAt  string                `json:"createdAt"`
	ModifiedAt string                `json:"modifiedAt"`
	Bucket     string                `json:"bucket"`
	Location   *types.NodeDescriptor `json:"location,omitempty"`
}

func (c *Client) Health(ctx context.Context) error {
	var out struct {
		Status string `json:"status"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/health", nil, &out); err != nil {
		return err
	}
	if out.Status != "ok" {
		return fmt.Errorf("unexpected health status %q", out.Status)
	}
	return nil
}

// === Buckets ===

func (c *Client) ListBuckets(ctx context.Context) ([]Bucket, error) {
	var out struct {
		Buckets []Bucket `json:"buckets"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/api/buckets", nil, &out); err != nil {
		return nil, err
	}
	return out.Buckets, nil
}

func (c *Client) CreateBucket(ctx context.Context, name string) error {
	return c.doJSON(ctx, http.MethodPost, "/api/buckets", map[string]string{"name": name}, nil)
}

func (c *Client) DeleteBucket(ctx context.Context, name string) error {
	return c.doJSON(ctx, http.MethodDelete, "/api/buckets/"+url.PathEscape(name), nil, nil)
}

// === Objects ===

func (c *Client) ListFiles(ctx context.Context, bucket string) ([]File, error) {
	var out struct {
		Files []File `json:"files"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/api/buckets/"+url.PathEscape(bucket)+"/files", nil, &out); err != nil {
		return nil, err
	}
	return out.Files, nil
}

// Upload streams r as the "file" part of a multipart upload. The node that
// receives the upload becomes the object's owner.
func (c *Client) Upload(ctx context.Context, bucket, filename string, r io.Reader) (*UploadedFile, error) {
	target, err := c.baseURL.Parse("/api/buckets/" + url.PathEscape(bucket) + "/upload")
	if err != nil {
		return nil, err
	}

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		part, err := mw.CreateFormFile("file", filename)
		if err == nil {
			_, err = io.Copy(part, r)
		}
		if err == nil {
			err = mw.Close()
		}
		pw.CloseWithError(err)
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target.String(), pr)
	if err != nil {
		pr.Close()
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if c.apiKey != "" {
		req.Header.Set(apiKeyHeader, c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		pr.CloseWithError(err)
		return nil, fmt.Errorf("upload to %s failed: %w", target, err)
	}
	defer resp.Body.Close()
	if err := checkResponse(resp); err != nil {
		return nil, err
	}

	var out struct {
		File UploadedFile `json:"file"`
	}
	if err := decodeJSON(resp, &out); err != nil {
		return nil, err
	}
	return &out.File, nil
}

// Download returns the object bytes from whichever node owns them. The
// caller closes the reader.
func (c *Client) Download(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	resp, err := c.do(ctx, http.MethodGet, objectPath(bucket, key), nil, "")
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

func (c *Client) Stat(ctx context.Context, bucket, key string) (*FileInfo, error) {
	var out FileInfo
	if err := c.doJSON(ctx, http.MethodGet, objectPath(bucket, key)+"/info", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteFile deletes on the node the client points at. Deletes are not
// redirected, so this must target the owner.
func (c *Client) DeleteFile(ctx context.Context, bucket, key string) error {
	return c.doJSON(ctx, http.MethodDelete, objectPath(bucket, key), nil, nil)
}

// === Nodes ===

// RegisterNode registers n. Empty fields are omitted so the gateway fills
// them with its own values.
func (c *Client) RegisterNode(ctx context.Context, n types.NodeDescriptor) error {
	req := map[string]any{}
	if n.ID != "" {
		req["id"] = n.ID
	}
	if n.Host != "" {
		req["host"] = n.Host
	}
	if n.Port != 0 {
		req["port"] = n.Port
	}
	return c.doJSON(ctx, http.MethodPost, "/api/nodes/register", req, nil)
}

func (c *Client) ListNodes(ctx context.Context) ([]types.NodeDescriptor, error) {
	var out struct {
		Nodes []types.NodeDescriptor `json:"nodes"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/api/nodes", nil, &out); err != nil {
		return nil, err
	}
	return out.Nodes, nil
}
