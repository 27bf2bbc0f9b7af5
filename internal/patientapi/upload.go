package patientapi

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/dentalscan/scanctl/internal/model"
)

// Multipart field names expected by the upload endpoint
const (
	FieldFile        = "file"
	FieldDestination = "destination"
)

// Total is the size of a transfer. Known is false when the size cannot be
// determined ahead of time.
type Total struct {
	Value int64
	Known bool
}

// ProgressFunc receives the number of request body bytes sent so far
type ProgressFunc func(loaded int64, total Total)

// UploadRequest describes one file to upload. Size < 0 means unknown.
type UploadRequest struct {
	FileName    string
	Body        io.Reader
	Size        int64
	Destination model.Destination
}

// UploadResponse is the backend's answer to a successful upload. Analysis is set
// only for the diagnocat destination.
type UploadResponse struct {
	Message  string          `json:"message"`
	Study    *model.Study    `json:"study"`
	Analysis *model.Analysis `json:"analysis"`
}

// Upload streams the file as multipart/form-data. When the file size is known the
// request has a fixed Content-Length and progress carries a known total.
func (c *Client) Upload(ctx context.Context, ur UploadRequest, onProgress ProgressFunc) (*UploadResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, c.uploadTimeout)
	defer cancel()

	var head bytes.Buffer
	mw := multipart.NewWriter(&head)
	if err := mw.WriteField(FieldDestination, string(ur.Destination)); err != nil {
		return nil, fmt.Errorf("write destination field: %w", err)
	}
	if _, err := mw.CreateFormFile(FieldFile, ur.FileName); err != nil {
		return nil, fmt.Errorf("create file part: %w", err)
	}
	prefix := bytes.Clone(head.Bytes())
	head.Reset()
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("close multipart body: %w", err)
	}
	suffix := head.Bytes()

	total := Total{}
	if ur.Size >= 0 {
		total = Total{Value: int64(len(prefix)) + ur.Size + int64(len(suffix)), Known: true}
	}

	var body io.Reader = io.MultiReader(bytes.NewReader(prefix), ur.Body, bytes.NewReader(suffix))
	if onProgress != nil {
		body = &progressReader{r: body, total: total, fn: onProgress}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.http.URL(PathUpload), body)
	if err != nil {
		return nil, fmt.Errorf("failed to create upload request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if total.Known {
		req.ContentLength = total.Value
	}

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return nil, c.transportError(ctx, http.MethodPost, PathUpload, err)
	}

	var out UploadResponse
	if err := c.decode(resp, http.MethodPost, PathUpload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// progressReader reports cumulative bytes read by the transport
type progressReader struct {
	r      io.Reader
	loaded int64
	total  Total
	fn     ProgressFunc
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.loaded += int64(n)
		p.fn(p.loaded, p.total)
	}
	return n, err
}
