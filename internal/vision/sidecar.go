// internal/vision/sidecar.go
package vision

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// SidecarClient calls an HTTP landmark service that accepts a JPEG/PNG body
// and answers with normalized face boxes or body landmarks.
type SidecarClient struct {
	url    string
	client *http.Client
}

type sidecarFaces struct {
	Faces []Box `json:"faces"`
}

type sidecarPose struct {
	Detected  bool       `json:"detected"`
	Landmarks *Landmarks `json:"landmarks"`
}

func NewSidecarClient(url string, timeout time.Duration) *SidecarClient {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &SidecarClient{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

func (c *SidecarClient) DetectFaces(ctx context.Context, _ Frame, raw []byte) ([]Box, error) {
	var out sidecarFaces
	if err := c.post(ctx, "/faces", raw, &out); err != nil {
		return nil, err
	}
	return out.Faces, nil
}

func (c *SidecarClient) DetectPose(ctx context.Context, _ Frame, raw []byte) (*Landmarks, error) {
	var out sidecarPose
	if err := c.post(ctx, "/pose", raw, &out); err != nil {
		return nil, err
	}
	if !out.Detected {
		return nil, nil
	}
	return out.Landmarks, nil
}

func (c *SidecarClient) post(ctx context.Context, path string, raw []byte, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url+path, bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("sidecar request: %w", err)
	}
	req.Header.Set("Content-Type", http.DetectContentType(raw))

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("sidecar http: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("sidecar status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("sidecar decode: %w", err)
	}
	return nil
}
