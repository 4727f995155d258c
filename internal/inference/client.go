// Package inference talks to the external plant classifier and its Grad-CAM
// heatmap endpoint.
package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/plantcare/plantcare-api/internal/metrics"
)

const (
	DefaultTimeout = 30 * time.Second

	// maxResponseBytes bounds what is read back from the upstream service.
	maxResponseBytes = 16 << 20
)

// Classification is the classifier's verdict for one image.
type Classification struct {
	PlantName    string  `json:"plant_name"`
	HealthStatus string  `json:"health_status"`
	Confidence   float64 `json:"confidence"`
	Message      string  `json:"message"`
}

// Percent renders Confidence (a 0..1 fraction) as a percentage with two decimals.
func (c Classification) Percent() string {
	return fmt.Sprintf("%.2f", c.Confidence*100)
}

// HeatmapImage is the raw image returned by the heatmap endpoint.
type HeatmapImage struct {
	ContentType string
	Data        []byte
}

// UpstreamError is a non-2xx answer from the inference service.
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("inference service returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("inference service returned status %d: %s", e.StatusCode, e.Body)
}

// ResponseError is a 2xx answer from the inference service whose body could
// not be decoded.
type ResponseError struct {
	Op  string
	Err error
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("inference: decode %s response: %v", e.Op, e.Err)
}

func (e *ResponseError) Unwrap() error { return e.Err }

// Client calls the inference service. Every call is a single attempt.
type Client struct {
	HTTP       *http.Client
	PredictURL string
	HeatmapURL string
}

// New creates a Client with the given per-call timeout.
func New(predictURL, heatmapURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		HTTP:       &http.Client{Timeout: timeout},
		PredictURL: predictURL,
		HeatmapURL: heatmapURL,
	}
}

// Classify sends image to the prediction endpoint.
func (c *Client) Classify(ctx context.Context, filename string, image []byte) (Classification, error) {
	resp, err := c.post(ctx, "classify", c.PredictURL, filename, image)
	if err != nil {
		return Classification{}, err
	}

	var out Classification
	if err := json.Unmarshal(resp.body, &out); err != nil {
		return Classification{}, &ResponseError{Op: "classify", Err: err}
	}
	return out, nil
}

// Heatmap sends image to the Grad-CAM endpoint and returns the bytes as-is.
func (c *Client) Heatmap(ctx context.Context, filename string, image []byte) (HeatmapImage, error) {
	resp, err := c.post(ctx, "heatmap", c.HeatmapURL, filename, image)
	if err != nil {
		return HeatmapImage{}, err
	}

	ct := resp.contentType
	if ct == "" {
		ct = "image/jpeg"
	}
	return HeatmapImage{ContentType: ct, Data: resp.body}, nil
}

type response struct {
	contentType string
	body        []byte
}

func (c *Client) post(ctx context.Context, op, url, filename string, image []byte) (_ *response, err error) {
	start := time.Now()
	defer func() { metrics.ObserveInference(op, start, err) }()

	if strings.TrimSpace(url) == "" {
		return nil, fmt.Errorf("inference: %s endpoint not configured", op)
	}
	if filename == "" {
		filename = "image.jpg"
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("inference: build form: %w", err)
	}
	if _, err := part.Write(image); err != nil {
		return nil, fmt.Errorf("inference: build form: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("inference: build form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return nil, fmt.Errorf("inference: new request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("inference: %s request: %w", op, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("inference: read %s response: %w", op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &UpstreamError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(raw)),
		}
	}

	return &response{contentType: resp.Header.Get("Content-Type"), body: raw}, nil
}
