package ocr

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// VisionConfig configures the Google Cloud Vision REST client.
type VisionConfig struct {
	APIKey   string
	Endpoint string // default https://vision.googleapis.com/v1
	Timeout  time.Duration
}

// VisionClient implements PageReader with Vision document text detection
// over single-page PDF documents (files:annotate, DOCUMENT_TEXT_DETECTION).
type VisionClient struct {
	cfg    VisionConfig
	http   *http.Client
	logger *slog.Logger
}

func NewVisionClient(cfg VisionConfig, logger *slog.Logger) *VisionClient {
	if cfg.Endpoint == "" {
		cfg.Endpoint = "https://vision.googleapis.com/v1"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &VisionClient{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

func (c *VisionClient) ReadPage(ctx context.Context, page []byte) (string, error) {
	body := map[string]any{
		"requests": []map[string]any{{
			"inputConfig": map[string]any{
				"content":  base64.StdEncoding.EncodeToString(page),
				"mimeType": "application/pdf",
			},
			"features": []map[string]any{{"type": "DOCUMENT_TEXT_DETECTION"}},
		}},
	}

	endpoint := strings.TrimRight(c.cfg.Endpoint, "/") + "/files:annotate?key=" + c.cfg.APIKey
	raw, err := c.post(ctx, endpoint, body)
	if err != nil {
		return "", err
	}

	var out struct {
		Responses []struct {
			Responses []struct {
				FullTextAnnotation struct {
					Text string `json:"text"`
				} `json:"fullTextAnnotation"`
				Error struct {
					Message string `json:"message"`
				} `json:"error"`
			} `json:"responses"`
		} `json:"responses"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("decode vision response: %w", err)
	}
	if len(out.Responses) == 0 || len(out.Responses[0].Responses) == 0 {
		return "", fmt.Errorf("empty vision response")
	}
	page0 := out.Responses[0].Responses[0]
	if page0.Error.Message != "" {
		return "", fmt.Errorf("vision: %s", page0.Error.Message)
	}
	return page0.FullTextAnnotation.Text, nil
}

func (c *VisionClient) post(ctx context.Context, url string, body map[string]any) ([]byte, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("vision http error: %w", err)
	}
	defer func(Body io.ReadCloser) {
		if cerr := Body.Close(); cerr != nil {
			c.logger.Warn("vision response body close error", "error", cerr)
		}
	}(resp.Body)

	buf := new(bytes.Buffer)
	_, _ = buf.ReadFrom(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("vision status %d: %s", resp.StatusCode, buf.String())
	}
	return buf.Bytes(), nil
}
