package predictor

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/yanqian/phytocast/internal/domain/prediction"
)

const (
	defaultEndpoint = "http://127.0.0.1:5000/predict_and_learn"
	maxErrorBody    = 2 << 10
)

// Config controls the prediction service client.
type Config struct {
	Endpoint string
	Timeout  time.Duration
}

// Client posts prediction requests to the model service.
type Client struct {
	endpoint string
	http     *resty.Client
}

// NewClient builds a resty backed client. Nothing is retried.
func NewClient(cfg Config) *Client {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		endpoint: endpoint,
		http: resty.New().
			SetTimeout(timeout).
			SetRetryCount(0).
			SetHeader("Accept", "application/json"),
	}
}

// Predict sends req as JSON and decodes the reply into a generic map.
func (c *Client) Predict(ctx context.Context, req prediction.Request) (prediction.RawResponse, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(req).
		Post(c.endpoint)
	if err != nil {
		return nil, &prediction.TransportError{Op: "call", Err: err}
	}

	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		return nil, &prediction.TransportError{
			Op:         "call",
			StatusCode: resp.StatusCode(),
			Body:       truncate(resp.Body()),
		}
	}

	var raw prediction.RawResponse
	if err := json.Unmarshal(resp.Body(), &raw); err != nil {
		return nil, &prediction.TransportError{Op: "decode", StatusCode: resp.StatusCode(), Err: err}
	}
	if raw == nil {
		return nil, &prediction.TransportError{Op: "decode", StatusCode: resp.StatusCode(), Body: "empty response"}
	}
	return raw, nil
}

func truncate(body []byte) string {
	body = bytes.TrimSpace(body)
	if len(body) > maxErrorBody {
		body = body[:maxErrorBody]
	}
	return string(body)
}
