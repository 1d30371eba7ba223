package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/yanqian/phytocast/internal/domain/prediction"
)

// ClientConfig points the CLI at a running API.
type ClientConfig struct {
	BaseURL     string
	Timeout     time.Duration
	CookieName  string
	SessionFile string
}

// Client calls the phytocast HTTP API.
type Client struct {
	http        *resty.Client
	cookieName  string
	sessionFile string
}

// APIError is a non-2xx answer from the API.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("api error: status %d", e.Status)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewClient builds an API client.
func NewClient(cfg ClientConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 45 * time.Second
	}
	cookie := cfg.CookieName
	if cookie == "" {
		cookie = "phytocast_session"
	}
	return &Client{
		http: resty.New().
			SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
			SetTimeout(timeout).
			SetHeader("Accept", "application/json"),
		cookieName:  cookie,
		sessionFile: cfg.SessionFile,
	}
}

// Forecast fetches the selected forecast day.
func (c *Client) Forecast(ctx context.Context, date string) (prediction.ViewResponse, error) {
	var out prediction.ViewResponse
	req := c.request(ctx)
	if date != "" {
		req.SetQueryParam("date", date)
	}
	err := c.send(req, http.MethodGet, "/api/v1/forecast", &out)
	return out, err
}

// Predict submits the selected forecast day.
func (c *Client) Predict(ctx context.Context, date string) (prediction.PredictResponse, error) {
	var out prediction.PredictResponse
	req := c.request(ctx)
	if date != "" {
		req.SetQueryParam("date", date)
	}
	err := c.send(req, http.MethodPost, "/api/v1/predictions", &out)
	return out, err
}

// PredictForm submits user entered readings.
func (c *Client) PredictForm(ctx context.Context, fields map[string]string) (prediction.PredictResponse, error) {
	var out prediction.PredictResponse
	req := c.request(ctx).SetFormData(fields)
	err := c.send(req, http.MethodPost, "/api/v1/predictions/form", &out)
	return out, err
}

// History lists recorded predictions.
func (c *Client) History(ctx context.Context, limit int) ([]prediction.Record, error) {
	var out struct {
		Records []prediction.Record `json:"records"`
	}
	req := c.request(ctx)
	if limit > 0 {
		req.SetQueryParam("limit", fmt.Sprint(limit))
	}
	err := c.send(req, http.MethodGet, "/api/v1/predictions/history", &out)
	return out.Records, err
}

// Export triggers a history export.
func (c *Client) Export(ctx context.Context) (prediction.ExportResponse, error) {
	var out prediction.ExportResponse
	err := c.send(c.request(ctx), http.MethodPost, "/api/v1/predictions/exports", &out)
	return out, err
}

func (c *Client) request(ctx context.Context) *resty.Request {
	req := c.http.R().SetContext(ctx)
	if token := c.loadSession(); token != "" {
		req.SetCookie(&http.Cookie{Name: c.cookieName, Value: token})
	}
	return req
}

func (c *Client) send(req *resty.Request, method, path string, out any) error {
	resp, err := req.Execute(method, path)
	if err != nil {
		return fmt.Errorf("call %s: %w", path, err)
	}
	for _, cookie := range resp.Cookies() {
		if cookie.Name == c.cookieName && cookie.Value != "" {
			c.saveSession(cookie.Value)
		}
	}
	if resp.IsError() || resp.StatusCode() >= 300 {
		return decodeAPIError(resp.StatusCode(), resp.Body())
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func decodeAPIError(status int, body []byte) error {
	var payload struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	apiErr := &APIError{Status: status}
	if err := json.Unmarshal(body, &payload); err == nil {
		apiErr.Code = payload.Error.Code
		apiErr.Message = payload.Error.Message
	}
	return apiErr
}

func (c *Client) loadSession() string {
	if c.sessionFile == "" {
		return ""
	}
	data, err := os.ReadFile(c.sessionFile)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

func (c *Client) saveSession(token string) {
	if c.sessionFile == "" {
		return
	}
	_ = os.WriteFile(c.sessionFile, []byte(token+"\n"), 0o600)
}
