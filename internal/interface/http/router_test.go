package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/phytocast/internal/domain/forecast"
	"github.com/yanqian/phytocast/internal/domain/prediction"
	"github.com/yanqian/phytocast/internal/domain/selection"
	"github.com/yanqian/phytocast/internal/infra/config"
	"github.com/yanqian/phytocast/internal/infra/session"
	apperrors "github.com/yanqian/phytocast/pkg/errors"
	"github.com/yanqian/phytocast/pkg/metrics"
)

const testCookie = "phytocast_session"

func TestRouter_ViewForecastIssuesSession(t *testing.T) {
	svc := &stubPrediction{
		viewFn: func(ctx context.Context, req prediction.ViewRequest) (prediction.ViewResponse, error) {
			require.Equal(t, "2024-05-01", req.Date)
			require.NotEmpty(t, req.SessionID)
			return prediction.ViewResponse{
				Selection: selection.Resolution{Date: "2024-05-01", Source: selection.SourceExplicit},
				Day:       prediction.DayView{Day: forecast.Day{Date: "2024-05-01", TempMax: 30}, Condition: forecast.ConditionClear},
				Dates:     []string{"2024-05-01"},
				MinDate:   "2024-05-01",
				MaxDate:   "2024-05-01",
			}, nil
		},
	}
	server := newRouterUnderTest(t, svc, nil)

	rec := performRequest(server, http.MethodGet, "/api/v1/forecast?date=2024-05-01", "", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "2024-05-01", body["minDate"])
	require.Equal(t, "explicit", body["selection"].(map[string]any)["source"])

	cookie := findCookie(rec, testCookie)
	require.NotNil(t, cookie)
	require.True(t, cookie.HttpOnly)
}

func TestRouter_SessionCookieIsReused(t *testing.T) {
	var seen []string
	svc := &stubPrediction{
		viewFn: func(ctx context.Context, req prediction.ViewRequest) (prediction.ViewResponse, error) {
			seen = append(seen, req.SessionID)
			return prediction.ViewResponse{}, nil
		},
	}
	server := newRouterUnderTest(t, svc, nil)

	first := performRequest(server, http.MethodGet, "/api/v1/forecast", "", "", nil)
	cookie := findCookie(first, testCookie)
	require.NotNil(t, cookie)

	second := performRequest(server, http.MethodGet, "/api/v1/forecast", "", "", cookie)
	require.Nil(t, findCookie(second, testCookie))
	require.Len(t, seen, 2)
	require.Equal(t, seen[0], seen[1])

	tampered := &http.Cookie{Name: testCookie, Value: cookie.Value + "x"}
	third := performRequest(server, http.MethodGet, "/api/v1/forecast", "", "", tampered)
	require.NotNil(t, findCookie(third, testCookie))
	require.NotEqual(t, seen[0], seen[2])
}

func TestRouter_ForecastUnavailable(t *testing.T) {
	svc := &stubPrediction{
		predictFn: func(ctx context.Context, req prediction.PredictRequest) (prediction.PredictResponse, error) {
			return prediction.PredictResponse{}, apperrors.Wrap(apperrors.CodeForecastUnavailable, "Unable to fetch weather data.", forecast.ErrForecastUnavailable)
		},
	}

	rec := performRequest(newRouterUnderTest(t, svc, nil), http.MethodPost, "/api/v1/predictions", "", "", nil)
	require.Equal(t, http.StatusBadGateway, rec.Code)

	errBody := decodeErrorBody(t, rec.Body.Bytes())
	require.Equal(t, "forecast_unavailable", errBody["error"]["code"])
	require.Equal(t, "Unable to fetch weather data.", errBody["error"]["message"])
}

func TestRouter_DateNotFound(t *testing.T) {
	svc := &stubPrediction{
		viewFn: func(ctx context.Context, req prediction.ViewRequest) (prediction.ViewResponse, error) {
			return prediction.ViewResponse{}, apperrors.Wrap(apperrors.CodeDateNotFound, "Data for the selected date is not available.", forecast.ErrDateNotFound)
		},
	}

	rec := performRequest(newRouterUnderTest(t, svc, nil), http.MethodGet, "/api/v1/forecast?date=2030-01-01", "", "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	errBody := decodeErrorBody(t, rec.Body.Bytes())
	require.Equal(t, "date_not_found", errBody["error"]["code"])
	require.Equal(t, "Data for the selected date is not available.", errBody["error"]["message"])
}

func TestRouter_PredictTakesDateFromForm(t *testing.T) {
	svc := &stubPrediction{
		predictFn: func(ctx context.Context, req prediction.PredictRequest) (prediction.PredictResponse, error) {
			require.Equal(t, "2024-05-02", req.Date)
			return prediction.PredictResponse{Result: prediction.Result{
				Kind:    prediction.KindError,
				Failure: &prediction.Failure{Message: "model not trained"},
			}}, nil
		},
	}

	form := url.Values{"date": {"2024-05-02"}}.Encode()
	rec := performRequest(newRouterUnderTest(t, svc, nil), http.MethodPost, "/api/v1/predictions", form, "application/x-www-form-urlencoded", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	result := body["result"].(map[string]any)
	require.Equal(t, "error", result["kind"])
	require.Equal(t, "model not trained", result["error"].(map[string]any)["message"])
}

func TestRouter_PredictFormBindsFormAndJSON(t *testing.T) {
	var got []prediction.FormInput
	svc := &stubPrediction{
		predictFormFn: func(ctx context.Context, in prediction.FormInput) (prediction.PredictResponse, error) {
			got = append(got, in)
			return prediction.PredictResponse{Request: prediction.FromForm(in, false)}, nil
		},
	}
	server := newRouterUnderTest(t, svc, nil)

	form := url.Values{"temperature": {"29.5"}, "humidity": {"80"}, "wind_speed": {"12"}, "bod": {"2"}}.Encode()
	rec := performRequest(server, http.MethodPost, "/api/v1/predictions/form", form, "application/x-www-form-urlencoded", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = performRequest(server, http.MethodPost, "/api/v1/predictions/form", `{"temperature":29.5,"humidity":"80","wind_speed":12,"bod":2}`, "application/json", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	require.Len(t, got, 2)
	for _, in := range got {
		require.Equal(t, prediction.Number("29.5"), in.Temperature)
		require.Equal(t, prediction.Number("80"), in.Humidity)
		require.Equal(t, prediction.Number("12"), in.WindSpeed)
		require.Equal(t, prediction.Number("2"), in.BOD)
	}
}

func TestRouter_PredictFormInvalidDate(t *testing.T) {
	svc := &stubPrediction{
		predictFormFn: func(ctx context.Context, in prediction.FormInput) (prediction.PredictResponse, error) {
			return prediction.PredictResponse{}, apperrors.Wrap(apperrors.CodeInvalidInput, "date must be formatted as YYYY-MM-DD", nil)
		},
	}

	rec := performRequest(newRouterUnderTest(t, svc, nil), http.MethodPost, "/api/v1/predictions/form", `{"date":"05/01/2024"}`, "application/json", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "invalid_input", decodeErrorBody(t, rec.Body.Bytes())["error"]["code"])
}

func TestRouter_History(t *testing.T) {
	svc := &stubPrediction{
		historyFn: func(ctx context.Context, limit int) ([]prediction.Record, error) {
			require.Equal(t, 5, limit)
			return []prediction.Record{{ID: "a", Origin: prediction.OriginForm}}, nil
		},
	}
	server := newRouterUnderTest(t, svc, nil)

	rec := performRequest(server, http.MethodGet, "/api/v1/predictions/history?limit=5", "", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Records []prediction.Record `json:"records"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Records, 1)

	for _, bad := range []string{"abc", "-1"} {
		rec = performRequest(server, http.MethodGet, "/api/v1/predictions/history?limit="+bad, "", "", nil)
		require.Equal(t, http.StatusBadRequest, rec.Code, bad)
		require.Equal(t, "invalid_request", decodeErrorBody(t, rec.Body.Bytes())["error"]["code"])
	}
}

func TestRouter_Export(t *testing.T) {
	svc := &stubPrediction{
		exportFn: func(ctx context.Context) (prediction.ExportResponse, error) {
			return prediction.ExportResponse{Object: prediction.ExportObject{Key: "exports/p.csv"}, Rows: 3}, nil
		},
	}

	rec := performRequest(newRouterUnderTest(t, svc, nil), http.MethodPost, "/api/v1/predictions/exports", "", "", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.JSONEq(t, `{"object":{"key":"exports/p.csv","size":0,"contentType":""},"rows":3}`, rec.Body.String())
}

func TestRouter_ExportFailure(t *testing.T) {
	svc := &stubPrediction{
		exportFn: func(ctx context.Context) (prediction.ExportResponse, error) {
			return prediction.ExportResponse{}, apperrors.Wrap(apperrors.CodeExport, "export storage is not configured", nil)
		},
	}

	rec := performRequest(newRouterUnderTest(t, svc, nil), http.MethodPost, "/api/v1/predictions/exports", "", "", nil)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, "export_error", decodeErrorBody(t, rec.Body.Bytes())["error"]["code"])
}

func TestRouter_Health(t *testing.T) {
	tally := metrics.NewPredictionTally()
	tally.Record("single")
	server := newRouterUnderTestWithTally(t, &stubPrediction{}, nil, tally)

	rec := performRequest(server, http.MethodGet, "/healthz", "", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":"ok","predictions":{"single":1,"multiStation":0,"failed":0}}`, rec.Body.String())
}

func TestRouter_RateLimit(t *testing.T) {
	svc := &stubPrediction{
		viewFn: func(ctx context.Context, req prediction.ViewRequest) (prediction.ViewResponse, error) {
			return prediction.ViewResponse{}, nil
		},
	}
	server := newRouterUnderTest(t, svc, func(cfg *config.Config) {
		cfg.HTTP.RateLimit = config.RateLimitConfig{Enabled: true, RequestsPerMinute: 1, Burst: 1}
	})

	rec := performRequest(server, http.MethodGet, "/api/v1/forecast", "", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = performRequest(server, http.MethodGet, "/api/v1/forecast", "", "", nil)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.Equal(t, "rate_limit_exceeded", decodeErrorBody(t, rec.Body.Bytes())["error"]["code"])
}

func TestRouter_CORSPreflight(t *testing.T) {
	server := newRouterUnderTest(t, &stubPrediction{}, func(cfg *config.Config) {
		cfg.HTTP.AllowedOrigins = []string{"https://app.example"}
	})

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/predictions", nil)
	req.Header.Set("Origin", "https://app.example")
	rec := httptest.NewRecorder()
	server.Handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, "https://app.example", rec.Header().Get("Access-Control-Allow-Origin"))
	require.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
}

func performRequest(server *http.Server, method, path, body, contentType string, cookie *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	server.Handler.ServeHTTP(rec, req)
	return rec
}

func findCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func newRouterUnderTest(t *testing.T, svc prediction.Service, mutate func(*config.Config)) *http.Server {
	t.Helper()
	return newRouterUnderTestWithTally(t, svc, mutate, metrics.NewPredictionTally())
}

func newRouterUnderTestWithTally(t *testing.T, svc prediction.Service, mutate func(*config.Config), tally *metrics.PredictionTally) *http.Server {
	t.Helper()
	handler := NewHandler(svc, tally, newTestLogger())
	cfg := &config.Config{
		HTTP: config.HTTPConfig{
			Address:      ":0",
			ReadTimeout:  time.Second,
			WriteTimeout: time.Second,
		},
		Session: config.SessionConfig{CookieName: testCookie},
	}
	if mutate != nil {
		mutate(cfg)
	}
	sessions, err := session.NewManager(session.Config{Secret: "router-test", TTL: time.Hour})
	require.NoError(t, err)
	return NewRouter(cfg, handler, sessions)
}

func newTestLogger() *slog.Logger {
	handler := slog.NewTextHandler(io.Discard, nil)
	return slog.New(handler)
}

func decodeErrorBody(t *testing.T, data []byte) map[string]map[string]string {
	t.Helper()
	var payload map[string]map[string]string
	require.NoError(t, json.Unmarshal(data, &payload))
	return payload
}

type stubPrediction struct {
	viewFn        func(ctx context.Context, req prediction.ViewRequest) (prediction.ViewResponse, error)
	predictFn     func(ctx context.Context, req prediction.PredictRequest) (prediction.PredictResponse, error)
	predictFormFn func(ctx context.Context, in prediction.FormInput) (prediction.PredictResponse, error)
	historyFn     func(ctx context.Context, limit int) ([]prediction.Record, error)
	exportFn      func(ctx context.Context) (prediction.ExportResponse, error)
}

func (s *stubPrediction) View(ctx context.Context, req prediction.ViewRequest) (prediction.ViewResponse, error) {
	if s.viewFn != nil {
		return s.viewFn(ctx, req)
	}
	return prediction.ViewResponse{}, nil
}

func (s *stubPrediction) Predict(ctx context.Context, req prediction.PredictRequest) (prediction.PredictResponse, error) {
	if s.predictFn != nil {
		return s.predictFn(ctx, req)
	}
	return prediction.PredictResponse{}, nil
}

func (s *stubPrediction) PredictForm(ctx context.Context, in prediction.FormInput) (prediction.PredictResponse, error) {
	if s.predictFormFn != nil {
		return s.predictFormFn(ctx, in)
	}
	return prediction.PredictResponse{}, nil
}

func (s *stubPrediction) History(ctx context.Context, limit int) ([]prediction.Record, error) {
	if s.historyFn != nil {
		return s.historyFn(ctx, limit)
	}
	return []prediction.Record{}, nil
}

func (s *stubPrediction) Export(ctx context.Context) (prediction.ExportResponse, error) {
	if s.exportFn != nil {
		return s.exportFn(ctx)
	}
	return prediction.ExportResponse{}, nil
}
