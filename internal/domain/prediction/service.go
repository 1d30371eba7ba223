package prediction

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yanqian/phytocast/internal/domain/forecast"
	"github.com/yanqian/phytocast/internal/domain/selection"
	apperrors "github.com/yanqian/phytocast/pkg/errors"
	"github.com/yanqian/phytocast/pkg/metrics"
	"github.com/yanqian/phytocast/pkg/util"
)

const (
	msgForecastUnavailable = "Unable to fetch weather data."
	msgDateNotFound        = "Data for the selected date is not available."
)

// Service orchestrates forecast selection and prediction calls.
type Service interface {
	View(ctx context.Context, req ViewRequest) (ViewResponse, error)
	Predict(ctx context.Context, req PredictRequest) (PredictResponse, error)
	PredictForm(ctx context.Context, in FormInput) (PredictResponse, error)
	History(ctx context.Context, limit int) ([]Record, error)
	Export(ctx context.Context) (ExportResponse, error)
}

// ForecastSource fetches the raw provider payload.
type ForecastSource interface {
	Fetch(ctx context.Context) (map[string]any, error)
}

// Client sends a request to the prediction service.
type Client interface {
	Predict(ctx context.Context, req Request) (RawResponse, error)
}

// DateSelector resolves the date a request works on.
type DateSelector interface {
	Resolve(ctx context.Context, sessionID, explicit string, cal selection.Calendar) selection.Resolution
}

// HistoryRepository stores successful predictions.
type HistoryRepository interface {
	Save(ctx context.Context, record Record) error
	List(ctx context.Context, limit int) ([]Record, error)
}

// ExportStore uploads export files.
type ExportStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (ExportObject, error)
}

type service struct {
	cfg       Config
	forecasts ForecastSource
	selector  DateSelector
	client    Client
	history   HistoryRepository
	exports   ExportStore
	tally     *metrics.PredictionTally
	logger    *slog.Logger
	now       func() time.Time
	newID     func() string
}

// NewService wires up the prediction domain.
func NewService(cfg Config, forecasts ForecastSource, selector DateSelector, client Client, history HistoryRepository, exports ExportStore, tally *metrics.PredictionTally, logger *slog.Logger) Service {
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = 50
	}
	if cfg.ExportMaxRows <= 0 {
		cfg.ExportMaxRows = 1000
	}
	return &service{
		cfg:       cfg,
		forecasts: forecasts,
		selector:  selector,
		client:    client,
		history:   history,
		exports:   exports,
		tally:     tally,
		logger:    logger.With("component", "prediction.service"),
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// View resolves the session's date and returns that day without calling the prediction service.
func (s *service) View(ctx context.Context, req ViewRequest) (ViewResponse, error) {
	sel, err := s.selectDay(ctx, req.SessionID, req.Date)
	if err != nil {
		return ViewResponse{}, err
	}
	first, last := sel.series.Range()
	return ViewResponse{
		Selection: sel.resolution,
		Day:       newDayView(sel.day),
		Dates:     sel.series.Dates(),
		MinDate:   first,
		MaxDate:   last,
	}, nil
}

// Predict selects the day like View and submits its readings.
func (s *service) Predict(ctx context.Context, req PredictRequest) (PredictResponse, error) {
	sel, err := s.selectDay(ctx, req.SessionID, req.Date)
	if err != nil {
		return PredictResponse{}, err
	}

	request := FromForecastDay(sel.day, sel.resolution.Date, s.cfg.IncludeDate)
	result := s.submit(ctx, request)
	s.record(ctx, OriginForecast, sel.resolution.Date, request, result)

	day := newDayView(sel.day)
	resolution := sel.resolution
	return PredictResponse{
		Selection: &resolution,
		Day:       &day,
		Request:   request,
		Result:    result,
	}, nil
}

// PredictForm submits user entered readings without consulting the forecast.
func (s *service) PredictForm(ctx context.Context, in FormInput) (PredictResponse, error) {
	if date := strings.TrimSpace(in.Date); date != "" {
		if _, err := time.Parse(util.DateLayout, date); err != nil {
			return PredictResponse{}, apperrors.Wrap(apperrors.CodeInvalidInput, "date must be formatted as YYYY-MM-DD", err)
		}
	}

	request := FromForm(in, s.cfg.IncludeDate)
	result := s.submit(ctx, request)
	s.record(ctx, OriginForm, request.Date, request, result)
	return PredictResponse{Request: request, Result: result}, nil
}

// History lists recent predictions, newest first.
func (s *service) History(ctx context.Context, limit int) ([]Record, error) {
	if s.history == nil {
		return []Record{}, nil
	}
	if limit <= 0 || limit > s.cfg.HistoryLimit {
		limit = s.cfg.HistoryLimit
	}
	records, err := s.history.List(ctx, limit)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeHistory, "failed to load prediction history", err)
	}
	if records == nil {
		records = []Record{}
	}
	return records, nil
}

type selectedDay struct {
	resolution selection.Resolution
	day        forecast.Day
	series     forecast.Series
}

func (s *service) selectDay(ctx context.Context, sessionID, explicit string) (selectedDay, error) {
	raw, err := s.forecasts.Fetch(ctx)
	if err != nil {
		s.logger.Error("forecast fetch failed", "error", err)
		return selectedDay{}, apperrors.Wrap(apperrors.CodeForecastUnavailable, msgForecastUnavailable, fmt.Errorf("%w: %w", forecast.ErrForecastUnavailable, err))
	}
	series, err := forecast.Parse(raw)
	if err != nil {
		s.logger.Warn("forecast payload has no daily block")
		return selectedDay{}, apperrors.Wrap(apperrors.CodeForecastUnavailable, msgForecastUnavailable, err)
	}

	resolution := s.selector.Resolve(ctx, sessionID, explicit, series)
	day, err := series.Lookup(resolution.Date)
	if err != nil {
		s.logger.Info("selected date not in forecast", "date", resolution.Date, "source", resolution.Source)
		return selectedDay{}, apperrors.Wrap(apperrors.CodeDateNotFound, msgDateNotFound, err)
	}
	return selectedDay{resolution: resolution, day: day, series: series}, nil
}

func (s *service) submit(ctx context.Context, request Request) Result {
	raw, err := s.client.Predict(ctx, request)
	result := Normalize(raw, err)
	s.tally.Record(string(result.Kind))

	if result.Kind == KindError {
		s.logger.Warn("prediction failed", "message", result.Failure.Message, "transport", result.Failure.Transport)
	} else {
		s.logger.Info("prediction received", "kind", result.Kind, "date", request.Date)
	}
	return result
}

func (s *service) record(ctx context.Context, origin, date string, request Request, result Result) {
	if s.history == nil || result.Kind == KindError {
		return
	}
	rec := Record{
		ID:        s.newID(),
		Origin:    origin,
		Date:      date,
		Request:   request,
		Result:    result,
		CreatedAt: s.now().UTC(),
	}
	if err := s.history.Save(ctx, rec); err != nil {
		s.logger.Error("prediction history save failed", "error", err, "id", rec.ID)
	}
}
