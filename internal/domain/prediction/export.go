package prediction

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"path"
	"sort"
	"strconv"
	"time"

	apperrors "github.com/yanqian/phytocast/pkg/errors"
)

const exportContentType = "text/csv"

var exportHeader = []string{
	"id", "created_at", "origin", "date", "station", "prediction", "status",
	"temperature", "humidity", "wind", "wind_speed", "ammonia", "phosphate", "bod", "forecast",
}

// Export writes the newest ExportMaxRows history records as CSV to the export store.
func (s *service) Export(ctx context.Context) (ExportResponse, error) {
	if s.exports == nil || s.history == nil {
		return ExportResponse{}, apperrors.Wrap(apperrors.CodeExport, "export storage is not configured", nil)
	}
	// one extra record tells whether older history was cut off
	records, err := s.history.List(ctx, s.cfg.ExportMaxRows+1)
	if err != nil {
		return ExportResponse{}, apperrors.Wrap(apperrors.CodeExport, "failed to load prediction history", err)
	}
	truncated := len(records) > s.cfg.ExportMaxRows
	if truncated {
		records = records[:s.cfg.ExportMaxRows]
		s.logger.Warn("export truncated to newest records", "max_records", s.cfg.ExportMaxRows)
	}

	data, rows, err := encodeCSV(records)
	if err != nil {
		return ExportResponse{}, apperrors.Wrap(apperrors.CodeExport, "failed to encode export", err)
	}

	key := exportKey(s.cfg.ExportPrefix, s.now())
	obj, err := s.exports.Put(ctx, key, data, exportContentType)
	if err != nil {
		return ExportResponse{}, apperrors.Wrap(apperrors.CodeExport, "failed to upload export", err)
	}
	s.logger.Info("prediction history exported", "key", obj.Key, "rows", rows, "truncated", truncated)
	return ExportResponse{Object: obj, Rows: rows, Truncated: truncated}, nil
}

func exportKey(prefix string, now time.Time) string {
	name := "predictions-" + now.UTC().Format("20060102T150405Z") + ".csv"
	if prefix == "" {
		return name
	}
	return path.Join(prefix, name)
}

// encodeCSV emits one row per single prediction and one row per station.
func encodeCSV(records []Record) ([]byte, int, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(exportHeader); err != nil {
		return nil, 0, err
	}

	rows := 0
	for _, rec := range records {
		base := []string{rec.ID, rec.CreatedAt.UTC().Format(time.RFC3339), rec.Origin, rec.Date}
		readings := []string{
			firstValue(rec.Request.Temperature),
			firstValue(rec.Request.Humidity),
			firstValue(rec.Request.Wind),
			firstValue(rec.Request.WindSpeed),
			firstValue(rec.Request.Ammonia),
			firstValue(rec.Request.Phosphate),
			firstValue(rec.Request.BOD),
		}

		switch rec.Result.Kind {
		case KindSingle:
			if rec.Result.Single == nil {
				continue
			}
			row := concat(base, []string{"", formatPrediction(rec.Result.Single.Prediction), rec.Result.Single.Status}, readings, []string{""})
			if err := w.Write(row); err != nil {
				return nil, 0, err
			}
			rows++
		case KindMultiStation:
			if rec.Result.MultiStation == nil {
				continue
			}
			names := make([]string, 0, len(rec.Result.MultiStation.Stations))
			for name := range rec.Result.MultiStation.Stations {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				station := rec.Result.MultiStation.Stations[name]
				forecast, err := json.Marshal(station.Forecast)
				if err != nil {
					return nil, 0, err
				}
				row := concat(base, []string{name, formatPrediction(station.Prediction), rec.Result.MultiStation.Status}, readings, []string{string(forecast)})
				if err := w.Write(row); err != nil {
					return nil, 0, err
				}
				rows++
			}
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, 0, err
	}
	return buf.Bytes(), rows, nil
}

func concat(parts ...[]string) []string {
	var out []string
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func firstValue(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	return strconv.FormatFloat(values[0], 'f', -1, 64)
}

func formatPrediction(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
