package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/yanqian/phytocast/internal/domain/prediction"
	"github.com/yanqian/phytocast/pkg/metrics"
)

var validate = validator.New()

type historyQuery struct {
	Limit int `form:"limit" validate:"gte=0"`
}

// Handler wires the HTTP transport to the prediction service.
type Handler struct {
	predictionSvc prediction.Service
	tally         *metrics.PredictionTally
	logger        *slog.Logger
}

// NewHandler constructs the root HTTP handler.
func NewHandler(predictionSvc prediction.Service, tally *metrics.PredictionTally, logger *slog.Logger) *Handler {
	return &Handler{
		predictionSvc: predictionSvc,
		tally:         tally,
		logger:        logger.With("component", "http.handler"),
	}
}

// ViewForecast returns the selected forecast day without calling the prediction service.
func (h *Handler) ViewForecast(c *gin.Context) {
	resp, err := h.predictionSvc.View(c.Request.Context(), prediction.ViewRequest{
		SessionID: getSessionID(c),
		Date:      c.Query("date"),
	})
	if err != nil {
		abortWithError(c, fromDomainError(err))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Predict submits the selected forecast day. The date comes from the query or a form field.
func (h *Handler) Predict(c *gin.Context) {
	date := c.Query("date")
	if date == "" {
		date = c.PostForm("date")
	}
	resp, err := h.predictionSvc.Predict(c.Request.Context(), prediction.PredictRequest{
		SessionID: getSessionID(c),
		Date:      date,
	})
	if err != nil {
		abortWithError(c, fromDomainError(err))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// PredictForm submits user entered readings as form fields or JSON.
func (h *Handler) PredictForm(c *gin.Context) {
	var in prediction.FormInput
	if err := c.ShouldBind(&in); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}
	resp, err := h.predictionSvc.PredictForm(c.Request.Context(), in)
	if err != nil {
		abortWithError(c, fromDomainError(err))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// History lists recorded predictions, newest first.
func (h *Handler) History(c *gin.Context) {
	var q historyQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", "limit must be a non-negative integer", err))
		return
	}
	if err := validate.Struct(q); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", "limit must be a non-negative integer", err))
		return
	}
	records, err := h.predictionSvc.History(c.Request.Context(), q.Limit)
	if err != nil {
		abortWithError(c, fromDomainError(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": records})
}

// Export writes the history CSV to object storage.
func (h *Handler) Export(c *gin.Context) {
	resp, err := h.predictionSvc.Export(c.Request.Context())
	if err != nil {
		abortWithError(c, fromDomainError(err))
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Health reports liveness plus prediction outcome counters.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"predictions": h.tally.Snapshot(),
	})
}

func errMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
