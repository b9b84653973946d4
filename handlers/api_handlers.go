package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"attendance-analyzer-go/attendance"
	"attendance-analyzer-go/db"
	"attendance-analyzer-go/metrics"
	"attendance-analyzer-go/models"
	"attendance-analyzer-go/pdftext"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Query kinds reported to metrics
const (
	queryStudent       = "student"
	queryLowAttendance = "low_attendance"
	queryExport        = "export"
)

// APIHandler holds the dependencies for API handlers
type APIHandler struct {
	Store   db.DatasetStore
	Metrics *metrics.Metrics

	// ExtractText turns an uploaded document into text; pdftext.ExtractBytes by default
	ExtractText func(content []byte) (string, error)

	logger         *zap.Logger
	maxUploadBytes int64
	now            func() time.Time
	newID          func() string
}

// NewAPIHandler creates a new APIHandler
func NewAPIHandler(store db.DatasetStore, m *metrics.Metrics, logger *zap.Logger, maxUploadBytes int64) *APIHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if m == nil {
		m = metrics.New()
	}
	return &APIHandler{
		Store:          store,
		Metrics:        m,
		ExtractText:    pdftext.ExtractBytes,
		logger:         logger,
		maxUploadBytes: maxUploadBytes,
		now:            time.Now,
		newID:          uuid.NewString,
	}
}

func abortWithError(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, models.ErrorResponse{Error: msg})
}

// --- Analysis ---

// Analyze handles POST /analyze
func (h *APIHandler) Analyze(c *gin.Context) {
	// Leave room for the multipart envelope; the file itself is checked below.
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes+1<<20)

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		h.Metrics.ObserveAnalysis(metrics.ResultRejected, 0)
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			abortWithError(c, http.StatusBadRequest, h.tooLargeMessage())
		case errors.Is(err, http.ErrMissingFile):
			// A file input submitted without a selection arrives as a plain value.
			if _, ok := c.GetPostForm("file"); ok {
				abortWithError(c, http.StatusBadRequest, "No file selected")
				return
			}
			abortWithError(c, http.StatusBadRequest, "No file provided")
		default:
			h.logger.Warn("failed to read upload", zap.Error(err))
			abortWithError(c, http.StatusBadRequest, "Error retrieving uploaded file: "+err.Error())
		}
		return
	}
	defer file.Close()

	if header.Filename == "" {
		h.Metrics.ObserveAnalysis(metrics.ResultRejected, 0)
		abortWithError(c, http.StatusBadRequest, "No file selected")
		return
	}
	if !pdftext.IsPDFFileName(header.Filename) {
		h.Metrics.ObserveAnalysis(metrics.ResultRejected, 0)
		abortWithError(c, http.StatusBadRequest, "Only PDF files are allowed")
		return
	}
	if header.Size > h.maxUploadBytes {
		h.Metrics.ObserveAnalysis(metrics.ResultRejected, 0)
		abortWithError(c, http.StatusBadRequest, h.tooLargeMessage())
		return
	}

	log := h.logger.With(zap.String("file", header.Filename), zap.Int64("size", header.Size))
	log.Info("received report upload")

	content, err := io.ReadAll(file)
	if err != nil {
		h.Metrics.ObserveAnalysis(metrics.ResultError, 0)
		log.Error("failed to read upload", zap.Error(err))
		abortWithError(c, http.StatusInternalServerError, "Failed to read uploaded file")
		return
	}

	text, err := h.ExtractText(content)
	if err != nil {
		h.Metrics.ObserveAnalysis(metrics.ResultError, 0)
		log.Error("failed to extract text", zap.Error(err))
		abortWithError(c, http.StatusInternalServerError, "Failed to analyze PDF. Please ensure the file is not corrupted.")
		return
	}

	summary, err := attendance.Analyze(text)
	if err != nil {
		if attendance.IsNoData(err) {
			h.Metrics.ObserveAnalysis(metrics.ResultNoData, 0)
			log.Warn("no attendance rows found", zap.Int("text_len", len(text)))
			abortWithError(c, http.StatusUnprocessableEntity, err.Error())
			return
		}
		h.Metrics.ObserveAnalysis(metrics.ResultMalformed, 0)
		log.Error("failed to aggregate attendance rows", zap.Error(err))
		abortWithError(c, http.StatusInternalServerError, err.Error())
		return
	}

	ds := &models.Dataset{
		ID:        h.newID(),
		FileName:  header.Filename,
		CreatedAt: h.now().UTC(),
		Summary:   summary,
	}
	if err := h.Store.SaveDataset(c.Request.Context(), ds); err != nil {
		h.Metrics.ObserveAnalysis(metrics.ResultError, 0)
		log.Error("failed to store dataset", zap.String("dataset_id", ds.ID), zap.Error(err))
		abortWithError(c, http.StatusInternalServerError, "Failed to store analysis")
		return
	}

	h.Metrics.ObserveAnalysis(metrics.ResultSuccess, summary.TotalStudents)
	log.Info("analyzed report",
		zap.String("dataset_id", ds.ID),
		zap.Int("students", summary.TotalStudents),
		zap.Float64("average_attendance", summary.AverageAttendance))

	c.JSON(http.StatusOK, models.AnalysisResponse{DatasetID: ds.ID, DatasetSummary: summary})
}

func (h *APIHandler) tooLargeMessage() string {
	return fmt.Sprintf("File size too large. Maximum size is %dMB.", h.maxUploadBytes>>20)
}

// --- Dataset resolution ---

// latestDataset writes the error response itself and returns false when there is nothing to query.
func (h *APIHandler) latestDataset(c *gin.Context) (*models.Dataset, bool) {
	ds, err := h.Store.LatestDataset(c.Request.Context())
	if err != nil {
		if errors.Is(err, db.ErrNoDataset) {
			abortWithError(c, http.StatusBadRequest, "Data not available. Please upload a PDF first.")
			return nil, false
		}
		h.logger.Error("failed to load latest dataset", zap.Error(err))
		abortWithError(c, http.StatusInternalServerError, "Failed to retrieve dataset")
		return nil, false
	}
	return ds, true
}

func (h *APIHandler) datasetByID(c *gin.Context) (*models.Dataset, bool) {
	id := c.Param("datasetId")
	ds, err := h.Store.GetDataset(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, db.ErrDatasetNotFound) {
			abortWithError(c, http.StatusNotFound, "Dataset not found")
			return nil, false
		}
		h.logger.Error("failed to load dataset", zap.String("dataset_id", id), zap.Error(err))
		abortWithError(c, http.StatusInternalServerError, "Failed to retrieve dataset")
		return nil, false
	}
	return ds, true
}

// --- Student Handlers ---

// GetStudent handles GET /student/:rollNo against the latest dataset
func (h *APIHandler) GetStudent(c *gin.Context) {
	if ds, ok := h.latestDataset(c); ok {
		h.respondStudent(c, ds)
	}
}

// GetDatasetStudent handles GET /api/datasets/:datasetId/students/:rollNo
func (h *APIHandler) GetDatasetStudent(c *gin.Context) {
	if ds, ok := h.datasetByID(c); ok {
		h.respondStudent(c, ds)
	}
}

func (h *APIHandler) respondStudent(c *gin.Context, ds *models.Dataset) {
	rollNo, err := strconv.Atoi(c.Param("rollNo"))
	if err != nil {
		h.Metrics.ObserveQuery(queryStudent, metrics.ResultRejected)
		abortWithError(c, http.StatusBadRequest, "Roll number must be an integer")
		return
	}

	student, err := attendance.FindStudent(ds.Summary, rollNo)
	if err != nil {
		h.Metrics.ObserveQuery(queryStudent, "not_found")
		abortWithError(c, http.StatusNotFound, "Student not found")
		return
	}
	h.Metrics.ObserveQuery(queryStudent, metrics.ResultSuccess)
	c.JSON(http.StatusOK, student)
}

type lowAttendanceQuery struct {
	Threshold *float64 `form:"threshold" binding:"omitempty,gte=0,lte=100"`
}

// GetLowAttendance handles GET /low-attendance against the latest dataset
func (h *APIHandler) GetLowAttendance(c *gin.Context) {
	if ds, ok := h.latestDataset(c); ok {
		h.respondLowAttendance(c, ds)
	}
}

// GetDatasetLowAttendance handles GET /api/datasets/:datasetId/low-attendance
func (h *APIHandler) GetDatasetLowAttendance(c *gin.Context) {
	if ds, ok := h.datasetByID(c); ok {
		h.respondLowAttendance(c, ds)
	}
}

func (h *APIHandler) respondLowAttendance(c *gin.Context, ds *models.Dataset) {
	var q lowAttendanceQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.Metrics.ObserveQuery(queryLowAttendance, metrics.ResultRejected)
		abortWithError(c, http.StatusBadRequest, "Invalid threshold: "+err.Error())
		return
	}
	threshold := attendance.LowAttendanceThreshold
	if q.Threshold != nil {
		threshold = *q.Threshold
	}

	h.Metrics.ObserveQuery(queryLowAttendance, metrics.ResultSuccess)
	c.JSON(http.StatusOK, attendance.LowAttendance(ds.Summary, threshold))
}

// --- Dataset Handlers ---

// ListDatasets handles GET /api/datasets
func (h *APIHandler) ListDatasets(c *gin.Context) {
	ids, err := h.Store.ListDatasetIDs(c.Request.Context())
	if err != nil {
		h.logger.Error("failed to list datasets", zap.Error(err))
		abortWithError(c, http.StatusInternalServerError, "Failed to list datasets")
		return
	}
	if ids == nil {
		// Return empty list instead of null for JSON consistency
		ids = []string{}
	}
	c.JSON(http.StatusOK, ids)
}

// GetDataset handles GET /api/datasets/:datasetId
func (h *APIHandler) GetDataset(c *gin.Context) {
	if ds, ok := h.datasetByID(c); ok {
		c.JSON(http.StatusOK, ds)
	}
}

// DeleteDataset handles DELETE /api/datasets/:datasetId
func (h *APIHandler) DeleteDataset(c *gin.Context) {
	id := c.Param("datasetId")
	err := h.Store.DeleteDataset(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, db.ErrDatasetNotFound) {
			abortWithError(c, http.StatusNotFound, "Dataset not found")
			return
		}
		h.logger.Error("failed to delete dataset", zap.String("dataset_id", id), zap.Error(err))
		abortWithError(c, http.StatusInternalServerError, "Failed to delete dataset")
		return
	}
	c.Status(http.StatusNoContent)
}

// ExportDataset handles GET /api/datasets/:datasetId/export
func (h *APIHandler) ExportDataset(c *gin.Context) {
	ds, ok := h.datasetByID(c)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := db.WriteDatasetExcel(&buf, ds); err != nil {
		h.Metrics.ObserveQuery(queryExport, metrics.ResultError)
		h.logger.Error("failed to export dataset", zap.String("dataset_id", ds.ID), zap.Error(err))
		abortWithError(c, http.StatusInternalServerError, "Failed to export dataset")
		return
	}

	h.Metrics.ObserveQuery(queryExport, metrics.ResultSuccess)
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="attendance-%s.xlsx"`, ds.ID))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// --- Ping Handler ---

// Ping handles GET /api/ping
func (h *APIHandler) Ping(c *gin.Context) {
	if err := h.Store.Ping(c.Request.Context()); err != nil {
		h.logger.Warn("store ping failed", zap.Error(err))
		abortWithError(c, http.StatusServiceUnavailable, "Store unavailable")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Pong!"})
}
