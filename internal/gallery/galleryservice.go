// Package gallery serves the run manifest over HTTP so generated samples can
// be inspected in a browser while a dataset is reviewed.
package gallery

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"

	"github.com/labstack/echo/v4"

	"github.com/tankstamp/stampgen/internal/core"
	"github.com/tankstamp/stampgen/internal/manifest"
)

const (
	mimePNG  = "image/png"
	mimeText = "text/plain; charset=utf-8"
)

type GalleryService struct {
	config   *core.ServiceConfig
	manifest manifest.ManifestService
}

func NewGalleryService(config *core.ServiceConfig, ms manifest.ManifestService) *GalleryService {
	return &GalleryService{
		config:   config,
		manifest: ms,
	}
}

// ListSamplesRequest carries the optional list filters.
type ListSamplesRequest struct {
	Status string `query:"status" validate:"omitempty,oneof=generated failed"`
	Limit  int    `query:"limit" validate:"omitempty,min=1,max=10000"`
}

func (s *GalleryService) SetRoutes(e *echo.Echo) {
	e.GET("/probe", s.probeHandler)

	e.GET("/samples", s.listSamplesHandler)
	e.GET("/samples/:id", s.getSampleHandler)
	e.GET("/samples/:id/image", s.getSampleImageHandler)
	e.GET("/samples/:id/label", s.getSampleLabelHandler)
	e.DELETE("/samples/:id", s.deleteSampleHandler)
}

func (s *GalleryService) probeHandler(ctx echo.Context) error {
	if !s.manifest.IsReachable() {
		return ctx.String(http.StatusServiceUnavailable, "manifest unavailable")
	}
	return ctx.String(http.StatusOK, "gallery is running")
}

func (s *GalleryService) listSamplesHandler(ctx echo.Context) error {
	req := new(ListSamplesRequest)
	if err := ctx.Bind(req); err != nil {
		return ctx.String(http.StatusBadRequest, "invalid query parameters")
	}
	if err := ctx.Validate(req); err != nil {
		return err
	}

	samples, err := s.manifest.GetAllSamples()
	if err != nil {
		slog.Error("listSamplesHandler: failed to list samples",
			"status", http.StatusInternalServerError, "error", err)
		return ctx.String(http.StatusInternalServerError, "Failed to list samples")
	}

	filtered := make([]*manifest.Sample, 0, len(samples))
	for _, sample := range samples {
		if req.Status != "" && sample.Status != req.Status {
			continue
		}
		filtered = append(filtered, sample)
		if req.Limit > 0 && len(filtered) == req.Limit {
			break
		}
	}

	return ctx.JSON(http.StatusOK, filtered)
}

func (s *GalleryService) getSampleHandler(ctx echo.Context) error {
	sample, err := s.lookupSample(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sample)
}

func (s *GalleryService) getSampleImageHandler(ctx echo.Context) error {
	sample, err := s.lookupSample(ctx)
	if err != nil {
		return err
	}
	if sample.ImagePath == "" {
		return ctx.String(http.StatusNotFound, "Sample has no image")
	}

	data, err := os.ReadFile(sample.ImagePath)
	if err != nil {
		slog.Warn("getSampleImageHandler: image file not readable",
			"status", http.StatusNotFound, "sample_id", sample.ID, "path", sample.ImagePath, "error", err)
		return ctx.String(http.StatusNotFound, "Image file not available")
	}
	return ctx.Blob(http.StatusOK, mimePNG, data)
}

func (s *GalleryService) getSampleLabelHandler(ctx echo.Context) error {
	sample, err := s.lookupSample(ctx)
	if err != nil {
		return err
	}
	if sample.LabelPath == "" {
		return ctx.String(http.StatusNotFound, "Sample has no label")
	}

	data, err := os.ReadFile(sample.LabelPath)
	if err != nil {
		slog.Warn("getSampleLabelHandler: label file not readable",
			"status", http.StatusNotFound, "sample_id", sample.ID, "path", sample.LabelPath, "error", err)
		return ctx.String(http.StatusNotFound, "Label file not available")
	}
	return ctx.Blob(http.StatusOK, mimeText, data)
}

func (s *GalleryService) deleteSampleHandler(ctx echo.Context) error {
	sample, err := s.lookupSample(ctx)
	if err != nil {
		return err
	}

	if err := s.manifest.DeleteSample(sample.ID); err != nil {
		slog.Error("deleteSampleHandler: failed to delete sample",
			"status", http.StatusInternalServerError, "sample_id", sample.ID, "error", err)
		return ctx.String(http.StatusInternalServerError, "Failed to delete sample")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// lookupSample resolves the :id path parameter. On failure it returns a
// non-nil *echo.HTTPError for the handler to return; the sample is non-nil
// exactly when the error is nil.
func (s *GalleryService) lookupSample(ctx echo.Context) (*manifest.Sample, error) {
	id := ctx.Param("id")
	if id == "" {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "Missing sample ID")
	}

	sample, err := s.manifest.GetSampleByID(id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, echo.NewHTTPError(http.StatusNotFound, "Sample not found")
		}
		slog.Error("lookupSample: failed to load sample",
			"status", http.StatusInternalServerError, "sample_id", id, "error", err)
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "Failed to load sample")
	}
	return sample, nil
}
