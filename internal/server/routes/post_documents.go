package routes

import (
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"github.com/labstack/echo/v4"
	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/marula-ai/marula/internal/server/middleware"
	"github.com/marula-ai/marula/pkg/graph"
	"github.com/marula-ai/marula/pkg/logger"
)

// UploadDocumentsHandler ingests uploaded files (multipart/form-data).
// Each file is processed independently; one failing file never aborts the
// rest, its failure is reported in the per-file result instead.
func UploadDocumentsHandler(c echo.Context) error {
	type uploadResponse struct {
		Message string         `json:"message"`
		Results []graph.Result `json:"results,omitempty"`
	}

	form, err := c.MultipartForm()
	if err != nil {
		return c.JSON(http.StatusBadRequest, uploadResponse{
			Message: "Invalid request body",
		})
	}
	uploads := form.File["files"]
	if len(uploads) == 0 {
		return c.JSON(http.StatusBadRequest, uploadResponse{
			Message: "No files provided",
		})
	}

	ctx := c.Request().Context()
	app := c.(*middleware.AppContext).App

	results := make([]graph.Result, 0, len(uploads))
	for _, file := range uploads {
		filePath, err := saveUpload(app.UploadDir, file)
		if err != nil {
			logger.Error("Failed to save upload", "file", file.Filename, "err", err)
			results = append(results, graph.Result{Success: false, Error: err.Error()})
			continue
		}
		results = append(results, app.Processor.ProcessDocument(ctx, filePath))
	}

	return c.JSON(http.StatusOK, uploadResponse{
		Message: "Upload processed",
		Results: results,
	})
}

// saveUpload stores the file under a per-upload directory so concurrent
// uploads of the same filename never clobber each other. The original
// filename is kept as the last path element; it becomes the document title.
func saveUpload(uploadDir string, file *multipart.FileHeader) (string, error) {
	src, err := file.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	id, err := gonanoid.New()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(uploadDir, id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	dstPath := filepath.Join(dir, filepath.Base(file.Filename))
	dst, err := os.Create(dstPath)
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", err
	}
	return dstPath, nil
}
