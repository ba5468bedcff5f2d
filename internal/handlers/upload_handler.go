package handlers

import (
	"errors"
	"net/http"

	"assistantpro-backend/internal/models"
	"assistantpro-backend/internal/services"
	"assistantpro-backend/pkg/httputil"

	"go.uber.org/zap"
)

// multipartOverhead leaves room for form boundaries and headers above the file limit.
const multipartOverhead = 1 << 20

// UploadHandler handles POST /v1/upload.
type UploadHandler struct {
	uploadService *services.UploadService
	maxBytes      int64
	logger        *zap.Logger
}

func NewUploadHandler(uploadService *services.UploadService, maxBytes int64, logger *zap.Logger) *UploadHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UploadHandler{
		uploadService: uploadService,
		maxBytes:      maxBytes,
		logger:        logger.Named("UploadHandler"),
	}
}

// HandleUpload reads the multipart "file" field and returns its text.
func (h *UploadHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes+multipartOverhead)

	file, header, err := r.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			respondServiceError(w, h.logger, services.ErrFileTooLarge)
		case errors.Is(err, http.ErrMissingFile):
			httputil.RespondError(w, http.StatusBadRequest, "No file uploaded")
		default:
			httputil.RespondError(w, http.StatusBadRequest, "Invalid multipart upload")
		}
		return
	}
	defer file.Close()

	result, err := h.uploadService.Extract(header.Filename, header.Size, file)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, models.UploadResponse{
		Text:     result.Text,
		Filename: result.Filename,
		Size:     result.Size,
	})
}
