package http

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	apierrors "sellerpulse/internal/errors"
	custommw "sellerpulse/internal/middleware"
)

// multipartMemory is how much of an upload is buffered in memory before
// spilling to a temp file.
const multipartMemory = 8 << 20

// UploadRequest is the validated form of POST /api/uploads.
type UploadRequest struct {
	FileName    string `json:"file" validate:"required,filename"`
	Marketplace string `json:"marketplace" validate:"omitempty,marketplace"`
}

// UploadHandler accepts transaction workbooks.
type UploadHandler struct {
	service      IngestServiceInterface
	validator    *custommw.Validator
	errorHandler *apierrors.ErrorHandler
	maxBytes     int64
	logger       *slog.Logger
}

// NewUploadHandler creates an upload handler. Bodies above maxBytes are
// rejected with 413.
func NewUploadHandler(service IngestServiceInterface, validator *custommw.Validator, errorHandler *apierrors.ErrorHandler, maxBytes int64, logger *slog.Logger) *UploadHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &UploadHandler{
		service:      service,
		validator:    validator,
		errorHandler: errorHandler,
		maxBytes:     maxBytes,
		logger:       logger.With(slog.String("handler", "uploads")),
	}
}

// Routes returns the upload routes
func (h *UploadHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.With(custommw.ContentTypeValidator(h.errorHandler, "multipart/form-data")).Post("/", h.Upload)
	return r
}

// Upload handles POST /api/uploads with a multipart "file" part and an
// optional "marketplace" override.
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if h.maxBytes > 0 {
		if r.ContentLength > h.maxBytes {
			h.errorHandler.HandleError(w, r, h.tooLarge())
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.errorHandler.HandleError(w, r, h.tooLarge())
			return
		}
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("file", "file is required"))
		return
	}
	defer file.Close()

	req := UploadRequest{FileName: header.Filename, Marketplace: r.FormValue("marketplace")}
	if err := h.validator.Struct(req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.logger.InfoContext(ctx, "upload received",
		slog.String("request_id", middleware.GetReqID(ctx)),
		slog.String("file", req.FileName),
		slog.Int64("size", header.Size),
		slog.String("marketplace_override", req.Marketplace))

	result, err := h.service.IngestFile(ctx, req.FileName, file, req.Marketplace)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, result)
}

func (h *UploadHandler) tooLarge() error {
	return apierrors.New(http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE",
		fmt.Sprintf("upload exceeds %d bytes", h.maxBytes))
}
