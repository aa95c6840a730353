package server

import (
	"errors"
	"fmt"
	"image"
	"io"
	"net/http"
	"strconv"
	"strings"

	"traffic-signal/internal/frame"
	"traffic-signal/internal/history"
	"traffic-signal/internal/httputil"
	"traffic-signal/internal/monitoring"
	"traffic-signal/internal/signal"
	"traffic-signal/pkg/colorutil"

	"github.com/google/uuid"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 500
	multipartMemory     = 8 << 20
)

// detectResponse is the JSON body returned by POST /api/detect.
type detectResponse struct {
	Success    bool          `json:"success"`
	ID         string        `json:"id"`
	Signal     signal.Key    `json:"signal"`
	SignalText string        `json:"signal_text"`
	ColorHex   string        `json:"color_hex"`
	Counts     signal.Counts `json:"counts"`
	Image      string        `json:"image"`
}

// requestError is a client-facing failure with its HTTP status.
type requestError struct {
	status int
	msg    string
}

func (e *requestError) Error() string { return e.msg }

func badRequest(format string, args ...interface{}) error {
	return &requestError{status: http.StatusBadRequest, msg: fmt.Sprintf(format, args...)}
}

func (s *Server) handleDetect(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}

	if r.ContentLength > s.cfg.MaxUploadBytes {
		httputil.WriteJSONError(w, http.StatusRequestEntityTooLarge, "File too large")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	src, err := readUpload(r)
	if err != nil {
		var reqErr *requestError
		if errors.As(err, &reqErr) {
			httputil.WriteJSONError(w, reqErr.status, reqErr.msg)
			return
		}
		httputil.InternalServerError(w, fmt.Sprintf("Processing error: %v", err))
		return
	}

	resp, err := s.classify(src)
	if err != nil {
		if errors.Is(err, signal.ErrInvalidInput) {
			httputil.BadRequest(w, err.Error())
			return
		}
		httputil.InternalServerError(w, fmt.Sprintf("Processing error: %v", err))
		return
	}

	if s.store != nil {
		_, err := s.store.Record(r.Context(), history.Entry{
			ID:     resp.ID,
			Source: history.SourceAPI,
			Signal: resp.Signal,
			Counts: resp.Counts,
		})
		if err != nil {
			monitoring.Logf("History: failed to record %s: %v", resp.ID, err)
		}
	}

	httputil.WriteJSONOK(w, resp)
}

// readUpload extracts the image from a multipart "file" part or a base64 "image" field.
func readUpload(r *http.Request) (image.Image, error) {
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		if !errors.Is(err, http.ErrNotMultipart) {
			return nil, formError(err)
		}
		if err := r.ParseForm(); err != nil {
			return nil, formError(err)
		}
	}

	file, header, err := r.FormFile("file")
	switch {
	case err == nil:
		defer file.Close()
		if header.Filename == "" {
			return nil, badRequest("No selected file")
		}
		if !frame.AllowedFile(header.Filename) {
			return nil, badRequest("Invalid file type. Allowed: %s", strings.Join(frame.AllowedExtensions, ", "))
		}
		data, err := io.ReadAll(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read upload: %w", err)
		}
		img, _, err := frame.Decode(data)
		if err != nil {
			return nil, badRequest("Failed to process image")
		}
		return img, nil

	case !errors.Is(err, http.ErrMissingFile) && !errors.Is(err, http.ErrNotMultipart):
		return nil, formError(err)

	case r.MultipartForm != nil && len(r.MultipartForm.Value["file"]) > 0:
		// A file part with an empty filename arrives as a plain value.
		return nil, badRequest("No selected file")
	}

	encoded := r.FormValue("image")
	if encoded == "" {
		return nil, badRequest("No image provided")
	}
	img, _, err := frame.DecodeDataURI(encoded)
	if err != nil {
		if errors.Is(err, frame.ErrUnsupportedFormat) || errors.Is(err, frame.ErrEmptyUpload) {
			return nil, badRequest("Failed to process image")
		}
		return nil, badRequest("Invalid base64 image: %v", err)
	}
	return img, nil
}

func formError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return &requestError{status: http.StatusRequestEntityTooLarge, msg: "File too large"}
	}
	return badRequest("Failed to parse form")
}

// classify downscales, detects and annotates one uploaded image.
func (s *Server) classify(src image.Image) (*detectResponse, error) {
	mat, err := signal.ImageToMat(src)
	if err != nil {
		return nil, err
	}
	defer mat.Close()

	fitted := frame.FitWithin(mat, s.cfg.MaxWidth, s.cfg.MaxHeight)
	defer fitted.Close()

	res, err := s.det.Detect(fitted)
	if err != nil {
		return nil, err
	}

	frame.Annotate(&fitted, res, image.Pt(20, 40), 1.2)
	uri, err := frame.EncodeDataURI(fitted)
	if err != nil {
		return nil, err
	}

	return &detectResponse{
		Success:    true,
		ID:         uuid.NewString(),
		Signal:     res.Key,
		SignalText: res.Label,
		ColorHex:   colorutil.Hex(res.Color),
		Counts:     res.Counts,
		Image:      uri,
	}, nil
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	if s.store == nil {
		httputil.NotFound(w, "history is disabled")
		return
	}

	limit := defaultHistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			httputil.BadRequest(w, "limit must be a positive integer")
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	entries, err := s.store.Recent(r.Context(), limit)
	if err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}
	httputil.WriteJSONOK(w, map[string]interface{}{"entries": entries})
}

func (s *Server) handleHistorySummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	if s.store == nil {
		httputil.NotFound(w, "history is disabled")
		return
	}

	summary, err := s.store.Summary(r.Context())
	if err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}
	httputil.WriteJSONOK(w, map[string]interface{}{"summary": summary})
}
