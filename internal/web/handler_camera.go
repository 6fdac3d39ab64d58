package web

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/vbonduro/jdginv/internal/scanner"
	"github.com/vbonduro/jdginv/internal/session"
)

const maxFrameSize = 10 * 1024 * 1024 // 10 MB

// allowedImageTypes is the set of MIME types accepted for camera frames.
// net/http.DetectContentType handles JPEG, PNG, and GIF via magic-byte
// sniffing. WebP is detected separately because the WHATWG sniffing algorithm (and
// therefore the stdlib) does not include a WebP signature.
var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
}

// isWebP reports whether data is a WebP image (RIFF container with "WEBP" at
// offset 8).
func isWebP(data []byte) bool {
	return len(data) >= 12 &&
		string(data[0:4]) == "RIFF" &&
		string(data[8:12]) == "WEBP"
}

// allowedImageMIME returns the detected MIME type and true if the data is an
// accepted image format, or ("", false) otherwise.
func allowedImageMIME(data []byte) (string, bool) {
	if isWebP(data) {
		return "image/webp", true
	}
	mime := http.DetectContentType(data)
	if allowedImageTypes[mime] {
		return mime, true
	}
	return "", false
}

func (s *Server) handleCamera(w http.ResponseWriter, r *http.Request, sid string, _ session.State) {
	st := s.sessions.Dispatch(sid, session.Navigate{Page: session.PageCamera})
	if err := s.renderPage(w, http.StatusOK, s.newPageData(st),
		"base.html", "pages/camera.html",
	); err != nil {
		s.logger.Error("render page failed", "page", "camera", "error", err)
	}
}

func (s *Server) handleCameraPermission(w http.ResponseWriter, r *http.Request, sid string, st session.State) {
	granted := r.FormValue("granted") == "true"
	if !granted {
		s.dropFrame(r.Context(), st.Camera.FrameKey)
	}
	s.sessions.Dispatch(sid, session.PermissionResolved{Granted: granted})
	http.Redirect(w, r, "/camera", http.StatusSeeOther)
}

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request, sid string, st session.State) {
	if st.Camera.Permission != session.PermissionGranted {
		s.sessions.Dispatch(sid, session.ShowAlert{Message: "Camera permission is required to scan."})
		http.Redirect(w, r, "/camera", http.StatusSeeOther)
		return
	}
	if st.Camera.Locked {
		http.Redirect(w, r, "/camera", http.StatusSeeOther)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxFrameSize)
	if err := r.ParseMultipartForm(maxFrameSize); err != nil {
		http.Error(w, "failed to parse form", http.StatusBadRequest)
		return
	}
	file, _, err := r.FormFile("frame")
	if err != nil {
		http.Error(w, "frame file required", http.StatusBadRequest)
		return
	}
	defer closeWithLog(file, "frame file", s.logger)

	frame, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, "failed to read file", http.StatusInternalServerError)
		s.logger.Error("read frame failed", "error", err)
		return
	}
	mimeType, ok := allowedImageMIME(frame)
	if !ok {
		http.Error(w, "unsupported image format", http.StatusBadRequest)
		return
	}

	result, err := s.decoder.Decode(r.Context(), bytes.NewReader(frame), mimeType)
	if err != nil {
		s.sessions.Dispatch(sid, session.ShowAlert{Message: scanErrorMessage(err)})
		if !errors.Is(err, scanner.ErrNoCode) && !errors.Is(err, scanner.ErrUnavailable) {
			s.logger.Error("decode frame failed", "error", err)
		}
		http.Redirect(w, r, "/camera", http.StatusSeeOther)
		return
	}

	var key string
	if s.frameStore != nil {
		key, err = s.frameStore.Save(r.Context(), "scan", mimeType, bytes.NewReader(frame))
		if err != nil {
			s.logger.Error("save frame failed", "error", err)
			key = ""
		}
	}

	next := s.sessions.Dispatch(sid, session.Scanned{Payload: result.Payload, FrameKey: key})
	if next.Camera.FrameKey != key {
		// Another scan locked first.
		s.dropFrame(r.Context(), key)
	}
	s.logger.Info("code scanned", "user", st.User, "payload_len", len(result.Payload))
	http.Redirect(w, r, "/camera", http.StatusSeeOther)
}

func scanErrorMessage(err error) string {
	switch {
	case errors.Is(err, scanner.ErrNoCode):
		return "No code found. Hold the code steady and try again."
	case errors.Is(err, scanner.ErrUnavailable):
		return "Scanning is not available on this server."
	default:
		return "Could not read the frame. Please try again."
	}
}

func (s *Server) handleResetScan(w http.ResponseWriter, r *http.Request, sid string, st session.State) {
	s.dropFrame(r.Context(), st.Camera.FrameKey)
	s.sessions.Dispatch(sid, session.ResetScan{})
	http.Redirect(w, r, "/camera", http.StatusSeeOther)
}

func (s *Server) handleFrame(w http.ResponseWriter, r *http.Request, _ string, st session.State) {
	if s.frameStore == nil || st.Camera.FrameKey == "" {
		http.NotFound(w, r)
		return
	}
	reader, mimeType, err := s.frameStore.Get(r.Context(), st.Camera.FrameKey)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	defer closeWithLog(reader, "frame reader", s.logger)

	w.Header().Set("Content-Type", mimeType)
	w.Header().Set("Cache-Control", "no-store")
	if _, err := io.Copy(w, reader); err != nil {
		s.logger.Error("write frame failed", "error", err)
	}
}

func (s *Server) dropFrame(ctx context.Context, key string) {
	if s.frameStore == nil || key == "" {
		return
	}
	if err := s.frameStore.Delete(ctx, key); err != nil {
		s.logger.Warn("failed to delete frame", "key", key, "error", err)
	}
}

// closeWithLog closes c and logs any error, using label to identify the resource.
func closeWithLog(c io.Closer, label string, logger *slog.Logger) {
	if err := c.Close(); err != nil {
		logger.Error("failed to close resource", "label", label, "error", err)
	}
}
