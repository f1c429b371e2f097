package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/alnah/go-mdpreview"
	"github.com/alnah/go-mdpreview/internal/fileutil"
	"github.com/alnah/go-mdpreview/internal/hints"
)

// editorPDFName is the download name for exports from the editor.
const editorPDFName = "document"

var (
	errEmptyDocument = errors.New("document is empty")
	errBodyTooLarge  = fmt.Errorf("document exceeds %d bytes", MaxRenderBody)
	errBodyNotUTF8   = errors.New("document is not valid UTF-8")
	errNoExporter    = errors.New("PDF export is not available")
)

type healthResponse struct {
	Status string `json:"status"`
	Mode   string `json:"mode"`
}

type infoResponse struct {
	FilePath string `json:"filePath"`
	FileName string `json:"fileName"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Mode: s.Mode()})
}

func (s *Server) handleHighlightCSS(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/css; charset=utf-8")
	_, _ = io.WriteString(w, s.renderer.HighlightCSS())
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(s.indexHTML)
}

func (s *Server) handleInfo(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, infoResponse{FilePath: s.filePath, FileName: s.fileName()})
}

// handleContent re-reads and renders the file on every request.
func (s *Server) handleContent(w http.ResponseWriter, _ *http.Request) {
	result, err := s.renderFile()
	if err != nil {
		s.log.Warn("content request failed", "error", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, result.Snapshot(s.fileName()))
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	source, status, err := readMarkdownBody(w, r)
	if err != nil {
		writeError(w, status, err)
		return
	}
	writeJSON(w, http.StatusOK, s.renderer.Render(source).Snapshot(""))
}

func (s *Server) handleFilePDF(w http.ResponseWriter, r *http.Request) {
	result, err := s.renderFile()
	if err != nil {
		s.log.Warn("pdf request failed", "error", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writePDF(w, r, result.HTML, s.fileName())
}

func (s *Server) handleEditorPDF(w http.ResponseWriter, r *http.Request) {
	source, status, err := readMarkdownBody(w, r)
	if err != nil {
		writeError(w, status, err)
		return
	}
	if strings.TrimSpace(source) == "" {
		writeError(w, http.StatusBadRequest, errEmptyDocument)
		return
	}
	s.writePDF(w, r, s.renderer.Render(source).HTML, editorPDFName)
}

func (s *Server) writePDF(w http.ResponseWriter, r *http.Request, htmlBody, name string) {
	if s.exporter == nil {
		writeError(w, http.StatusServiceUnavailable, errNoExporter)
		return
	}

	download := fileutil.PDFName(name)
	res, err := s.exporter.Export(r.Context(), htmlBody, strings.TrimSuffix(download, ".pdf"))
	if err != nil {
		s.log.Error("pdf export failed", "file", name, "error", err.Error()+exportHint(err))
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.log.Info("pdf exported", "file", name, "pages", res.Pages, "bytes", len(res.PDF))

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", download))
	w.Header().Set("Content-Length", strconv.Itoa(len(res.PDF)))
	w.Header().Set("X-PDF-Pages", strconv.Itoa(res.Pages))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(res.PDF)
}

// exportHint suggests a fix for export failures the user can act on.
func exportHint(err error) string {
	switch {
	case errors.Is(err, mdpreview.ErrBrowserConnect):
		return hints.ForBrowserConnect(hints.CurrentHost())
	case errors.Is(err, context.DeadlineExceeded):
		return hints.ForExportTimeout()
	default:
		return ""
	}
}

func (s *Server) renderFile() (mdpreview.RenderResult, error) {
	source, err := fileutil.ReadMarkdown(s.filePath)
	if err != nil {
		return mdpreview.RenderResult{}, err
	}
	return s.renderer.Render(source), nil
}

// readMarkdownBody reads a capped UTF-8 request body. On error it also
// returns the status to answer with.
func readMarkdownBody(w http.ResponseWriter, r *http.Request) (string, int, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxRenderBody))
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return "", http.StatusRequestEntityTooLarge, errBodyTooLarge
		}
		return "", http.StatusBadRequest, fmt.Errorf("reading request body: %w", err)
	}
	if !utf8.Valid(body) {
		return "", http.StatusBadRequest, errBodyNotUTF8
	}
	return string(body), http.StatusOK, nil
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}
