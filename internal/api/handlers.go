package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"document-processor/internal/helper"
	"document-processor/internal/models"
)

const maxUploadSize = 256 << 20

type processRequest struct {
	Filename string `json:"filename"`
}

type scrapeRequest struct {
	URL string `json:"url"`
}

type scrapeResponse struct {
	Success  bool                   `json:"success"`
	Reason   *string                `json:"reason"`
	Metadata []models.ContentRecord `json:"metadata"`
}

func (s *Server) index(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintln(w, usage)
}

func (s *Server) accepts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.proc.Accepts())
}

func (s *Server) process(w http.ResponseWriter, r *http.Request) {
	var req processRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s.mu.Lock()
	result, err := s.proc.Process(s.hotdir, req.Filename)
	s.mu.Unlock()
	s.respond(w, r, result, err)
}

// upload stores the multipart "file" in the hotdir under its base name and
// processes it like /process.
func (s *Server) upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "no file part")
		return
	}
	defer file.Close()

	name := uploadName(header.Filename)
	if name == "" {
		writeError(w, http.StatusBadRequest, "no selected file")
		return
	}
	if err := s.proc.Validate(name); err != nil {
		reason := err.Error()
		writeJSON(w, http.StatusOK, models.Result{Filename: name, Reason: &reason})
		return
	}

	s.mu.Lock()
	if err := saveUpload(s.hotdir, name, file); err != nil {
		s.mu.Unlock()
		log.Error().Err(err).Str("file", name).Msg("failed to store upload")
		writeError(w, http.StatusInternalServerError, "failed to store upload")
		return
	}
	log.Info().Str("file", name).Int64("size", header.Size).Msg("upload stored")
	result, err := s.proc.Process(s.hotdir, name)
	s.mu.Unlock()

	s.respond(w, r, result, err)
}

func (s *Server) respond(w http.ResponseWriter, r *http.Request, result models.Result, err error) {
	if err != nil {
		reason := err.Error()
		result.Reason = &reason
		writeJSON(w, http.StatusInternalServerError, result)
		return
	}

	if result.Success && s.onRecords != nil {
		if err := s.onRecords(r.Context(), result.Metadata); err != nil {
			log.Error().Err(err).Str("file", result.Filename).Msg("failed to hand off records")
		}
	}
	writeJSON(w, http.StatusOK, result)
}

// uploadName keeps only the last element of a client supplied file name,
// whichever separator the client used.
func uploadName(filename string) string {
	name := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	if name == "." || name == "/" || name == ".." {
		return ""
	}
	return name
}

func saveUpload(dir, name string, src io.Reader) error {
	if err := helper.CreateFolder(dir); err != nil {
		return err
	}
	dst, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return err
	}
	return dst.Close()
}

func (s *Server) scrape(w http.ResponseWriter, r *http.Request) {
	var req scrapeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.URL) == "" {
		writeError(w, http.StatusBadRequest, "a url is required")
		return
	}

	rec, err := s.scraper.Scrape(r.Context(), req.URL)
	if err != nil {
		reason := err.Error()
		writeJSON(w, http.StatusOK, scrapeResponse{Reason: &reason})
		return
	}

	records := []models.ContentRecord{rec}
	if s.onRecords != nil {
		if err := s.onRecords(r.Context(), records); err != nil {
			log.Error().Err(err).Str("url", req.URL).Msg("failed to hand off records")
		}
	}
	writeJSON(w, http.StatusOK, scrapeResponse{Success: true, Metadata: records})
}
