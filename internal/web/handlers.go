package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/exec"
	"sync"

	"github.com/On-Jun9/TagProbe/internal/config"
	"github.com/On-Jun9/TagProbe/internal/exif"
	"github.com/On-Jun9/TagProbe/internal/pipeline"
	"github.com/On-Jun9/TagProbe/pkg/types"
)

// ValidationError represents a field validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type APIErrorResponse struct {
	Message string `json:"message"`
	Kind    string `json:"kind,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeAPIError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, APIErrorResponse{Message: message})
}

func writeValidationError(w http.ResponseWriter, field, message string) {
	writeJSON(w, http.StatusBadRequest, ValidationError{
		Field:   field,
		Message: message,
	})
}

// extractStatus maps an extraction error kind to an HTTP status.
func extractStatus(kind exif.Kind) int {
	switch kind {
	case exif.KindFileNotFound:
		return http.StatusNotFound
	case exif.KindToolInvocation:
		return http.StatusServiceUnavailable
	case exif.KindDecode, exif.KindTag, exif.KindValue:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

type CheckResponse struct {
	Tool      string `json:"tool"`
	Available bool   `json:"available"`
	Path      string `json:"path,omitempty"`
}

func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	tool := r.URL.Query().Get("tool")
	if tool == "" {
		tool = exif.DefaultTool
	}

	resp := CheckResponse{Tool: tool, Available: exif.Available(tool)}
	if resp.Available {
		resp.Path, _ = exec.LookPath(tool)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, config.DefaultConfig())
}

// applyRequestPreset resolves cfg.Preset, if any, onto cfg.
func (s *Server) applyRequestPreset(cfg *config.Config) error {
	if cfg.Preset == "" {
		return nil
	}
	pm, err := s.presets()
	if err != nil {
		return err
	}
	preset, err := pm.LoadPreset(cfg.Preset)
	if err != nil {
		return &config.ValidationError{Field: "preset", Message: err.Error()}
	}
	config.ApplyPreset(cfg, preset)
	return nil
}

type ExtractRequest struct {
	Path    string           `json:"path"`
	Mode    types.FilterMode `json:"mode"`
	Tags    []string         `json:"tags"`
	Preset  string           `json:"preset"`
	Backend types.Backend    `json:"backend"`
	Tool    string           `json:"tool"`
}

type ExtractResponse struct {
	Path       string           `json:"path"`
	Mode       types.FilterMode `json:"mode"`
	Attributes types.Attributes `json:"attributes"`
}

func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	var req ExtractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIError(w, http.StatusBadRequest, err.Error())
		return
	}

	cfg := config.DefaultConfig()
	cfg.Source = req.Path
	cfg.Mode = req.Mode
	cfg.Tags = req.Tags
	cfg.Preset = req.Preset
	if req.Backend != "" {
		cfg.Backend = req.Backend
	}
	if req.Tool != "" {
		cfg.Tool = req.Tool
	}

	err := s.applyRequestPreset(cfg)
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		var validationErr *config.ValidationError
		if errors.As(err, &validationErr) {
			field := validationErr.Field
			if field == "source" {
				field = "path"
			}
			writeValidationError(w, field, validationErr.Message)
			return
		}
		writeAPIError(w, http.StatusInternalServerError, err.Error())
		return
	}

	policy, err := cfg.Policy()
	if err != nil {
		writeValidationError(w, "mode", err.Error())
		return
	}

	x, err := exif.NewExtractor(cfg.Invoker()).Extract(cfg.Source, policy)
	if err != nil {
		kind := exif.KindOf(err)
		writeJSON(w, extractStatus(kind), APIErrorResponse{
			Message: err.Error(),
			Kind:    kind.String(),
		})
		return
	}

	writeJSON(w, http.StatusOK, ExtractResponse{
		Path:       cfg.Source,
		Mode:       policy.Mode(),
		Attributes: x.Attributes,
	})
}

var runMutex sync.Mutex

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	if !runMutex.TryLock() {
		writeAPIError(w, http.StatusConflict, "extraction already running")
		return
	}

	cfg := config.DefaultConfig()
	if err := json.NewDecoder(r.Body).Decode(cfg); err != nil {
		runMutex.Unlock()
		writeAPIError(w, http.StatusBadRequest, err.Error())
		return
	}

	err := s.applyRequestPreset(cfg)
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		runMutex.Unlock()
		var validationErr *config.ValidationError
		if errors.As(err, &validationErr) {
			writeValidationError(w, validationErr.Field, validationErr.Message)
			return
		}

		writeAPIError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "started"})

	go func() {
		defer runMutex.Unlock()
		defer func() {
			if r := recover(); r != nil {
				fmt.Printf("PANIC RECOVERED: %v\n", r)
				s.broadcastProgress(pipeline.ProgressUpdate{Type: "error", Error: fmt.Sprintf("Internal Server Error: %v", r)})
			}
		}()

		p, err := pipeline.New(cfg)
		if err != nil {
			s.broadcastProgress(pipeline.ProgressUpdate{Type: "error", Error: err.Error()})
			return
		}
		defer p.Close()

		p.SetProgressCallback(func(update pipeline.ProgressUpdate) {
			s.broadcastProgress(update)
		})

		if _, err := p.Run(); err != nil {
			s.broadcastProgress(pipeline.ProgressUpdate{Type: "error", Error: err.Error()})
		}
	}()
}

func (s *Server) broadcastJSON(v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	s.hub.broadcast <- data
}

func (s *Server) broadcastProgress(update pipeline.ProgressUpdate) {
	s.broadcastJSON(update)
}

// Preset-related handlers

func presetErrorStatus(err error, fallback int) int {
	if errors.Is(err, config.ErrInvalidPresetName) {
		return http.StatusBadRequest
	}
	return fallback
}

func (s *Server) handleListPresets(w http.ResponseWriter, r *http.Request) {
	pm, err := s.presets()
	if err != nil {
		writeAPIError(w, http.StatusInternalServerError, err.Error())
		return
	}

	presets, err := pm.ListPresets()
	if err != nil {
		writeAPIError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, presets)
}

func (s *Server) handleSavePreset(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string        `json:"name"`
		Description string        `json:"description"`
		Config      config.Config `json:"config"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIError(w, http.StatusBadRequest, err.Error())
		return
	}

	if req.Name == "" {
		writeValidationError(w, "name", "preset name is required")
		return
	}

	mode, err := exif.ParseMode(string(req.Config.Mode))
	if err != nil {
		writeValidationError(w, "mode", err.Error())
		return
	}
	req.Config.Mode = mode

	pm, err := s.presets()
	if err != nil {
		writeAPIError(w, http.StatusInternalServerError, err.Error())
		return
	}

	preset := config.ConfigToPreset(&req.Config, req.Name, req.Description)
	if err := pm.SavePreset(preset); err != nil {
		if errors.Is(err, config.ErrInvalidPresetName) {
			writeValidationError(w, "name", err.Error())
			return
		}
		writeAPIError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleLoadPreset(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		writeAPIError(w, http.StatusBadRequest, "preset name is required")
		return
	}

	pm, err := s.presets()
	if err != nil {
		writeAPIError(w, http.StatusInternalServerError, err.Error())
		return
	}

	preset, err := pm.LoadPreset(name)
	if err != nil {
		writeAPIError(w, presetErrorStatus(err, http.StatusNotFound), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, preset)
}

func (s *Server) handleDeletePreset(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		writeAPIError(w, http.StatusBadRequest, "preset name is required")
		return
	}

	pm, err := s.presets()
	if err != nil {
		writeAPIError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if err := pm.DeletePreset(name); err != nil {
		writeAPIError(w, presetErrorStatus(err, http.StatusInternalServerError), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Version handler

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"version": s.version})
}
