package web

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/On-Jun9/TagProbe/internal/config"
)

type Server struct {
	router  *mux.Router
	hub     *Hub
	version string
	presets func() (*config.PresetManager, error)
}

func NewServer() *Server {
	s := &Server{
		router:  mux.NewRouter(),
		hub:     NewHub(),
		version: "unknown",
		presets: config.NewPresetManager,
	}

	go s.hub.Run()

	s.setupRoutes()
	return s
}

func (s *Server) SetVersion(v string) {
	s.version = v
}

func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/version", s.handleVersion).Methods("GET")
	api.HandleFunc("/check", s.handleCheck).Methods("GET")
	api.HandleFunc("/config", s.handleGetConfig).Methods("GET")
	api.HandleFunc("/extract", s.handleExtract).Methods("POST")
	api.HandleFunc("/run", s.handleRun).Methods("POST")
	api.HandleFunc("/ws", s.handleWebSocket)

	// Preset routes
	api.HandleFunc("/presets", s.handleListPresets).Methods("GET")
	api.HandleFunc("/presets", s.handleSavePreset).Methods("POST")
	api.HandleFunc("/presets/load", s.handleLoadPreset).Methods("GET")
	api.HandleFunc("/presets/delete", s.handleDeletePreset).Methods("DELETE")
}

func (s *Server) Start(addr string) error {
	fmt.Printf("Starting TagProbe API at http://%s\n", addr)
	return http.ListenAndServe(addr, s.router)
}
