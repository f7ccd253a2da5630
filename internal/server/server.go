package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/localbrain/brain/internal/llm"
	"github.com/localbrain/brain/internal/loader"
	"github.com/localbrain/brain/internal/pipeline"
	"github.com/localbrain/brain/internal/vectorstore"
)

// Config holds server configuration.
type Config struct {
	Host     string
	Port     int
	AllowAll bool // allow all CORS origins (dev mode)

	LoaderOptions loader.Options
}

// Server exposes the knowledge base over HTTP. Handlers only
// (de)serialize and map error kinds to status codes; all semantics live
// in the pipeline packages.
type Server struct {
	cfg        Config
	store      vectorstore.Store
	ingestor   *pipeline.Ingestor
	retriever  *pipeline.Retriever
	client     llm.Client
	router     chi.Router
	httpServer *http.Server
}

// New creates a server with all dependencies.
func New(cfg Config, store vectorstore.Store, ingestor *pipeline.Ingestor, retriever *pipeline.Retriever, client llm.Client) *Server {
	s := &Server{
		cfg:       cfg,
		store:     store,
		ingestor:  ingestor,
		retriever: retriever,
		client:    client,
	}
	s.router = s.buildRouter()
	return s
}

// buildRouter creates and configures the chi router with all routes.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))

	corsOpts := cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	if s.cfg.AllowAll {
		corsOpts.AllowedOrigins = []string{"*"}
	}
	r.Use(cors.Handler(corsOpts))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Post("/search", s.handleSearch)
	r.Post("/query", s.handleQuery)
	r.Post("/sources/local", s.handleIndexLocal)
	r.Get("/sources", s.handleListSources)
	r.Delete("/sources/*", s.handleDeleteSource)
	r.Get("/status", s.handleStatus)

	return r
}

// Router returns the chi router, mostly for tests.
func (s *Server) Router() chi.Router { return s.router }

// Start begins listening on the configured address.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("brain server listening on %s", addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}
