package server

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/localbrain/brain/internal/llm"
	"github.com/localbrain/brain/internal/loader"
	"github.com/localbrain/brain/internal/vectorstore"
)

type searchRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit"`
}

type searchResultJSON struct {
	Content    string  `json:"content"`
	Source     string  `json:"source"`
	FilePath   string  `json:"file_path"`
	ChunkIndex int     `json:"chunk_index"`
	Similarity float32 `json:"similarity"`
}

type indexLocalRequest struct {
	Path string `json:"path"`
}

type statusResponse struct {
	Documents  int    `json:"documents"`
	Sources    int    `json:"sources"`
	Dimensions int    `json:"dimensions"`
	Generation string `json:"generation"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Limit == 0 {
		req.Limit = 5
	}

	results, err := s.retriever.Search(r.Context(), req.Query, req.Limit)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	out := make([]searchResultJSON, 0, len(results))
	for _, res := range results {
		out = append(out, searchResultJSON{
			Content:    res.Record.Content,
			Source:     res.Record.Source,
			FilePath:   res.Record.FilePath,
			ChunkIndex: res.Record.ChunkIndex,
			Similarity: res.Similarity,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": out})
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Limit == 0 {
		req.Limit = 5
	}

	resp, err := s.retriever.Query(r.Context(), req.Query, req.Limit)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleIndexLocal(w http.ResponseWriter, r *http.Request) {
	var req indexLocalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Path == "" {
		writeError(w, http.StatusBadRequest, "path is required")
		return
	}

	files, err := loader.LoadDirectory(req.Path, s.cfg.LoaderOptions)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	report, err := s.ingestor.IndexDocuments(r.Context(), loader.LocalSource(req.Path),
		vectorstore.SourceLocal, files)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleListSources(w http.ResponseWriter, r *http.Request) {
	sources, err := s.store.ListSources(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if sources == nil {
		sources = []vectorstore.SourceInfo{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"sources": sources})
}

func (s *Server) handleDeleteSource(w http.ResponseWriter, r *http.Request) {
	source := chi.URLParam(r, "*")
	if source == "" {
		writeError(w, http.StatusBadRequest, "source is required")
		return
	}

	deleted, err := s.store.DeleteBySource(r.Context(), source)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"source": source, "deleted": deleted})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	count, err := s.store.Count(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	sources, err := s.store.ListSources(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	generation := "ok"
	if s.client == nil {
		generation = "disabled"
	} else if err := s.client.HealthCheck(r.Context()); err != nil {
		generation = "unavailable"
	}

	writeJSON(w, http.StatusOK, statusResponse{
		Documents:  count,
		Sources:    len(sources),
		Dimensions: s.store.Dimensions(),
		Generation: generation,
	})
}

// writeDomainError maps error kinds to HTTP status codes. Invalid
// requests are the caller's fault, an unavailable generation backend is
// a dependency failure, anything else is internal.
func writeDomainError(w http.ResponseWriter, err error) {
	var qe *vectorstore.QueryError
	switch {
	case errors.As(err, &qe):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, vectorstore.ErrDimensionMismatch):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, llm.ErrGenerationUnavailable):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		log.Printf("internal error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
