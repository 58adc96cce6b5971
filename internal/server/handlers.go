package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/mentora/mentora/internal/models"
	"go.uber.org/zap"
)

type knowledgeRequest struct {
	models.KnowledgeInput
	Source string `json:"source,omitempty"`
}

type queryRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k,omitempty"`
}

type answerRequest struct {
	Question string `json:"question"`
	TopK     int    `json:"top_k,omitempty"`
}

func (s *Server) handleAddKnowledge(w http.ResponseWriter, r *http.Request) {
	var req knowledgeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Texts) == 0 {
		s.respondError(w, http.StatusBadRequest, "texts is required")
		return
	}
	if len(req.Metadatas) > 0 && len(req.Metadatas) != len(req.Texts) {
		s.respondError(w, http.StatusBadRequest, "metadatas must match texts in length")
		return
	}
	s.logger.Debug("add knowledge request", zap.Int("texts", len(req.Texts)))

	// With explicit metadatas the texts are stored as given; otherwise
	// they go through the ingest pipeline, which chunks long texts.
	if len(req.Metadatas) > 0 {
		if err := s.retriever.AddKnowledge(r.Context(), req.Texts, req.Metadatas); err != nil {
			s.logger.Error("add knowledge failed", zap.Error(err))
			s.respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		s.respondJSON(w, http.StatusCreated, map[string]interface{}{"status": "added", "chunks": len(req.Texts)})
		return
	}

	total := 0
	for _, text := range req.Texts {
		n, err := s.ingestor.IngestText(r.Context(), text, req.Source, "")
		if err != nil {
			s.logger.Error("ingest failed", zap.Error(err))
			s.respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		total += n
	}
	s.respondJSON(w, http.StatusCreated, map[string]interface{}{"status": "added", "chunks": total})
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		s.respondError(w, http.StatusBadRequest, "query is required")
		return
	}
	topK := s.clampTopK(req.TopK)
	s.logger.Debug("query request", zap.String("query", req.Query), zap.Int("top_k", topK))

	results, err := s.retriever.Query(r.Context(), req.Query, topK)
	if err != nil {
		s.logger.Error("query failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"results": results})
}

func (s *Server) handleAnswer(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		s.respondError(w, http.StatusBadRequest, "question is required")
		return
	}
	topK := s.clampTopK(req.TopK)
	s.logger.Debug("answer request", zap.String("question", req.Question), zap.Int("top_k", topK))

	answer, err := s.retriever.Answer(r.Context(), req.Question, topK)
	if err != nil {
		s.logger.Error("answer failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"answer": answer})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, s.retriever.Stats())
}

func (s *Server) handleWatchDirectories(w http.ResponseWriter, r *http.Request) {
	if s.watch == nil {
		s.respondError(w, http.StatusNotImplemented, "watch not enabled")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"directories": s.watch.Directories()})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) clampTopK(topK int) int {
	if topK <= 0 {
		topK = s.config.Retrieval.DefaultTopK
	}
	if max := s.config.Retrieval.MaxTopK; max > 0 && topK > max {
		topK = max
	}
	return topK
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
