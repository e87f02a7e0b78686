// Package server exposes the tagging pipeline over HTTP: POST /tag for
// annotation, GET /health for liveness, GET /metrics for Prometheus.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/ontotag/ontotag/pkg/doc"
	"github.com/ontotag/ontotag/pkg/pipeline"
)

// Server handles tagging requests against one pipeline.
type Server struct {
	pipeline *pipeline.Pipeline
	logger   *zap.Logger
	metrics  *Metrics
	mux      *http.ServeMux
}

// New wires the handlers. A nil logger falls back to no-op.
func New(p *pipeline.Pipeline, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		pipeline: p,
		logger:   logger,
		metrics:  NewMetrics(),
		mux:      http.NewServeMux(),
	}
	s.mux.HandleFunc("/tag", s.handleTag)
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.Handle("/metrics", promhttp.HandlerFor(s.metrics.Registry(), promhttp.HandlerOpts{}))
	return s
}

// Handler returns the routed handler for use with http.Server.
func (s *Server) Handler() http.Handler { return s.mux }

// ListenAndServe blocks serving on addr until the context is canceled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	s.logger.Info("listening", zap.String("addr", addr))
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

// TagRequest is the /tag request body. Either Text or Sections must be
// set; Sections wins when both are present.
type TagRequest struct {
	ID       string `json:"id"`
	Text     string `json:"text"`
	Sections []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"sections"`
}

// TagResponse is the /tag response body.
type TagResponse struct {
	ID       string      `json:"id"`
	Entities []TagEntity `json:"entities"`
}

// TagEntity is one recognized span, with offsets into its section.
type TagEntity struct {
	Section       int    `json:"section"`
	Start         int    `json:"start"`
	End           int    `json:"end"`
	Text          string `json:"text"`
	Type          string `json:"type"`
	ConceptID     string `json:"concept_id"`
	PreferredForm string `json:"preferred_form,omitempty"`
	Recognizer    string `json:"recognizer,omitempty"`
}

func (s *Server) handleTag(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req TagRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Text == "" && len(req.Sections) == 0 {
		http.Error(w, "text or sections required", http.StatusBadRequest)
		return
	}

	article := doc.NewArticle(req.ID)
	if len(req.Sections) > 0 {
		for _, sec := range req.Sections {
			article.AddSection(sec.Type, sec.Text)
		}
	} else {
		article.AddSection("text", req.Text)
	}

	start := time.Now()
	err := s.pipeline.ProcessArticle(r.Context(), article)
	s.metrics.TagDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		s.metrics.DocumentsTotal.WithLabelValues("error").Inc()
		s.logger.Warn("tagging failed", zap.String("article", req.ID), zap.Error(err))
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	s.metrics.DocumentsTotal.WithLabelValues("ok").Inc()

	resp := TagResponse{ID: article.ID, Entities: []TagEntity{}}
	for _, sec := range article.Sections {
		for _, e := range sec.Entities {
			resp.Entities = append(resp.Entities, TagEntity{
				Section:       sec.ID,
				Start:         e.Start,
				End:           e.End,
				Text:          e.Text,
				Type:          e.Type,
				ConceptID:     e.ConceptID,
				PreferredForm: e.PreferredForm,
				Recognizer:    e.Recognizer,
			})
		}
	}
	s.metrics.EntitiesTotal.Add(float64(len(resp.Entities)))

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.logger.Warn("response write failed", zap.Error(err))
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status":       "ok",
		"dictionaries": len(s.pipeline.Dictionaries()),
	})
}
