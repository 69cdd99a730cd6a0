package server

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/matzehuels/carepath/pkg/document"
)

// maxBodySize bounds request bodies. Graph documents with many
// recommendation blocks stay well below it.
const maxBodySize = 8 << 20

// createAlgorithmRequest is the body of POST /algorithms.
type createAlgorithmRequest struct {
	Title       string `json:"title" validate:"required,max=300"`
	Description string `json:"description" validate:"max=5000"`
	Author      string `json:"author" validate:"max=300"`
	Version     string `json:"version" validate:"max=50"`
	Public      bool   `json:"public"`
}

type createAlgorithmResponse struct {
	Algorithm document.Algorithm `json:"algorithm"`
	GraphID   string             `json:"graph_id"`
}

type putGraphResponse struct {
	UpdatedAt time.Time `json:"updated_at"`
}

type errorResponse struct {
	Error   string   `json:"error"`
	Details []string `json:"details,omitempty"`
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("graphdoc", func(fl validator.FieldLevel) bool {
		_, err := document.UnmarshalGraph([]byte(fl.Field().String()))
		return err == nil
	})
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleGetAlgorithm(w http.ResponseWriter, r *http.Request) {
	a, err := s.repo.Algorithm(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) handleGetNodes(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := s.repo.Algorithm(r.Context(), id); err != nil {
		s.writeRepoError(w, err)
		return
	}
	nodes, err := s.repo.Nodes(r.Context(), id)
	if err != nil {
		s.writeRepoError(w, err)
		return
	}
	if nodes == nil {
		nodes = []document.NodeLabel{}
	}
	writeJSON(w, http.StatusOK, nodes)
}

func (s *Server) handleGetGraph(w http.ResponseWriter, r *http.Request) {
	g, err := s.repo.Graph(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

func (s *Server) handleCreateAlgorithm(w http.ResponseWriter, r *http.Request) {
	var req createAlgorithmRequest
	if !s.decode(w, r, &req) {
		return
	}

	now := s.now()
	a := document.Algorithm{
		ID:          s.newID(),
		Title:       req.Title,
		Description: req.Description,
		Author:      req.Author,
		Version:     req.Version,
		Public:      req.Public,
		UpdatedAt:   now,
	}
	g := document.Document{ID: s.newID(), AlgorithmID: a.ID, UpdatedAt: now}
	if err := s.repo.CreateAlgorithm(r.Context(), a, g); err != nil {
		s.writeRepoError(w, err)
		return
	}
	s.logger.Info("created algorithm", "algorithm", a.ID, "graph", g.ID)
	writeJSON(w, http.StatusCreated, createAlgorithmResponse{Algorithm: a, GraphID: g.ID})
}

func (s *Server) handlePutGraph(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var u document.Update
	if !s.decode(w, r, &u) {
		return
	}
	if u.ID != id {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "body id does not match path"})
		return
	}

	ctx := r.Context()
	current, err := s.repo.Graph(ctx, id)
	if err != nil {
		s.writeRepoError(w, err)
		return
	}
	if current.AlgorithmID != u.AlgorithmID {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "graph belongs to another algorithm"})
		return
	}

	at := s.now()
	if err := s.repo.SaveGraph(ctx, u, at); err != nil {
		s.writeRepoError(w, err)
		return
	}
	nodes := s.reindex(ctx, u)

	event := GraphSaved{GraphID: id, AlgorithmID: u.AlgorithmID, Nodes: nodes, UpdatedAt: at}
	if err := s.events.Publish(ctx, SubjectGraphSaved, event); err != nil {
		s.logger.Warn("publish event", "subject", SubjectGraphSaved, "err", err)
	}
	s.logger.Info("saved graph", "graph", id, "algorithm", u.AlgorithmID, "nodes", nodes)
	writeJSON(w, http.StatusOK, putGraphResponse{UpdatedAt: at})
}

// reindex rebuilds the node label index. Failures are logged; the graph is
// already stored.
func (s *Server) reindex(ctx context.Context, u document.Update) int {
	g, err := document.UnmarshalGraph([]byte(u.Graph))
	if err != nil {
		s.logger.Warn("index nodes", "graph", u.ID, "err", err)
		return 0
	}
	labels := IndexNodes(u.AlgorithmID, g)
	if err := s.repo.ReplaceNodes(ctx, u.AlgorithmID, labels); err != nil {
		s.logger.Warn("index nodes", "algorithm", u.AlgorithmID, "err", err)
	}
	return len(labels)
}

func (s *Server) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.token != "" {
			got, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || subtle.ConstantTimeCompare([]byte(got), []byte(s.token)) != 1 {
				writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "unauthorized"})
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// decode reads and validates a JSON body, writing a 400 on failure.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err := dec.Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body: " + err.Error()})
		return false
	}
	if err := s.validate.Struct(v); err != nil {
		resp := errorResponse{Error: "validation failed"}
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				resp.Details = append(resp.Details, fe.Field()+": "+fe.Tag())
			}
		}
		writeJSON(w, http.StatusBadRequest, resp)
		return false
	}
	return true
}

func (s *Server) writeRepoError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not found"})
	case errors.Is(err, context.Canceled):
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "request cancelled"})
	default:
		s.logger.Error("repository", "err", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
