package cli

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/depscope/depscope/pkg/engine"
	"github.com/depscope/depscope/pkg/errors"
)

// serveCommand creates the serve command exposing one analysis over HTTP.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		opts analyzeOpts
		addr string
		topN int
	)

	cmd := &cobra.Command{
		Use:   "serve <root>",
		Short: "Expose the analysis of a source tree over an HTTP API",
		Long: `Serve analyzes the tree once at startup and serves the result.

Endpoints:
  GET /healthz
  GET /graph
  GET /cycles
  GET /centrality
  GET /summary
  GET /nodes/{id}/dependencies[?transitive=true]
  GET /nodes/{id}/dependents[?transitive=true]
  GET /export/{format}`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, res, err := opts.run(c, cmd, args[0])
			if err != nil {
				return err
			}

			srv := newServer(eng, res, topN)
			c.Logger.Info("serving analysis", "addr", addr, "run", srv.runID, "artifacts", res.Graph.NodeCount())

			httpSrv := &http.Server{
				Addr:              addr,
				Handler:           srv.routes(),
				ReadHeaderTimeout: 5 * time.Second,
			}
			go func() {
				<-cmd.Context().Done()
				_ = httpSrv.Close()
			}()
			err = httpSrv.ListenAndServe()
			if err == http.ErrServerClosed || cmd.Context().Err() != nil {
				return nil
			}
			return err
		},
	}

	opts.registerFlags(cmd)
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8080", "listen address")
	cmd.Flags().IntVar(&topN, "top", 5, "central artifacts in the summary")
	return cmd
}

// server holds the analyzed snapshot served by the HTTP API. The result
// is immutable, so handlers need no locking.
type server struct {
	eng   *engine.Engine
	res   *engine.Result
	topN  int
	runID string
}

func newServer(eng *engine.Engine, res *engine.Result, topN int) *server {
	return &server{eng: eng, res: res, topN: topN, runID: uuid.NewString()}
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.runHeader)

	r.Get("/healthz", s.handleHealth)
	r.Get("/graph", s.handleGraph)
	r.Get("/cycles", s.handleCycles)
	r.Get("/centrality", s.handleCentrality)
	r.Get("/summary", s.handleSummary)
	r.Get("/nodes/{id}/dependencies", s.handleNeighbors(s.eng.Dependencies))
	r.Get("/nodes/{id}/dependents", s.handleNeighbors(s.eng.Dependents))
	r.Get("/export/{format}", s.handleExport)
	return r
}

// runHeader tags every response with the analysis run ID so clients can
// detect restarts.
func (s *server) runHeader(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Depscope-Run", s.runID)
		next.ServeHTTP(w, r)
	})
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "run": s.runID})
}

func (s *server) handleGraph(w http.ResponseWriter, r *http.Request) {
	data, err := s.eng.Export(r.Context(), s.res, "json")
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(data)
}

func (s *server) handleCycles(w http.ResponseWriter, r *http.Request) {
	cycles := s.res.Analysis.Cycles
	if cycles == nil {
		cycles = [][]string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"cycles": cycles})
}

func (s *server) handleCentrality(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"centrality": s.res.Analysis.Centrality})
}

func (s *server) handleSummary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.eng.Summarize(s.res, s.topN))
}

func (s *server) handleNeighbors(lookup func(*engine.Result, string, bool) ([]string, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		transitive := r.URL.Query().Get("transitive") == "true"

		ids, err := lookup(s.res, id, transitive)
		if err != nil {
			writeError(w, err)
			return
		}
		if ids == nil {
			ids = []string{}
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"id":         id,
			"transitive": transitive,
			"artifacts":  ids,
		})
	}
}

func (s *server) handleExport(w http.ResponseWriter, r *http.Request) {
	format := chi.URLParam(r, "format")
	data, err := s.eng.Export(r.Context(), s.res, format)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", contentType(format))
	_, _ = w.Write(data)
}

func contentType(format string) string {
	switch format {
	case "json":
		return "application/json"
	case "svg":
		return "image/svg+xml"
	case "graphml":
		return "application/xml"
	default:
		return "text/plain; charset=utf-8"
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch errors.GetCode(err) {
	case errors.ErrCodeNodeNotFound:
		status = http.StatusNotFound
	case errors.ErrCodeInvalidFormat, errors.ErrCodeInvalidInput:
		status = http.StatusBadRequest
	}
	writeJSON(w, status, map[string]string{
		"error": errors.UserMessage(err),
		"code":  string(errors.GetCode(err)),
	})
}
