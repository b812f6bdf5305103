package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/w-h-a/reasoningbank/internal/service/engine"
	"github.com/w-h-a/reasoningbank/memory"
	"github.com/w-h-a/reasoningbank/server"
	toolhandler "github.com/w-h-a/reasoningbank/tool_handler"
	memorytools "github.com/w-h-a/reasoningbank/tool_handler/memory_tools"
	"github.com/w-h-a/reasoningbank/task"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const maxBodyBytes = 4 << 20

type httpServer struct {
	options server.Options
	tools   map[string]toolhandler.ToolHandler
	specs   []toolhandler.ToolSpec
	handler http.Handler
}

func (s *httpServer) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.options.Address,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)

	go func() {
		slog.InfoContext(ctx, "http server listening", "address", s.options.Address)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.options.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.ErrorContext(ctx, "failed to shut down http server", "error", err)
		return err
	}

	return nil
}

func (s *httpServer) routes() http.Handler {
	router := mux.NewRouter()

	router.HandleFunc("/healthz", s.health).Methods(http.MethodGet)

	api := router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/tools", s.listTools).Methods(http.MethodGet)
	api.HandleFunc("/tools/{name}", s.callTool).Methods(http.MethodPost)
	api.HandleFunc("/memories/retrieve", s.bodyTool(memorytools.RetrieveMemory)).Methods(http.MethodPost)
	api.HandleFunc("/memories/extract", s.bodyTool(memorytools.ExtractMemory)).Methods(http.MethodPost)
	api.HandleFunc("/tasks/{id}", s.taskStatus).Methods(http.MethodGet)
	api.HandleFunc("/stats", s.stats).Methods(http.MethodGet)

	var h http.Handler = router

	if ms, ok := MiddlewareFrom(s.options.Context); ok {
		for i := len(ms) - 1; i >= 0; i-- {
			h = ms[i](h)
		}
	}

	return otelhttp.NewHandler(h, s.options.Name)
}

func (s *httpServer) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (s *httpServer) listTools(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"version": s.options.Version,
		"tools":   s.specs,
	})
}

func (s *httpServer) callTool(w http.ResponseWriter, r *http.Request) {
	s.invokeFromBody(w, r, mux.Vars(r)["name"])
}

func (s *httpServer) bodyTool(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.invokeFromBody(w, r, name)
	}
}

func (s *httpServer) taskStatus(w http.ResponseWriter, r *http.Request) {
	s.invoke(w, r, memorytools.GetTaskStatus, map[string]any{"task_id": mux.Vars(r)["id"]})
}

func (s *httpServer) stats(w http.ResponseWriter, r *http.Request) {
	args := map[string]any{}

	if agentId := r.URL.Query().Get("agent_id"); len(agentId) > 0 {
		args["agent_id"] = agentId
	}

	if raw := r.URL.Query().Get("all"); len(raw) > 0 {
		all, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "query parameter 'all' must be a boolean")
			return
		}
		args["all"] = all
	}

	s.invoke(w, r, memorytools.MemoryStats, args)
}

func (s *httpServer) invokeFromBody(w http.ResponseWriter, r *http.Request, name string) {
	defer r.Body.Close()

	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		if maxErr := new(http.MaxBytesError); errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "body exceeds "+strconv.FormatInt(maxErr.Limit, 10)+" bytes")
			return
		}
		writeError(w, http.StatusBadRequest, "failed to read body")
		return
	}

	args := map[string]any{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &args); err != nil {
			writeError(w, http.StatusBadRequest, "body must be a JSON object")
			return
		}
	}

	s.invoke(w, r, name, args)
}

func (s *httpServer) invoke(w http.ResponseWriter, r *http.Request, name string, args map[string]any) {
	th, ok := s.tools[name]
	if !ok {
		writeError(w, http.StatusNotFound, "unknown tool: "+name)
		return
	}

	rsp, err := th.Invoke(r.Context(), toolhandler.ToolRequest{Arguments: args})

	code := statusCode(err)
	if err == nil && name == memorytools.ExtractMemory && isProcessing(rsp.Content) {
		code = http.StatusAccepted
	}

	if len(rsp.Content) == 0 {
		if err != nil {
			writeError(w, code, err.Error())
			return
		}
		w.WriteHeader(code)
		return
	}

	if err != nil && code >= http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "tool call failed", "tool", name, "error", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	io.WriteString(w, rsp.Content)
}

func statusCode(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, memory.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, task.ErrTaskNotFound), errors.Is(err, memory.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, memory.ErrDuplicateId):
		return http.StatusConflict
	case errors.Is(err, engine.ErrQueueFull):
		return http.StatusServiceUnavailable
	case errors.Is(err, memory.ErrCapability):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func isProcessing(content string) bool {
	var doc struct {
		Status string `json:"status"`
	}
	return json.Unmarshal([]byte(content), &doc) == nil && doc.Status == engine.StatusProcessing
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, map[string]any{
		"status":  engine.StatusError,
		"message": message,
	})
}

func NewServer(opts ...server.Option) server.Server {
	options := server.NewOptions(opts...)

	s := &httpServer{
		options: options,
		tools:   map[string]toolhandler.ToolHandler{},
	}

	for _, th := range options.ToolHandlers {
		spec := th.Spec()
		s.tools[spec.Name] = th
		s.specs = append(s.specs, spec)
	}

	s.handler = s.routes()

	return s
}
