// Package server serves workflow statuses, timelines and the dashboard page
// over HTTP.
package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/deepnoodle-ai/statusview"
	"github.com/goccy/go-json"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// SessionCookie is the cookie binding a browser to a dashboard session.
const SessionCookie = "statusview_session"

// Options configures a Server.
type Options struct {
	Store     statusview.StatusStore
	Renderer  statusview.Renderer
	Sessions  *statusview.Sessions
	Logger    *slog.Logger
	RenderLog statusview.RenderLogger
	Location  *time.Location
	// SessionIdle is how long an untouched session is kept. Zero keeps
	// sessions until the server stops.
	SessionIdle time.Duration
	// ProcessAlive decides whether a running status still has a live
	// process. Defaults to statusview.ProcessAlive.
	ProcessAlive func(pid int) bool
}

// Server is the dashboard HTTP server.
type Server struct {
	store       statusview.StatusStore
	renderer    statusview.Renderer
	sessions    *statusview.Sessions
	logger      *slog.Logger
	renderLog   statusview.RenderLogger
	location    *time.Location
	sessionIdle time.Duration
	alive       func(pid int) bool
	fetches     singleflight.Group
	mux         *http.ServeMux

	mutex    sync.Mutex
	diagrams map[string]*statusview.Diagram
}

// New returns a server for opts.
func New(opts Options) (*Server, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if opts.Renderer == nil {
		return nil, fmt.Errorf("renderer is required")
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Sessions == nil {
		opts.Sessions = statusview.NewSessions(opts.Location)
	}
	if opts.Logger == nil {
		opts.Logger = statusview.LoggerFrom(context.Background())
	}
	if opts.RenderLog == nil {
		opts.RenderLog = statusview.NewNullRenderLogger()
	}
	if opts.ProcessAlive == nil {
		opts.ProcessAlive = statusview.ProcessAlive
	}
	s := &Server{
		store:       opts.Store,
		renderer:    opts.Renderer,
		sessions:    opts.Sessions,
		logger:      opts.Logger,
		renderLog:   opts.RenderLog,
		location:    opts.Location,
		sessionIdle: opts.SessionIdle,
		alive:       opts.ProcessAlive,
		mux:         http.NewServeMux(),
		diagrams:    map[string]*statusview.Diagram{},
	}
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	s.mux.HandleFunc("GET /api/workflows", s.handleListWorkflows)
	s.mux.HandleFunc("GET /api/workflows/{name}/status", s.handleStatus)
	s.mux.HandleFunc("GET /api/workflows/{name}/timeline", s.handleTimeline)
	s.mux.HandleFunc("GET /api/diagrams/{id}/failures", s.handleRenderFailures)
	s.mux.HandleFunc("GET /workflows/{name}", s.handleWorkflowPage)
	return s, nil
}

// Handler returns the HTTP handler of the server.
func (s *Server) Handler() http.Handler {
	return s.logRequests(s.mux)
}

// Sessions returns the session registry used by the server.
func (s *Server) Sessions() *statusview.Sessions {
	return s.sessions
}

// ListenAndServe serves on addr until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return statusview.WithLogger(ctx, s.logger) },
	}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down: %w", err)
		}
		return nil
	})
	if s.sessionIdle > 0 {
		g.Go(func() error {
			s.expireSessions(gctx)
			return nil
		})
	}
	return g.Wait()
}

func (s *Server) expireSessions(ctx context.Context) {
	ticker := time.NewTicker(s.sessionIdle / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.sessions.Expire(s.sessionIdle); n > 0 {
				s.logger.Debug("expired sessions", "count", n)
			}
			s.dropClosedDiagrams()
		}
	}
}

func (s *Server) dropClosedDiagrams() {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	for id := range s.diagrams {
		if _, ok := s.sessions.Get(id); !ok {
			delete(s.diagrams, id)
		}
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r.WithContext(statusview.WithLogger(r.Context(), s.logger)))
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(started),
		)
	})
}

// fetch loads the workflow page data. Concurrent fetches of the same
// workflow share one store read. Load problems are reported in the response
// errors rather than returned.
func (s *Server) fetch(ctx context.Context, name string) *statusview.GetWorkflowResponse {
	v, _, _ := s.fetches.Do(name, func() (any, error) {
		resp := &statusview.GetWorkflowResponse{
			Title:    name,
			Workflow: &statusview.WorkflowStatus{Name: name},
			Errors:   []string{},
		}
		status, err := s.load(ctx, name)
		switch {
		case err != nil:
			s.logger.Error("failed to load status", "workflow", name, "error", err)
			resp.Workflow.Error = err.Error()
			resp.Errors = append(resp.Errors, err.Error())
		case status == nil:
			resp.Workflow.Error = statusview.ErrStatusNotFound.Error()
		default:
			resp.Workflow.Status = status
			resp.Errors = append(resp.Errors, statusview.ValidateTimeline(status)...)
		}
		return resp, nil
	})
	return v.(*statusview.GetWorkflowResponse)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Server) handleListWorkflows(w http.ResponseWriter, r *http.Request) {
	summaries, err := s.store.ListStatuses(r.Context())
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, r, summaries)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status, ok := s.loadStatus(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, r, status)
}

func (s *Server) handleTimeline(w http.ResponseWriter, r *http.Request) {
	status, ok := s.loadStatus(w, r)
	if !ok {
		return
	}
	graph, ok := statusview.BuildTimelineIn(status, s.location)
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(graph))
}

// load reads the latest status of a workflow, marking a run whose process
// has gone away as failed.
func (s *Server) load(ctx context.Context, name string) (*statusview.Status, error) {
	status, err := s.store.LoadStatus(ctx, name)
	if err != nil || status == nil {
		return status, err
	}
	if status.CorrectOrphanedStatus(s.alive) {
		s.logger.Warn("corrected status of orphaned run", "workflow", name, "request_id", status.RequestID, "pid", status.PID)
	}
	return status, nil
}

func (s *Server) handleRenderFailures(w http.ResponseWriter, r *http.Request) {
	entries, err := s.renderLog.RenderHistory(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, err)
		return
	}
	if entries == nil {
		entries = []*statusview.RenderLogEntry{}
	}
	s.writeJSON(w, r, entries)
}

func (s *Server) loadStatus(w http.ResponseWriter, r *http.Request) (*statusview.Status, bool) {
	name := r.PathValue("name")
	status, err := s.load(r.Context(), name)
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, err)
		return nil, false
	}
	if status == nil {
		s.writeError(w, r, http.StatusNotFound, fmt.Errorf("workflow %q: %w", name, statusview.ErrStatusNotFound))
		return nil, false
	}
	return status, true
}

// session returns the session named by the request cookie, opening a new one
// when the cookie is missing, stale or belongs to another workflow.
func (s *Server) session(w http.ResponseWriter, r *http.Request, name string) *statusview.Session {
	if cookie, err := r.Cookie(SessionCookie); err == nil {
		if session, ok := s.sessions.Get(cookie.Value); ok && session.Context().Name == name {
			session.Touch()
			return session
		}
	}
	session := s.sessions.Open(name)
	session.Update(func(wc *statusview.WorkflowContext) {
		wc.Refresh = func() {
			resp := s.fetch(context.Background(), name)
			session.Update(func(wc *statusview.WorkflowContext) { wc.Data = resp })
		}
	})
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    session.ID(),
		Path:     "/workflows/" + url.PathEscape(name),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return session
}

func (s *Server) diagram(session *statusview.Session) *statusview.Diagram {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	d, ok := s.diagrams[session.ID()]
	if !ok {
		d = statusview.NewDiagram(s.renderer, statusview.DiagramOptions{
			Logger:    s.logger,
			RenderLog: s.renderLog,
		})
		s.diagrams[session.ID()] = d
	}
	return d
}

func (s *Server) handleWorkflowPage(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	session := s.session(w, r, name)

	query := r.URL.Query()
	if value := query.Get("tab"); value != "" {
		tab, err := statusview.ParseWorkflowTab(value)
		if err != nil {
			s.writeError(w, r, http.StatusBadRequest, err)
			return
		}
		session.Update(func(wc *statusview.WorkflowContext) { wc.Tab = tab })
	}
	if query.Has("group") {
		group := query.Get("group")
		session.Update(func(wc *statusview.WorkflowContext) { wc.Group = group })
	}
	if session.Context().Data == nil || query.Get("refresh") == "1" {
		session.Refresh()
	}

	ctx := statusview.WithWorkflowContext(r.Context(), session.Context())
	page, err := s.renderPage(ctx, session)
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(page)
}

func (s *Server) renderPage(ctx context.Context, session *statusview.Session) ([]byte, error) {
	wc := statusview.WorkflowContextFrom(ctx)
	data := pageData{
		Title: wc.Name,
		Name:  wc.Name,
		Group: wc.Group,
		Tabs:  tabLinks(wc),
	}
	if wc.Data != nil {
		data.Title = wc.Data.Title
		banner, err := statusview.RenderConfigErrors(wc.Data.Errors)
		if err != nil {
			return nil, err
		}
		data.Banner = banner
	}
	if status := wc.Status(); status != nil {
		data.Status = status
		data.Summary = statusview.Summarize(status)
	}
	if wc.Tab == statusview.WorkflowTabStatus {
		if graph, ok := session.Timeline(); ok {
			d := s.diagram(session)
			d.Update(ctx, graph)
			html, err := d.HTML()
			if err != nil {
				return nil, err
			}
			data.Diagram = html
		}
	}

	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to render page: %w", err)
	}
	return buf.Bytes(), nil
}

var tabLabels = map[statusview.WorkflowTab]string{
	statusview.WorkflowTabStatus:       "Status",
	statusview.WorkflowTabConfig:       "Config",
	statusview.WorkflowTabHistory:      "History",
	statusview.WorkflowTabStepLog:      "Step Log",
	statusview.WorkflowTabSchedulerLog: "Scheduler Log",
}

func tabLinks(wc statusview.WorkflowContext) []tabLink {
	links := make([]tabLink, 0, len(tabLabels))
	for tab := statusview.WorkflowTabStatus; tab <= statusview.WorkflowTabSchedulerLog; tab++ {
		values := url.Values{"tab": {tab.String()}}
		if wc.Group != "" {
			values.Set("group", wc.Group)
		}
		links = append(links, tabLink{
			Label:  tabLabels[tab],
			Href:   "?" + values.Encode(),
			Active: tab == wc.Tab,
		})
	}
	return links
}

func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", "path", r.URL.Path, "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", r.URL.Path, "error", err)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
