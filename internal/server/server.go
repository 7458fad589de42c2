// Package server exposes the api.Service over HTTP/JSON for a desktop
// front-end. Every response body is an api.Result envelope; handlers answer
// 200 whenever the operation ran, and 400 only when the request itself
// could not be decoded.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/koustreak/s3nav/internal/api"
	"github.com/koustreak/s3nav/internal/browser"
	"github.com/koustreak/s3nav/internal/errs"
	"github.com/koustreak/s3nav/internal/logger"
	"github.com/koustreak/s3nav/internal/objpath"
)

// Config controls the listener and CORS policy.
type Config struct {
	Addr           string
	AllowedOrigins []string
}

// Server serves the JSON API.
type Server struct {
	cfg  Config
	svc  *api.Service
	log  *logger.Logger
	http *http.Server
}

// New builds a Server. It does not start listening.
func New(cfg Config, svc *api.Service, log *logger.Logger) *Server {
	if log == nil {
		log = logger.Nop()
	}
	s := &Server{cfg: cfg, svc: svc, log: log.Component("server")}
	s.http = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Router returns the chi router with every route mounted under /api.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	if len(s.cfg.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: s.cfg.AllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			MaxAge:         300,
		}))
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, api.OK("ok"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/profiles", s.handleListProfiles)
		r.Get("/profiles/active", s.handleActiveProfile)
		r.Put("/profiles/active", s.handleSetActiveProfile)
		r.Delete("/profiles/active", s.handleClearActiveProfile)
		r.Get("/profiles/{name}/validate", s.handleValidateProfile)

		r.Get("/whoami", s.handleWhoAmI)
		r.Get("/parse", s.handleParse)
		r.Post("/copy", s.handleCopy)

		r.Get("/buckets", s.handleListBuckets)
		r.Route("/buckets/{bucket}", func(r chi.Router) {
			r.Get("/objects", s.handleListObjects)
			r.Get("/objects/all", s.handleListAllObjects)
			r.Delete("/prefix", s.handleDeletePrefix)
			r.Post("/delete", s.handleDeleteFiles)
			r.Post("/rename", s.handleRename)
			r.Post("/folders", s.handleCreateFolder)
			r.Post("/upload", s.handleUpload)
			r.Post("/download", s.handleDownload)
			r.Get("/metadata", s.handleMetadata)
			r.Get("/text", s.handleReadText)
			r.Put("/text", s.handleWriteText)
		})
	})

	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.With().Str("addr", s.cfg.Addr).Logger().Info("listening")
		errCh <- s.http.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		s.log.Info("shutting down")
		return s.http.Shutdown(shutdownCtx)
	}
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		reqLog := s.log.With().Str("request_id", middleware.GetReqID(r.Context())).Logger()
		next.ServeHTTP(ww, r.WithContext(reqLog.WithContext(r.Context())))
		reqLog.Request().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

// --- helpers ---

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, api.Fail[api.Empty](errs.New(errs.ErrKindInvalidInput, msg)))
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		logger.FromContext(r.Context()).DebugWith("undecodable body", map[string]interface{}{"path": r.URL.Path, "error": err.Error()})
		badRequest(w, "invalid request body: "+err.Error())
		return false
	}
	return true
}

func listOptions(r *http.Request) (browser.ListOptions, error) {
	q := r.URL.Query()
	opts := browser.ListOptions{
		Prefix:            q.Get("prefix"),
		Delimiter:         q.Get("delimiter"),
		ContinuationToken: q.Get("token"),
	}
	if v := q.Get("maxKeys"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return opts, errors.New("maxKeys must be an integer")
		}
		opts.MaxKeys = n
	}
	if v := q.Get("recursive"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return opts, errors.New("recursive must be a boolean")
		}
		opts.Recursive = b
	}
	return opts, nil
}

// --- profiles ---

func (s *Server) handleListProfiles(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.ListProfiles())
}

func (s *Server) handleActiveProfile(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.ActiveProfile())
}

type setActiveRequest struct {
	Name string `json:"name"`
}

func (s *Server) handleSetActiveProfile(w http.ResponseWriter, r *http.Request) {
	var req setActiveRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Name == "" {
		badRequest(w, "name is required")
		return
	}
	writeJSON(w, http.StatusOK, s.svc.SetActiveProfile(req.Name))
}

func (s *Server) handleClearActiveProfile(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.ClearActiveProfile())
}

func (s *Server) handleValidateProfile(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.ValidateProfile(chi.URLParam(r, "name")))
}

// --- misc ---

func (s *Server) handleWhoAmI(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.WhoAmI(r.Context()))
}

func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.ParseURL(r.URL.Query().Get("url")))
}

type copyRequest struct {
	Source      objpath.Location `json:"source"`
	Destination objpath.Location `json:"destination"`
}

func (s *Server) handleCopy(w http.ResponseWriter, r *http.Request) {
	var req copyRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Source.Bucket == "" || req.Source.Key == "" || req.Destination.Bucket == "" || req.Destination.Key == "" {
		badRequest(w, "source and destination need a bucket and a key")
		return
	}
	writeJSON(w, http.StatusOK, s.svc.CopyFile(r.Context(), req.Source, req.Destination))
}

// --- buckets ---

func (s *Server) handleListBuckets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.ListBuckets(r.Context()))
}

func (s *Server) handleListObjects(w http.ResponseWriter, r *http.Request) {
	opts, err := listOptions(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.svc.ListObjects(r.Context(), chi.URLParam(r, "bucket"), opts))
}

func (s *Server) handleListAllObjects(w http.ResponseWriter, r *http.Request) {
	opts, err := listOptions(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.svc.ListAllObjects(r.Context(), chi.URLParam(r, "bucket"), opts))
}

func (s *Server) handleDeletePrefix(w http.ResponseWriter, r *http.Request) {
	prefix := r.URL.Query().Get("prefix")
	if prefix == "" {
		badRequest(w, "prefix is required")
		return
	}
	writeJSON(w, http.StatusOK, s.svc.DeletePrefix(r.Context(), chi.URLParam(r, "bucket"), prefix, nil))
}

type deleteFilesRequest struct {
	Keys []string `json:"keys"`
}

func (s *Server) handleDeleteFiles(w http.ResponseWriter, r *http.Request) {
	var req deleteFilesRequest
	if !decode(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, s.svc.DeleteFiles(r.Context(), chi.URLParam(r, "bucket"), req.Keys))
}

type renameRequest struct {
	From string `json:"from"`
	To   string `json:"to"`
}

func (s *Server) handleRename(w http.ResponseWriter, r *http.Request) {
	var req renameRequest
	if !decode(w, r, &req) {
		return
	}
	if req.From == "" || req.To == "" {
		badRequest(w, "from and to are required")
		return
	}
	writeJSON(w, http.StatusOK, s.svc.RenameFile(r.Context(), chi.URLParam(r, "bucket"), req.From, req.To))
}

type folderRequest struct {
	Prefix string `json:"prefix"`
}

func (s *Server) handleCreateFolder(w http.ResponseWriter, r *http.Request) {
	var req folderRequest
	if !decode(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, s.svc.CreateFolder(r.Context(), chi.URLParam(r, "bucket"), req.Prefix))
}

type uploadRequest struct {
	Prefix string   `json:"prefix"`
	Paths  []string `json:"paths"`
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	var req uploadRequest
	if !decode(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, s.svc.UploadFiles(r.Context(), chi.URLParam(r, "bucket"), req.Prefix, req.Paths, nil))
}

type downloadRequest struct {
	Key  string `json:"key"`
	Dest string `json:"dest"`
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	var req downloadRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Key == "" || req.Dest == "" {
		badRequest(w, "key and dest are required")
		return
	}
	writeJSON(w, http.StatusOK, s.svc.DownloadFile(r.Context(), chi.URLParam(r, "bucket"), req.Key, req.Dest))
}

func (s *Server) handleMetadata(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.Metadata(r.Context(), chi.URLParam(r, "bucket"), r.URL.Query().Get("key")))
}

func (s *Server) handleReadText(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.ReadText(r.Context(), chi.URLParam(r, "bucket"), r.URL.Query().Get("key")))
}

type writeTextRequest struct {
	Content string `json:"content"`
}

func (s *Server) handleWriteText(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("key")
	if key == "" {
		badRequest(w, "key is required")
		return
	}
	var req writeTextRequest
	if !decode(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, s.svc.WriteText(r.Context(), chi.URLParam(r, "bucket"), key, req.Content))
}
