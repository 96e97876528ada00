// Package api provides the HTTP API for novel projects.
// GET endpoints are public (read-only observation).
// POST endpoints require a bearer token (admin control plane).
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/yujiapingyu/novelgrok/internal/assembler"
	"github.com/yujiapingyu/novelgrok/internal/llm"
	"github.com/yujiapingyu/novelgrok/internal/novel"
	"github.com/yujiapingyu/novelgrok/internal/persistence"
)

// Server serves novel projects over HTTP.
type Server struct {
	DB       *persistence.DB
	LLM      *llm.Client
	Asm      *assembler.Assembler
	Port     int
	AdminKey string // Bearer token for POST endpoints. Empty = POST disabled.

	// Per-project write locks, keyed by title.
	locksMu sync.Mutex
	locks   map[string]*sync.Mutex

	// Async generation jobs, keyed by job id.
	jobsMu sync.Mutex
	jobs   map[string]*Job
}

// Start begins serving the HTTP API in a goroutine.
func (s *Server) Start() {
	s.locks = make(map[string]*sync.Mutex)
	s.jobs = make(map[string]*Job)

	// Generation burns model tokens; keep it scarce per client.
	generateLimiter := NewRateLimiter(20, time.Hour)

	mux := http.NewServeMux()

	// Public endpoints (GET, read-only).
	mux.HandleFunc("/api/v1/status", s.handleStatus)
	mux.HandleFunc("/api/v1/projects", s.adminOnly(s.handleProjects))
	mux.HandleFunc("/api/v1/project/", s.handleProjectRoutes(generateLimiter))
	mux.HandleFunc("/api/v1/job/", s.handleJob)

	addr := fmt.Sprintf(":%d", s.Port)
	slog.Info("HTTP API starting", "addr", addr, "admin_auth", s.AdminKey != "", "llm", s.LLM.Enabled())

	go func() {
		handler := corsMiddleware(mux)
		if err := http.ListenAndServe(addr, handler); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()
}

// projectLock returns the write lock for a project title.
func (s *Server) projectLock(title string) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	lock, ok := s.locks[title]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[title] = lock
	}
	return lock
}

// corsMiddleware adds CORS headers for allowed frontend origins.
// Set CORS_ORIGINS to a comma-separated list of allowed origins.
// Localhost dev servers are always allowed.
func corsMiddleware(next http.Handler) http.Handler {
	allowedOrigins := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:3000": true,
	}
	if env := os.Getenv("CORS_ORIGINS"); env != "" {
		for _, origin := range strings.Split(env, ",") {
			origin = strings.TrimSpace(origin)
			if origin != "" {
				allowedOrigins[origin] = true
			}
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// checkBearerToken returns true if the request has a valid admin bearer token.
func (s *Server) checkBearerToken(r *http.Request) bool {
	auth := r.Header.Get("Authorization")
	return strings.HasPrefix(auth, "Bearer ") && strings.TrimPrefix(auth, "Bearer ") == s.AdminKey
}

// adminOnly wraps a handler to require bearer token auth on POST requests.
// GET requests pass through (for endpoints that support both GET and POST).
func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			if s.AdminKey == "" {
				http.Error(w, "admin endpoints disabled (no NOVELGROK_ADMIN_KEY set)", http.StatusForbidden)
				return
			}

			if !s.checkBearerToken(r) {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
		}

		next(w, r)
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	infos, err := s.DB.ListProjects()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]any{
		"name":        "novelgrok",
		"projects":    len(infos),
		"llm_enabled": s.LLM.Enabled(),
		"model":       s.modelName(),
		"max_tokens":  s.Asm.MaxTokens(),
	})
}

func (s *Server) modelName() string {
	if !s.LLM.Enabled() {
		return ""
	}
	return s.LLM.Model()
}

// handleProjects lists projects on GET and creates one on POST.
func (s *Server) handleProjects(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		infos, err := s.DB.ListProjects()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, infos)

	case http.MethodPost:
		var req struct {
			Title          string `json:"title"`
			Genre          string `json:"genre"`
			Background     string `json:"background"`
			PlotOutline    string `json:"plot_outline"`
			WritingStyle   string `json:"writing_style"`
			TargetAudience string `json:"target_audience"`
			StoryGoal      string `json:"story_goal"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid JSON body", http.StatusBadRequest)
			return
		}
		if strings.TrimSpace(req.Title) == "" {
			http.Error(w, "title is required", http.StatusBadRequest)
			return
		}

		if _, err := s.DB.LoadProject(req.Title); err == nil {
			http.Error(w, "project already exists", http.StatusConflict)
			return
		}

		p := novel.NewProject(req.Title)
		p.Genre = req.Genre
		p.Background = req.Background
		p.PlotOutline = req.PlotOutline
		p.WritingStyle = req.WritingStyle
		p.TargetAudience = req.TargetAudience
		p.StoryGoal = req.StoryGoal

		if err := s.DB.SaveProject(p); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		slog.Info("project created", "title", p.Title)
		w.WriteHeader(http.StatusCreated)
		writeJSON(w, p.ProjectStatus())

	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleProjectRoutes dispatches /api/v1/project/{title}[/...] routes.
func (s *Server) handleProjectRoutes(generateLimiter *RateLimiter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		path := strings.TrimPrefix(r.URL.Path, "/api/v1/project/")
		title, rest, _ := strings.Cut(path, "/")
		if title == "" {
			http.Error(w, "missing project title", http.StatusBadRequest)
			return
		}

		switch rest {
		case "":
			s.handleProjectDetail(w, r, title)
		case "chapters":
			s.handleChapters(w, r, title)
		case "context":
			s.handleContext(w, r, title)
		case "characters":
			s.adminOnly(func(w http.ResponseWriter, r *http.Request) {
				s.handleCharacters(w, r, title)
			})(w, r)
		case "network":
			s.handleNetwork(w, r, title)
		case "delete":
			s.adminOnly(func(w http.ResponseWriter, r *http.Request) {
				s.handleDelete(w, r, title)
			})(w, r)
		case "generate":
			s.adminOnly(RateLimitMiddleware(generateLimiter, func(w http.ResponseWriter, r *http.Request) {
				s.handleGenerate(w, r, title)
			}))(w, r)
		case "improve":
			s.adminOnly(RateLimitMiddleware(generateLimiter, func(w http.ResponseWriter, r *http.Request) {
				s.handleImprove(w, r, title)
			}))(w, r)
		case "summarize":
			s.adminOnly(func(w http.ResponseWriter, r *http.Request) {
				s.handleSummarize(w, r, title)
			})(w, r)
		case "suggest":
			s.adminOnly(RateLimitMiddleware(generateLimiter, func(w http.ResponseWriter, r *http.Request) {
				s.handleSuggest(w, r, title)
			}))(w, r)
		case "idea":
			s.adminOnly(RateLimitMiddleware(generateLimiter, func(w http.ResponseWriter, r *http.Request) {
				s.handleIdea(w, r, title)
			}))(w, r)
		case "track":
			s.adminOnly(func(w http.ResponseWriter, r *http.Request) {
				s.handleTrack(w, r, title)
			})(w, r)
		case "import":
			s.adminOnly(func(w http.ResponseWriter, r *http.Request) {
				s.handleImport(w, r, title)
			})(w, r)
		case "merge":
			s.adminOnly(func(w http.ResponseWriter, r *http.Request) {
				s.handleMerge(w, r, title)
			})(w, r)
		case "rename":
			s.adminOnly(func(w http.ResponseWriter, r *http.Request) {
				s.handleRename(w, r, title)
			})(w, r)
		default:
			switch {
			case strings.HasPrefix(rest, "chapter/"):
				s.handleChapterDetail(w, r, title, strings.TrimPrefix(rest, "chapter/"))
			case strings.HasPrefix(rest, "character/"):
				s.handleCharacterRoutes(w, r, title, strings.TrimPrefix(rest, "character/"))
			default:
				http.Error(w, "not found", http.StatusNotFound)
			}
		}
	}
}

// loadProject fetches a project, writing the HTTP error on failure.
func (s *Server) loadProject(w http.ResponseWriter, title string) *novel.Project {
	p, err := s.DB.LoadProject(title)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
		} else {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return nil
	}
	return p
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}
