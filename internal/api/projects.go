// Project detail routes: chapters, context, characters, and the
// character tracking surface.
package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/yujiapingyu/novelgrok/internal/importer"
	"github.com/yujiapingyu/novelgrok/internal/novel"
	"github.com/yujiapingyu/novelgrok/internal/persistence"
	"github.com/yujiapingyu/novelgrok/internal/tracker"
)

func (s *Server) handleProjectDetail(w http.ResponseWriter, r *http.Request, title string) {
	p := s.loadProject(w, title)
	if p == nil {
		return
	}
	writeJSON(w, p.ProjectStatus())
}

func (s *Server) handleChapters(w http.ResponseWriter, r *http.Request, title string) {
	p := s.loadProject(w, title)
	if p == nil {
		return
	}

	type chapterSummary struct {
		ChapterNumber int    `json:"chapter_number"`
		Title         string `json:"title"`
		WordCount     int    `json:"word_count"`
		Summary       string `json:"summary,omitempty"`
	}

	result := make([]chapterSummary, len(p.Chapters))
	for i, ch := range p.Chapters {
		result[i] = chapterSummary{
			ChapterNumber: ch.ChapterNumber,
			Title:         ch.Title,
			WordCount:     ch.WordCount,
			Summary:       ch.Summary,
		}
	}
	writeJSON(w, result)
}

func (s *Server) handleChapterDetail(w http.ResponseWriter, r *http.Request, title, numberStr string) {
	p := s.loadProject(w, title)
	if p == nil {
		return
	}

	number, err := strconv.Atoi(numberStr)
	if err != nil {
		http.Error(w, "invalid chapter number", http.StatusBadRequest)
		return
	}
	ch := p.Chapter(number)
	if ch == nil {
		http.Error(w, "chapter not found", http.StatusNotFound)
		return
	}
	writeJSON(w, ch)
}

// handleContext reports the assembled writing context and its token
// budget breakdown.
func (s *Server) handleContext(w http.ResponseWriter, r *http.Request, title string) {
	p := s.loadProject(w, title)
	if p == nil {
		return
	}

	writeJSON(w, map[string]any{
		"usage":   s.Asm.AnalyzeUsage(p),
		"preview": s.Asm.ContextPreview(p, 500),
	})
}

// handleCharacters lists the roster on GET and adds a character on POST.
func (s *Server) handleCharacters(w http.ResponseWriter, r *http.Request, title string) {
	switch r.Method {
	case http.MethodGet:
		p := s.loadProject(w, title)
		if p == nil {
			return
		}
		writeJSON(w, p.Characters)

	case http.MethodPost:
		lock := s.projectLock(title)
		lock.Lock()
		defer lock.Unlock()

		p := s.loadProject(w, title)
		if p == nil {
			return
		}

		var req struct {
			Name        string `json:"name"`
			Description string `json:"description"`
			Personality string `json:"personality"`
			Background  string `json:"background"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid JSON body", http.StatusBadRequest)
			return
		}
		if strings.TrimSpace(req.Name) == "" {
			http.Error(w, "name is required", http.StatusBadRequest)
			return
		}
		if p.Character(req.Name) != nil {
			http.Error(w, "character already exists", http.StatusConflict)
			return
		}

		c := novel.NewCharacterProfile(req.Name, req.Description, req.Personality)
		c.Background = req.Background
		p.AddCharacter(c)

		if err := s.DB.SaveProject(p); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusCreated)
		writeJSON(w, c)

	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleCharacterRoutes dispatches /character/{name}/{view} reads.
func (s *Server) handleCharacterRoutes(w http.ResponseWriter, r *http.Request, title, rest string) {
	name, view, _ := strings.Cut(rest, "/")
	if name == "" {
		http.Error(w, "missing character name", http.StatusBadRequest)
		return
	}

	p := s.loadProject(w, title)
	if p == nil {
		return
	}
	name = p.CanonicalName(name)

	switch view {
	case "timeline":
		writeJSON(w, p.Tracker.Timeline(name))
	case "growth":
		writeJSON(w, p.Tracker.AnalyzeGrowth(name))
	case "relationships":
		writeJSON(w, p.Tracker.Relationships(name))
	case "experiences":
		filter := tracker.ExperienceFilter{EventType: r.URL.Query().Get("event_type")}
		writeJSON(w, p.Tracker.Experiences(name, filter))
	case "traits":
		writeJSON(w, map[string]any{
			"traits":    p.Tracker.PersonalityTraits(name),
			"evolution": p.Tracker.PersonalityEvolutionLog(name),
		})
	default:
		http.Error(w, "not found", http.StatusNotFound)
	}
}

// handleDelete removes a project.
func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request, title string) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	lock := s.projectLock(title)
	lock.Lock()
	defer lock.Unlock()

	if err := s.DB.DeleteProject(title); err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
		} else {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}
	writeJSON(w, map[string]string{"deleted": title})
}

// handleTrack reruns the tracking pass for one chapter.
func (s *Server) handleTrack(w http.ResponseWriter, r *http.Request, title string) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Chapter int `json:"chapter"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	lock := s.projectLock(title)
	lock.Lock()
	defer lock.Unlock()

	p := s.loadProject(w, title)
	if p == nil {
		return
	}
	ch := p.Chapter(req.Chapter)
	if ch == nil {
		http.Error(w, "chapter not found", http.StatusNotFound)
		return
	}

	result, err := s.track(p, ch)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	if err := s.DB.SaveProject(p); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, result)
}

// handleImport splits raw novel text into chapters and appends them.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request, title string) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, 2*importer.DefaultMaxFileSize))
	if err != nil {
		http.Error(w, "read body: "+err.Error(), http.StatusBadRequest)
		return
	}

	im := importer.New(importer.DefaultMaxFileSize)
	chapters, err := im.Import(string(body))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	lock := s.projectLock(title)
	lock.Lock()
	defer lock.Unlock()

	p := s.loadProject(w, title)
	if p == nil {
		return
	}
	for _, imp := range chapters {
		p.AddChapter(novel.NewChapter(imp.Title, imp.Content))
	}
	if err := s.DB.SaveProject(p); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	slog.Info("chapters imported", "project", title, "chapters", len(chapters))
	writeJSON(w, importer.Summarize(chapters))
}

// handleMerge folds one character's records into another.
func (s *Server) handleMerge(w http.ResponseWriter, r *http.Request, title string) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Source string `json:"source"`
		Target string `json:"target"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if req.Source == "" || req.Target == "" || req.Source == req.Target {
		http.Error(w, "source and target must be distinct non-empty names", http.StatusBadRequest)
		return
	}

	lock := s.projectLock(title)
	lock.Lock()
	defer lock.Unlock()

	p := s.loadProject(w, title)
	if p == nil {
		return
	}

	p.Tracker.MergeCharacters(req.Source, req.Target)
	p.RemoveCharacter(req.Source)

	if err := s.DB.SaveProject(p); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	slog.Info("characters merged", "project", title, "source", req.Source, "target", req.Target)
	writeJSON(w, map[string]string{"merged": req.Source, "into": req.Target})
}

// handleRename moves a character's records to a new name.
func (s *Server) handleRename(w http.ResponseWriter, r *http.Request, title string) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Old string `json:"old"`
		New string `json:"new"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if req.Old == "" || req.New == "" || req.Old == req.New {
		http.Error(w, "old and new names must be distinct", http.StatusBadRequest)
		return
	}

	lock := s.projectLock(title)
	lock.Lock()
	defer lock.Unlock()

	p := s.loadProject(w, title)
	if p == nil {
		return
	}

	p.Tracker.RenameCharacter(req.Old, req.New)
	if c := p.Character(req.Old); c != nil {
		c.Name = req.New
	}

	if err := s.DB.SaveProject(p); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	slog.Info("character renamed", "project", title, "old", req.Old, "new", req.New)
	writeJSON(w, map[string]string{"old": req.Old, "new": req.New})
}
