// Model-backed editorial routes: chapter improvement, summaries, plot
// suggestions, and next-chapter ideas.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/yujiapingyu/novelgrok/internal/assembler"
	"github.com/yujiapingyu/novelgrok/internal/llm"
)

// handleImprove rewrites one chapter through the model.
func (s *Server) handleImprove(w http.ResponseWriter, r *http.Request, title string) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if !s.LLM.Enabled() {
		http.Error(w, "LLM not configured", http.StatusServiceUnavailable)
		return
	}

	var req struct {
		Chapter int    `json:"chapter"`
		Focus   string `json:"focus"`
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

	improved, err := llm.ImproveChapter(s.LLM, s.Asm.BuildImprovementContext(ch, p, req.Focus), req.Focus)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	p.UpdateChapter(ch.ChapterNumber, improved)

	if err := s.DB.SaveProject(p); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	slog.Info("chapter improved", "project", title, "chapter", ch.ChapterNumber, "focus", req.Focus)
	writeJSON(w, ch)
}

// handleSummarize stores a summary for one chapter. The rule-based
// summary is the default; "ai": true asks the model instead.
func (s *Server) handleSummarize(w http.ResponseWriter, r *http.Request, title string) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Chapter   int  `json:"chapter"`
		MaxLength int  `json:"max_length"`
		AI        bool `json:"ai"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if req.AI && !s.LLM.Enabled() {
		http.Error(w, "LLM not configured", http.StatusServiceUnavailable)
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

	var summary string
	if req.AI {
		var err error
		summary, err = llm.SummarizeChapter(s.LLM, p.Title, ch.Title, ch.Content, req.MaxLength)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
	} else {
		summary = s.Asm.ChapterSummary(ch, req.MaxLength)
	}
	ch.Summary = summary

	if err := s.DB.SaveProject(p); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]any{"chapter": ch.ChapterNumber, "summary": summary})
}

// handleSuggest returns plot development directions.
func (s *Server) handleSuggest(w http.ResponseWriter, r *http.Request, title string) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if !s.LLM.Enabled() {
		http.Error(w, "LLM not configured", http.StatusServiceUnavailable)
		return
	}

	var req struct {
		Count int `json:"count"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	p := s.loadProject(w, title)
	if p == nil {
		return
	}

	ctx := s.Asm.BuildWritingContext(p, assembler.DefaultRecentCount, assembler.DefaultSummaryCount)
	suggestions, err := llm.SuggestPlot(s.LLM, ctx, req.Count)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, map[string]any{"suggestions": suggestions})
}

// handleIdea returns a title and writing prompt for the next chapter.
func (s *Server) handleIdea(w http.ResponseWriter, r *http.Request, title string) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if !s.LLM.Enabled() {
		http.Error(w, "LLM not configured", http.StatusServiceUnavailable)
		return
	}

	p := s.loadProject(w, title)
	if p == nil {
		return
	}

	ctx := s.Asm.BuildWritingContext(p, assembler.DefaultRecentCount, assembler.DefaultSummaryCount)
	idea, err := llm.GenerateChapterIdea(s.LLM, ctx, len(p.Chapters)+1, p.Genre)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, idea)
}

// handleNetwork returns the full relationship graph for visualization.
func (s *Server) handleNetwork(w http.ResponseWriter, r *http.Request, title string) {
	p := s.loadProject(w, title)
	if p == nil {
		return
	}
	writeJSON(w, p.Tracker.RelationshipNetwork())
}
