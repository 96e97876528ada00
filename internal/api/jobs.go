// Async chapter generation. Generation takes minutes against the
// model, so POST /generate returns a job id immediately and the work
// runs in the background under the project lock.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yujiapingyu/novelgrok/internal/novel"
	"github.com/yujiapingyu/novelgrok/internal/workflow"
)

// Job states.
const (
	JobPending = "pending"
	JobRunning = "running"
	JobDone    = "done"
	JobFailed  = "failed"
)

// Job tracks one background generation request.
type Job struct {
	ID            string    `json:"id"`
	Project       string    `json:"project"`
	Status        string    `json:"status"`
	ChapterNumber int       `json:"chapter_number,omitempty"`
	ChapterTitle  string    `json:"chapter_title,omitempty"`
	Error         string    `json:"error,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

func (s *Server) putJob(job *Job) {
	s.jobsMu.Lock()
	defer s.jobsMu.Unlock()
	s.jobs[job.ID] = job

	// Drop finished jobs older than a day.
	cutoff := time.Now().Add(-24 * time.Hour)
	for id, j := range s.jobs {
		if (j.Status == JobDone || j.Status == JobFailed) && j.CreatedAt.Before(cutoff) {
			delete(s.jobs, id)
		}
	}
}

func (s *Server) updateJob(id string, update func(*Job)) {
	s.jobsMu.Lock()
	defer s.jobsMu.Unlock()
	if job, ok := s.jobs[id]; ok {
		update(job)
	}
}

// jobSnapshot returns a copy of a job. Handlers encode the copy so the
// generation goroutine can keep mutating the stored job under the lock.
func (s *Server) jobSnapshot(id string) (Job, bool) {
	s.jobsMu.Lock()
	defer s.jobsMu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return Job{}, false
	}
	return *job, true
}

// handleGenerate starts a background chapter generation and returns
// the job id.
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request, title string) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if !s.LLM.Enabled() {
		http.Error(w, "LLM not configured (set XAI_API_KEY)", http.StatusServiceUnavailable)
		return
	}

	var req struct {
		Title         string `json:"title"`
		WritingPrompt string `json:"writing_prompt"`
		TargetLength  int    `json:"target_length"`
		Track         bool   `json:"track"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	// Fail fast if the project is missing before queueing work.
	if p := s.loadProject(w, title); p == nil {
		return
	}

	job := &Job{
		ID:        uuid.NewString(),
		Project:   title,
		Status:    JobPending,
		CreatedAt: time.Now(),
	}
	s.putJob(job)
	accepted := *job

	go s.runGeneration(job.ID, title, req.Title, req.WritingPrompt, req.TargetLength, req.Track)

	w.WriteHeader(http.StatusAccepted)
	writeJSON(w, accepted)
}

func (s *Server) runGeneration(jobID, project, chapterTitle, writingPrompt string, targetLength int, track bool) {
	lock := s.projectLock(project)
	lock.Lock()
	defer lock.Unlock()

	s.updateJob(jobID, func(j *Job) { j.Status = JobRunning })

	p, err := s.DB.LoadProject(project)
	if err != nil {
		s.failJob(jobID, err)
		return
	}

	ch, err := workflow.GenerateChapter(s.LLM, s.Asm, p, chapterTitle, writingPrompt, targetLength)
	if err != nil {
		s.failJob(jobID, err)
		return
	}

	if track {
		// A tracking failure does not lose the chapter.
		if _, err := s.track(p, ch); err != nil {
			slog.Warn("tracking failed after generation", "project", project, "chapter", ch.ChapterNumber, "error", err)
		}
	}

	if err := s.DB.SaveProject(p); err != nil {
		s.failJob(jobID, err)
		return
	}

	s.updateJob(jobID, func(j *Job) {
		j.Status = JobDone
		j.ChapterNumber = ch.ChapterNumber
		j.ChapterTitle = ch.Title
	})
	slog.Info("generation job done", "job", jobID, "project", project, "chapter", ch.ChapterNumber)
}

func (s *Server) failJob(id string, err error) {
	s.updateJob(id, func(j *Job) {
		j.Status = JobFailed
		j.Error = err.Error()
	})
	slog.Error("generation job failed", "job", id, "error", err)
}

// track runs the analysis pass for a chapter.
func (s *Server) track(p *novel.Project, ch *novel.Chapter) (*workflow.TrackResult, error) {
	return workflow.AutoTrack(s.LLM, p, ch)
}

// handleJob reports the state of a generation job.
func (s *Server) handleJob(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/v1/job/")
	if id == "" {
		http.Error(w, "missing job id", http.StatusBadRequest)
		return
	}

	job, ok := s.jobSnapshot(id)
	if !ok {
		http.Error(w, "job not found", http.StatusNotFound)
		return
	}
	writeJSON(w, job)
}
