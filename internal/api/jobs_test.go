package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newJobServer(jobs ...*Job) *Server {
	s := &Server{jobs: make(map[string]*Job)}
	for _, j := range jobs {
		s.jobs[j.ID] = j
	}
	return s
}

func pollJob(t *testing.T, s *Server, id string) (Job, int) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/job/"+id, nil)
	rec := httptest.NewRecorder()
	s.handleJob(rec, req)
	var job Job
	if rec.Code == http.StatusOK {
		if err := json.Unmarshal(rec.Body.Bytes(), &job); err != nil {
			t.Fatalf("decode job: %v", err)
		}
	}
	return job, rec.Code
}

func TestHandleJob_NotFound(t *testing.T) {
	s := newJobServer()
	if _, code := pollJob(t, s, "nope"); code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", code)
	}
}

func TestJobSnapshot_CopyIsolation(t *testing.T) {
	s := newJobServer(&Job{ID: "j1", Project: "星海纪元", Status: JobPending, CreatedAt: time.Now()})

	snap, ok := s.jobSnapshot("j1")
	if !ok {
		t.Fatal("job should exist")
	}
	s.updateJob("j1", func(j *Job) {
		j.Status = JobDone
		j.ChapterTitle = "风暴之夜"
	})

	if snap.Status != JobPending || snap.ChapterTitle != "" {
		t.Errorf("snapshot changed after update: status %q title %q", snap.Status, snap.ChapterTitle)
	}
	if cur, _ := s.jobSnapshot("j1"); cur.Status != JobDone {
		t.Errorf("stored job status = %q, want %q", cur.Status, JobDone)
	}
}

// Status polls must not observe partial writes from the generation
// goroutine; every poll decodes a consistent job document.
func TestHandleJob_ConcurrentStatusPolls(t *testing.T) {
	s := newJobServer(&Job{ID: "j1", Project: "星海纪元", Status: JobPending, CreatedAt: time.Now()})

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 1; i <= 200; i++ {
			s.updateJob("j1", func(j *Job) {
				j.Status = JobRunning
				j.ChapterNumber = i
				j.ChapterTitle = fmt.Sprintf("第%d章", i)
			})
		}
		s.updateJob("j1", func(j *Job) { j.Status = JobDone })
	}()

	for i := 0; i < 100; i++ {
		job, code := pollJob(t, s, "j1")
		if code != http.StatusOK {
			t.Fatalf("poll %d: status = %d", i, code)
		}
		if job.ID != "j1" || job.Project != "星海纪元" {
			t.Fatalf("poll %d: inconsistent job %+v", i, job)
		}
	}
	<-done

	job, _ := pollJob(t, s, "j1")
	if job.Status != JobDone {
		t.Errorf("final status = %q, want %q", job.Status, JobDone)
	}
}

func TestPutJob_DropsStaleFinishedJobs(t *testing.T) {
	old := time.Now().Add(-48 * time.Hour)
	s := newJobServer(
		&Job{ID: "done-old", Status: JobDone, CreatedAt: old},
		&Job{ID: "failed-old", Status: JobFailed, CreatedAt: old},
		&Job{ID: "running-old", Status: JobRunning, CreatedAt: old},
	)

	s.putJob(&Job{ID: "new", Status: JobPending, CreatedAt: time.Now()})

	for _, id := range []string{"done-old", "failed-old"} {
		if _, ok := s.jobSnapshot(id); ok {
			t.Errorf("stale finished job %q should be dropped", id)
		}
	}
	for _, id := range []string{"running-old", "new"} {
		if _, ok := s.jobSnapshot(id); !ok {
			t.Errorf("job %q should survive cleanup", id)
		}
	}
}
