package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/nguyentantai21042004/meeting-flow/internal/logger"
	"github.com/nguyentantai21042004/meeting-flow/internal/pipeline"
	"github.com/nguyentantai21042004/meeting-flow/internal/store"
)

type fakeEnqueuer struct {
	jobs []pipeline.ContentJob
}

func (f *fakeEnqueuer) Push(job pipeline.ContentJob) {
	f.jobs = append(f.jobs, job)
}

func newTestHandler(t *testing.T) (*Handler, store.Store, *fakeEnqueuer) {
	t.Helper()
	st := store.NewMemory()
	t.Cleanup(func() { st.Close() })

	jobs := &fakeEnqueuer{}
	h := New(st, jobs, logger.New("error"))
	h.now = func() time.Time { return time.Unix(1700000000, 0) }
	return h, st, jobs
}

func serve(h *Handler, method, path, body string) *httptest.ResponseRecorder {
	mux := http.NewServeMux()
	h.Register(mux)

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestCreateMeeting(t *testing.T) {
	h, st, jobs := newTestHandler(t)

	body := `{
		"meeting_id": "m1",
		"current_activity": 0,
		"role": "facilitator",
		"setting": "standup",
		"activities": [
			{"title": "A", "description": "kickoff", "duration": 5},
			{"title": "B", "description": "retro", "duration": 10}
		]
	}`
	rec := serve(h, http.MethodPost, "/api/meetings", body)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusCreated, rec.Body.String())
	}

	got, err := st.Get(context.Background(), "m1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Role != "facilitator" || got.Setting != "standup" || len(got.Activities) != 2 {
		t.Errorf("stored meeting = %+v", got)
	}
	if got.StartTime != 1700000000 {
		t.Errorf("StartTime = %d, want 1700000000", got.StartTime)
	}

	if len(jobs.jobs) != 1 {
		t.Fatalf("enqueued jobs = %d, want 1", len(jobs.jobs))
	}
	job := jobs.jobs[0]
	if job.MeetingID != "m1" || job.Role != "facilitator" || len(job.Activities) != 2 {
		t.Errorf("job = %+v", job)
	}
}

func TestCreateMeetingValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"invalid json", `{not json`},
		{"missing meeting_id", `{"role": "facilitator"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _, jobs := newTestHandler(t)
			rec := serve(h, http.MethodPost, "/api/meetings", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
			}
			if len(jobs.jobs) != 0 {
				t.Error("no job should be enqueued on a rejected request")
			}
		})
	}
}

func TestSwitchActivity(t *testing.T) {
	h, st, _ := newTestHandler(t)

	rec := serve(h, http.MethodPost, "/api/meetings", `{"meeting_id": "m1", "activities": [{"title": "A"}, {"title": "B"}]}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d", rec.Code)
	}

	h.now = func() time.Time { return time.Unix(1700000500, 0) }
	rec = serve(h, http.MethodPost, "/api/meetings/m1/activity", `{"activity": 1}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}

	got, err := st.Get(context.Background(), "m1")
	if err != nil {
		t.Fatal(err)
	}
	if got.CurrentActivity != 1 {
		t.Errorf("CurrentActivity = %d, want 1", got.CurrentActivity)
	}
	if got.StartTime != 1700000500 {
		t.Errorf("StartTime = %d, want 1700000500", got.StartTime)
	}
}

func TestSwitchActivityMissingMeeting(t *testing.T) {
	h, _, _ := newTestHandler(t)

	rec := serve(h, http.MethodPost, "/api/meetings/nope/activity", `{"activity": 2}`)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}
