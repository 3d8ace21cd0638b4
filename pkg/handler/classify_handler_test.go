package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestClassifyHandlerReportsPlacements(t *testing.T) {
	rctx := newTestContext(t)

	body := ">200.1 resubmitted marker\n" + handlerMarker + "\n" +
		">200.2 garbage\nXXXXXXXXXXXXXXXX\n"
	req := httptest.NewRequest(http.MethodPost, "/classify", strings.NewReader(body))
	rr := httptest.NewRecorder()
	rctx.ClassifyHandler(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d: %s", rr.Code, rr.Body.String())
	}

	lines := strings.Split(strings.TrimRight(rr.Body.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want header plus two rows:\n%s", len(lines), rr.Body.String())
	}
	if lines[0] != "query_id\trep_id\trep_name\tscore" {
		t.Errorf("header = %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "200.1\t100.1\tEscherichia coli K-12\t") {
		t.Errorf("placed row = %q", lines[1])
	}
	if lines[2] != "200.2\t<none>\t<none>\t0" {
		t.Errorf("unplaced row = %q", lines[2])
	}
}

func TestClassifyHandlerAllMode(t *testing.T) {
	rctx := newTestContext(t)

	// Both representatives share nearly all k-mers with the query, so
	// a loose threshold lists both, insertion order.
	body := ">200.1\n" + handlerMarker + "\n"
	req := httptest.NewRequest(http.MethodPost, "/classify?all=true&min_score=10", strings.NewReader(body))
	rr := httptest.NewRecorder()
	rctx.ClassifyHandler(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d: %s", rr.Code, rr.Body.String())
	}

	lines := strings.Split(strings.TrimRight(rr.Body.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want header plus two rows:\n%s", len(lines), rr.Body.String())
	}
	if !strings.HasPrefix(lines[1], "200.1\t100.1\t") || !strings.HasPrefix(lines[2], "200.1\t100.2\t") {
		t.Errorf("rows out of insertion order:\n%s", rr.Body.String())
	}
}

func TestClassifyHandlerRejectsBadInput(t *testing.T) {
	rctx := newTestContext(t)

	req := httptest.NewRequest(http.MethodPost, "/classify", strings.NewReader(""))
	rr := httptest.NewRecorder()
	rctx.ClassifyHandler(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("empty body: expected 400, got %d", rr.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/classify?min_score=abc",
		strings.NewReader(">200.1\n"+handlerMarker+"\n"))
	rr = httptest.NewRecorder()
	rctx.ClassifyHandler(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("bad min_score: expected 400, got %d", rr.Code)
	}
}

func TestClassifyJobLifecycle(t *testing.T) {
	rctx := newTestContext(t)

	body := ">200.1\n" + handlerMarker + "\n"
	req := httptest.NewRequest(http.MethodPost, "/classify/job", strings.NewReader(body))
	rr := httptest.NewRecorder()
	rctx.ClassifySubmitHandler(rr, req)

	if rr.Code != http.StatusAccepted {
		t.Fatalf("expected 202 Accepted, got %d: %s", rr.Code, rr.Body.String())
	}

	var job ClassifyJob
	if err := json.Unmarshal(rr.Body.Bytes(), &job); err != nil {
		t.Fatalf("decode job: %v", err)
	}
	if job.ID == "" || job.Status != ClassifyJobQueued {
		t.Fatalf("job handle = %+v", job)
	}

	// The batch runs on its own goroutine; give it a moment.
	deadline := time.Now().Add(5 * time.Second)
	for {
		got, ok := rctx.Jobs.GetJob(job.ID)
		if !ok {
			t.Fatal("job vanished from the manager")
		}
		if got.Status == ClassifyJobCompleted {
			if len(got.Result) != 1 || got.Result[0].RepID != "100.1" {
				t.Errorf("result = %+v, want one placement under 100.1", got.Result)
			}
			break
		}
		if got.Status == ClassifyJobFailed {
			t.Fatalf("job failed: %s", got.Error)
		}
		if time.Now().After(deadline) {
			t.Fatalf("job stuck in %s", got.Status)
		}
		time.Sleep(10 * time.Millisecond)
	}

	// Status endpoint serves the finished job.
	req = httptest.NewRequest(http.MethodGet, "/classify/job/"+job.ID, nil)
	req.SetPathValue("job_id", job.ID)
	rr = httptest.NewRecorder()
	rctx.ClassifyJobStatusHandler(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d", rr.Code)
	}
	var finished ClassifyJob
	if err := json.Unmarshal(rr.Body.Bytes(), &finished); err != nil {
		t.Fatalf("decode finished job: %v", err)
	}
	if finished.Status != ClassifyJobCompleted {
		t.Errorf("status = %s, want completed", finished.Status)
	}

	// Unknown job
	req = httptest.NewRequest(http.MethodGet, "/classify/job/nope", nil)
	req.SetPathValue("job_id", "nope")
	rr = httptest.NewRecorder()
	rctx.ClassifyJobStatusHandler(rr, req)
	if rr.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown job, got %d", rr.Code)
	}
}

func TestClassifySubmitWithoutJobQueue(t *testing.T) {
	rctx := newTestContext(t)
	rctx.Jobs = nil

	req := httptest.NewRequest(http.MethodPost, "/classify/job",
		strings.NewReader(">200.1\n"+handlerMarker+"\n"))
	rr := httptest.NewRecorder()
	rctx.ClassifySubmitHandler(rr, req)

	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 without a job manager, got %d", rr.Code)
	}
}
