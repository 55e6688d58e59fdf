package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/serpent-os/ent/pkg/errors"
	"github.com/serpent-os/ent/pkg/history"
	"github.com/serpent-os/ent/pkg/report"
)

type stubChecker struct {
	calls     atomic.Int64
	refreshes atomic.Int64
	err       error
}

func (c *stubChecker) check(ctx context.Context, refresh bool) (*report.Report, error) {
	c.calls.Add(1)
	if refresh {
		c.refreshes.Add(1)
	}
	if c.err != nil {
		return nil, c.err
	}
	rep := report.Build([]report.Entry{
		{Name: "nano", Outcome: report.UpdateAvailable("7.2", "8.0")},
		{Name: "zstd", Outcome: report.UpToDate()},
	}, nil)
	return rep, nil
}

func newTestServer(t *testing.T, c *stubChecker, store history.Store) (*Server, *httptest.Server) {
	t.Helper()
	s := New(Config{
		Check:   c.check,
		History: store,
		Logger:  log.NewWithOptions(io.Discard, log.Options{}),
	})
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, ts
}

func getJSON(t *testing.T, url string, wantStatus int, v any) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != wantStatus {
		t.Fatalf("GET %s status = %d, want %d", url, resp.StatusCode, wantStatus)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	if v != nil {
		if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
			t.Fatal(err)
		}
	}
}

func TestHealth(t *testing.T) {
	_, ts := newTestServer(t, &stubChecker{}, nil)

	var body map[string]string
	getJSON(t, ts.URL+"/healthz", http.StatusOK, &body)
	if body["status"] != "ok" {
		t.Errorf("body = %v", body)
	}
}

func TestReportIsReused(t *testing.T) {
	c := &stubChecker{}
	_, ts := newTestServer(t, c, nil)

	var rep report.Report
	getJSON(t, ts.URL+"/v1/report", http.StatusOK, &rep)
	getJSON(t, ts.URL+"/v1/report", http.StatusOK, &rep)

	if n := c.calls.Load(); n != 1 {
		t.Errorf("check ran %d times, want 1", n)
	}
	if rep.Summary.Updates != 1 || len(rep.Entries) != 2 {
		t.Errorf("report = %+v", rep)
	}

	getJSON(t, ts.URL+"/v1/report?refresh=true", http.StatusOK, &rep)
	if c.calls.Load() != 2 || c.refreshes.Load() != 1 {
		t.Errorf("refresh did not force a run: calls=%d refreshes=%d", c.calls.Load(), c.refreshes.Load())
	}
}

func TestReportExpires(t *testing.T) {
	c := &stubChecker{}
	s, ts := newTestServer(t, c, nil)

	getJSON(t, ts.URL+"/v1/report", http.StatusOK, nil)
	s.now = func() time.Time { return time.Now().Add(DefaultMaxAge + time.Minute) }
	getJSON(t, ts.URL+"/v1/report", http.StatusOK, nil)

	if n := c.calls.Load(); n != 2 {
		t.Errorf("check ran %d times, want 2 after expiry", n)
	}
}

func TestUpdates(t *testing.T) {
	_, ts := newTestServer(t, &stubChecker{}, nil)

	var body struct {
		StartedAt time.Time      `json:"started_at"`
		Summary   report.Summary `json:"summary"`
		Updates   []report.Entry `json:"updates"`
	}
	getJSON(t, ts.URL+"/v1/report/updates", http.StatusOK, &body)
	if body.StartedAt.IsZero() {
		t.Error("started_at is zero")
	}
	if len(body.Updates) != 1 || body.Updates[0].Name != "nano" || body.Updates[0].Outcome.To != "8.0" {
		t.Errorf("updates = %+v", body.Updates)
	}
	if body.Summary.Total != 2 {
		t.Errorf("summary = %+v", body.Summary)
	}
}

func TestCheckError(t *testing.T) {
	c := &stubChecker{err: errors.New(errors.ErrCodeInvalidPath, "recipe tree /nope: no such file")}
	_, ts := newTestServer(t, c, nil)

	var body map[string]errorBody
	getJSON(t, ts.URL+"/v1/report", http.StatusInternalServerError, &body)
	if body["error"].Code != errors.ErrCodeInvalidPath {
		t.Errorf("error = %+v", body)
	}
}

func TestRunsWithoutHistory(t *testing.T) {
	_, ts := newTestServer(t, &stubChecker{}, nil)
	getJSON(t, ts.URL+"/v1/runs", http.StatusNotImplemented, nil)
}

func TestRunsAreRecorded(t *testing.T) {
	store := history.NewMemoryStore()
	_, ts := newTestServer(t, &stubChecker{}, store)

	getJSON(t, ts.URL+"/v1/report", http.StatusOK, nil)

	var runs []history.Run
	getJSON(t, ts.URL+"/v1/runs", http.StatusOK, &runs)
	if len(runs) != 1 {
		t.Fatalf("runs = %+v, want one", runs)
	}

	var run history.Run
	getJSON(t, ts.URL+"/v1/runs/"+runs[0].ID, http.StatusOK, &run)
	if run.Report == nil || run.Report.Summary.Updates != 1 {
		t.Errorf("run = %+v", run)
	}

	getJSON(t, ts.URL+"/v1/runs/00000000-0000-4000-8000-000000000000", http.StatusNotFound, nil)
	getJSON(t, ts.URL+"/v1/runs/garbage", http.StatusNotFound, nil)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		code errors.Code
		want int
	}{
		{errors.ErrCodeNotFound, http.StatusNotFound},
		{errors.ErrCodeInvalidConfig, http.StatusBadRequest},
		{errors.ErrCodeUnsupported, http.StatusNotImplemented},
		{errors.ErrCodeTimeout, http.StatusGatewayTimeout},
		{errors.ErrCodeInternal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(tt.code); got != tt.want {
			t.Errorf("statusFor(%s) = %d, want %d", tt.code, got, tt.want)
		}
	}
}
