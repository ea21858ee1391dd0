package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"passgate/internal/cache"
	"passgate/internal/score"
)

type stubEstimator struct {
	score int
	err   error
}

func (s *stubEstimator) Estimate(password string, userInputs []string) (int, error) {
	return s.score, s.err
}

type stubChecker struct {
	count *int
	err   error
	calls int
}

func (s *stubChecker) Check(ctx context.Context, password string) (*int, error) {
	s.calls++
	return s.count, s.err
}

func intPtr(n int) *int { return &n }

func newTestHandler(t *testing.T, estimator score.StrengthEstimator, checker score.BreachChecker) *ScoreHandler {
	t.Helper()

	c := cache.NewMemoryCache(10, time.Minute)
	t.Cleanup(func() { c.Close() })

	evaluator := score.NewEvaluator(c, estimator, checker, score.Options{})
	return NewScoreHandler(evaluator)
}

func postScore(t *testing.T, h *ScoreHandler, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/_score", bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")

	rr := httptest.NewRecorder()
	h.Score(rr, req)
	return rr
}

func TestScoreHappyPath(t *testing.T) {
	h := newTestHandler(t, &stubEstimator{score: 4}, &stubChecker{count: intPtr(0)})

	rr := postScore(t, h, `{"password":"correcthorsebatterystaple"}`)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if got := rr.Header().Get("X-Cache"); got != "MISS" {
		t.Fatalf("expected X-Cache MISS, got %q", got)
	}

	var resp score.Result
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.OK {
		t.Fatalf("expected ok=true, got %+v", resp)
	}
	if resp.Score == nil || *resp.Score != 4 {
		t.Fatalf("expected score 4, got %v", resp.Score)
	}
	if resp.Pwned == nil || *resp.Pwned != 0 {
		t.Fatalf("expected pwned 0, got %v", resp.Pwned)
	}
}

func TestScoreSecondCallServedFromCache(t *testing.T) {
	checker := &stubChecker{count: intPtr(0)}
	h := newTestHandler(t, &stubEstimator{score: 4}, checker)

	body := `{"password":"hunter2","context":["alice","example.com"]}`

	first := postScore(t, h, body)
	second := postScore(t, h, body)

	if first.Header().Get("X-Cache") != "MISS" {
		t.Fatalf("first call should miss the cache")
	}
	if second.Header().Get("X-Cache") != "HIT" {
		t.Fatalf("second call should hit the cache")
	}
	if checker.calls != 1 {
		t.Fatalf("expected a single breach check, got %d", checker.calls)
	}
	if !bytes.Equal(first.Body.Bytes(), second.Body.Bytes()) {
		t.Fatalf("cached response differs: %s vs %s", first.Body.String(), second.Body.String())
	}
}

func TestScoreEmptyPasswordRejected(t *testing.T) {
	checker := &stubChecker{count: intPtr(0)}
	h := newTestHandler(t, &stubEstimator{score: 4}, checker)

	rr := postScore(t, h, `{"password":""}`)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}

	var resp struct {
		OK      bool   `json:"ok"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.OK {
		t.Fatalf("expected ok=false")
	}
	if resp.Message == "" {
		t.Fatalf("expected a validation message")
	}
	if checker.calls != 0 {
		t.Fatalf("rejected input must not reach the breach check")
	}
}

func TestScoreNonStringContextRejected(t *testing.T) {
	checker := &stubChecker{count: intPtr(0)}
	h := newTestHandler(t, &stubEstimator{score: 4}, checker)

	rr := postScore(t, h, `{"password":"hunter2","context":["a",5]}`)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
	if checker.calls != 0 {
		t.Fatalf("rejected input must not reach the breach check")
	}
}

func TestScoreDegradedStillResponds200(t *testing.T) {
	h := newTestHandler(t, &stubEstimator{score: 4},
		&stubChecker{err: errors.New("unable to check password pwnage: upstream status 503")})

	rr := postScore(t, h, `{"password":"hunter2"}`)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200 for degraded result, got %d", rr.Code)
	}

	var resp score.Result
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.OK {
		t.Fatalf("expected ok=false, got %+v", resp)
	}
	if resp.Score != nil {
		t.Fatalf("degraded response must omit score, got %v", resp.Score)
	}
}

func TestScoreCancelledRequestStaysSilent(t *testing.T) {
	h := newTestHandler(t, &stubEstimator{score: 4}, &stubChecker{count: intPtr(0)})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	req := httptest.NewRequest(http.MethodPost, "/_score",
		bytes.NewReader([]byte(`{"password":"hunter2"}`))).WithContext(ctx)

	rr := httptest.NewRecorder()
	h.Score(rr, req)

	if rr.Body.Len() != 0 {
		t.Fatalf("cancelled request must not receive a body, got %q", rr.Body.String())
	}
}

func TestScoreCancelledCacheHitStaysSilent(t *testing.T) {
	h := newTestHandler(t, &stubEstimator{score: 4}, &stubChecker{count: intPtr(0)})

	body := `{"password":"hunter2","context":["alice"]}`

	// Warm the cache with a live request.
	if rr := postScore(t, h, body); rr.Code != http.StatusOK {
		t.Fatalf("warm-up request failed with status %d", rr.Code)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	req := httptest.NewRequest(http.MethodPost, "/_score",
		bytes.NewReader([]byte(body))).WithContext(ctx)

	rr := httptest.NewRecorder()
	h.Score(rr, req)

	if rr.Body.Len() != 0 {
		t.Fatalf("cancelled request must not be answered from cache, got %q", rr.Body.String())
	}
}
