package health_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/noah-isme/backend-gerai/internal/health"
)

type stubChecker struct {
	dbErr    error
	redisErr error
}

func (s stubChecker) PingDB(context.Context, time.Duration) error    { return s.dbErr }
func (s stubChecker) PingRedis(context.Context, time.Duration) error { return s.redisErr }

func TestLiveAlwaysOK(t *testing.T) {
	rr := httptest.NewRecorder()
	health.Handler{}.Live(rr, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	if rr.Code != http.StatusOK || rr.Body.String() != "ok" {
		t.Fatalf("unexpected liveness response %d %q", rr.Code, rr.Body.String())
	}
}

func TestReadyProbesDependencies(t *testing.T) {
	tests := []struct {
		name     string
		checker  stubChecker
		wantCode int
		wantDB   string
	}{
		{name: "all healthy", checker: stubChecker{}, wantCode: http.StatusOK, wantDB: "ok"},
		{name: "db down", checker: stubChecker{dbErr: errors.New("db down")}, wantCode: http.StatusServiceUnavailable, wantDB: "db down"},
		{name: "redis down", checker: stubChecker{redisErr: errors.New("redis down")}, wantCode: http.StatusServiceUnavailable, wantDB: "ok"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := health.Handler{Checker: tt.checker, DBTimeout: 10 * time.Millisecond, RedisTimeout: 10 * time.Millisecond}
			rr := httptest.NewRecorder()
			handler.Ready(rr, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
			if rr.Code != tt.wantCode {
				t.Fatalf("expected %d, got %d", tt.wantCode, rr.Code)
			}
			var status map[string]string
			if err := json.Unmarshal(rr.Body.Bytes(), &status); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if status["db"] != tt.wantDB {
				t.Fatalf("unexpected db status %q", status["db"])
			}
		})
	}
}
