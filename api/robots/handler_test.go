package robots

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jwhan-dev/robofleet/core/model"
)

type fakeFleet struct {
	robots []model.Robot
	err    error
}

func (f *fakeFleet) Robots(context.Context) ([]model.Robot, error) {
	return f.robots, f.err
}

func TestRobotsHandler(t *testing.T) {
	fleet := &fakeFleet{robots: []model.Robot{
		{ID: "r1", Name: "scout", Status: model.RobotIdle, Battery: 80},
		{ID: "r2", Name: "porter", Status: model.RobotMoving, Battery: 55},
	}}
	h := NewHandler(fleet)
	rr := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/robots", nil)
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("status %d", rr.Code)
	}
	var out []model.Robot
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out) != 2 || out[0].ID != "r1" {
		t.Fatalf("unexpected output %#v", out)
	}
}

func TestRobotsHandler_Empty(t *testing.T) {
	h := NewHandler(&fakeFleet{})
	rr := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/robots", nil)
	h.ServeHTTP(rr, req)
	if strings.TrimSpace(rr.Body.String()) != "[]" {
		t.Fatalf("expected empty array, got %s", rr.Body.String())
	}
}

func TestRobotsHandler_MethodNotAllowed(t *testing.T) {
	h := NewHandler(&fakeFleet{})
	rr := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/robots", nil)
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status %d", rr.Code)
	}
}

func TestRobotsHandler_StoreError(t *testing.T) {
	h := NewHandler(&fakeFleet{err: errors.New("boom")})
	rr := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/robots", nil)
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status %d", rr.Code)
	}
}
