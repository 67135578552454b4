package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jwhan-dev/robofleet/core/dispatch"
	"github.com/jwhan-dev/robofleet/core/model"
)

type fakeService struct {
	tasks    map[string]model.Task
	canceled []string
}

func newFakeService() *fakeService {
	return &fakeService{tasks: map[string]model.Task{}}
}

func (f *fakeService) CreateTask(_ context.Context, taskType model.TaskType, requesterID string, details model.Details) (model.Task, error) {
	t := model.Task{
		ID:          fmt.Sprintf("t-%d", len(f.tasks)+1),
		Type:        taskType,
		Status:      model.TaskPending,
		RequesterID: requesterID,
		Details:     details,
	}
	f.tasks[t.ID] = t
	return t, nil
}

func (f *fakeService) Task(_ context.Context, id string) (model.Task, error) {
	t, ok := f.tasks[id]
	if !ok {
		return model.Task{}, fmt.Errorf("%w: task %s", dispatch.ErrNotFound, id)
	}
	return t, nil
}

func (f *fakeService) TasksByStatus(_ context.Context, s model.TaskStatus) ([]model.Task, error) {
	var out []model.Task
	for _, t := range f.tasks {
		if t.Status == s {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeService) Cancel(_ context.Context, taskID string) (model.Task, error) {
	t, ok := f.tasks[taskID]
	if !ok {
		return model.Task{}, fmt.Errorf("%w: task %s", dispatch.ErrNotFound, taskID)
	}
	if t.Status.Terminal() {
		return model.Task{}, fmt.Errorf("%w: task %s is already %s", dispatch.ErrConflict, taskID, t.Status)
	}
	t.Status = model.TaskCanceled
	f.tasks[taskID] = t
	f.canceled = append(f.canceled, taskID)
	return t, nil
}

func TestCreateTask(t *testing.T) {
	svc := newFakeService()
	h := NewHandler(svc)
	body := `{"type":"SNACK_DELIVERY","requester_id":"guest-7","details":{"item":"chips","destination":{"x":3,"y":4}}}`
	rr := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/tasks", strings.NewReader(body))
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusCreated {
		t.Fatalf("status %d: %s", rr.Code, rr.Body.String())
	}
	var out model.Task
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Type != model.SnackDelivery || out.Status != model.TaskPending {
		t.Fatalf("unexpected task %#v", out)
	}
}

func TestCreateTask_UnknownType(t *testing.T) {
	h := NewHandler(newFakeService())
	rr := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/tasks", strings.NewReader(`{"type":"TELEPORT"}`))
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status %d", rr.Code)
	}
}

func TestCreateTask_BadBody(t *testing.T) {
	h := NewHandler(newFakeService())
	rr := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/tasks", strings.NewReader("{"))
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status %d", rr.Code)
	}
}

func TestListTasks(t *testing.T) {
	svc := newFakeService()
	if _, err := svc.CreateTask(context.Background(), model.GuideGuest, "g1", model.Details{}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	h := NewHandler(svc)
	rr := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/tasks?status=PENDING", nil)
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("status %d", rr.Code)
	}
	var out []model.Task
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected 1 task, got %d", len(out))
	}
}

func TestListTasks_EmptyIsArray(t *testing.T) {
	h := NewHandler(newFakeService())
	rr := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/tasks?status=COMPLETED", nil)
	h.ServeHTTP(rr, req)
	if strings.TrimSpace(rr.Body.String()) != "[]" {
		t.Fatalf("expected empty array, got %s", rr.Body.String())
	}
}

func TestGetTask_NotFound(t *testing.T) {
	h := NewHandler(newFakeService())
	rr := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/tasks/nope", nil)
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status %d", rr.Code)
	}
}

func TestCancelTask(t *testing.T) {
	svc := newFakeService()
	created, err := svc.CreateTask(context.Background(), model.GuideGuest, "g1", model.Details{})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	h := NewHandler(svc)
	rr := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/tasks/"+created.ID+"/cancel", nil)
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rr.Code, rr.Body.String())
	}
	var out model.Task
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Status != model.TaskCanceled {
		t.Fatalf("status not canceled: %s", out.Status)
	}
}

func TestCancelTask_Terminal(t *testing.T) {
	svc := newFakeService()
	svc.tasks["t-1"] = model.Task{ID: "t-1", Status: model.TaskCompleted}
	h := NewHandler(svc)
	rr := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/tasks/t-1/cancel", nil)
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusConflict {
		t.Fatalf("status %d", rr.Code)
	}
}
