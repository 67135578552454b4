package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/jwhan-dev/robofleet/core/dispatch"
	"github.com/jwhan-dev/robofleet/core/model"
)

// Service is the slice of the orchestrator the task endpoints need.
type Service interface {
	CreateTask(ctx context.Context, taskType model.TaskType, requesterID string, details model.Details) (model.Task, error)
	Task(ctx context.Context, id string) (model.Task, error)
	TasksByStatus(ctx context.Context, s model.TaskStatus) ([]model.Task, error)
	Cancel(ctx context.Context, taskID string) (model.Task, error)
}

type createRequest struct {
	Type        model.TaskType `json:"type"`
	RequesterID string         `json:"requester_id"`
	Details     model.Details  `json:"details"`
}

// NewHandler returns an HTTP handler serving the task endpoints:
//
//	POST /api/tasks           create a task
//	GET  /api/tasks?status=S  list tasks by status
//	GET  /api/tasks/{id}      fetch one task
//	POST /api/tasks/{id}/cancel
func NewHandler(svc Service) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/tasks", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			create(svc, w, r)
		case http.MethodGet:
			list(svc, w, r)
		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	})
	mux.HandleFunc("/api/tasks/", func(w http.ResponseWriter, r *http.Request) {
		rest := strings.TrimPrefix(r.URL.Path, "/api/tasks/")
		if id, ok := strings.CutSuffix(rest, "/cancel"); ok {
			if r.Method != http.MethodPost {
				http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
				return
			}
			cancel(svc, w, r, id)
			return
		}
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		get(svc, w, r, rest)
	})
	return mux
}

func create(svc Service, w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if !req.Type.Valid() {
		http.Error(w, "unknown task type", http.StatusBadRequest)
		return
	}
	task, err := svc.CreateTask(r.Context(), req.Type, req.RequesterID, req.Details)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(task); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func list(svc Service, w http.ResponseWriter, r *http.Request) {
	status := model.TaskStatus(r.URL.Query().Get("status"))
	if status == "" {
		status = model.TaskPending
	}
	tasks, err := svc.TasksByStatus(r.Context(), status)
	if err != nil {
		writeError(w, err)
		return
	}
	if tasks == nil {
		tasks = []model.Task{}
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(tasks); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func get(svc Service, w http.ResponseWriter, r *http.Request, id string) {
	task, err := svc.Task(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(task); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func cancel(svc Service, w http.ResponseWriter, r *http.Request, id string) {
	task, err := svc.Cancel(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(task); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, dispatch.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, dispatch.ErrConflict):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
