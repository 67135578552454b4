package robots

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/jwhan-dev/robofleet/core/model"
)

// Fleet lists the robots the service manages.
type Fleet interface {
	Robots(ctx context.Context) ([]model.Robot, error)
}

// NewHandler returns an HTTP handler exposing the fleet via GET /api/robots.
func NewHandler(fleet Fleet) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		list, err := fleet.Robots(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if list == nil {
			list = []model.Robot{}
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(list); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	})
}
