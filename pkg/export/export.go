package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"time"

	"github.com/jwhan-dev/robofleet/core/model"
)

// WriteJSON writes the task records to w in JSON format.
func WriteJSON(w io.Writer, tasks []model.Task) error {
	enc := json.NewEncoder(w)
	return enc.Encode(tasks)
}

// WriteCSV writes the task records to w in CSV format.
func WriteCSV(w io.Writer, tasks []model.Task) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"task_id", "type", "status", "robot_id", "requester_id", "created_at", "completed_at"}); err != nil {
		return err
	}
	for _, t := range tasks {
		completed := ""
		if t.CompletedAt != nil {
			completed = t.CompletedAt.Format(time.RFC3339)
		}
		rec := []string{
			t.ID,
			string(t.Type),
			string(t.Status),
			t.RobotID,
			t.RequesterID,
			t.CreatedAt.Format(time.RFC3339),
			completed,
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
