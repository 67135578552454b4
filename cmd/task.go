package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jwhan-dev/robofleet/config"
	"github.com/jwhan-dev/robofleet/core/model"
	"github.com/jwhan-dev/robofleet/pkg/export"
)

var (
	taskType      string
	taskRequester string
	taskItem      string
	taskDestX     float64
	taskDestY     float64
)

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Task related commands",
}

var taskCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a task via the running service",
	RunE:  runTaskCreate,
}

var (
	taskLsStatus string
	taskLsFormat string
)

var taskLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List tasks by status",
	RunE:  runTaskLs,
}

func init() {
	taskCreateCmd.Flags().StringVar(&taskType, "type", string(model.SnackDelivery), "task type")
	taskCreateCmd.Flags().StringVar(&taskRequester, "requester", "cli", "requester id")
	taskCreateCmd.Flags().StringVar(&taskItem, "item", "", "item name for deliveries")
	taskCreateCmd.Flags().Float64Var(&taskDestX, "x", 0, "destination x")
	taskCreateCmd.Flags().Float64Var(&taskDestY, "y", 0, "destination y")
	taskLsCmd.Flags().StringVar(&taskLsStatus, "status", string(model.TaskPending), "task status filter")
	taskLsCmd.Flags().StringVar(&taskLsFormat, "format", "json", "output format: json or csv")
	taskCmd.AddCommand(taskCreateCmd)
	taskCmd.AddCommand(taskLsCmd)
	rootCmd.AddCommand(taskCmd)
}

func runTaskCreate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	details := model.Details{
		"destination": map[string]any{"x": taskDestX, "y": taskDestY},
	}
	if taskItem != "" {
		details["item_name"] = taskItem
	}
	body, err := json.Marshal(map[string]any{
		"type":         taskType,
		"requester_id": taskRequester,
		"details":      details,
	})
	if err != nil {
		return err
	}

	addr := cfg.API.Addr
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Post("http://"+addr+"/api/tasks", "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	defer resp.Body.Close()
	out, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("create task: %s: %s", resp.Status, strings.TrimSpace(string(out)))
	}
	fmt.Fprintln(cmd.OutOrStdout(), strings.TrimSpace(string(out)))
	return nil
}

func runTaskLs(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	addr := cfg.API.Addr
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Get("http://" + addr + "/api/tasks?status=" + taskLsStatus)
	if err != nil {
		return fmt.Errorf("list tasks: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		out, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("list tasks: %s: %s", resp.Status, strings.TrimSpace(string(out)))
	}
	var tasks []model.Task
	if err := json.NewDecoder(resp.Body).Decode(&tasks); err != nil {
		return fmt.Errorf("decode tasks: %w", err)
	}

	switch taskLsFormat {
	case "csv":
		return export.WriteCSV(cmd.OutOrStdout(), tasks)
	case "json":
		return export.WriteJSON(cmd.OutOrStdout(), tasks)
	default:
		return fmt.Errorf("unknown format %s", taskLsFormat)
	}
}
