package commands

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/marmos91/telebox/internal/cli/output"
	"github.com/marmos91/telebox/pkg/config"
)

var (
	statusOutput  string
	statusPidFile string
	statusPort    int
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show gateway status",
	Long: `Display the status of the Telebox gateway.

Checks the PID file, then queries /health, /health/ready and /health/stores.
The port comes from --port, else from the configuration file.

Examples:
  telebox status
  telebox status --port 9080
  telebox status --output json`,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().StringVar(&statusPidFile, "pid-file", "", "Path to PID file (default: $XDG_STATE_HOME/telebox/telebox.pid)")
	statusCmd.Flags().IntVar(&statusPort, "port", 0, "Gateway port (default: server.port from config)")
	statusCmd.Flags().StringVarP(&statusOutput, "output", "o", "table", "Output format (table|json|yaml)")
}

// GatewayStatus is the status report.
type GatewayStatus struct {
	Running     bool   `json:"running" yaml:"running"`
	PID         int    `json:"pid,omitempty" yaml:"pid,omitempty"`
	Port        int    `json:"port" yaml:"port"`
	Healthy     bool   `json:"healthy" yaml:"healthy"`
	Ready       bool   `json:"ready" yaml:"ready"`
	StoreType   string `json:"store_type,omitempty" yaml:"store_type,omitempty"`
	StoreStatus string `json:"store_status,omitempty" yaml:"store_status,omitempty"`
	Message     string `json:"message" yaml:"message"`
}

// healthResponse is the envelope served by the health endpoints.
type healthResponse struct {
	Status string `json:"status"`
	Data   struct {
		Type   string `json:"type"`
		Status string `json:"status"`
	} `json:"data"`
	Error string `json:"error,omitempty"`
}

func runStatus(cmd *cobra.Command, args []string) error {
	format, err := output.ParseFormat(statusOutput)
	if err != nil {
		return err
	}

	port := statusPort
	if port == 0 {
		port = 8080
		if cfg, err := config.Load(GetConfigFile()); err == nil {
			port = cfg.Server.Port
		}
	}

	pidPath := statusPidFile
	if pidPath == "" {
		pidPath = GetDefaultPidFile()
	}

	status := GatewayStatus{Port: port, Message: "Gateway is not running"}
	if pid, running := isProcessRunning(pidPath); running {
		status.Running = true
		status.PID = pid
		status.Message = "Gateway process exists but health check failed"
	}

	client := &http.Client{Timeout: 2 * time.Second}
	base := fmt.Sprintf("http://localhost:%d", port)

	if live, err := getHealth(client, base+"/health"); err == nil {
		status.Running = true
		status.Healthy = live.Status == "healthy"
		status.Message = "Gateway is running and healthy"

		if ready, err := getHealth(client, base+"/health/ready"); err == nil {
			status.Ready = ready.Status == "healthy"
			if !status.Ready {
				status.Message = fmt.Sprintf("Gateway is running but not ready: %s", ready.Error)
			}
		}
		if stores, err := getHealth(client, base+"/health/stores"); err == nil {
			status.StoreType = stores.Data.Type
			status.StoreStatus = stores.Data.Status
		}
	}

	if format == output.FormatTable {
		return output.PrintKeyValues(os.Stdout, status.pairs())
	}
	return output.Print(os.Stdout, format, status)
}

func getHealth(client *http.Client, url string) (*healthResponse, error) {
	resp, err := client.Get(url)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	var hr healthResponse
	if err := json.NewDecoder(resp.Body).Decode(&hr); err != nil {
		return nil, fmt.Errorf("invalid health response: %w", err)
	}
	return &hr, nil
}

func (s GatewayStatus) pairs() [][2]string {
	state := "stopped"
	switch {
	case s.Running && s.Healthy && s.Ready:
		state = "running"
	case s.Running:
		state = "running (degraded)"
	}

	pairs := [][2]string{{"Status", state}}
	if s.PID > 0 {
		pairs = append(pairs, [2]string{"PID", strconv.Itoa(s.PID)})
	}
	pairs = append(pairs, [2]string{"Port", strconv.Itoa(s.Port)})
	if s.Running {
		pairs = append(pairs, [2]string{"Ready", strconv.FormatBool(s.Ready)})
	}
	if s.StoreType != "" {
		pairs = append(pairs, [2]string{"Store", s.StoreType + " (" + s.StoreStatus + ")"})
	}
	return append(pairs, [2]string{"Message", s.Message})
}
