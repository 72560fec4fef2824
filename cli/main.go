package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var (
	serverURL string
	userToken string
	Version   = "dev"
)

type Device struct {
	ID        string    `json:"ID"`
	Name      string    `json:"Name"`
	IPAddress string    `json:"IPAddress"`
	OS        string    `json:"OS"`
	Status    string    `json:"Status"`
	Policy    string    `json:"Policy"`
	RiskLevel string    `json:"RiskLevel"`
	LastSeen  time.Time `json:"LastSeen"`
}

type Alert struct {
	ID        string    `json:"ID"`
	Type      string    `json:"Type"`
	Severity  string    `json:"Severity"`
	Device    string    `json:"Device"`
	Status    string    `json:"Status"`
	RiskScore int       `json:"RiskScore"`
	Timestamp time.Time `json:"Timestamp"`
}

type Stats struct {
	ActiveThreats     int64 `json:"activeThreats"`
	ResolvedIncidents int64 `json:"resolvedIncidents"`
	DevicesOnline     int64 `json:"devicesOnline"`
	DevicesOffline    int64 `json:"devicesOffline"`
	DevicesIsolated   int64 `json:"devicesIsolated"`
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "cordon",
		Short: "Cordon - endpoint security dashboard CLI",
		Long:  "Inspect devices and threats, isolate endpoints and issue enrollment tokens for your tenant",
	}

	rootCmd.PersistentFlags().StringVarP(&serverURL, "server", "s", "http://localhost:8080", "Cordon server URL")
	rootCmd.PersistentFlags().StringVarP(&userToken, "user", "u", os.Getenv("CORDON_USER"), "User id presented as bearer token")

	rootCmd.AddCommand(
		statusCmd(),
		devicesCmd(),
		isolateCmd(),
		threatsCmd(),
		tokenCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show tenant security posture",
		RunE: func(cmd *cobra.Command, args []string) error {
			var stats Stats
			if err := getJSON("/v1/stats", &stats); err != nil {
				return err
			}

			fmt.Printf("Cordon Status\n")
			fmt.Printf("=============\n\n")
			fmt.Printf("Active Threats:      %d\n", stats.ActiveThreats)
			fmt.Printf("Resolved Incidents:  %d\n", stats.ResolvedIncidents)
			fmt.Printf("Devices Online:      %d\n", stats.DevicesOnline)
			fmt.Printf("Devices Offline:     %d\n", stats.DevicesOffline)
			fmt.Printf("Devices Isolated:    %d\n", stats.DevicesIsolated)
			return nil
		},
	}
}

func devicesCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "devices",
		Aliases: []string{"ls", "list"},
		Short:   "List the tenant's devices",
		RunE: func(cmd *cobra.Command, args []string) error {
			var devices []Device
			if err := getJSON("/v1/devices", &devices); err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tIP\tOS\tSTATUS\tPOLICY\tRISK\tLAST SEEN")
			for _, d := range devices {
				lastSeen := time.Since(d.LastSeen).Round(time.Minute)
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s ago\n",
					d.ID, d.Name, d.IPAddress, d.OS, d.Status, d.Policy, d.RiskLevel, lastSeen)
			}
			return w.Flush()
		},
	}
}

func isolateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "isolate <device-id> [device-id...]",
		Short: "Network-isolate one or more devices",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp struct {
				FullyCommitted bool     `json:"fully_committed"`
				AuditPending   []string `json:"audit_pending"`
			}
			if err := postJSON("/v1/devices/isolate", map[string]any{"device_ids": args}, &resp); err != nil {
				return err
			}

			fmt.Printf("Isolated %d device(s)\n", len(args))
			if !resp.FullyCommitted {
				fmt.Printf("Warning: audit entries pending for %v\n", resp.AuditPending)
			}
			return nil
		},
	}
}

func threatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "threats",
		Aliases: []string{"alerts"},
		Short:   "List the tenant's threat alerts",
		RunE: func(cmd *cobra.Command, args []string) error {
			var alerts []Alert
			if err := getJSON("/v1/alerts", &alerts); err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTYPE\tSEVERITY\tDEVICE\tSTATUS\tSCORE\tWHEN")
			for _, a := range alerts {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\t%s\n",
					a.ID, a.Type, a.Severity, a.Device, a.Status, a.RiskScore, a.Timestamp.Format(time.RFC3339))
			}
			return w.Flush()
		},
	}
}

func tokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Manage enrollment tokens",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "issue",
			Short: "Issue a single-use enrollment token (valid 15 minutes)",
			RunE: func(cmd *cobra.Command, args []string) error {
				var resp struct {
					Token     string    `json:"token"`
					ExpiresAt time.Time `json:"expires_at"`
				}
				if err := postJSON("/v1/enroll/tokens", map[string]any{}, &resp); err != nil {
					return err
				}
				fmt.Printf("Token:      %s\n", resp.Token)
				fmt.Printf("Expires at: %s\n", resp.ExpiresAt.Format(time.RFC3339))
				return nil
			},
		},
		&cobra.Command{
			Use:   "list",
			Short: "List issued enrollment tokens",
			RunE: func(cmd *cobra.Command, args []string) error {
				var tokens []struct {
					ID        string    `json:"id"`
					Token     string    `json:"token"`
					Used      bool      `json:"used"`
					Expired   bool      `json:"expired"`
					ExpiresAt time.Time `json:"expires_at"`
					CreatedBy string    `json:"created_by"`
				}
				if err := getJSON("/v1/enroll/tokens", &tokens); err != nil {
					return err
				}

				w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tTOKEN\tUSED\tEXPIRED\tEXPIRES\tISSUED BY")
				for _, t := range tokens {
					fmt.Fprintf(w, "%s\t%s\t%t\t%t\t%s\t%s\n",
						t.ID, t.Token, t.Used, t.Expired, t.ExpiresAt.Format(time.RFC3339), t.CreatedBy)
				}
				return w.Flush()
			},
		},
	)
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the CLI version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(Version)
		},
	}
}

func getJSON(path string, out any) error {
	req, err := http.NewRequest(http.MethodGet, serverURL+path, nil)
	if err != nil {
		return err
	}
	return doJSON(req, out)
}

func postJSON(path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequest(http.MethodPost, serverURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return doJSON(req, out)
}

func doJSON(req *http.Request, out any) error {
	if userToken == "" {
		return fmt.Errorf("no user id; pass --user or set CORDON_USER")
	}
	req.Header.Set("Authorization", "Bearer "+userToken)

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(payload, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("server returned %d: %s", resp.StatusCode, apiErr.Error)
		}
		return fmt.Errorf("server returned %d", resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(payload, out)
}
