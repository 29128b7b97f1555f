package main

import (
	"os"
	"os/exec"
	"strings"

	"github.com/alfredjeanlab/quorum/internal/client"
	"github.com/alfredjeanlab/quorum/internal/ui"
	"github.com/spf13/cobra"
)

var (
	serverURL  string
	authToken  string
	jsonOutput bool
	noColor    bool
	actor      string

	quorumClient client.QuorumClient
)

func defaultActor() string {
	out, err := exec.Command("git", "config", "user.name").Output()
	if err == nil {
		name := strings.TrimSpace(string(out))
		if name != "" {
			return name
		}
	}
	return "unknown"
}

func defaultServerURL() string {
	if s := os.Getenv("QUORUM_URL"); s != "" {
		return s
	}
	if u := activeRemoteURL(); u != "" {
		return u
	}
	return "http://localhost:8080"
}

func defaultToken() string {
	if s := os.Getenv("QUORUM_TOKEN"); s != "" {
		return s
	}
	return activeRemoteToken()
}

var rootCmd = &cobra.Command{
	Use:   "qd <command>",
	Short: "CLI client for the Quorum governance service",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		quorumClient = client.NewHTTPClient(serverURL, authToken)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if quorumClient != nil {
			quorumClient.Close()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "url", defaultServerURL(), "server URL")
	rootCmd.PersistentFlags().StringVar(&authToken, "token", defaultToken(), "bearer token for authentication")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().StringVar(&actor, "actor", defaultActor(), "actor name for audit attribution")

	cobra.OnInitialize(func() {
		if noColor {
			ui.ForceNoColor()
		}
	})

	rootCmd.AddGroup(
		&cobra.Group{ID: "proposals", Title: "Proposals:"},
		&cobra.Group{ID: "variance", Title: "Variance:"},
		&cobra.Group{ID: "system", Title: "System:"},
	)

	cobra.EnableCommandSorting = false
	rootCmd.SetHelpFunc(colorizedHelpFunc())

	// Proposals
	rootCmd.AddCommand(createCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(approveCmd)
	rootCmd.AddCommand(vetoCmd)
	rootCmd.AddCommand(auditCmd)

	// Variance
	rootCmd.AddCommand(budgetCmd)
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(actualCmd)
	rootCmd.AddCommand(varianceCmd)
	rootCmd.AddCommand(milestoneCmd)

	// System
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(remoteCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
