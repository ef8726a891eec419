package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var deleteSessionForce bool

var deleteSessionCmd = &cobra.Command{
	Use:   "delete-session <session-id>",
	Short: "Delete all events from one ingestion session",
	Long: `Delete every event record ingested under a session id.

Records from other sessions are unaffected. Deleting a session that has
no records is not an error. Requires confirmation unless --force is used.

Examples:
  threatwatch delete-session session_5f2a...
  threatwatch delete-session night-run-42 --force`,
	Args: cobra.ExactArgs(1),
	RunE: runDeleteSession,
}

func init() {
	deleteSessionCmd.Flags().BoolVarP(&deleteSessionForce, "force", "f", false, "skip confirmation")
}

func runDeleteSession(cmd *cobra.Command, args []string) error {
	sessionID := args[0]
	ctx := context.Background()

	if !deleteSessionForce {
		fmt.Printf("About to delete all events for session: %s\n", sessionID)
		fmt.Print("\nContinue? [y/N]: ")

		reader := bufio.NewReader(os.Stdin)
		response, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("read input: %w", err)
		}
		response = strings.TrimSpace(strings.ToLower(response))

		if response != "y" && response != "yes" {
			fmt.Println("Cancelled.")
			return nil
		}
	}

	ingestSvc, _, err := getServices(false)
	if err != nil {
		return fmt.Errorf("init services: %w", err)
	}

	if err := ingestSvc.DeleteSession(ctx, sessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}

	fmt.Printf("Deleted session: %s\n", sessionID)
	return nil
}
