package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/daedalus-s/threat-gdg-adk/internal/models"
	"github.com/daedalus-s/threat-gdg-adk/internal/service"
)

var (
	queryLevel  string
	queryCamera int
	queryLimit  int
	queryJSON   bool
)

var queryCmd = &cobra.Command{
	Use:   "query <question>",
	Short: "Query events with natural language",
	Long: `Query stored threat events.

Time phrases ("between 15 and 20 seconds", "first 30 seconds",
"1:15 to 1:45") run an exact time-window filter; anything else runs a
semantic search over the event embeddings. Use --level for an exact
threat-level filter instead.

Examples:
  threatwatch query "what happened between 15 and 20 seconds in camera 2"
  threatwatch query "when was the weapon detected"
  threatwatch query --level high --camera 1 ""`,
	Args: cobra.ExactArgs(1),
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().StringVar(&queryLevel, "level", "", "filter by exact threat level instead of parsing the question")
	queryCmd.Flags().IntVar(&queryCamera, "camera", 0, "camera filter for --level queries")
	queryCmd.Flags().IntVarP(&queryLimit, "limit", "n", 20, "max results for --level queries")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "print the full response as JSON")
}

func runQuery(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	_, querySvc, err := getServices(queryLevel == "")
	if err != nil {
		return fmt.Errorf("init services: %w", err)
	}

	if queryLevel != "" {
		var cameraID *int
		if queryCamera > 0 {
			cameraID = &queryCamera
		}
		events, err := querySvc.ByThreatLevel(ctx, models.ParseThreatLevel(queryLevel), cameraID, queryLimit)
		if err != nil {
			return fmt.Errorf("threat level query: %w", err)
		}
		return printEvents(events)
	}

	resp := querySvc.Query(ctx, args[0])

	if queryJSON {
		return printJSON(resp)
	}

	fmt.Println(resp.Message)
	if resp.Status != service.StatusSuccess {
		os.Exit(1)
	}
	if len(resp.Events) == 0 {
		return nil
	}

	fmt.Println()
	for _, e := range resp.Events {
		printEvent(e)
	}

	if resp.Summary.MaxThreatLevel != "" {
		fmt.Printf("\nMax threat level: %s\n", resp.Summary.MaxThreatLevel)
	}
	if resp.Summary.WeaponDetected != nil && *resp.Summary.WeaponDetected {
		fmt.Println("Weapon detected in this window.")
	}
	return nil
}

func printEvents(events []models.EventRecord) error {
	if len(events) == 0 {
		fmt.Println("No matching events.")
		return nil
	}
	fmt.Printf("Found %d events:\n\n", len(events))
	for _, e := range events {
		printEvent(e)
	}
	return nil
}

func printEvent(e models.EventRecord) {
	fmt.Println(formatEvent(e))
}

// formatEvent renders one event as a single terminal line. Long
// descriptions are cut at a rune boundary so multi-byte characters are
// never split mid-sequence.
func formatEvent(e models.EventRecord) string {
	line := fmt.Sprintf("[cam %d @ %6.1fs] %-8s", e.CameraID, e.Timestamp, e.ThreatLevel)
	if e.WeaponType != "none" {
		line += fmt.Sprintf(" weapon=%s", e.WeaponType)
	}
	if e.RelevanceScore != nil {
		line += fmt.Sprintf(" score=%.3f", *e.RelevanceScore)
	}
	if e.Description != "" {
		desc := e.Description
		if utf8.RuneCountInString(desc) > 80 {
			desc = models.Truncate(desc, 80) + "..."
		}
		line += " " + desc
	}
	return line
}

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal response: %w", err)
	}
	fmt.Println(string(out))
	return nil
}
