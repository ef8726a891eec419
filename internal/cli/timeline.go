package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/daedalus-s/threat-gdg-adk/internal/models"
	"github.com/daedalus-s/threat-gdg-adk/internal/service"
)

var timelineJSON bool

var timelineCmd = &cobra.Command{
	Use:   "timeline <camera-id>",
	Short: "Show the full threat timeline for one camera",
	Long: `Show every stored event for a camera in chronological order,
bucketed by threat level.

Examples:
  threatwatch timeline 1
  threatwatch timeline 2 --json`,
	Args: cobra.ExactArgs(1),
	RunE: runTimeline,
}

func init() {
	timelineCmd.Flags().BoolVar(&timelineJSON, "json", false, "print the full response as JSON")
}

func runTimeline(cmd *cobra.Command, args []string) error {
	cameraID, err := strconv.Atoi(args[0])
	if err != nil || cameraID <= 0 {
		return fmt.Errorf("invalid camera id: %s", args[0])
	}

	ctx := context.Background()
	_, querySvc, err := getServices(false)
	if err != nil {
		return fmt.Errorf("init services: %w", err)
	}

	resp := querySvc.Timeline(ctx, cameraID)
	if resp.Status != service.StatusSuccess {
		return fmt.Errorf("%s", resp.Message)
	}

	if timelineJSON {
		return printJSON(resp)
	}

	fmt.Printf("Camera %d: %d events\n", resp.CameraID, resp.TotalEvents)
	fmt.Printf("  critical=%d high=%d medium=%d low=%d none=%d\n\n",
		resp.Summary.Critical, resp.Summary.High, resp.Summary.Medium,
		resp.Summary.Low, resp.Summary.None)

	if resp.TotalEvents == 0 {
		return nil
	}

	// Highest severity first; chronological within each bucket.
	for i := len(models.AllThreatLevels) - 1; i >= 0; i-- {
		level := models.AllThreatLevels[i]
		events := resp.ByThreatLevel[level]
		if len(events) == 0 {
			continue
		}
		fmt.Printf("%s:\n", level)
		for _, e := range events {
			printEvent(e)
		}
		fmt.Println()
	}
	return nil
}
