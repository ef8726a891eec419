package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/daedalus-s/threat-gdg-adk/internal/service"
)

var (
	ingestSession   string
	ingestVideoPath string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <frames.jsonl>",
	Short: "Ingest frame analyses from a JSONL file",
	Long: `Ingest per-frame threat analyses into the event store.

The input file contains one JSON object per line with camera_id,
timestamp, frame_number, and the analysis fields. Frames that fail to
store are skipped and counted; one bad frame never aborts the batch.

Examples:
  threatwatch ingest frames.jsonl
  threatwatch ingest frames.jsonl --session night-run-42
  threatwatch ingest frames.jsonl --video-path /videos/cam1.mp4`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVarP(&ingestSession, "session", "s", "", "session id (generated if omitted)")
	ingestCmd.Flags().StringVar(&ingestVideoPath, "video-path", "", "provenance path recorded on every frame")
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	ingestSvc, _, err := getServices(true)
	if err != nil {
		return fmt.Errorf("init services: %w", err)
	}

	frames, err := readFrames(args[0])
	if err != nil {
		return err
	}
	if len(frames) == 0 {
		fmt.Println("No frames to ingest.")
		return nil
	}

	if ingestVideoPath != "" {
		for i := range frames {
			if frames[i].VideoPath == "" {
				frames[i].VideoPath = ingestVideoPath
			}
		}
	}

	report := ingestSvc.IngestBatch(ctx, frames, ingestSession)

	fmt.Printf("Session: %s\n", report.SessionID)
	fmt.Printf("Stored:  %d/%d frames\n", report.Stored, len(frames))
	if report.Failed > 0 {
		fmt.Printf("Failed:  %d frames (see log for details)\n", report.Failed)
	}
	return nil
}

// readFrames parses a JSONL file into frames. Unparsable lines abort
// with line context; blank lines are skipped.
func readFrames(path string) ([]service.Frame, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open frames file: %w", err)
	}
	defer file.Close()

	var frames []service.Frame
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var frame service.Frame
		if err := json.Unmarshal(line, &frame); err != nil {
			return nil, fmt.Errorf("parse line %d: %w", lineNum, err)
		}
		frames = append(frames, frame)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read frames file: %w", err)
	}

	return frames, nil
}
