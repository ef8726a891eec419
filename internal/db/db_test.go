// Package db provides integration tests for SurrealDB event operations.
package db

import (
	"context"
	"fmt"
	"log"
	"os"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/daedalus-s/threat-gdg-adk/internal/models"
)

const testDimension = 8

var testDB *Client
var testContainer testcontainers.Container

// TestMain sets up and tears down the SurrealDB container for all tests.
func TestMain(m *testing.M) {
	// Disable ryuk (cleanup container) as it can cause issues in some environments
	os.Setenv("TESTCONTAINERS_RYUK_DISABLED", "true")

	ctx := context.Background()

	var err error
	testContainer, err = testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "surrealdb/surrealdb:v3.0.0-beta.1",
			ExposedPorts: []string{"8000/tcp"},
			Cmd:          []string{"start", "--log", "info", "--user", "root", "--pass", "root"},
			WaitingFor:   wait.ForLog("Started web server").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		log.Fatalf("Failed to start SurrealDB container: %v", err)
	}

	host, err := testContainer.Host(ctx)
	if err != nil {
		log.Fatalf("Failed to get container host: %v", err)
	}
	// Workaround: testcontainers may return "null" as host in some environments
	if host == "" || host == "null" {
		host = "localhost"
	}
	mappedPort, err := testContainer.MappedPort(ctx, "8000")
	if err != nil {
		log.Fatalf("Failed to get mapped port: %v", err)
	}

	testDB, err = NewClient(ctx, Config{
		URL:       fmt.Sprintf("ws://%s:%s/rpc", host, mappedPort.Port()),
		Namespace: "test",
		Database:  "test",
		Username:  "root",
		Password:  "root",
		AuthLevel: "root",
	}, nil)
	if err != nil {
		log.Fatalf("Failed to connect to test database: %v", err)
	}

	if err := testDB.InitSchema(ctx, testDimension); err != nil {
		log.Fatalf("Failed to initialize schema: %v", err)
	}

	code := m.Run()

	_ = testDB.Close(ctx)
	_ = testContainer.Terminate(ctx)

	os.Exit(code)
}

// testEmbedding returns a deterministic unit-ish vector seeded by n.
func testEmbedding(n int) []float32 {
	embedding := make([]float32, testDimension)
	embedding[n%testDimension] = 1
	embedding[(n+1)%testDimension] = 0.5
	return embedding
}

// testRecord builds a valid record for camera/frame/timestamp with the
// given threat level.
func testRecord(camera int, ts float64, frameNum int, level string) models.EventRecord {
	rec := models.NewEventRecord(camera, ts, frameNum, models.FrameAnalysis{
		ThreatLevel: level,
		Description: fmt.Sprintf("test frame %d", frameNum),
	}, models.RecordOptions{})
	rec.Embedding = testEmbedding(frameNum)
	return rec
}

func mustWipe(t *testing.T) {
	t.Helper()
	if err := testDB.WipeData(context.Background()); err != nil {
		t.Fatalf("WipeData failed: %v", err)
	}
}

func mustUpsert(t *testing.T, rec models.EventRecord) {
	t.Helper()
	if _, err := testDB.UpsertEvent(context.Background(), rec); err != nil {
		t.Fatalf("UpsertEvent(%s) failed: %v", rec.ID, err)
	}
}

func TestUpsertIdempotent(t *testing.T) {
	mustWipe(t)
	ctx := context.Background()

	rec := testRecord(1, 5.0, 150, "low")
	id1, err := testDB.UpsertEvent(ctx, rec)
	if err != nil {
		t.Fatalf("first upsert failed: %v", err)
	}

	// Same frame, new analysis: replaces, not duplicates.
	rec2 := models.NewEventRecord(1, 5.0, 150, models.FrameAnalysis{
		ThreatLevel: "critical",
		WeaponType:  "knife",
	}, models.RecordOptions{})
	rec2.Embedding = testEmbedding(150)

	id2, err := testDB.UpsertEvent(ctx, rec2)
	if err != nil {
		t.Fatalf("second upsert failed: %v", err)
	}
	if id1 != id2 {
		t.Fatalf("ids differ: %q vs %q", id1, id2)
	}

	events, err := testDB.QueryTimeRange(ctx, 1, 0, 100, 10)
	if err != nil {
		t.Fatalf("QueryTimeRange failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 record after re-upsert, got %d", len(events))
	}
	if events[0].ThreatLevel != models.ThreatCritical {
		t.Errorf("expected second write to win, got threat level %q", events[0].ThreatLevel)
	}
	if events[0].WeaponType != "knife" {
		t.Errorf("expected weapon_type knife, got %q", events[0].WeaponType)
	}
}

func TestUpsertRejectsMissingEmbedding(t *testing.T) {
	rec := testRecord(1, 5.0, 1, "low")
	rec.Embedding = nil

	_, err := testDB.UpsertEvent(context.Background(), rec)
	if err == nil {
		t.Fatal("expected error for missing embedding")
	}
}

func TestQueryTimeRange(t *testing.T) {
	mustWipe(t)
	ctx := context.Background()

	mustUpsert(t, testRecord(1, 5.0, 150, "none"))
	mustUpsert(t, testRecord(1, 16.0, 480, "medium"))
	mustUpsert(t, testRecord(1, 22.0, 660, "critical"))
	mustUpsert(t, testRecord(2, 17.0, 510, "high")) // other camera

	events, err := testDB.QueryTimeRange(ctx, 1, 10, 20, 10)
	if err != nil {
		t.Fatalf("QueryTimeRange failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected exactly the t=16 record, got %d records", len(events))
	}
	if events[0].Timestamp != 16.0 {
		t.Errorf("expected timestamp 16.0, got %v", events[0].Timestamp)
	}

	// Inclusive bounds on both ends.
	events, err = testDB.QueryTimeRange(ctx, 1, 5, 22, 10)
	if err != nil {
		t.Fatalf("QueryTimeRange failed: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("expected 3 records with inclusive bounds, got %d", len(events))
	}
	for i := 1; i < len(events); i++ {
		if events[i-1].Timestamp > events[i].Timestamp {
			t.Errorf("results not sorted ascending: %v before %v", events[i-1].Timestamp, events[i].Timestamp)
		}
	}
}

func TestQueryTimeRangeEmpty(t *testing.T) {
	mustWipe(t)

	events, err := testDB.QueryTimeRange(context.Background(), 1, 1000, 2000, 10)
	if err != nil {
		t.Fatalf("empty range must not error: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("expected empty result, got %d records", len(events))
	}
}

func TestQuerySemantic(t *testing.T) {
	mustWipe(t)
	ctx := context.Background()

	// Frame numbers chosen so embeddings occupy distinct axes.
	mustUpsert(t, testRecord(1, 5.0, 0, "low"))
	mustUpsert(t, testRecord(1, 10.0, 2, "high"))
	mustUpsert(t, testRecord(2, 15.0, 4, "critical"))

	// Query with the exact embedding of frame 2: it must rank first.
	events, err := testDB.QuerySemantic(ctx, testEmbedding(2), SemanticOptions{TopK: 3})
	if err != nil {
		t.Fatalf("QuerySemantic failed: %v", err)
	}
	if len(events) == 0 {
		t.Fatal("expected semantic matches")
	}
	if events[0].FrameNumber != 2 {
		t.Errorf("expected frame 2 as best match, got frame %d", events[0].FrameNumber)
	}
	if events[0].RelevanceScore == nil {
		t.Error("expected relevance score on semantic results")
	}

	// Camera filter restricts the candidate set.
	camera := 2
	events, err = testDB.QuerySemantic(ctx, testEmbedding(2), SemanticOptions{CameraID: &camera, TopK: 3})
	if err != nil {
		t.Fatalf("QuerySemantic with camera filter failed: %v", err)
	}
	for _, e := range events {
		if e.CameraID != 2 {
			t.Errorf("camera filter leaked camera %d", e.CameraID)
		}
	}

	// Time bounds restrict the candidate set.
	start, end := 0.0, 7.0
	events, err = testDB.QuerySemantic(ctx, testEmbedding(0), SemanticOptions{StartTime: &start, EndTime: &end, TopK: 3})
	if err != nil {
		t.Fatalf("QuerySemantic with time filter failed: %v", err)
	}
	for _, e := range events {
		if e.Timestamp < start || e.Timestamp > end {
			t.Errorf("time filter leaked timestamp %v", e.Timestamp)
		}
	}
}

func TestQueryThreatLevel(t *testing.T) {
	mustWipe(t)
	ctx := context.Background()

	mustUpsert(t, testRecord(1, 9.0, 270, "high"))
	mustUpsert(t, testRecord(2, 3.0, 90, "high"))
	mustUpsert(t, testRecord(1, 6.0, 180, "low"))

	events, err := testDB.QueryThreatLevel(ctx, models.ThreatHigh, nil, 20)
	if err != nil {
		t.Fatalf("QueryThreatLevel failed: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 high events, got %d", len(events))
	}
	if events[0].Timestamp != 3.0 {
		t.Errorf("expected ascending timestamp order, got first = %v", events[0].Timestamp)
	}

	camera := 1
	events, err = testDB.QueryThreatLevel(ctx, models.ThreatHigh, &camera, 20)
	if err != nil {
		t.Fatalf("QueryThreatLevel with camera failed: %v", err)
	}
	if len(events) != 1 || events[0].CameraID != 1 {
		t.Errorf("camera filter failed: %+v", events)
	}
}

func TestDeleteSession(t *testing.T) {
	mustWipe(t)
	ctx := context.Background()

	keep := testRecord(1, 5.0, 150, "low")
	keepSession := "session-keep"
	keep.SessionID = &keepSession

	drop := testRecord(1, 6.0, 180, "low")
	dropSession := "session-drop"
	drop.SessionID = &dropSession

	mustUpsert(t, keep)
	mustUpsert(t, drop)

	if err := testDB.DeleteSession(ctx, "session-drop"); err != nil {
		t.Fatalf("DeleteSession failed: %v", err)
	}

	events, err := testDB.QueryTimeRange(ctx, 1, 0, 100, 10)
	if err != nil {
		t.Fatalf("QueryTimeRange failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 surviving record, got %d", len(events))
	}
	if events[0].SessionID == nil || *events[0].SessionID != "session-keep" {
		t.Errorf("wrong record survived: %+v", events[0])
	}

	// Deleting a session with no records is not an error.
	if err := testDB.DeleteSession(ctx, "session-missing"); err != nil {
		t.Errorf("DeleteSession on missing session: %v", err)
	}
}

func TestStats(t *testing.T) {
	mustWipe(t)
	ctx := context.Background()

	mustUpsert(t, testRecord(1, 1.0, 30, "none"))
	mustUpsert(t, testRecord(1, 2.0, 60, "low"))

	stats, err := testDB.Stats(ctx, 0)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.TotalRecords != 2 {
		t.Errorf("TotalRecords = %d, want 2", stats.TotalRecords)
	}
	if stats.Dimension != testDimension {
		t.Errorf("Dimension = %d, want %d", stats.Dimension, testDimension)
	}
	if stats.Fullness != 0 {
		t.Errorf("Fullness without capacity = %v, want 0", stats.Fullness)
	}

	stats, err = testDB.Stats(ctx, 4)
	if err != nil {
		t.Fatalf("Stats with capacity failed: %v", err)
	}
	if stats.Fullness != 0.5 {
		t.Errorf("Fullness = %v, want 0.5", stats.Fullness)
	}
}
