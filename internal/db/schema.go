package db

import "fmt"

// schemaSQL returns the event table schema. The HNSW index dimension is
// parameterized because it must match the configured embedding model.
func schemaSQL(dimension int) string {
	return fmt.Sprintf(`
    -- ==========================================================================
    -- EVENT TABLE (one observation of one camera at one instant)
    -- ==========================================================================
    DEFINE TABLE IF NOT EXISTS event SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS camera_id ON event TYPE int;
    DEFINE FIELD IF NOT EXISTS timestamp ON event TYPE float;
    DEFINE FIELD IF NOT EXISTS frame_number ON event TYPE int;
    DEFINE FIELD IF NOT EXISTS threat_level ON event TYPE string DEFAULT "none";
    DEFINE FIELD IF NOT EXISTS weapon_type ON event TYPE string DEFAULT "none";
    DEFINE FIELD IF NOT EXISTS people_count ON event TYPE int DEFAULT 0;
    DEFINE FIELD IF NOT EXISTS unfamiliar_face ON event TYPE bool DEFAULT false;
    DEFINE FIELD IF NOT EXISTS threats ON event TYPE array<string> DEFAULT [];
    DEFINE FIELD IF NOT EXISTS description ON event TYPE string DEFAULT "";
    DEFINE FIELD IF NOT EXISTS searchable_text ON event TYPE string DEFAULT "";
    DEFINE FIELD IF NOT EXISTS embedding ON event TYPE array<float>;
    DEFINE FIELD IF NOT EXISTS session_id ON event TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS video_path ON event TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS ingestion_time ON event TYPE datetime DEFAULT time::now();

    -- Time-range queries filter on (camera_id, timestamp); session deletes
    -- and threat-level filters get their own indexes.
    DEFINE INDEX IF NOT EXISTS event_camera_time ON event FIELDS camera_id, timestamp;
    DEFINE INDEX IF NOT EXISTS event_session ON event FIELDS session_id;
    DEFINE INDEX IF NOT EXISTS event_threat_level ON event FIELDS threat_level;
    DEFINE INDEX IF NOT EXISTS event_embedding ON event FIELDS embedding HNSW DIMENSION %d DIST COSINE TYPE F32;
`, dimension)
}
