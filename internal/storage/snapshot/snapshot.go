// Package snapshot provides whole-file JSON snapshot persistence for the
// agent's stores. Every mutation rewrites the full file; a crash mid-cycle
// loses only the in-flight action, never prior history.
package snapshot

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// schemaVersion is embedded in every snapshot file. Loaders reject files
// with a version they do not understand.
const schemaVersion = 1

// envelope wraps snapshot payloads with a schema version.
type envelope struct {
	Version int             `json:"version"`
	Records json.RawMessage `json:"records"`
}

// writeFile serializes records into a versioned envelope and atomically
// replaces the target file (write to temp, then rename).
func writeFile(path string, records interface{}) error {
	raw, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal records: %w", err)
	}

	data, err := json.MarshalIndent(envelope{Version: schemaVersion, Records: raw}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}

// readFile loads a versioned snapshot into records. A missing file is not
// an error: records is left untouched and ok is false.
func readFile(path string, records interface{}) (ok bool, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("read snapshot: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return false, fmt.Errorf("parse snapshot: %w", err)
	}
	if env.Version != schemaVersion {
		return false, fmt.Errorf("unsupported snapshot version %d (want %d)", env.Version, schemaVersion)
	}
	if err := json.Unmarshal(env.Records, records); err != nil {
		return false, fmt.Errorf("parse snapshot records: %w", err)
	}
	return true, nil
}
