// Package toolsnaps guards tool schemas against accidental change. Each tool
// definition is snapshotted as sorted JSON under __toolsnaps__/; tests
// compare the live definition against the stored snapshot and fail with a
// structural diff when they drift.
//
// Locally a missing snapshot is written on first run. In CI a missing
// snapshot is an error, so schema changes always show up in review. Set
// UPDATE_TOOLSNAPS=true to rewrite snapshots after an intentional change.
package toolsnaps

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	jd "github.com/josephburnett/jd/lib"
)

const snapDir = "__toolsnaps__"

// Test compares tool against the stored snapshot for toolName, writing or
// updating the snapshot according to the environment.
func Test(toolName string, tool any) error {
	toolJSON, err := json.Marshal(tool)
	if err != nil {
		return fmt.Errorf("failed to marshal tool %s: %w", toolName, err)
	}

	sorted, err := sortJSONKeys(toolJSON)
	if err != nil {
		return fmt.Errorf("failed to normalize tool JSON for %s: %w", toolName, err)
	}

	snapPath := filepath.Join(snapDir, toolName+".snap")

	_, statErr := os.Stat(snapPath)
	snapExists := statErr == nil
	if statErr != nil && !errors.Is(statErr, fs.ErrNotExist) {
		return fmt.Errorf("failed to stat snapshot %s: %w", snapPath, statErr)
	}

	// A snapshot that is missing in CI means it was never committed.
	if !snapExists && inCI() {
		return fmt.Errorf("tool snapshot does not exist for %s: run the tests locally and commit the snapshot file", toolName)
	}

	if updateRequested() || !snapExists {
		return writeSnap(snapPath, sorted)
	}

	snapJSON, err := os.ReadFile(snapPath) //nolint:gosec // path is built from the tool name
	if err != nil {
		return fmt.Errorf("failed to read snapshot %s: %w", snapPath, err)
	}

	snapNode, err := jd.ReadJsonString(string(snapJSON))
	if err != nil {
		return fmt.Errorf("failed to parse snapshot JSON for %s: %w", toolName, err)
	}
	toolNode, err := jd.ReadJsonString(string(sorted))
	if err != nil {
		return fmt.Errorf("failed to parse tool JSON for %s: %w", toolName, err)
	}

	if diff := snapNode.Diff(toolNode).Render(); diff != "" {
		return fmt.Errorf("tool schema for %s has changed unexpectedly:\n%s\nrun with UPDATE_TOOLSNAPS=true if the change is intentional", toolName, diff)
	}
	return nil
}

func inCI() bool {
	return os.Getenv("GITHUB_ACTIONS") == "true"
}

func updateRequested() bool {
	return os.Getenv("UPDATE_TOOLSNAPS") == "true"
}

func writeSnap(path string, contents []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}
	if err := os.WriteFile(path, contents, 0600); err != nil {
		return fmt.Errorf("failed to write snapshot %s: %w", path, err)
	}
	return nil
}

// sortJSONKeys re-encodes JSON with object keys in sorted order at every
// level, so snapshots do not churn when struct field order changes.
// encoding/json sorts map keys during marshalling once the input is decoded
// into generic values, including at nested levels.
func sortJSONKeys(in []byte) ([]byte, error) {
	var value any
	if err := json.Unmarshal(in, &value); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}
	out, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to re-encode JSON: %w", err)
	}
	return out, nil
}
