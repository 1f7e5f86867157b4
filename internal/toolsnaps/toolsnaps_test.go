package toolsnaps

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type dummyTool struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

// isolateWorkingDir runs the test in a temp dir so snapshots written by one
// test never leak into another.
func isolateWorkingDir(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	orig, err := os.Getwd()
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, os.Chdir(orig)) })
	require.NoError(t, os.Chdir(dir))
}

func TestMissingSnapshotWrittenLocally(t *testing.T) {
	isolateWorkingDir(t)
	t.Setenv("GITHUB_ACTIONS", "false") // tests themselves run in CI

	require.NoError(t, Test("dummy", dummyTool{"foo", 42}))

	_, err := os.Stat(filepath.Join(snapDir, "dummy.snap"))
	assert.NoError(t, err, "expected snapshot file to be written")
}

func TestMissingSnapshotFailsInCI(t *testing.T) {
	isolateWorkingDir(t)
	t.Setenv("UPDATE_TOOLSNAPS", "false")
	t.Setenv("GITHUB_ACTIONS", "true")

	err := Test("dummy", dummyTool{"foo", 42})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tool snapshot does not exist")
}

func TestMatchingSnapshotPasses(t *testing.T) {
	isolateWorkingDir(t)

	tool := dummyTool{"foo", 42}
	b, err := json.MarshalIndent(tool, "", "  ")
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(snapDir, 0700))
	require.NoError(t, os.WriteFile(filepath.Join(snapDir, "dummy.snap"), b, 0600))

	require.NoError(t, Test("dummy", tool))
}

func TestChangedSchemaFailsWithDiff(t *testing.T) {
	isolateWorkingDir(t)
	t.Setenv("UPDATE_TOOLSNAPS", "false")

	require.NoError(t, os.MkdirAll(snapDir, 0700))
	require.NoError(t, os.WriteFile(filepath.Join(snapDir, "dummy.snap"), []byte(`{"name":"foo","value":1}`), 0600))

	err := Test("dummy", dummyTool{"foo", 2})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tool schema for dummy has changed unexpectedly")
}

func TestUpdateOverwritesSnapshot(t *testing.T) {
	isolateWorkingDir(t)
	t.Setenv("UPDATE_TOOLSNAPS", "true")

	require.NoError(t, os.MkdirAll(snapDir, 0700))
	require.NoError(t, os.WriteFile(filepath.Join(snapDir, "dummy.snap"), []byte(`{"name":"foo","value":1}`), 0600))

	require.NoError(t, Test("dummy", dummyTool{"foo", 42}))

	snap, err := os.ReadFile(filepath.Join(snapDir, "dummy.snap"))
	require.NoError(t, err)
	assert.Contains(t, string(snap), `"value": 42`)
}

func TestMalformedSnapshotJSON(t *testing.T) {
	isolateWorkingDir(t)
	t.Setenv("UPDATE_TOOLSNAPS", "false")

	require.NoError(t, os.MkdirAll(snapDir, 0700))
	require.NoError(t, os.WriteFile(filepath.Join(snapDir, "dummy.snap"), []byte(`not-json`), 0600))

	err := Test("dummy", dummyTool{"foo", 42})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse snapshot JSON for dummy")
}

func TestSortJSONKeys(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "simple object",
			input:    `{"z": 1, "a": 2, "m": 3}`,
			expected: "{\n  \"a\": 2,\n  \"m\": 3,\n  \"z\": 1\n}",
		},
		{
			name:     "nested object",
			input:    `{"z": {"y": 1, "x": 2}, "a": 3}`,
			expected: "{\n  \"a\": 3,\n  \"z\": {\n    \"x\": 2,\n    \"y\": 1\n  }\n}",
		},
		{
			name:     "array with objects",
			input:    `{"items": [{"z": 1, "a": 2}]}`,
			expected: "{\n  \"items\": [\n    {\n      \"a\": 2,\n      \"z\": 1\n    }\n  ]\n}",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := sortJSONKeys([]byte(tc.input))
			require.NoError(t, err)
			assert.Equal(t, tc.expected, string(got))
		})
	}
}

func TestSnapshotKeysSortedRegardlessOfFieldOrder(t *testing.T) {
	isolateWorkingDir(t)
	t.Setenv("UPDATE_TOOLSNAPS", "true")

	type outOfOrder struct {
		ZField string `json:"zField"`
		AField string `json:"aField"`
		MField string `json:"mField"`
	}
	tool := outOfOrder{ZField: "z", AField: "a", MField: "m"}

	require.NoError(t, Test("ordering", tool))

	snap, err := os.ReadFile(filepath.Join(snapDir, "ordering.snap"))
	require.NoError(t, err)
	s := string(snap)
	a, m, z := strings.Index(s, "aField"), strings.Index(s, "mField"), strings.Index(s, "zField")
	require.NotEqual(t, -1, a)
	assert.Less(t, a, m)
	assert.Less(t, m, z)

	// Running again against its own output must be a clean pass.
	t.Setenv("UPDATE_TOOLSNAPS", "false")
	require.NoError(t, Test("ordering", tool))
}
