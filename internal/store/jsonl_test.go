package store

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matsen/depviz/internal/gav"
	"github.com/matsen/depviz/internal/pom"
)

func TestComputeJSONLHash(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.jsonl")

	empty, err := ComputeJSONLHash(path)
	require.NoError(t, err)
	assert.NotEmpty(t, empty, "nonexistent file hashes as empty")

	require.NoError(t, os.WriteFile(path, []byte(`{"kind":"artifact"}`+"\n"), 0644))
	h1, err := ComputeJSONLHash(path)
	require.NoError(t, err)
	assert.NotEqual(t, empty, h1)

	h2, err := ComputeJSONLHash(path)
	require.NoError(t, err)
	assert.Equal(t, h1, h2, "hash is deterministic")
}

func TestSnapshot_RoundTrip(t *testing.T) {
	ctx := context.Background()
	src := openTestDB(t)
	_, err := src.Ingest(ctx, pom.Project{
		Coordinates: gav.New("A", "a", "1"),
		Dependencies: []pom.Dependency{
			{Ref: gav.New("B", "b", "1")},
			{Ref: gav.New("C", "c", "2"), Scope: "test", Optional: boolPtr(true)},
		},
	})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "snapshot.jsonl")
	require.NoError(t, src.WriteSnapshot(ctx, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 5)
	assert.Contains(t, lines[0], `"kind":"artifact"`)
	assert.Contains(t, lines[4], `"optional":true`)

	dst := openTestDB(t)
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	res, err := dst.ReadSnapshot(ctx, f)
	require.NoError(t, err)
	assert.Equal(t, IngestResult{NewArtifacts: 3, NewEdges: 2}, res)

	want, err := src.Records(ctx)
	require.NoError(t, err)
	got, err := dst.Records(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	// merging again adds nothing
	res, err = dst.ReadSnapshot(ctx, strings.NewReader(string(data)))
	require.NoError(t, err)
	assert.Equal(t, IngestResult{}, res)
}

func TestReadSnapshot_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"malformed json", "{not json}\n"},
		{"unknown kind", `{"kind":"paper"}` + "\n"},
		{"artifact without group", `{"kind":"artifact","artifact_id":"a"}` + "\n"},
		{"edge without endpoints", `{"kind":"edge","from":"A:a:1"}` + "\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := openTestDB(t)
			_, err := db.ReadSnapshot(context.Background(), strings.NewReader(tt.data))
			assert.Error(t, err)

			arts, edges, err := db.Counts(context.Background())
			require.NoError(t, err)
			assert.Zero(t, arts+edges, "failed snapshot must not leave rows")
		})
	}
}

func TestReadSnapshot_SkipsBlankLines(t *testing.T) {
	db := openTestDB(t)
	data := "\n" + `{"kind":"artifact","group_id":"A","artifact_id":"a","version":"1"}` + "\n\n"
	res, err := db.ReadSnapshot(context.Background(), strings.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 1, res.NewArtifacts)
}
