package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matsen/depviz/internal/gav"
	"github.com/matsen/depviz/internal/pom"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func boolPtr(b bool) *bool { return &b }

func TestDB_Ingest(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	p := pom.Project{
		Coordinates: gav.New("A", "a", "1"),
		Dependencies: []pom.Dependency{
			{Ref: gav.New("B", "b", "1")},
			{Ref: gav.New("C", "c", "2"), Scope: "test", Optional: boolPtr(true)},
		},
	}
	res, err := db.Ingest(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, IngestResult{NewArtifacts: 3, NewEdges: 2}, res)

	// re-ingesting adds nothing
	res, err = db.Ingest(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, IngestResult{}, res)

	arts, edges, err := db.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, arts)
	assert.Equal(t, 2, edges)
}

func TestDB_EdgeUniqueness(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	base := Edge{FromGAV: "A:a:1", ToGAV: "B:b:1", Scope: "compile"}
	tests := []struct {
		name    string
		edge    Edge
		created bool
	}{
		{"first", base, true},
		{"duplicate with nil optional", base, false},
		{"optional true is distinct", Edge{FromGAV: "A:a:1", ToGAV: "B:b:1", Scope: "compile", Optional: boolPtr(true)}, true},
		{"optional false is distinct", Edge{FromGAV: "A:a:1", ToGAV: "B:b:1", Scope: "compile", Optional: boolPtr(false)}, true},
		{"other scope is distinct", Edge{FromGAV: "A:a:1", ToGAV: "B:b:1", Scope: "test"}, true},
		{"duplicate optional true", Edge{FromGAV: "A:a:1", ToGAV: "B:b:1", Scope: "compile", Optional: boolPtr(true)}, false},
	}
	for _, tt := range tests {
		created, err := db.InsertEdge(ctx, tt.edge)
		require.NoError(t, err, tt.name)
		assert.Equal(t, tt.created, created, tt.name)
	}

	edges, err := db.Edges(ctx, nil)
	require.NoError(t, err)
	require.Len(t, edges, 4)
	assert.Nil(t, edges[0].Optional)
	assert.True(t, edges[1].OptionalSet())
	assert.False(t, edges[2].OptionalSet())
}

func TestDB_EdgesScopeFilter(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	for _, scope := range []string{"compile", "test", "runtime", "test"} {
		_, err := db.InsertEdge(ctx, Edge{FromGAV: "A:a:1", ToGAV: "B:b:" + scope, Scope: scope})
		require.NoError(t, err)
	}

	edges, err := db.Edges(ctx, []string{"test", "runtime"})
	require.NoError(t, err)
	assert.Len(t, edges, 2)

	scopes, err := db.Scopes(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"compile", "runtime", "test"}, scopes)
}

func TestDB_ArtifactsStableIDs(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	for _, v := range []string{"1", "2", "3"} {
		_, err := db.UpsertArtifact(ctx, gav.New("g", "a", v))
		require.NoError(t, err)
	}
	created, err := db.UpsertArtifact(ctx, gav.New("g", "a", "2"))
	require.NoError(t, err)
	assert.False(t, created)

	all, err := db.Artifacts(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "g:a:1", all[0].GAV)
	assert.Less(t, all[0].ID, all[1].ID)

	limited, err := db.Artifacts(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}
