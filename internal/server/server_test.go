package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matsen/depviz/internal/client"
	"github.com/matsen/depviz/internal/gav"
	"github.com/matsen/depviz/internal/graph"
	"github.com/matsen/depviz/internal/query"
	"github.com/matsen/depviz/internal/store"
)

func descriptor(g, a, v string, deps ...string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<project><groupId>%s</groupId><artifactId>%s</artifactId><version>%s</version><dependencies>", g, a, v)
	for _, d := range deps {
		parts := strings.Split(d, ":")
		b.WriteString("<dependency>")
		fmt.Fprintf(&b, "<groupId>%s</groupId><artifactId>%s</artifactId><version>%s</version>", parts[0], parts[1], parts[2])
		if len(parts) > 3 {
			fmt.Fprintf(&b, "<scope>%s</scope>", parts[3])
		}
		b.WriteString("</dependency>")
	}
	b.WriteString("</dependencies></project>")
	return b.String()
}

func newTestServer(t *testing.T) (*httptest.Server, *client.Client) {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "depviz.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	ts := httptest.NewServer(New(db).Handler())
	t.Cleanup(ts.Close)
	return ts, client.NewClient(client.WithBaseURL(ts.URL), client.WithRateLimit(0))
}

func upload(t *testing.T, c *client.Client, files map[string]string) client.UploadOutcome {
	t.Helper()
	var batch []client.UploadFile
	for name, content := range files {
		batch = append(batch, client.UploadFile{Name: name, Content: []byte(content)})
	}
	out, err := c.Upload(context.Background(), batch)
	require.NoError(t, err)
	return out
}

func seedChain(t *testing.T, c *client.Client) {
	t.Helper()
	out := upload(t, c, map[string]string{
		"a.xml": descriptor("A", "a", "1", "B:b:1"),
		"b.xml": descriptor("B", "b", "1", "C:c:1"),
	})
	require.True(t, out.Success)
	require.Equal(t, 2, out.Parsed)
}

func TestEndToEnd_WholeGraph(t *testing.T) {
	_, c := newTestServer(t)
	seedChain(t, c)

	els, err := c.FetchGraph(context.Background(), query.GraphQuery{})
	require.NoError(t, err)
	assert.Len(t, els.Nodes, 3)
	assert.Len(t, els.Edges, 2)
}

func TestEndToEnd_RootedDepthOne(t *testing.T) {
	_, c := newTestServer(t)
	seedChain(t, c)
	ctx := context.Background()

	fwd, err := c.FetchGraph(ctx, query.GraphQuery{RootID: "A:a:1", Direction: query.Forward, Depth: 1})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"A:a:1", "B:b:1"}, fwd.NodeIDs())
	require.Len(t, fwd.Edges, 1)
	root, ok := fwd.Node("A:a:1")
	require.True(t, ok)
	assert.True(t, root.HasClass("root"))

	rev, err := c.FetchGraph(ctx, query.GraphQuery{RootID: "C:c:1", Direction: query.Reverse, Depth: 1})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"C:c:1", "B:b:1"}, rev.NodeIDs())
	require.Len(t, rev.Edges, 1)
	assert.Equal(t, "B:b:1", rev.Edges[0].Source)
	assert.Equal(t, "C:c:1", rev.Edges[0].Target)
}

func TestEndToEnd_UnknownRootIsEmpty(t *testing.T) {
	_, c := newTestServer(t)
	seedChain(t, c)

	els, err := c.FetchGraph(context.Background(), query.GraphQuery{RootID: "Z:z:9"})
	require.NoError(t, err)
	assert.True(t, els.IsEmpty())
}

func TestEndToEnd_CollapseVersionMergesEdges(t *testing.T) {
	_, c := newTestServer(t)
	out := upload(t, c, map[string]string{
		"a1.xml": descriptor("A", "a", "1", "B:b:1"),
		"a2.xml": descriptor("A", "a", "2", "B:b:1:test"),
	})
	require.True(t, out.Success)

	els, err := c.FetchGraph(context.Background(), query.GraphQuery{Collapse: gav.Collapse{Version: true}})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"A:a:*", "B:b:*"}, els.NodeIDs())
	require.Len(t, els.Edges, 1)
	assert.Equal(t, "compile, test", els.Edges[0].Scope)
}

func TestEndToEnd_ScopeFilter(t *testing.T) {
	_, c := newTestServer(t)
	upload(t, c, map[string]string{
		"a.xml": descriptor("A", "a", "1", "B:b:1", "J:junit:5:test"),
	})

	els, err := c.FetchGraph(context.Background(), query.GraphQuery{Scopes: []string{"test"}})
	require.NoError(t, err)
	require.Len(t, els.Edges, 1)
	assert.Equal(t, "J:junit:5", els.Edges[0].Target)

	scopes, err := c.FetchScopeValues(context.Background())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"compile", "test"}, scopes)
}

func TestEndToEnd_Table(t *testing.T) {
	_, c := newTestServer(t)
	seedChain(t, c)
	ctx := context.Background()

	rows, err := c.FetchTable(ctx, query.TableQuery{ArtifactPattern: "c"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "B:b:1", rows[0].FromGAV)
	assert.Equal(t, "compile", rows[0].Scope)

	rows, err = c.FetchTable(ctx, query.TableQuery{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestEndToEnd_Artifacts(t *testing.T) {
	_, c := newTestServer(t)
	seedChain(t, c)

	arts, err := c.Artifacts(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, arts, 2)
	assert.NotZero(t, arts[0].ID)
}

func TestEndToEnd_ExportDependencies(t *testing.T) {
	_, c := newTestServer(t)
	seedChain(t, c)

	var buf bytes.Buffer
	_, err := c.ExportDependencies(context.Background(), query.TableQuery{}, &buf)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "source_group,source_artifact,source_version,target_group,target_artifact,target_version,scope", lines[0])
	assert.Contains(t, lines[1:], "A,a,1,B,b,1,compile")
}

func TestEndToEnd_ExportTable(t *testing.T) {
	_, c := newTestServer(t)
	seedChain(t, c)

	var buf bytes.Buffer
	_, err := c.ExportTable(context.Background(), store.EdgeTable, &buf)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(buf.String(), "id,from_gav,to_gav,scope,optional\n"))
	assert.Contains(t, buf.String(), "A:a:1,B:b:1,compile,")
}

func TestUpload_NoFiles(t *testing.T) {
	ts, _ := newTestServer(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.Close())
	resp, err := http.Post(ts.URL+"/api/upload", mw.FormDataContentType(), &body)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var out client.UploadOutcome
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.False(t, out.Success)
	assert.Equal(t, "No files provided", out.Error)
}

func TestUpload_PartialFailure(t *testing.T) {
	_, c := newTestServer(t)
	out := upload(t, c, map[string]string{
		"good.xml": descriptor("A", "a", "1", "B:b:1"),
		"bad.xml":  "<project><version>1</version></project>",
	})
	assert.True(t, out.Success)
	assert.Equal(t, 1, out.Parsed)
	assert.Equal(t, 1, out.Skipped)
	assert.Equal(t, 2, out.NewArtifacts)
	assert.Equal(t, 1, out.NewEdges)
	require.Len(t, out.Errors, 1)
	assert.True(t, strings.HasPrefix(out.Errors[0], "bad.xml: "))
	assert.True(t, out.Partial())
}

func TestGraphData_BadParams(t *testing.T) {
	ts, _ := newTestServer(t)

	for _, q := range []string{"direction=sideways", "show_group=maybe", "depth=-1"} {
		resp, err := http.Get(ts.URL + "/api/graph/data?" + q)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, q)
	}
}

func TestGraphData_EmptyDatabase(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/graph/data")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var doc graph.Document
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&doc))
	assert.Empty(t, doc.Elements)
}

func TestTableExport_Errors(t *testing.T) {
	ts, _ := newTestServer(t)

	tests := []struct {
		path string
		want int
	}{
		{"/export/artifact.csv", http.StatusOK},
		{"/export/unknown.csv", http.StatusNotFound},
		{"/export/bad-name.csv", http.StatusBadRequest},
		{"/export/artifact.json", http.StatusNotFound},
	}
	for _, tt := range tests {
		resp, err := http.Get(ts.URL + tt.path)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, tt.want, resp.StatusCode, tt.path)
	}
}

func TestCors_Preflight(t *testing.T) {
	h := Cors("https://example.org", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("preflight reached handler")
	}))
	req := httptest.NewRequest(http.MethodOptions, "/api/graph/data", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://example.org", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestHealth(t *testing.T) {
	ts, c := newTestServer(t)
	seedChain(t, c)

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "healthy", body["status"])
	assert.EqualValues(t, 3, body["artifacts"])
}
