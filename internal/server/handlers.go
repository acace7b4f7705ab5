package server

import (
	"encoding/csv"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/matsen/depviz/internal/client"
	"github.com/matsen/depviz/internal/depgraph"
	"github.com/matsen/depviz/internal/gav"
	"github.com/matsen/depviz/internal/graph"
	"github.com/matsen/depviz/internal/query"
	"github.com/matsen/depviz/internal/store"
)

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	if err := r.ParseMultipartForm(s.maxUploadBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		writeJSON(w, http.StatusBadRequest, client.UploadOutcome{Error: fmt.Sprintf("reading upload: %v", err)})
		return
	}
	var files []*multipartFile
	if r.MultipartForm != nil {
		for _, fh := range r.MultipartForm.File["files"] {
			files = append(files, &multipartFile{header: fh})
		}
	}
	if len(files) == 0 {
		writeJSON(w, http.StatusBadRequest, client.UploadOutcome{Error: "No files provided"})
		return
	}

	outcome := client.UploadOutcome{Success: true, Errors: []string{}}
	for _, f := range files {
		name := f.header.Filename
		project, err := f.parse()
		if err == nil {
			var res store.IngestResult
			res, err = s.db.Ingest(r.Context(), project)
			outcome.NewArtifacts += res.NewArtifacts
			outcome.NewEdges += res.NewEdges
		}
		if err != nil {
			s.logger.Warn("failed to ingest descriptor", "file", name, "error", err)
			outcome.Errors = append(outcome.Errors, name+": "+err.Error())
			outcome.Skipped++
			continue
		}
		outcome.Parsed++
		s.logger.Info("parsed descriptor", "project", project.Coordinates.String(),
			"dependencies", len(project.Dependencies))
	}
	writeJSON(w, http.StatusOK, outcome)
}

func (s *Server) handleArtifacts(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r.URL.Query(), "limit", client.DefaultArtifactLimit)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	arts, err := s.db.Artifacts(r.Context(), limit)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	out := make([]client.Artifact, len(arts))
	for i, a := range arts {
		out[i] = client.Artifact(a)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGraphData(w http.ResponseWriter, r *http.Request) {
	req, scopes, err := parseGraphRequest(r.URL.Query())
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	nodes, edges, err := s.loadEdges(r.Context(), scopes)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, graph.NewDocument(depgraph.Build(nodes, edges, req)))
}

func parseGraphRequest(v url.Values) (depgraph.Request, []string, error) {
	var req depgraph.Request
	req.RootID = v.Get("root_id")

	dir := v.Get("direction")
	if dir == "" {
		dir = string(query.DefaultDirection)
	}
	d, err := query.ParseDirection(dir)
	if err != nil {
		return req, nil, err
	}
	req.Direction = d

	showGroup, err := boolParam(v, "show_group", true)
	if err != nil {
		return req, nil, err
	}
	showVersion, err := boolParam(v, "show_version", true)
	if err != nil {
		return req, nil, err
	}
	req.Collapse = gav.Collapse{Group: !showGroup, Version: !showVersion}

	if req.Depth, err = intParam(v, "depth", 0); err != nil {
		return req, nil, err
	}
	return req, v["scope"], nil
}

func parseTableFilter(v url.Values, defaultLimit int) (depgraph.TableFilter, error) {
	f := depgraph.TableFilter{
		ArtifactPattern: v.Get("q"),
		GroupPattern:    v.Get("group_q"),
		Scopes:          v["scope"],
	}
	var err error
	if f.IgnoreVersion, err = boolParam(v, "ignore_version", false); err != nil {
		return f, err
	}
	if f.IgnoreGroup, err = boolParam(v, "ignore_group", false); err != nil {
		return f, err
	}
	if f.Limit, err = intParam(v, "limit", defaultLimit); err != nil {
		return f, err
	}
	return f, nil
}

func (s *Server) handleDependencyTable(w http.ResponseWriter, r *http.Request) {
	f, err := parseTableFilter(r.URL.Query(), query.DefaultTableLimit)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	_, edges, err := s.loadEdges(r.Context(), nil)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	rows := depgraph.Rows(edges, f)
	if rows == nil {
		rows = []client.Row{}
	}
	writeJSON(w, http.StatusOK, rows)
}

func (s *Server) handleDependencyExport(w http.ResponseWriter, r *http.Request) {
	f, err := parseTableFilter(r.URL.Query(), 0)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	_, edges, err := s.loadEdges(r.Context(), nil)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}

	setCSVHeaders(w, "dependencies.csv")
	cw := csv.NewWriter(w)
	cw.Write([]string{"source_group", "source_artifact", "source_version",
		"target_group", "target_artifact", "target_version", "scope"})
	for _, row := range depgraph.Rows(edges, f) {
		cw.Write([]string{row.FromGroup, row.FromArtifact, row.FromVersion,
			row.ToGroup, row.ToArtifact, row.ToVersion, row.Scope})
	}
	cw.Flush()
}

var tableNamePattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

func (s *Server) handleTableExport(w http.ResponseWriter, r *http.Request) {
	file := r.PathValue("file")
	table, ok := strings.CutSuffix(file, ".csv")
	if !ok {
		http.NotFound(w, r)
		return
	}
	if !tableNamePattern.MatchString(table) {
		s.writeError(w, http.StatusBadRequest, errors.New("invalid table name"))
		return
	}

	ctx := r.Context()
	switch strings.ToLower(table) {
	case store.ArtifactTable:
		arts, err := s.db.Artifacts(ctx, 0)
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, err)
			return
		}
		setCSVHeaders(w, table+".csv")
		cw := csv.NewWriter(w)
		cw.Write([]string{"id", "gav", "group_id", "artifact_id", "version"})
		for _, a := range arts {
			cw.Write([]string{strconv.FormatInt(a.ID, 10), a.GAV, a.GroupID, a.ArtifactID, a.Version})
		}
		cw.Flush()
	case store.EdgeTable:
		edges, err := s.db.Edges(ctx, nil)
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, err)
			return
		}
		setCSVHeaders(w, table+".csv")
		cw := csv.NewWriter(w)
		cw.Write([]string{"id", "from_gav", "to_gav", "scope", "optional"})
		for _, e := range edges {
			optional := ""
			if e.Optional != nil {
				optional = strconv.FormatBool(*e.Optional)
			}
			cw.Write([]string{strconv.FormatInt(e.ID, 10), e.FromGAV, e.ToGAV, e.Scope, optional})
		}
		cw.Flush()
	default:
		s.writeError(w, http.StatusNotFound, fmt.Errorf("table not found: %s", table))
	}
}

func setCSVHeaders(w http.ResponseWriter, filename string) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
}

func boolParam(v url.Values, key string, def bool) (bool, error) {
	s := v.Get(key)
	if s == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: must be true or false", key, s)
	}
	return b, nil
}

func intParam(v url.Values, key string, def int) (int, error) {
	s := v.Get(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s %q: must be a non-negative integer", key, s)
	}
	return n, nil
}
