// Package client talks to the depviz data server. It has no rendering or UI
// knowledge and keeps no cache: every call is a fresh request.
package client

// UploadOutcome is the result of one upload batch.
type UploadOutcome struct {
	Success      bool     `json:"success"`
	Parsed       int      `json:"parsed"`
	NewArtifacts int      `json:"newArtifacts"`
	NewEdges     int      `json:"newEdges"`
	Skipped      int      `json:"skipped"`
	Errors       []string `json:"errors,omitempty"`
	Error        string   `json:"error,omitempty"`
}

// Partial reports whether the batch was accepted but not fully ingested.
func (o UploadOutcome) Partial() bool {
	return !o.Success || len(o.Errors) > 0
}

// Artifact is a stored artifact with its numeric id.
type Artifact struct {
	ID         int64  `json:"id"`
	GAV        string `json:"gav"`
	GroupID    string `json:"group_id"`
	ArtifactID string `json:"artifact_id"`
	Version    string `json:"version"`
}

// Row is one dependency pair of the table view.
type Row struct {
	FromGAV      string `json:"fromGav"`
	FromGroup    string `json:"fromGroup"`
	FromArtifact string `json:"fromArtifact"`
	FromVersion  string `json:"fromVersion"`
	ToGAV        string `json:"toGav,omitempty"`
	ToGroup      string `json:"toGroup"`
	ToArtifact   string `json:"toArtifact"`
	ToVersion    string `json:"toVersion"`
	Scope        string `json:"scope"`
}

// UploadFile is one descriptor to upload.
type UploadFile struct {
	Name    string
	Content []byte
}
