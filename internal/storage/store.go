package storage

import (
	"context"

	"github.com/Sabnock01/pyrometer/internal/graph"
)

// Store persists analysis snapshots.
type Store interface {
	SnapshotStore
	ReportStore
	Close() error
}

// SnapshotStore defines operations for persisting finished graphs.
type SnapshotStore interface {
	// SaveSnapshot replaces everything stored for the given files.
	SaveSnapshot(ctx context.Context, files ...FileSnapshot) error

	// Files lists the stored file paths.
	Files(ctx context.Context) ([]string, error)

	// EdgeCounts tallies the stored edges of one file by kind.
	EdgeCounts(ctx context.Context, path string) (map[graph.EdgeKind]int, error)
}

// ReportStore defines read access to analysis results.
type ReportStore interface {
	// Reports returns every stored bound report, ordered by file and line.
	Reports(ctx context.Context) ([]Report, error)

	// Failures returns every stored function failure, ordered by file.
	Failures(ctx context.Context) ([]Failure, error)
}

// FileSnapshot is the analysis state of one source file.
type FileSnapshot struct {
	Path     string
	Graph    *graph.Graph
	Reports  []Report
	Failures []Failure
}

// Report is a rendered bound-analysis record.
type Report struct {
	Path     string `json:"path"`
	Function string `json:"function"`
	Array    string `json:"array"`
	Line     int    `json:"line"`
	Relation string `json:"relation"`
	Target   string `json:"target"`
	Message  string `json:"message"`
}

// Failure is a function whose analysis was aborted.
type Failure struct {
	Path     string `json:"path"`
	Function string `json:"function"`
	Kind     string `json:"kind"`
	Message  string `json:"message"`
}
