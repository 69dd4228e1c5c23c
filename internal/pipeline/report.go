package pipeline

import (
	"fmt"

	"github.com/Sabnock01/pyrometer/internal/storage"
)

// Reports renders the bound records of every analyzed function.
func (r *FileResult) Reports() ([]storage.Report, error) {
	var out []storage.Report
	for _, fn := range r.Functions {
		name := FullName(r.Graph, fn.Function)
		for _, a := range fn.Bounds {
			msg, err := a.Message(r.Graph)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", name, err)
			}
			target, err := a.Analysis.TargetString(r.Graph)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", name, err)
			}
			out = append(out, storage.Report{
				Path:     r.Path,
				Function: name,
				Array:    a.ArrayName(r.Graph),
				Line:     a.AccessLoc.Line(r.Source),
				Relation: a.Analysis.Rel.String(),
				Target:   target,
				Message:  msg,
			})
		}
	}
	return out, nil
}

// Snapshot converts the result into its persisted form.
func (r *FileResult) Snapshot() (storage.FileSnapshot, error) {
	reports, err := r.Reports()
	if err != nil {
		return storage.FileSnapshot{}, err
	}
	snap := storage.FileSnapshot{Path: r.Path, Graph: r.Graph, Reports: reports}
	for _, f := range r.Failures {
		snap.Failures = append(snap.Failures, storage.Failure{
			Path:     r.Path,
			Function: f.Function,
			Kind:     Kind(f.Err),
			Message:  f.Err.Error(),
		})
	}
	return snap, nil
}
