package git

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

type ChangedFile struct {
	Path         string
	ChangedLines []int
}

// Contains reports whether line was added or modified.
func (f ChangedFile) Contains(line int) bool {
	for _, l := range f.ChangedLines {
		if l == line {
			return true
		}
	}
	return false
}

// Index maps the absolute path of each changed file to its changes.
type Index map[string]ChangedFile

func NewIndex(changes []ChangedFile) Index {
	ix := make(Index, len(changes))
	for _, c := range changes {
		ix[c.Path] = c
	}
	return ix
}

func (ix Index) lookup(path string) (ChangedFile, bool) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return ChangedFile{}, false
	}
	f, ok := ix[abs]
	return f, ok
}

// Has reports whether path changed at all.
func (ix Index) Has(path string) bool {
	_, ok := ix.lookup(path)
	return ok
}

// Changed reports whether line of path was added or modified.
func (ix Index) Changed(path string, line int) bool {
	f, ok := ix.lookup(path)
	return ok && f.Contains(line)
}

// ChangedFiles runs git diff in dir against baseRef and returns the changed
// files with absolute paths.
func ChangedFiles(ctx context.Context, dir, baseRef string) ([]ChangedFile, error) {
	top, err := exec.CommandContext(ctx, "git", "-C", dir, "rev-parse", "--show-toplevel").Output()
	if err != nil {
		return nil, fmt.Errorf("git rev-parse failed: %w", err)
	}
	output, err := exec.CommandContext(ctx, "git", "-C", dir, "diff", "-U0", baseRef).Output()
	if err != nil {
		return nil, fmt.Errorf("git diff failed: %w", err)
	}

	changes, err := parseDiff(output)
	if err != nil {
		return nil, err
	}
	root := strings.TrimSpace(string(top))
	for i := range changes {
		changes[i].Path = filepath.Join(root, filepath.FromSlash(changes[i].Path))
	}
	return changes, nil
}

var chunkHeader = regexp.MustCompile(`^@@ \-\d+(?:,\d+)? \+(\d+)(?:,(\d+))? @@`)

func parseDiff(output []byte) ([]ChangedFile, error) {
	scanner := bufio.NewScanner(bytes.NewReader(output))
	var changes []ChangedFile
	var currentFile *ChangedFile

	for scanner.Scan() {
		line := scanner.Text()

		if strings.HasPrefix(line, "diff --git") {
			// a/path b/path: keep the new side
			parts := strings.Fields(line)
			if len(parts) >= 4 {
				if currentFile != nil {
					changes = append(changes, *currentFile)
				}
				currentFile = &ChangedFile{Path: strings.TrimPrefix(parts[3], "b/"), ChangedLines: []int{}}
			}
			continue
		}

		if currentFile == nil || !strings.HasPrefix(line, "@@") {
			continue
		}
		matches := chunkHeader.FindStringSubmatch(line)
		if len(matches) < 2 {
			continue
		}
		startLine, err := strconv.Atoi(matches[1])
		if err != nil {
			return nil, fmt.Errorf("bad hunk header %q: %w", line, err)
		}
		count := 1
		if matches[2] != "" {
			if count, err = strconv.Atoi(matches[2]); err != nil {
				return nil, fmt.Errorf("bad hunk header %q: %w", line, err)
			}
		}
		// count 0 is a pure deletion
		for i := 0; i < count; i++ {
			currentFile.ChangedLines = append(currentFile.ChangedLines, startLine+i)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if currentFile != nil {
		changes = append(changes, *currentFile)
	}
	return changes, nil
}
