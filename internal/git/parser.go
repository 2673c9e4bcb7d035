package git

import (
	"fmt"
	"strings"
)

// FileCategory says where a status entry shows up in the snapshot.
type FileCategory int

const (
	CategoryUntracked FileCategory = iota
	CategoryUnstaged
	CategoryStaged
)

// StatusEntry is one path from `git status --porcelain=v2`.
type StatusEntry struct {
	Path     string
	Staged   bool
	Unstaged bool
}

// IsUntracked reports whether the entry is an untracked file.
func (s StatusEntry) IsUntracked() bool { return !s.Staged && !s.Unstaged }

// CommitEntry is one line of `git log --format=%h%x00%s`.
type CommitEntry struct {
	ShortHash string
	Subject   string
}

// StashEntry is one line of `git stash list --format=%gd%x00%s`.
type StashEntry struct {
	Ref     string
	Subject string
}

// ParseStatusPorcelainV2 parses `git status --porcelain=v2` output.
//
// Entry kinds: "1" ordinary changed, "2" renamed/copied, "u" unmerged,
// "?" untracked. Ignored entries ("!") are skipped.
func ParseStatusPorcelainV2(output string) ([]StatusEntry, error) {
	var entries []StatusEntry

	for _, line := range strings.Split(output, "\n") {
		if line == "" {
			continue
		}
		switch line[0] {
		case '1', 'u':
			fields := strings.SplitN(line, " ", 9)
			if len(fields) < 9 {
				return nil, fmt.Errorf("malformed status line: %q", line)
			}
			xy := fields[1]
			if len(xy) != 2 {
				return nil, fmt.Errorf("malformed XY field: %q", line)
			}
			entries = append(entries, StatusEntry{
				Path:     fields[8],
				Staged:   xy[0] != '.',
				Unstaged: xy[1] != '.',
			})
		case '2':
			// Renames carry "path<TAB>origPath" in the last field.
			fields := strings.SplitN(line, " ", 10)
			if len(fields) < 10 {
				return nil, fmt.Errorf("malformed rename line: %q", line)
			}
			xy := fields[1]
			path := fields[9]
			if idx := strings.IndexByte(path, '\t'); idx >= 0 {
				path = path[:idx]
			}
			entries = append(entries, StatusEntry{
				Path:     path,
				Staged:   xy[0] != '.',
				Unstaged: xy[1] != '.',
			})
		case '?':
			entries = append(entries, StatusEntry{Path: strings.TrimPrefix(line, "? ")})
		case '!', '#':
			// Ignored entries and headers are not interesting here.
		default:
			return nil, fmt.Errorf("unrecognized status line: %q", line)
		}
	}

	return entries, nil
}

// ParseLog parses NUL-delimited `git log --format=%h%x00%s` output.
func ParseLog(output string) []CommitEntry {
	var commits []CommitEntry
	for _, line := range strings.Split(output, "\n") {
		if line == "" {
			continue
		}
		hash, subject, found := strings.Cut(line, "\x00")
		if !found {
			continue
		}
		commits = append(commits, CommitEntry{ShortHash: hash, Subject: subject})
	}
	return commits
}

// ParseStashList parses NUL-delimited `git stash list --format=%gd%x00%s`.
func ParseStashList(output string) []StashEntry {
	var stashes []StashEntry
	for _, line := range strings.Split(output, "\n") {
		if line == "" {
			continue
		}
		ref, subject, found := strings.Cut(line, "\x00")
		if !found {
			continue
		}
		stashes = append(stashes, StashEntry{Ref: ref, Subject: subject})
	}
	return stashes
}
