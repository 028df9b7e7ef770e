// Package scan enumerates translatable source documents under a root
// directory and collects the per-directory instruction manifests that
// apply to them.
package scan

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// Source is one translatable document found under the root.
type Source struct {
	// RelPath is the slash-separated path relative to the scan root.
	RelPath string
	// Content is the raw document text.
	Content string
	// Instructions is the concatenation of all instruction manifests on
	// the path from root to the document's directory, root first. Empty
	// when no manifest applies.
	Instructions string
}

// Scanner walks a source tree for Markdown documents.
type Scanner struct {
	root            string
	include         []string
	exclude         []string
	instructionFile string
}

// New creates a scanner rooted at root. Include and exclude patterns
// are path.Match globs tested against the slash-separated relative
// path; an empty include list matches everything.
func New(root string, include, exclude []string, instructionFile string) *Scanner {
	return &Scanner{
		root:            root,
		include:         include,
		exclude:         exclude,
		instructionFile: instructionFile,
	}
}

// Scan walks the tree depth first in lexicographic order and returns
// every matching .md document together with its accumulated
// instructions.
func (s *Scanner) Scan() ([]Source, error) {
	var sources []Source
	err := s.walk(s.root, "", nil, &sources)
	if err != nil {
		return nil, err
	}
	return sources, nil
}

func (s *Scanner) walk(dir, rel string, instructions []string, out *[]Source) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read directory %s: %w", dir, err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	// A manifest in this directory applies to everything below it.
	if s.instructionFile != "" {
		if text, ok := s.readInstructionFile(dir); ok {
			instructions = append(instructions[:len(instructions):len(instructions)], text)
		}
	}

	var subdirs []fs.DirEntry
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		if entry.IsDir() {
			subdirs = append(subdirs, entry)
			continue
		}
		if !strings.HasSuffix(name, ".md") {
			continue
		}
		relPath := path.Join(rel, name)
		if relPath == s.instructionFile || name == s.instructionFile {
			continue
		}
		if !s.matches(relPath) {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return fmt.Errorf("read source %s: %w", relPath, err)
		}
		*out = append(*out, Source{
			RelPath:      relPath,
			Content:      string(data),
			Instructions: strings.Join(instructions, "\n\n"),
		})
	}

	for _, entry := range subdirs {
		sub := filepath.Join(dir, entry.Name())
		if err := s.walk(sub, path.Join(rel, entry.Name()), instructions, out); err != nil {
			return err
		}
	}
	return nil
}

func (s *Scanner) readInstructionFile(dir string) (string, bool) {
	data, err := os.ReadFile(filepath.Join(dir, s.instructionFile))
	if err != nil {
		return "", false
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return "", false
	}
	return text, true
}

// matches applies the include list (empty matches all), then the
// exclude list.
func (s *Scanner) matches(relPath string) bool {
	if len(s.include) > 0 {
		included := false
		for _, pattern := range s.include {
			if ok, _ := path.Match(pattern, relPath); ok {
				included = true
				break
			}
		}
		if !included {
			return false
		}
	}
	for _, pattern := range s.exclude {
		if ok, _ := path.Match(pattern, relPath); ok {
			return false
		}
	}
	return true
}
