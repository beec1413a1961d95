package config

import (
	"bufio"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// AllowListEntries returns the inline entries followed by the entries of every
// fragment file, in pattern order and then path order. It returns
// ErrNoAllowList when nothing usable is configured.
func (c *Config) AllowListEntries() ([]string, error) {
	entries := SplitList(strings.Join(c.AllowedURIs, ","))

	for _, pattern := range c.AllowListFiles {
		fromFiles, err := c.expandFragments(pattern)
		if err != nil {
			return nil, err
		}
		entries = append(entries, fromFiles...)
	}

	if len(entries) == 0 {
		return nil, ErrNoAllowList
	}
	return entries, nil
}

func (c *Config) expandFragments(pattern string) ([]string, error) {
	if !filepath.IsAbs(pattern) && c.fragmentBase != "" {
		pattern = filepath.Join(c.fragmentBase, pattern)
	}

	// FilepathGlob returns matches using the OS path separator
	matches, err := doublestar.FilepathGlob(pattern)
	if err != nil {
		return nil, &ConfigError{Path: pattern, Message: "invalid allowListFiles pattern: " + err.Error(), Err: err}
	}
	slices.Sort(matches)

	var entries []string
	for _, path := range matches {
		lines, err := readFragment(path)
		if err != nil {
			return nil, err
		}
		entries = append(entries, lines...)
	}
	return entries, nil
}

// readFragment reads one entry per line. Blank lines and lines starting with
// '#' are skipped; a line may also hold a comma-separated list.
func readFragment(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &ConfigError{Path: path, Message: err.Error(), Err: err}
	}
	defer f.Close()

	var entries []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		entries = append(entries, SplitList(line)...)
	}
	if err := sc.Err(); err != nil {
		return nil, &ConfigError{Path: path, Message: err.Error(), Err: err}
	}
	return entries, nil
}
