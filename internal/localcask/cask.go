package localcask

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// CaskInfo describes a cask definition inside the repository.
type CaskInfo struct {
	// File is the definition file name, e.g. "myapp.rb".
	File string
	// Dir is the directory containing File.
	Dir string
	// Path is Dir joined with File.
	Path string
	// AppName is the application bundle installed by the cask, e.g. "MyApp.app".
	AppName string
}

// CaskInfo reads <casks>/<name>.rb and extracts the application name.
func (r *Repo) CaskInfo(name string) (*CaskInfo, error) {
	info := &CaskInfo{
		File: name + ".rb",
		Dir:  r.CasksDir(),
	}
	info.Path = filepath.Join(info.Dir, info.File)

	f, err := os.Open(info.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCaskNotFound, info.Path, err)
	}
	defer f.Close()

	appName, err := ParseAppName(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", info.Path, err)
	}
	info.AppName = appName
	return info, nil
}

// ParseAppName returns the quoted name from the first app stanza of a cask
// definition:
//
//	cask "myapp" do
//	  version "1.0"
//	  app "My App.app"
//	end
func ParseAppName(r io.Reader) (string, error) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		fields := strings.Fields(line)
		if len(fields) == 0 || fields[0] != "app" {
			continue
		}

		name, ok := quoted(strings.TrimSpace(line[len("app"):]))
		if !ok || name == "" {
			return "", fmt.Errorf("%w: malformed app stanza %q", ErrNoAppName, line)
		}
		return name, nil
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrNoAppName, err)
	}
	return "", ErrNoAppName
}

// quoted returns the contents of the single- or double-quoted string at the
// start of s.
func quoted(s string) (string, bool) {
	if len(s) < 2 {
		return "", false
	}
	q := s[0]
	if q != '"' && q != '\'' {
		return "", false
	}
	end := strings.IndexByte(s[1:], q)
	if end < 0 {
		return "", false
	}
	return s[1 : end+1], true
}
