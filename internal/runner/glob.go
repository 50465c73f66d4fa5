package runner

import "path/filepath"

// Glob returns the entries of dir matching pattern. Metacharacters in dir
// are matched literally, so a directory such as "Trash [old]" is safe.
func Glob(dir, pattern string) ([]string, error) {
	return filepath.Glob(filepath.Join(EscapeGlob(dir), pattern))
}

// EscapeGlob quotes the filepath.Match metacharacters in s.
func EscapeGlob(s string) string {
	var out []rune
	for _, r := range s {
		switch r {
		case '*', '?', '[', '\\':
			out = append(out, '\\')
		}
		out = append(out, r)
	}
	return string(out)
}
