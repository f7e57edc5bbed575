// Package source loads drill text from files and pipes.
package source

import (
	"bufio"
	"io"
	"os"
	"strings"
)

const maxLineBytes = 1 << 20

// LoadFile reads drill text from the provided file path.
func LoadFile(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			// Best-effort close for read-only text file.
			_ = cerr
		}
	}()
	return Read(file)
}

// Read returns the text from r with line endings normalized to "\n".
// Blank lines are kept since they separate multi-line segments.
func Read(r io.Reader) (string, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for scanner.Scan() {
		lines = append(lines, strings.TrimSuffix(scanner.Text(), "\r"))
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	if len(lines) > 0 {
		lines[0] = strings.TrimPrefix(lines[0], "\ufeff")
	}
	return strings.Join(lines, "\n"), nil
}
