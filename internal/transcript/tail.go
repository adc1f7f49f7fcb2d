// Package transcript reads back the tail of action transcript files, the
// rotated JSON logs that record every issued service action.
package transcript

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"strings"
)

// MaxLines bounds a single tail request.
const MaxLines = 10000

// smallFileLimit is the size under which the file is read in one forward
// pass instead of backwards in chunks.
const smallFileLimit = 1 << 20

// Tail returns the last n lines of the file at path, oldest first.
func Tail(path string, n int) ([]string, error) {
	if n <= 0 {
		return nil, fmt.Errorf("line count must be greater than 0")
	}
	if n > MaxLines {
		return nil, fmt.Errorf("line count cannot exceed %d", MaxLines)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open transcript: %w", err)
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat transcript: %w", err)
	}

	if stat.Size() < smallFileLimit {
		return lastLinesForward(file, n)
	}
	return lastLinesBackward(file, stat.Size(), n)
}

// lastLinesForward scans the whole file and keeps the last n lines.
func lastLinesForward(file *os.File, n int) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(file)

	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading transcript: %w", err)
	}

	if len(lines) <= n {
		return lines, nil
	}
	return lines[len(lines)-n:], nil
}

// lastLinesBackward walks the file backwards in fixed-size chunks,
// collecting up to n lines without loading the whole file.
func lastLinesBackward(file *os.File, fileSize int64, n int) ([]string, error) {
	const chunkSize = 4096
	buf := make([]byte, chunkSize)

	end := fileSize

	// A trailing newline terminates the last line rather than starting a
	// new one.
	if end > 0 {
		var last [1]byte
		if _, err := file.ReadAt(last[:], end-1); err == nil && last[0] == '\n' {
			end--
		}
	}

	var lines []string
	var pending []byte // start of the line currently being assembled

	pos := end
	for pos > 0 && len(lines) < n {
		readSize := int64(chunkSize)
		if pos < readSize {
			readSize = pos
		}
		pos -= readSize

		if _, err := file.ReadAt(buf[:readSize], pos); err != nil {
			return nil, fmt.Errorf("error reading transcript: %w", err)
		}

		chunk := buf[:readSize]
		for len(lines) < n {
			i := bytes.LastIndexByte(chunk, '\n')
			if i < 0 {
				pending = append(append([]byte{}, chunk...), pending...)
				break
			}

			line := append(append([]byte{}, chunk[i+1:]...), pending...)
			pending = nil
			lines = append(lines, trimCR(line))
			chunk = chunk[:i]
		}
	}

	if len(lines) < n && len(pending) > 0 {
		lines = append(lines, trimCR(pending))
	}

	// Collected newest first; flip into file order.
	for i, j := 0, len(lines)-1; i < j; i, j = i+1, j-1 {
		lines[i], lines[j] = lines[j], lines[i]
	}
	return lines, nil
}

func trimCR(line []byte) string {
	return strings.TrimSuffix(string(line), "\r")
}
