package graph

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// EdgeListReader reads whitespace-delimited edge lists, one edge per line.
// Only the first two tokens of a line are used; blank lines, comment lines
// and lines with fewer than two tokens are skipped.
type EdgeListReader struct{}

func NewEdgeListReader() *EdgeListReader {
	return &EdgeListReader{}
}

// ReadFromFile loads an edge list file into a graph
func (r *EdgeListReader) ReadFromFile(filename string) (*Graph, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	g, err := r.Read(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filename, err)
	}
	return g, nil
}

// Read parses an edge list stream
func (r *EdgeListReader) Read(in io.Reader) (*Graph, error) {
	g := NewGraph()

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "%") {
			continue
		}

		parts := strings.Fields(line)
		if len(parts) < 2 {
			continue
		}

		src, err := strconv.ParseInt(parts[0], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid node id %q: %w", lineNum, parts[0], err)
		}
		dst, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid node id %q: %w", lineNum, parts[1], err)
		}
		g.AddEdge(src, dst)
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return g, nil
}

// ReadEdgeList is a shorthand for NewEdgeListReader().ReadFromFile
func ReadEdgeList(filename string) (*Graph, error) {
	return NewEdgeListReader().ReadFromFile(filename)
}
