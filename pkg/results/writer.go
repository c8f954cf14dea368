package results

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gilchrisn/sir-influence/pkg/sir"
)

// Writer lays out results under a save root, one folder per network
type Writer struct {
	root string
}

// NewWriter creates a writer rooted at saveRoot
func NewWriter(saveRoot string) *Writer {
	return &Writer{root: saveRoot}
}

// NetworkDir is the result folder of one network
type NetworkDir struct {
	Path string
	Name string
}

// NetworkName returns the file name of a network without its extension
func NetworkName(networkPath string) string {
	base := filepath.Base(networkPath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Prepare creates <root>/<name> for a network file
func (w *Writer) Prepare(networkPath string) (*NetworkDir, error) {
	name := NetworkName(networkPath)
	dir := filepath.Join(w.root, name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	return &NetworkDir{Path: dir, Name: name}, nil
}

// RankingPath returns the file a ranking for beta is written to
func (d *NetworkDir) RankingPath(beta float64) string {
	return filepath.Join(d.Path, fmt.Sprintf("%s_%s.json", d.Name, FormatBeta(beta)))
}

// WriteRanking writes node -> mean as a JSON object in ranking order
func (d *NetworkDir) WriteRanking(beta float64, ranking sir.Ranking) (string, error) {
	data, err := EncodeRanking(ranking)
	if err != nil {
		return "", err
	}

	path := d.RankingPath(beta)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write ranking: %w", err)
	}
	return path, nil
}

// CopyNetwork copies the source network file into the result folder
func (d *NetworkDir) CopyNetwork(src string) (string, error) {
	in, err := os.Open(src)
	if err != nil {
		return "", err
	}
	defer in.Close()

	dst := filepath.Join(d.Path, filepath.Base(src))
	out, err := os.Create(dst)
	if err != nil {
		return "", err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return "", fmt.Errorf("failed to copy network: %w", err)
	}
	return dst, out.Close()
}

// EncodeRanking renders a ranking as an indented JSON object whose keys keep
// the ranking order. encoding/json sorts map keys, so the object is built
// member by member.
func EncodeRanking(ranking sir.Ranking) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, s := range ranking {
		if i > 0 {
			buf.WriteByte(',')
		}
		value, err := json.Marshal(s.Mean)
		if err != nil {
			return nil, fmt.Errorf("node %d: %w", s.Node, err)
		}
		buf.WriteString(strconv.Quote(strconv.FormatInt(s.Node, 10)))
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')

	var out bytes.Buffer
	if err := json.Indent(&out, buf.Bytes(), "", "    "); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// DecodeRanking reads a ranking file back in file order
func DecodeRanking(data []byte) (sir.Ranking, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	if _, err := dec.Token(); err != nil {
		return nil, err
	}

	ranking := make(sir.Ranking, 0)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected token %v", tok)
		}
		node, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid node key %q: %w", tok, err)
		}
		var mean float64
		if err := dec.Decode(&mean); err != nil {
			return nil, err
		}
		ranking = append(ranking, sir.NodeScore{Node: node, Mean: mean})
	}
	return ranking, nil
}

// FormatBeta renders a beta value for file names, always with a decimal
// point or exponent (1 -> "1.0").
func FormatBeta(beta float64) string {
	s := strconv.FormatFloat(beta, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eEn") {
		s += ".0"
	}
	return s
}
