package dataset

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"
)

// ErrNoNetworks is returned when a dataset root holds no network files
var ErrNoNetworks = errors.New("no network files found")

// Network is one network file of a dataset
type Network struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// Discover lists the networks under root. A file root is a single network.
// For a directory, each subfolder holds one network and its first file in
// name order is used. Networks are returned sorted by name.
func Discover(root string) ([]Network, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		name := strings.TrimSuffix(filepath.Base(root), filepath.Ext(root))
		return []Network{{Name: name, Path: root}}, nil
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}

	networks := make([]Network, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		folder := filepath.Join(root, entry.Name())
		file, err := firstFile(folder)
		if err != nil {
			return nil, err
		}
		if file == "" {
			continue
		}
		networks = append(networks, Network{Name: entry.Name(), Path: file})
	}

	if len(networks) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoNetworks, root)
	}
	sort.Slice(networks, func(i, j int) bool { return networks[i].Name < networks[j].Name })
	return networks, nil
}

func firstFile(folder string) (string, error) {
	entries, err := os.ReadDir(folder)
	if err != nil {
		return "", err
	}
	// ReadDir returns entries sorted by file name
	for _, entry := range entries {
		if entry.Type().IsRegular() {
			return filepath.Join(folder, entry.Name()), nil
		}
	}
	return "", nil
}

// ConvertMTX rewrites a Matrix Market file as an unweighted edge list next
// to it (same name, .txt extension). Comment lines starting with % and the
// first non-comment line (the dimension line) are dropped; of every other
// line only the first two fields are kept.
func ConvertMTX(mtxPath string, dryRun bool) (string, error) {
	outPath := strings.TrimSuffix(mtxPath, filepath.Ext(mtxPath)) + ".txt"
	if dryRun {
		return outPath, nil
	}
	return outPath, copyColumns(mtxPath, outPath, true)
}

// ConvertEdges writes the first two columns of an .edges file to outPath.
// Comment lines starting with % or # are dropped.
func ConvertEdges(edgesPath, outPath string, dryRun bool) error {
	if dryRun {
		return nil
	}
	return copyColumns(edgesPath, outPath, false)
}

func copyColumns(src, dst string, skipDimensions bool) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(out)

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "%") || strings.HasPrefix(line, "#") {
			continue
		}
		if skipDimensions {
			skipDimensions = false
			continue
		}

		parts := strings.Fields(line)
		if len(parts) < 2 {
			continue
		}
		fmt.Fprintf(w, "%s %s\n", parts[0], parts[1])
	}

	if err := scanner.Err(); err != nil {
		out.Close()
		return fmt.Errorf("failed to read %s: %w", src, err)
	}
	if err := w.Flush(); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// NormalizeReport lists what NormalizeFolder did (or would do on a dry run)
type NormalizeReport struct {
	Converted []string `json:"converted"`
	Removed   []string `json:"removed"`
	Skipped   []string `json:"skipped"`
}

// NormalizeFolder leaves one edge list per network in every subfolder of
// root. A subfolder with an .mtx file gets its first one converted. Otherwise
// every .edges file below it, nested folders included, is converted into the
// subfolder itself, clashing names taking a _1, _2, ... suffix. Everything
// else in a converted subfolder is removed. Subfolders with neither are left
// untouched.
func NormalizeFolder(root string, dryRun bool, logger zerolog.Logger) (*NormalizeReport, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}

	report := &NormalizeReport{}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		sub := filepath.Join(root, entry.Name())

		outputs, err := convertSubfolder(sub, dryRun, logger)
		if err != nil {
			return nil, err
		}
		if len(outputs) == 0 {
			logger.Info().Str("folder", sub).Msg("No .mtx or .edges file, skipping")
			report.Skipped = append(report.Skipped, sub)
			continue
		}
		report.Converted = append(report.Converted, outputs...)

		removed, err := cleanFolder(sub, outputs, dryRun, logger)
		if err != nil {
			return nil, err
		}
		report.Removed = append(report.Removed, removed...)
	}

	return report, nil
}

func convertSubfolder(sub string, dryRun bool, logger zerolog.Logger) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(sub, "*.mtx"))
	if err != nil {
		return nil, err
	}
	if len(matches) > 0 {
		out, err := ConvertMTX(matches[0], dryRun)
		if err != nil {
			return nil, fmt.Errorf("convert %s: %w", matches[0], err)
		}
		logger.Info().Str("mtx", matches[0]).Str("output", out).Bool("dry_run", dryRun).Msg("Converted")
		return []string{out}, nil
	}

	edgesFiles, err := findEdgesFiles(sub)
	if err != nil {
		return nil, err
	}

	outputs := make([]string, 0, len(edgesFiles))
	taken := make(map[string]bool, len(edgesFiles))
	for _, edgesPath := range edgesFiles {
		base := strings.TrimSuffix(filepath.Base(edgesPath), ".edges")
		out := uniquePath(sub, base, ".txt", taken)
		taken[out] = true

		if err := ConvertEdges(edgesPath, out, dryRun); err != nil {
			return nil, fmt.Errorf("convert %s: %w", edgesPath, err)
		}
		logger.Info().Str("edges", edgesPath).Str("output", out).Bool("dry_run", dryRun).Msg("Converted")
		outputs = append(outputs, out)
	}
	return outputs, nil
}

// findEdgesFiles returns every .edges file below dir in lexical walk order
func findEdgesFiles(dir string) ([]string, error) {
	var found []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() && strings.HasSuffix(d.Name(), ".edges") {
			found = append(found, path)
		}
		return nil
	})
	return found, err
}

// uniquePath returns dir/base+ext, or dir/base_N+ext for the first N that
// neither exists on disk nor was handed out before
func uniquePath(dir, base, ext string, taken map[string]bool) string {
	candidate := filepath.Join(dir, base+ext)
	for i := 1; ; i++ {
		if _, err := os.Stat(candidate); !taken[candidate] && os.IsNotExist(err) {
			return candidate
		}
		candidate = filepath.Join(dir, fmt.Sprintf("%s_%d%s", base, i, ext))
	}
}

func cleanFolder(folder string, keep []string, dryRun bool, logger zerolog.Logger) ([]string, error) {
	entries, err := os.ReadDir(folder)
	if err != nil {
		return nil, err
	}

	kept := make(map[string]bool, len(keep))
	for _, path := range keep {
		kept[path] = true
	}

	removed := make([]string, 0)
	for _, entry := range entries {
		path := filepath.Join(folder, entry.Name())
		if kept[path] {
			continue
		}
		removed = append(removed, path)
		if dryRun {
			continue
		}
		if err := os.RemoveAll(path); err != nil {
			logger.Warn().Err(err).Str("path", path).Msg("Failed to delete")
		}
	}
	return removed, nil
}
