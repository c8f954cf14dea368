package dataset

import (
	"archive/tar"
	"archive/zip"
	"compress/bzip2"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"
)

// ErrUnsafeEntry is returned for an archive member that would land outside
// its destination folder
var ErrUnsafeEntry = errors.New("archive entry escapes destination")

// archiveSuffixes maps recognised archive extensions to their format,
// longest suffix first so .tar.gz wins over .gz
var archiveSuffixes = []struct {
	suffix string
	format string
}{
	{".tar.bz2", "tbz2"},
	{".tar.gz", "tgz"},
	{".tbz2", "tbz2"},
	{".tgz", "tgz"},
	{".tar", "tar"},
	{".zip", "zip"},
}

// ArchiveFormat returns the format of an archive file name and the name with
// the archive suffix removed. ok is false for anything else.
func ArchiveFormat(name string) (format, stem string, ok bool) {
	lower := strings.ToLower(name)
	for _, a := range archiveSuffixes {
		if strings.HasSuffix(lower, a.suffix) {
			return a.format, name[:len(name)-len(a.suffix)], true
		}
	}
	return "", "", false
}

// ExtractReport lists what ExtractArchives did (or would do on a dry run)
type ExtractReport struct {
	Extracted []string `json:"extracted"`
	Failed    []string `json:"failed"`
}

// ExtractArchives unpacks every zip, tar, tar.gz/tgz and tar.bz2 archive
// found below root into a folder named after the archive, then deletes the
// archive. An archive that fails to unpack is logged, kept, and listed in
// Failed; the others are still processed.
func ExtractArchives(root string, dryRun bool, logger zerolog.Logger) (*ExtractReport, error) {
	var archives []string
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			if _, _, ok := ArchiveFormat(d.Name()); ok {
				archives = append(archives, path)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(archives)

	report := &ExtractReport{}
	for _, archive := range archives {
		format, dest, _ := ArchiveFormat(archive)
		log := logger.With().Str("archive", archive).Str("dest", dest).Logger()

		if dryRun {
			log.Info().Bool("dry_run", true).Msg("Would extract")
			report.Extracted = append(report.Extracted, dest)
			continue
		}

		if err := extractArchive(archive, format, dest); err != nil {
			log.Warn().Err(err).Msg("Failed to extract")
			report.Failed = append(report.Failed, archive)
			continue
		}
		if err := os.Remove(archive); err != nil {
			log.Warn().Err(err).Msg("Failed to delete archive")
		}
		log.Info().Msg("Extracted")
		report.Extracted = append(report.Extracted, dest)
	}
	return report, nil
}

func extractArchive(path, format, dest string) error {
	if err := os.MkdirAll(dest, 0755); err != nil {
		return err
	}

	if format == "zip" {
		return extractZip(path, dest)
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	var r io.Reader = f
	switch format {
	case "tgz":
		gzr, err := gzip.NewReader(f)
		if err != nil {
			return err
		}
		defer gzr.Close()
		r = gzr
	case "tbz2":
		r = bzip2.NewReader(f)
	}
	return extractTar(r, dest)
}

func extractTar(r io.Reader, dest string) error {
	tr := tar.NewReader(r)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read tar: %w", err)
		}

		target, err := safeJoin(dest, header.Name)
		if err != nil {
			return err
		}

		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0755); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := writeMember(target, tr); err != nil {
				return err
			}
		}
		// Links and special files are not needed for edge lists
	}
}

func extractZip(path, dest string) error {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return err
	}
	defer zr.Close()

	for _, f := range zr.File {
		target, err := safeJoin(dest, f.Name)
		if err != nil {
			return err
		}

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0755); err != nil {
				return err
			}
			continue
		}

		rc, err := f.Open()
		if err != nil {
			return err
		}
		err = writeMember(target, rc)
		rc.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

func writeMember(target string, r io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return err
	}
	out, err := os.Create(target)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func safeJoin(dest, name string) (string, error) {
	target := filepath.Join(dest, name)
	if target != filepath.Clean(dest) && !strings.HasPrefix(target, filepath.Clean(dest)+string(os.PathSeparator)) {
		return "", fmt.Errorf("%w: %s", ErrUnsafeEntry, name)
	}
	return target, nil
}
