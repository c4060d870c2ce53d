package archive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/gabriel-vasile/mimetype"
	"github.com/klauspost/compress/zip"
	"github.com/klauspost/compress/zstd"
	"github.com/shirou/gopsutil/v3/disk"

	"github.com/glossa-app/glossa/internal/branding"
)

// Extraction errors.
var (
	ErrNotArchive        = errors.New("file is not a zip archive")
	ErrUnsafePath        = errors.New("archive entry escapes destination")
	ErrInsufficientSpace = errors.New("insufficient free space")
)

// Extractor expands archives. The zero value extracts everything except a
// root-level delete marker, with no free-space margin.
type Extractor struct {
	excludes []string
	minFree  uint64
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithExcludes skips entries matching any of the doublestar patterns.
// Invalid patterns are dropped.
func WithExcludes(patterns ...string) Option {
	return func(e *Extractor) {
		for _, p := range patterns {
			if doublestar.ValidatePattern(p) {
				e.excludes = append(e.excludes, p)
			}
		}
	}
}

// WithMinFree requires this many bytes to remain free on the destination
// volume after extraction.
func WithMinFree(bytes uint64) Option {
	return func(e *Extractor) {
		e.minFree = bytes
	}
}

// NewExtractor creates an Extractor.
func NewExtractor(opts ...Option) *Extractor {
	e := &Extractor{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Result summarizes one extraction.
type Result struct {
	Files   int
	Skipped int
	Bytes   uint64
}

// Sniff verifies by content that path is a zip archive.
func Sniff(path string) error {
	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		return fmt.Errorf("detecting type of %s: %w", path, err)
	}
	for m := mtype; m != nil; m = m.Parent() {
		if m.Is("application/zip") {
			return nil
		}
	}
	return fmt.Errorf("%w: %s is %s", ErrNotArchive, filepath.Base(path), mtype.String())
}

// Extract expands archivePath into dest, which must already exist.
// A failure leaves a partial tree behind; the caller owns cleanup of dest.
func (e *Extractor) Extract(ctx context.Context, archivePath, dest string) (*Result, error) {
	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotArchive, err)
	}
	defer reader.Close()
	reader.RegisterDecompressor(zstd.ZipMethodWinZip, zstd.ZipDecompressor())
	reader.RegisterDecompressor(zstd.ZipMethodPKWare, zstd.ZipDecompressor())

	root := filepath.Clean(dest)
	var total uint64
	for _, file := range reader.File {
		if _, err := entryPath(root, file.Name); err != nil {
			return nil, err
		}
		total += file.UncompressedSize64
	}
	if err := CheckFreeSpace(root, total+e.minFree); err != nil {
		return nil, err
	}

	res := &Result{}
	for _, file := range reader.File {
		select {
		case <-ctx.Done():
			return res, fmt.Errorf("extraction cancelled: %w", ctx.Err())
		default:
		}

		if e.excluded(file.Name) {
			res.Skipped++
			continue
		}

		destPath, _ := entryPath(root, file.Name)
		if file.FileInfo().IsDir() {
			if err := os.MkdirAll(destPath, 0o755); err != nil {
				return res, fmt.Errorf("creating %s: %w", destPath, err)
			}
			continue
		}

		n, err := extractFile(file, destPath)
		if err != nil {
			return res, fmt.Errorf("extracting %s: %w", file.Name, err)
		}
		res.Files++
		res.Bytes += uint64(n)
	}

	return res, nil
}

// entryPath maps an archive entry name to a path under root, rejecting
// absolute names and any name that would land outside root.
func entryPath(root, name string) (string, error) {
	clean := filepath.FromSlash(strings.ReplaceAll(name, `\`, "/"))
	if filepath.IsAbs(clean) || filepath.VolumeName(clean) != "" {
		return "", fmt.Errorf("%w: %s", ErrUnsafePath, name)
	}
	p := filepath.Join(root, clean)
	if p != root && !strings.HasPrefix(p, root+string(os.PathSeparator)) {
		return "", fmt.Errorf("%w: %s", ErrUnsafePath, name)
	}
	return p, nil
}

func (e *Extractor) excluded(name string) bool {
	name = strings.TrimSuffix(strings.ReplaceAll(name, `\`, "/"), "/")
	// A shipped marker would delete the package on the next load.
	if strings.EqualFold(path.Clean(name), branding.DeleteMarker()) {
		return true
	}
	for _, pattern := range e.excludes {
		if ok, _ := doublestar.Match(pattern, name); ok {
			return true
		}
	}
	return false
}

func extractFile(file *zip.File, destPath string) (int64, error) {
	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return 0, err
	}

	src, err := file.Open()
	if err != nil {
		return 0, err
	}
	defer src.Close()

	mode := file.Mode().Perm()
	if mode == 0 {
		mode = 0o644
	}
	dst, err := os.OpenFile(destPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode|0o200)
	if err != nil {
		return 0, err
	}
	defer dst.Close()

	n, err := io.Copy(dst, src)
	if err != nil {
		return n, err
	}
	return n, dst.Close()
}

// CheckFreeSpace fails with ErrInsufficientSpace when the volume holding
// dir has fewer than need bytes free. dir need not exist yet; its nearest
// existing ancestor is measured.
func CheckFreeSpace(dir string, need uint64) error {
	if need == 0 {
		return nil
	}
	at := filepath.Clean(dir)
	for {
		if _, err := os.Stat(at); err == nil {
			break
		}
		parent := filepath.Dir(at)
		if parent == at {
			return nil
		}
		at = parent
	}

	usage, err := disk.Usage(at)
	if err != nil {
		// Unknown filesystems are not a reason to refuse an install.
		return nil
	}
	if usage.Free < need {
		return fmt.Errorf("%w: need %d bytes on %s, %d free", ErrInsufficientSpace, need, usage.Path, usage.Free)
	}
	return nil
}
