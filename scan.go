package demtile

import (
	"context"
	"fmt"
	"io/fs"
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// A ScanOption sets an option on a scan.
type ScanOption func(*scanner)

type scanner struct {
	workers       int
	formats       map[RasterFormat]struct{}
	scanAltitudes bool
	progress      func(done, total int)
	manifestDir   string
}

// WithScanWorkers sets the number of concurrent extraction workers. The
// default is the number of CPUs.
func WithScanWorkers(workers int) ScanOption {
	return func(s *scanner) {
		s.workers = workers
	}
}

// WithScanFormats restricts the scan to the given formats. By default all
// recognized formats are scanned.
func WithScanFormats(formats ...RasterFormat) ScanOption {
	return func(s *scanner) {
		s.formats = make(map[RasterFormat]struct{})
		for _, format := range formats {
			s.formats[format] = struct{}{}
		}
	}
}

// WithAltitudeScan sets whether the scan reads every sample to record each
// tile's altitude range. This opens the full raster and is much slower.
func WithAltitudeScan(scanAltitudes bool) ScanOption {
	return func(s *scanner) {
		s.scanAltitudes = scanAltitudes
	}
}

// WithScanProgress sets a progress callback. It may be called concurrently
// from multiple workers.
func WithScanProgress(progress func(done, total int)) ScanOption {
	return func(s *scanner) {
		s.progress = progress
	}
}

// WithManifestDir sets a directory to write manifests into after a
// successful scan.
func WithManifestDir(dir string) ScanOption {
	return func(s *scanner) {
		s.manifestDir = dir
	}
}

// ScanCatalog walks fsys, extracts metadata from every raster file it
// recognizes, and returns the resulting catalog. Directories named
// "manifest" are skipped. Extraction runs concurrently; the first error
// fails the whole scan.
func ScanCatalog(ctx context.Context, fsys fs.FS, options ...ScanOption) (*TileCatalog, error) {
	s := &scanner{
		workers: runtime.NumCPU(),
	}
	for _, option := range options {
		option(s)
	}

	var filenames []string
	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == manifestDirName {
				return fs.SkipDir
			}
			return nil
		}
		format, ok := FormatForFilename(p)
		if !ok {
			return nil
		}
		if s.formats != nil {
			if _, ok := s.formats[format]; !ok {
				return nil
			}
		}
		filenames = append(filenames, p)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	catalog := NewTileCatalog()
	total := len(filenames)
	var done atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	filenamec := make(chan string)
	g.Go(func() error {
		defer close(filenamec)
		for _, filename := range filenames {
			select {
			case filenamec <- filename:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})
	for range s.workers {
		g.Go(func() error {
			for filename := range filenamec {
				m, err := ExtractMetadata(fsys, filename)
				if err != nil {
					return fmt.Errorf("%s: %w", filename, err)
				}
				if s.scanAltitudes && m.Format == FormatSRTMHGT {
					if err := scanHGTAltitudeRange(fsys, m); err != nil {
						return fmt.Errorf("%s: %w", filename, err)
					}
				}
				catalog.Add(m)
				if s.progress != nil {
					s.progress(int(done.Add(1)), total)
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if s.manifestDir != "" {
		if err := WriteManifests(s.manifestDir, catalog); err != nil {
			return nil, err
		}
	}
	return catalog, nil
}
