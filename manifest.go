package demtile

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// manifestDirName is the directory, relative to the scanned data, that holds
// sidecar manifests.
const manifestDirName = "manifest"

var (
	manifestsWritten = promauto.NewCounter(prometheus.CounterOpts{
		Name: "demtile_manifests_written_total",
		Help: "The total number of manifest records written",
	})
	manifestsLoaded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "demtile_manifests_loaded_total",
		Help: "The total number of manifest records loaded",
	})
)

// WriteManifests writes one JSON manifest per catalog record into dir,
// creating it if needed. Virtual records are never persisted.
func WriteManifests(dir string, catalog *TileCatalog) error {
	if err := os.MkdirAll(dir, 0o777); err != nil {
		return err
	}
	for _, m := range catalog.Tiles() {
		if m.Virtual {
			continue
		}
		data, err := json.MarshalIndent(m, "", "  ")
		if err != nil {
			return err
		}
		filename := filepath.Join(dir, string(m.Key())+".json")
		if err := os.WriteFile(filename, append(data, '\n'), 0o666); err != nil {
			return err
		}
		manifestsWritten.Inc()
	}
	return nil
}

// LoadCatalog builds a catalog from the manifests under root in fsys. Every
// .json file in a directory named "manifest" is loaded, as is every .json
// file when root itself is a manifest directory. Any record whose version is
// not MetadataVersion fails the whole load with ErrMetadataOutdated: there is
// no migration, the index must be regenerated.
func LoadCatalog(fsys fs.FS, root string) (*TileCatalog, error) {
	catalog := NewTileCatalog()
	err := fs.WalkDir(fsys, root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(p, ".json") {
			return nil
		}
		if path.Base(path.Dir(p)) != manifestDirName && path.Dir(p) != root {
			return nil
		}
		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return err
		}
		var m TileMetadata
		if err := json.Unmarshal(data, &m); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
		if m.Version != MetadataVersion {
			return fmt.Errorf("%s: version %q: %w", p, m.Version, ErrMetadataOutdated)
		}
		catalog.Add(&m)
		manifestsLoaded.Inc()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return catalog, nil
}
