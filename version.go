package demtile

import "errors"

// MetadataVersion is the schema version written into every newly constructed
// TileMetadata.
//
// Version history:
//   - 2.0: initial format.
//   - 2.1: filenames became relative to the scanned directory.
//   - 2.2: the bounding-box-related fields were renamed and the file-format
//     field changed from a numeric code to its string name.
//
// There is no in-place migration between versions. A record carrying any
// version other than MetadataVersion means the whole index must be
// regenerated from the source rasters.
const MetadataVersion = "2.2"

// ErrMetadataOutdated is returned when a persisted record carries a schema
// version other than MetadataVersion, including versions this package has
// never written.
var ErrMetadataOutdated = errors.New("metadata version outdated")

var knownMetadataVersions = map[string]struct{}{
	"2.0": {},
	"2.1": {},
	"2.2": {},
}

// KnownMetadataVersion reports whether version is a schema version that some
// release of this package has written. Known but outdated versions are still
// rejected on load.
func KnownMetadataVersion(version string) bool {
	_, ok := knownMetadataVersions[version]
	return ok
}
