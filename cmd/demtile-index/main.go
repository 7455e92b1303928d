package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"sync"

	"github.com/cheggaaa/pb/v3"
	"github.com/dustin/go-humanize"

	"github.com/twpayne/go-demtile"
)

func run() error {
	dataPath := flag.String("data-path", os.Getenv("DEM_DATA_PATH"), "path to DEM data")
	datasetName := flag.String("dataset", "srtm1", "dataset layout (srtm1 or srtm3)")
	manifestDir := flag.String("manifest-dir", "", "directory to write manifests to")
	altitudes := flag.Bool("altitudes", false, "scan every sample to record altitude ranges (slow)")
	workers := flag.Int("workers", 0, "number of scan workers (0 = number of CPUs)")
	flag.Parse()

	if *dataPath == "" {
		return errors.New("syntax: demtile-index -data-path dir")
	}

	var dataset demtile.DatasetSpec
	switch *datasetName {
	case "srtm1":
		dataset = demtile.SRTM1()
	case "srtm3":
		dataset = demtile.SRTM3()
	default:
		return fmt.Errorf("unknown dataset %q", *datasetName)
	}

	var barOnce sync.Once
	var bar *pb.ProgressBar
	options := []demtile.ScanOption{
		demtile.WithScanFormats(dataset.Format),
		demtile.WithAltitudeScan(*altitudes),
		demtile.WithScanProgress(func(done, total int) {
			barOnce.Do(func() {
				bar = pb.StartNew(total)
			})
			bar.SetCurrent(int64(done))
		}),
	}
	if *workers > 0 {
		options = append(options, demtile.WithScanWorkers(*workers))
	}
	if *manifestDir != "" {
		options = append(options, demtile.WithManifestDir(*manifestDir))
	}

	catalog, err := demtile.ScanCatalog(context.Background(), os.DirFS(*dataPath), options...)
	if err != nil {
		return err
	}
	if bar != nil {
		bar.Finish()
	}

	var rasterBytes uint64
	coverage := demtile.BoundingBox{}
	for i, m := range catalog.Tiles() {
		rasterBytes += uint64(m.ScanlineSize) * uint64(m.Height)
		if i == 0 {
			coverage = m.BoundingBox()
		} else {
			coverage = coverage.Union(m.BoundingBox())
		}
	}
	fmt.Printf("indexed %s tiles covering %v (%s of raster data)\n",
		humanize.Comma(int64(catalog.Len())), coverage, humanize.Bytes(rasterBytes))

	return nil
}

func main() {
	if err := run(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
