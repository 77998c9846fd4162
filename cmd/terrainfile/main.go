// terrainfile is a CLI utility for inspecting and repacking Terraforge
// terrain files without a GPU.
package main

import (
	"fmt"
	"os"

	"github.com/Faultbox/terraforge/internal/render"
	"github.com/Faultbox/terraforge/internal/terrain/pixmap"
	"github.com/Faultbox/terraforge/internal/terrain/storage"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "info":
		cmdInfo(args)
	case "repack":
		cmdRepack(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`terrainfile - Terraforge terrain file utility

Usage:
  terrainfile <command> [options]

Commands:
  info <file.tfd>             Show terrain file information
  repack <file.tfd> <out.tfd> Rewrite a terrain file (recompresses)

Examples:
  terrainfile info terrain.tfd
  terrainfile repack old.tfd fresh.tfd`)
}

func open(path string) *storage.Storage {
	s, err := storage.Load(path, render.NewNullBackend())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return s
}

func cmdInfo(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: terrainfile info <file.tfd>")
		os.Exit(1)
	}

	s := open(args[0])
	defer s.Close()

	fi, _ := os.Stat(args[0])

	fmt.Printf("Terrain:     %s\n", args[0])
	if fi != nil {
		fmt.Printf("File size:   %.2f MB\n", float64(fi.Size())/(1024*1024))
	}
	fmt.Printf("Region size: %d\n", s.RegionSize())
	fmt.Printf("Regions:     %d\n", s.RegionCount())
	if s.NoiseEnabled() {
		fmt.Printf("Noise:       on (scale %.2f, height %.2f, blend %.2f..%.2f)\n",
			s.NoiseScale(), s.NoiseHeight(), s.NoiseBlendNear(), s.NoiseBlendFar())
	} else {
		fmt.Printf("Noise:       off\n")
	}
	fmt.Println()

	heights, _ := s.GetMaps(storage.MapHeight)
	for i, ofs := range s.RegionOffsets() {
		lo, hi := heightRange(heights[i])
		fmt.Printf("  region %3d at (%3d,%3d)  height %7.2f .. %7.2f\n",
			i, ofs.X, ofs.Y, lo*storage.MaxHeight, hi*storage.MaxHeight)
	}
}

// heightRange scans one height tile for its min and max normalized values.
func heightRange(tile *pixmap.Pixmap) (lo, hi float32) {
	lo, hi = 1, 0
	for _, v := range tile.RawR() {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if lo > hi {
		lo, hi = 0, 0
	}
	return lo, hi
}

func cmdRepack(args []string) {
	if len(args) < 2 {
		fmt.Fprintln(os.Stderr, "Usage: terrainfile repack <file.tfd> <out.tfd>")
		os.Exit(1)
	}

	s := open(args[0])
	defer s.Close()

	if err := s.Save(args[1]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Repacked %s -> %s (%d regions)\n", args[0], args[1], s.RegionCount())
}
