package services

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/custodia-labs/wikichunk/internal/core/domain"
	"github.com/custodia-labs/wikichunk/internal/core/ports/driving"
)

// Input file naming.
const (
	FilePrefix  = "wikipedia_en_part_"
	FileSuffix  = ".parquet"
	FilePattern = FilePrefix + "*" + FileSuffix
)

// Output file suffixes appended to the input file stem.
const (
	InfoboxSuffix   = "_infobox.db"
	LinkGraphSuffix = "_linkgraph.db"
	ChunksSuffix    = "_chunks.jsonl"
)

// Discover lists the input files of dir, sorted by part number.
// Files whose part number does not parse sort after all numbered files.
// A missing directory is domain.ErrFileNotFound and an empty match is domain.ErrNoUnits.
func Discover(dir string) ([]domain.JobUnit, error) {
	info, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrFileNotFound, dir)
		}
		return nil, fmt.Errorf("stat %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", domain.ErrFileNotFound, dir)
	}

	paths, err := filepath.Glob(filepath.Join(dir, FilePattern))
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: no files matching %s in %s", domain.ErrNoUnits, FilePattern, dir)
	}

	units := make([]domain.JobUnit, 0, len(paths))
	for _, path := range paths {
		part, ok := PartNumber(filepath.Base(path))
		units = append(units, domain.JobUnit{Path: path, Part: part, Numbered: ok})
	}
	SortUnits(units)
	return units, nil
}

// PartNumber parses N from wikipedia_en_part_<N>.parquet.
func PartNumber(name string) (int, bool) {
	digits := strings.TrimSuffix(strings.TrimPrefix(name, FilePrefix), FileSuffix)
	n, err := strconv.Atoi(digits)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// SortUnits orders numbered units by part number, then unnumbered units by name.
func SortUnits(units []domain.JobUnit) {
	sort.SliceStable(units, func(i, j int) bool {
		a, b := units[i], units[j]
		if a.Numbered != b.Numbered {
			return a.Numbered
		}
		if a.Numbered && a.Part != b.Part {
			return a.Part < b.Part
		}
		return a.Name() < b.Name()
	})
}

// FilterUnits applies startFrom and then maxFiles to sorted units.
// Unnumbered units cannot satisfy a startFrom above 1 and are dropped.
func FilterUnits(units []domain.JobUnit, startFrom, maxFiles int) []domain.JobUnit {
	filtered := make([]domain.JobUnit, 0, len(units))
	for _, u := range units {
		if startFrom > 1 && (!u.Numbered || u.Part < startFrom) {
			continue
		}
		filtered = append(filtered, u)
	}
	if maxFiles > 0 && len(filtered) > maxFiles {
		filtered = filtered[:maxFiles]
	}
	return filtered
}

// ModeFor builds the processing mode of the input file with the given stem.
func ModeFor(stem string, req driving.BatchRequest) (domain.Mode, error) {
	outDir := req.OutputDir
	if outDir == "" {
		outDir = "."
	}

	switch {
	case req.ExtractInfobox && req.ExtractLinkGraph:
		return nil, fmt.Errorf("%w: infobox and link-graph extraction are mutually exclusive", domain.ErrInvalidInput)
	case req.ExtractInfobox:
		return domain.FieldExtractionMode{
			StorageTarget: filepath.Join(outDir, stem+InfoboxSuffix),
		}, nil
	case req.ExtractLinkGraph:
		return domain.LinkGraphMode{
			StorageTarget: filepath.Join(outDir, stem+LinkGraphSuffix),
			PageMetaDB:    req.PageMetaDB,
		}, nil
	}

	if req.ChunkSize <= 0 {
		return nil, fmt.Errorf("%w: chunk size must be positive", domain.ErrInvalidInput)
	}
	mode := domain.ChunkMode{MaxBytes: req.ChunkSize}
	if req.OutputDir != "" {
		mode.OutputPath = filepath.Join(req.OutputDir, stem+ChunksSuffix)
	}
	return mode, nil
}
