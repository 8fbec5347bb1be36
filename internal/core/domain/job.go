package domain

import (
	"path/filepath"
	"strings"
	"time"
)

// Mode selects what the record processor does with each record.
// It is a closed set: ChunkMode, FieldExtractionMode and LinkGraphMode.
type Mode interface {
	// Name returns a short label for logging.
	Name() string

	isMode()
}

// ChunkMode splits each record's text into chunks of at most MaxBytes.
type ChunkMode struct {
	// MaxBytes is the chunk byte limit.
	MaxBytes int

	// OutputPath is an optional per-unit chunk output file.
	// Empty means chunks are only reported, not written.
	OutputPath string
}

// FieldExtractionMode collects infobox fields into StorageTarget.
type FieldExtractionMode struct {
	StorageTarget string
}

// LinkGraphMode collects wikilink edges into StorageTarget.
type LinkGraphMode struct {
	StorageTarget string

	// PageMetaDB optionally names a database used to resolve link targets to ids.
	PageMetaDB string
}

// Name returns the mode label.
func (ChunkMode) Name() string { return "chunk" }

// Name returns the mode label.
func (FieldExtractionMode) Name() string { return "infobox" }

// Name returns the mode label.
func (LinkGraphMode) Name() string { return "linkgraph" }

func (ChunkMode) isMode()           {}
func (FieldExtractionMode) isMode() {}
func (LinkGraphMode) isMode()       {}

// JobUnit is one input file plus its processing mode.
// Job units are immutable once submitted.
type JobUnit struct {
	// Path is the input file path.
	Path string

	// Part is the parsed part number of the file name.
	Part int

	// Numbered is false when the part number could not be parsed.
	Numbered bool

	// Mode is the processing mode applied to every record.
	Mode Mode

	// DocID optionally restricts the unit to one document. Zero means all.
	DocID int64
}

// Name returns the base file name of the unit.
func (u JobUnit) Name() string {
	return filepath.Base(u.Path)
}

// Stem returns the base file name without its extension.
func (u JobUnit) Stem() string {
	name := u.Name()
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// JobOutcome is the single result of processing one JobUnit.
type JobOutcome struct {
	// Unit identifies which unit was run.
	Unit JobUnit

	// Success indicates whether the whole unit completed.
	Success bool

	// Message is a human-readable failure reason, empty on success.
	Message string

	// Err is the underlying error, nil on success.
	Err error

	// Records is the number of records processed.
	Records int

	// Elapsed is the wall-clock time spent on the unit.
	Elapsed time.Duration
}

// BatchPhase is a state of the batch orchestrator.
type BatchPhase string

// Batch phases in the order they are entered.
const (
	PhaseDiscovering BatchPhase = "discovering"
	PhaseFiltering   BatchPhase = "filtering"
	PhaseDispatching BatchPhase = "dispatching"
	PhaseCollecting  BatchPhase = "collecting"
	PhaseFinalized   BatchPhase = "finalized"
)

// BatchProgress is an aggregate progress observation.
type BatchProgress struct {
	Done    int
	Total   int
	Elapsed time.Duration

	// Rate is completed units per second, zero when no time has elapsed.
	Rate float64

	// ETA is the estimated remaining time, zero when the rate is zero.
	ETA time.Duration
}

// NewBatchProgress derives rate and ETA from the completed count and elapsed time.
func NewBatchProgress(done, total int, elapsed time.Duration) BatchProgress {
	p := BatchProgress{Done: done, Total: total, Elapsed: elapsed}
	if elapsed > 0 {
		p.Rate = float64(done) / elapsed.Seconds()
	}
	if p.Rate > 0 {
		remaining := total - done
		p.ETA = time.Duration(float64(remaining) / p.Rate * float64(time.Second))
	}
	return p
}

// BatchSummary is the final tally of a batch run.
type BatchSummary struct {
	// RunID correlates log lines of one run.
	RunID string

	Total      int
	Successful int
	Failed     int

	// Abandoned counts in-flight units cut off by an interrupt.
	Abandoned int

	// NotStarted counts units never submitted because of an interrupt.
	NotStarted int

	Elapsed     time.Duration
	Interrupted bool
}

// Rate returns the average units per second over the whole run.
func (s BatchSummary) Rate() float64 {
	if s.Elapsed <= 0 {
		return 0
	}
	return float64(s.Successful+s.Failed) / s.Elapsed.Seconds()
}
