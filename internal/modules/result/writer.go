package result

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/qfold/qfold/internal/modules/protein"
	"github.com/qfold/qfold/internal/modules/vqe"
)

// Artifact file names written into each run directory.
const (
	FileConformationXYZ = "conformation.xyz"
	FileRawResults      = "raw_vqe_results.json"
	FileSparseResults   = "sparse_vqe_results.json"
	FileIterations      = "vqe_iterations.txt"
	FileProjection2D    = "conformation_2d.png"
	FileRotatingGIF     = "rotating_3d_visualization.gif"
	FileInteractiveHTML = "interactive_3d_visualization.html"
)

// IsArtifactName reports whether name is one of the files a run
// directory may contain.
func IsArtifactName(name string) bool {
	switch name {
	case FileConformationXYZ, FileRawResults, FileSparseResults,
		FileIterations, FileProjection2D, FileRotatingGIF, FileInteractiveHTML:
		return true
	}
	return false
}

// runDirTimestamp is the layout of the run directory prefix.
const runDirTimestamp = "2006_01_02-15_04_05"

// DirName returns the run directory name for a protein folded at the
// given instant: a UTC timestamp followed by the two sequences.
func DirName(p *protein.Protein, at time.Time) string {
	return fmt.Sprintf("%s-%s-%s",
		at.UTC().Format(runDirTimestamp), p.MainChain.String(), p.SideChain.String())
}

// RawResults is the payload of raw_vqe_results.json.
type RawResults struct {
	MainChain       string      `json:"main_chain"`
	SideChain       string      `json:"side_chain"`
	Encoding        string      `json:"encoding"`
	Interaction     string      `json:"interaction"`
	Optimizer       string      `json:"optimizer"`
	Backend         string      `json:"backend"`
	VQE             *vqe.Result `json:"vqe"`
	Turns           []int       `json:"turns"`
	Contacts        [][2]int    `json:"contacts"`
	ElapsedSeconds  float64     `json:"elapsed_seconds"`
	StartedAt       time.Time   `json:"started_at"`
}

// Writer persists a run's artifacts into its output directory.
type Writer struct {
	dir string
	log zerolog.Logger
}

// NewWriter creates the run directory under resultsDir and returns a
// Writer bound to it.
func NewWriter(resultsDir string, p *protein.Protein, at time.Time, log zerolog.Logger) (*Writer, error) {
	dir := filepath.Join(resultsDir, DirName(p, at))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("result: creating run directory: %w", err)
	}
	return &Writer{dir: dir, log: log.With().Str("component", "result_writer").Logger()}, nil
}

// Dir returns the run directory path.
func (w *Writer) Dir() string { return w.dir }

// WriteConformationXYZ writes the decoded bead coordinates in XYZ
// format: an atom count, a comment line, then one bead per line.
func (w *Writer) WriteConformationXYZ(p *protein.Protein, c *Conformation) error {
	f, err := os.Create(filepath.Join(w.dir, FileConformationXYZ))
	if err != nil {
		return fmt.Errorf("result: creating %s: %w", FileConformationXYZ, err)
	}
	defer f.Close()

	fmt.Fprintf(f, "%d\n", len(c.Coordinates))
	fmt.Fprintf(f, "%s\n", p.MainChain.String())
	for i, pos := range c.Coordinates {
		fmt.Fprintf(f, "%c %.4f %.4f %.4f\n", p.MainChain.SymbolAt(i), pos[0], pos[1], pos[2])
	}
	return nil
}

// WriteRawResults writes the full run outcome as indented JSON.
func (w *Writer) WriteRawResults(raw *RawResults) error {
	return w.writeJSON(FileRawResults, raw)
}

// WriteSparseResults writes the measurement distribution at the optimal
// parameters, keyed by bitstring.
func (w *Writer) WriteSparseResults(dist vqe.Distribution, numQubits int) error {
	sparse := make(map[string]float64, len(dist))
	for _, state := range dist.States() {
		sparse[vqe.Bitstring(state, numQubits)] = dist[state]
	}
	return w.writeJSON(FileSparseResults, sparse)
}

// iterationColumn is the header of the iteration column; indices are
// centered under it.
const iterationColumn = "Iteration"

// WriteIterations writes the optimization trace, one energy per
// objective evaluation. Indices are centered under the header and
// energies are sign-aligned so columns line up for either sign.
func (w *Writer) WriteIterations(iterations []vqe.Iteration) error {
	f, err := os.Create(filepath.Join(w.dir, FileIterations))
	if err != nil {
		return fmt.Errorf("result: creating %s: %w", FileIterations, err)
	}
	defer f.Close()

	fmt.Fprintf(f, "%s | Energy\n", iterationColumn)
	for _, it := range iterations {
		fmt.Fprintf(f, "%s | % .16f\n", center(strconv.Itoa(it.Index), len(iterationColumn)), it.Energy)
	}
	return nil
}

// center pads s with spaces to width, favoring the right side when the
// padding is odd.
func center(s string, width int) string {
	if len(s) >= width {
		return s
	}
	left := (width - len(s)) / 2
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", width-len(s)-left)
}

func (w *Writer) writeJSON(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("result: encoding %s: %w", name, err)
	}
	if err := os.WriteFile(filepath.Join(w.dir, name), append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("result: writing %s: %w", name, err)
	}
	w.log.Debug().Str("file", name).Msg("Artifact written")
	return nil
}
