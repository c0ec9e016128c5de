// Package storage keeps simulated runs on disk, one directory per run with
// metadata.json and ticks.csv.
package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"github.com/san-kum/autodrive/internal/experiment"
	"github.com/san-kum/autodrive/internal/sim"
)

const (
	metadataFile = "metadata.json"
	ticksFile    = "ticks.csv"
)

var ErrRunNotFound = errors.New("storage: run not found")

var ticksHeader = []string{"step", "run", "time", "x", "y", "heading", "reading", "target", "correction", "left", "right"}

type Store struct {
	baseDir string
	clk     clock.Clock
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir, clk: clock.New()}
}

// WithClock sets the clock used to stamp runs.
func (s *Store) WithClock(clk clock.Clock) *Store {
	s.clk = clk
	return s
}

func (s *Store) Init() error {
	return errors.Wrap(os.MkdirAll(s.baseDir, 0755), "storage: init")
}

type RunMetadata struct {
	ID         string             `json:"id"`
	Routine    string             `json:"routine"`
	Preset     string             `json:"preset,omitempty"`
	Timestamp  time.Time          `json:"timestamp"`
	Integrator string             `json:"integrator"`
	Step       time.Duration      `json:"step"`
	Start      sim.Start          `json:"start"`
	Final      sim.Start          `json:"final"`
	Duration   time.Duration      `json:"duration"`
	Steps      int                `json:"steps"`
	Pushes     int                `json:"pushes"`
	Error      string             `json:"error,omitempty"`
	Metrics    map[string]float64 `json:"metrics"`
}

// Save writes result under a new run directory and returns its ID.
func (s *Store) Save(simCfg sim.Config, result *experiment.Result) (string, error) {
	now := s.clk.Now()
	runID, runDir, err := s.newRunDir(result.Routine, now)
	if err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:         runID,
		Routine:    result.Routine,
		Preset:     result.Preset,
		Timestamp:  now,
		Integrator: simCfg.Integrator,
		Step:       simCfg.Step,
		Start:      result.Start,
		Final:      result.Final,
		Duration:   result.Duration,
		Steps:      result.Steps,
		Pushes:     result.Pushes,
		Error:      result.Error,
		Metrics:    result.Metrics,
	}
	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}
	if err := writeTicks(filepath.Join(runDir, ticksFile), result.Samples); err != nil {
		return "", err
	}
	return runID, nil
}

// newRunDir creates a run directory named after the routine and time,
// adding a counter when two runs land on the same millisecond.
func (s *Store) newRunDir(routine string, now time.Time) (string, string, error) {
	if err := s.Init(); err != nil {
		return "", "", err
	}
	base := fmt.Sprintf("%s_%s", routine, now.UTC().Format("20060102-150405.000"))
	for n := 0; ; n++ {
		id := base
		if n > 0 {
			id = fmt.Sprintf("%s-%d", base, n)
		}
		dir := filepath.Join(s.baseDir, id)
		err := os.Mkdir(dir, 0755)
		if err == nil {
			return id, dir, nil
		}
		if !os.IsExist(err) {
			return "", "", errors.Wrap(err, "storage: create run dir")
		}
	}
}

func writeJSON(path string, v any) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "storage: create")
	}
	defer multierr.AppendInvoke(&err, multierr.Close(f))

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return errors.Wrapf(enc.Encode(v), "storage: encode %s", filepath.Base(path))
}

func writeTicks(path string, samples []experiment.Sample) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "storage: create")
	}
	defer multierr.AppendInvoke(&err, multierr.Close(f))

	w := csv.NewWriter(f)
	if err := w.Write(ticksHeader); err != nil {
		return err
	}
	for _, s := range samples {
		row := []string{
			strconv.Itoa(s.Step),
			strconv.Itoa(s.Run),
			formatFloat(s.Time),
			formatFloat(s.X),
			formatFloat(s.Y),
			formatFloat(s.Heading),
			formatFloat(s.Reading),
			formatFloat(s.Target),
			formatFloat(s.Correction),
			formatFloat(s.Left),
			formatFloat(s.Right),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return errors.Wrap(w.Error(), "storage: write ticks")
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

// List returns every readable run, oldest first. Directories without valid
// metadata are skipped.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, errors.Wrap(err, "storage: list")
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].Timestamp.Before(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(ErrRunNotFound, runID)
		}
		return nil, errors.Wrap(err, "storage: read metadata")
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, errors.Wrapf(err, "storage: parse metadata of %s", runID)
	}
	return &meta, nil
}

// LoadTicks reads the samples saved with a run. Rows that do not parse are
// skipped.
func (s *Store) LoadTicks(runID string) (samples []experiment.Sample, err error) {
	f, err := os.Open(filepath.Join(s.baseDir, runID, ticksFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(ErrRunNotFound, runID)
		}
		return nil, errors.Wrap(err, "storage: open ticks")
	}
	defer multierr.AppendInvoke(&err, multierr.Close(f))

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "storage: read ticks")
	}

	samples = make([]experiment.Sample, 0, len(records))
	for i, record := range records {
		if i == 0 || len(record) != len(ticksHeader) {
			continue
		}
		sample, ok := parseSample(record)
		if !ok {
			continue
		}
		samples = append(samples, sample)
	}
	return samples, nil
}

func parseSample(record []string) (experiment.Sample, bool) {
	step, err1 := strconv.Atoi(record[0])
	run, err2 := strconv.Atoi(record[1])
	if err1 != nil || err2 != nil {
		return experiment.Sample{}, false
	}
	vals := make([]float64, len(record)-2)
	for i, field := range record[2:] {
		v, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return experiment.Sample{}, false
		}
		vals[i] = v
	}
	return experiment.Sample{
		Step:       step,
		Run:        run,
		Time:       vals[0],
		X:          vals[1],
		Y:          vals[2],
		Heading:    vals[3],
		Reading:    vals[4],
		Target:     vals[5],
		Correction: vals[6],
		Left:       vals[7],
		Right:      vals[8],
	}, true
}
