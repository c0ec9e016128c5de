package storage

import (
	"encoding/json"
	"io"
	"os"

	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"github.com/san-kum/autodrive/internal/experiment"
)

type ExportData struct {
	RunMetadata
	Ticks   int                 `json:"ticks"`
	Samples []experiment.Sample `json:"samples"`
}

// Export loads a saved run and its ticks as one document.
func (s *Store) Export(runID string) (*ExportData, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, err
	}
	samples, err := s.LoadTicks(runID)
	if err != nil {
		return nil, err
	}
	return &ExportData{RunMetadata: *meta, Ticks: len(samples), Samples: samples}, nil
}

func ExportJSON(path string, data *ExportData) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "storage: create export")
	}
	defer multierr.AppendInvoke(&err, multierr.Close(f))
	return WriteJSON(f, data)
}

func WriteJSON(w io.Writer, data *ExportData) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return errors.Wrap(enc.Encode(data), "storage: encode export")
}
