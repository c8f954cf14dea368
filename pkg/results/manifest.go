package results

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gilchrisn/sir-influence/pkg/epidemic"
)

const manifestFile = "manifest.json"

// BetaRecord describes one finished beta of a sweep
type BetaRecord struct {
	Beta      float64 `json:"beta"`
	File      string  `json:"file"`
	TopNode   int64   `json:"top_node"`
	TopMean   float64 `json:"top_mean"`
	RuntimeMS int64   `json:"runtime_ms"`
}

// Manifest summarizes a network's sweep next to its rankings
type Manifest struct {
	RunID             string             `json:"run_id"`
	Network           string             `json:"network"`
	Source            string             `json:"source"`
	Nodes             int                `json:"nodes"`
	Edges             int                `json:"edges"`
	Components        int                `json:"components"`
	LargestComponent  int                `json:"largest_component"`
	ThresholdMethod   epidemic.Method    `json:"threshold_method"`
	Threshold         epidemic.Threshold `json:"threshold"`
	LeadingEigenvalue float64            `json:"leading_eigenvalue,omitempty"`
	Multipliers       []float64          `json:"multipliers"`
	Schedule          epidemic.Schedule  `json:"schedule"`
	Gamma             float64            `json:"gamma"`
	Trials            int                `json:"trials"`
	Seed              uint64             `json:"seed"`
	Workers           int                `json:"workers"`
	Betas             []BetaRecord       `json:"betas"`
	Status            string             `json:"status"`
	Error             string             `json:"error,omitempty"`
	StartedAt         time.Time          `json:"started_at"`
	FinishedAt        time.Time          `json:"finished_at"`
}

// WriteManifest writes manifest.json into the result folder
func (d *NetworkDir) WriteManifest(m *Manifest) error {
	data, err := json.MarshalIndent(m, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}
	return os.WriteFile(filepath.Join(d.Path, manifestFile), data, 0644)
}

// ReadManifest loads a manifest as raw JSON fields. The threshold is kept as
// a plain number (nil when undefined).
func ReadManifest(dir string) (map[string]interface{}, error) {
	data, err := os.ReadFile(filepath.Join(dir, manifestFile))
	if err != nil {
		return nil, err
	}
	out := make(map[string]interface{})
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}
