package results

import (
	"bufio"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gilchrisn/sir-influence/pkg/epidemic"
	"github.com/gilchrisn/sir-influence/pkg/sir"
)

func TestFormatBeta(t *testing.T) {
	assert.Equal(t, "1.0", FormatBeta(1))
	assert.Equal(t, "0.1", FormatBeta(0.1))
	crit := 0.2
	assert.Equal(t, "0.16000000000000003", FormatBeta(0.8*crit))
	assert.Equal(t, "1e-05", FormatBeta(0.00001))
}

func TestNetworkName(t *testing.T) {
	assert.Equal(t, "karate", NetworkName("/data/karate/karate.txt"))
	assert.Equal(t, "edges", NetworkName("edges"))
}

func TestEncodeRankingKeepsOrder(t *testing.T) {
	ranking := sir.Ranking{{Node: 30, Mean: 0.9}, {Node: 4, Mean: 0.5}, {Node: 100, Mean: 0.5}}

	data, err := EncodeRanking(ranking)
	require.NoError(t, err)
	assert.Equal(t, "{\n    \"30\": 0.9,\n    \"4\": 0.5,\n    \"100\": 0.5\n}", string(data))

	decoded, err := DecodeRanking(data)
	require.NoError(t, err)
	assert.Equal(t, ranking, decoded)

	_, err = EncodeRanking(sir.Ranking{{Node: 1, Mean: math.NaN()}})
	assert.Error(t, err)

	empty, err := EncodeRanking(nil)
	require.NoError(t, err)
	assert.Equal(t, "{}", string(empty))
}

func TestWriterLayout(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(t.TempDir(), "dolphins.txt")
	require.NoError(t, os.WriteFile(src, []byte("1 2\n"), 0644))

	dir, err := NewWriter(root).Prepare(src)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "dolphins"), dir.Path)

	path, err := dir.WriteRanking(0.25, sir.Ranking{{Node: 1, Mean: 0.5}, {Node: 2, Mean: 0.5}})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "dolphins", "dolphins_0.25.json"), path)

	copied, err := dir.CopyNetwork(src)
	require.NoError(t, err)
	data, err := os.ReadFile(copied)
	require.NoError(t, err)
	assert.Equal(t, "1 2\n", string(data))

	_, err = dir.CopyNetwork(filepath.Join(root, "missing.txt"))
	assert.Error(t, err)
}

func TestManifest(t *testing.T) {
	dir, err := NewWriter(t.TempDir()).Prepare("empty.txt")
	require.NoError(t, err)

	m := &Manifest{
		RunID:     "run",
		Network:   "empty",
		Threshold: epidemic.Undefined(),
		Status:    "skipped",
		StartedAt: time.Now(),
	}
	require.NoError(t, dir.WriteManifest(m))

	raw, err := ReadManifest(dir.Path)
	require.NoError(t, err)
	assert.Nil(t, raw["threshold"])
	assert.Equal(t, "skipped", raw["status"])

	m.Threshold = epidemic.Finite(0.125)
	require.NoError(t, dir.WriteManifest(m))
	raw, err = ReadManifest(dir.Path)
	require.NoError(t, err)
	assert.Equal(t, 0.125, raw["threshold"])
}

func TestTracker(t *testing.T) {
	path := filepath.Join(t.TempDir(), "progress.jsonl")
	tracker, err := NewTracker(path)
	require.NoError(t, err)

	require.NoError(t, tracker.LogNode("net", 0.2, 5, 0.75, 1, 2, 1500*time.Millisecond))
	require.NoError(t, tracker.LogNode("net", 0.2, 6, 0.25, 2, 2, time.Millisecond))
	require.NoError(t, tracker.Close())

	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	var events []NodeEvent
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var e NodeEvent
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &e))
		events = append(events, e)
	}
	require.Len(t, events, 2)
	assert.Equal(t, int64(5), events[0].Node)
	assert.Equal(t, int64(1500), events[0].ElapsedMS)
	assert.Equal(t, 2, events[1].Done)

	var nilTracker *Tracker
	assert.NoError(t, nilTracker.LogNode("net", 0.1, 1, 0, 1, 1, 0))
	assert.NoError(t, nilTracker.Close())
}
