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

	"github.com/san-kum/carbonsim/internal/flow"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID               string             `json:"id"`
	Name             string             `json:"name"`
	Model            string             `json:"model"`
	Timestamp        time.Time          `json:"timestamp"`
	Backend          string             `json:"backend"`
	Stands           int                `json:"stands"`
	Steps            int                `json:"steps"`
	SpinupIterations int                `json:"spinup_iterations"`
	NotConverged     int                `json:"not_converged"`
	Summary          map[string]float64 `json:"summary"`
}

// RunResult is the recorded timeseries of one simulation: the pool batch
// after spinup and after each step, and the flux batch of each step.
type RunResult struct {
	Layout *flow.Layout
	Pools  []*flow.Pools
	Flux   []*flow.Flux
}

func (s *Store) Save(meta RunMetadata, result *RunResult) (string, error) {
	runID := fmt.Sprintf("%s_%d", meta.Model, time.Now().Unix())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta.ID = runID
	meta.Timestamp = time.Now()

	metaPath := filepath.Join(runDir, "metadata.json")
	metaFile, err := os.Create(metaPath)
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	if err := s.writePools(runDir, result); err != nil {
		return "", err
	}
	if err := s.writeFlux(runDir, result); err != nil {
		return "", err
	}
	return runID, nil
}

func (s *Store) writePools(runDir string, result *RunResult) error {
	f, err := os.Create(filepath.Join(runDir, "pools.csv"))
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	header := append([]string{"timestep", "stand"}, result.Layout.PoolNames()...)
	if err := w.Write(header); err != nil {
		return err
	}
	for t, pools := range result.Pools {
		for stand := 0; stand < pools.N; stand++ {
			row := make([]string, 0, len(header))
			row = append(row, strconv.Itoa(t), strconv.Itoa(stand))
			for _, v := range pools.Row(stand) {
				row = append(row, strconv.FormatFloat(v, 'g', -1, 64))
			}
			if err := w.Write(row); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Store) writeFlux(runDir string, result *RunResult) error {
	if len(result.Flux) == 0 {
		return nil
	}
	f, err := os.Create(filepath.Join(runDir, "flux.csv"))
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	header := append([]string{"timestep", "stand"}, result.Layout.FluxNames()...)
	if err := w.Write(header); err != nil {
		return err
	}
	for t, flux := range result.Flux {
		for stand := 0; stand < flux.N; stand++ {
			row := make([]string, 0, len(header))
			// flux rows belong to the step that produced them, 1-based
			row = append(row, strconv.Itoa(t+1), strconv.Itoa(stand))
			for _, v := range flux.Row(stand) {
				row = append(row, strconv.FormatFloat(v, 'g', -1, 64))
			}
			if err := w.Write(row); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		metaPath := filepath.Join(s.baseDir, entry.Name(), "metadata.json")
		data, err := os.ReadFile(metaPath)
		if err != nil {
			continue
		}
		var meta RunMetadata
		if err := json.Unmarshal(data, &meta); err != nil {
			continue
		}
		runs = append(runs, meta)
	}
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	metaPath := filepath.Join(s.baseDir, runID, "metadata.json")
	data, err := os.ReadFile(metaPath)
	if err != nil {
		return nil, err
	}
	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// LoadResult reads a saved run's pool and flux timeseries back from disk.
// The reconstructed layout carries names only; flux routing is not stored.
func (s *Store) LoadResult(runID string) (*RunResult, error) {
	poolNames, poolBatches, err := s.readBatches(runID, "pools.csv")
	if err != nil {
		return nil, err
	}
	fluxNames, fluxBatches, err := s.readBatches(runID, "flux.csv")
	if err != nil {
		// runs with zero steps have no flux file
		if !os.IsNotExist(err) {
			return nil, err
		}
		fluxNames, fluxBatches = nil, nil
	}

	indicators := make([]flow.Indicator, len(fluxNames))
	for i, name := range fluxNames {
		indicators[i] = flow.Indicator{Name: name}
	}
	layout, err := flow.NewLayout(poolNames, indicators)
	if err != nil {
		return nil, err
	}

	result := &RunResult{Layout: layout}
	for _, batch := range poolBatches {
		pools := flow.NewPools(len(batch), len(poolNames))
		for stand, row := range batch {
			copy(pools.Row(stand), row)
		}
		result.Pools = append(result.Pools, pools)
	}
	for _, batch := range fluxBatches {
		flux := flow.NewFlux(len(batch), len(fluxNames))
		for stand, row := range batch {
			copy(flux.Row(stand), row)
		}
		result.Flux = append(result.Flux, flux)
	}
	return result, nil
}

// readBatches parses one run CSV into its value column names and per-timestep
// row groups, in timestep order.
func (s *Store) readBatches(runID, file string) ([]string, [][][]float64, error) {
	f, err := os.Open(filepath.Join(s.baseDir, runID, file))
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, nil, err
	}
	if len(records) == 0 || len(records[0]) < 2 {
		return nil, nil, fmt.Errorf("storage: %s has no header", file)
	}
	names := records[0][2:]

	byStep := map[int][][]float64{}
	for _, rec := range records[1:] {
		step, err := strconv.Atoi(rec[0])
		if err != nil {
			return nil, nil, fmt.Errorf("storage: %s: bad timestep %q", file, rec[0])
		}
		row := make([]float64, len(names))
		for i := range row {
			row[i], err = strconv.ParseFloat(rec[2+i], 64)
			if err != nil {
				return nil, nil, fmt.Errorf("storage: %s: bad value %q", file, rec[2+i])
			}
		}
		byStep[step] = append(byStep[step], row)
	}

	steps := make([]int, 0, len(byStep))
	for step := range byStep {
		steps = append(steps, step)
	}
	sort.Ints(steps)
	batches := make([][][]float64, 0, len(steps))
	for _, step := range steps {
		batches = append(batches, byStep[step])
	}
	return names, batches, nil
}

// Series is one column of a recorded run, summed over stands per timestep.
type Series struct {
	Name   string
	Values []float64
}

// LoadSeries reads one pools.csv or flux.csv column back as a per-timestep
// total over all stands.
func (s *Store) LoadSeries(runID, file, column string) (*Series, error) {
	path := filepath.Join(s.baseDir, runID, file)
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return &Series{Name: column}, nil
	}

	col := -1
	for i, name := range records[0] {
		if name == column {
			col = i
			break
		}
	}
	if col < 0 {
		return nil, fmt.Errorf("storage: %s has no column %q", file, column)
	}

	totals := map[int]float64{}
	maxStep := 0
	for _, rec := range records[1:] {
		step, err := strconv.Atoi(rec[0])
		if err != nil {
			continue
		}
		v, err := strconv.ParseFloat(rec[col], 64)
		if err != nil {
			continue
		}
		totals[step] += v
		if step > maxStep {
			maxStep = step
		}
	}
	out := &Series{Name: column, Values: make([]float64, maxStep+1)}
	for step, v := range totals {
		out.Values[step] = v
	}
	return out, nil
}
