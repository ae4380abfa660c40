package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/carbonsim/internal/flow"
)

func testResult(t *testing.T, steps int) *RunResult {
	t.Helper()
	layout, err := flow.NewLayout([]string{"Input", "Biomass", "CO2"}, []flow.Indicator{
		{Name: "NPP", Process: flow.ProcessGrowth, Sources: []int{0}, Sinks: []int{1}},
	})
	if err != nil {
		t.Fatalf("layout: %v", err)
	}
	result := &RunResult{Layout: layout}
	for s := 0; s <= steps; s++ {
		pools := flow.NewPools(2, layout.NPools())
		pools.Row(0)[1] = float64(s) + 1
		pools.Row(1)[1] = float64(s) + 2
		result.Pools = append(result.Pools, pools)
	}
	for s := 0; s < steps; s++ {
		flx := flow.NewFlux(2, layout.NFlux())
		flx.Row(0)[0] = 0.5
		flx.Row(1)[0] = 0.25
		result.Flux = append(result.Flux, flx)
	}
	return result
}

func TestStoreSaveLoad(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	result := testResult(t, 2)
	runID, err := st.Save(RunMetadata{
		Name:             "unit",
		Model:            "cbm",
		Backend:          "serial",
		Stands:           2,
		Steps:            2,
		SpinupIterations: 250,
		Summary:          map[string]float64{"total_carbon": 9.0},
	}, result)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if runID == "" {
		t.Error("expected non-empty run id")
	}

	meta, err := st.Load(runID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if meta.Model != "cbm" {
		t.Errorf("expected model cbm, got %s", meta.Model)
	}
	if meta.SpinupIterations != 250 {
		t.Errorf("expected 250 spinup iterations, got %d", meta.SpinupIterations)
	}
	if meta.Summary["total_carbon"] != 9.0 {
		t.Errorf("expected total_carbon 9.0, got %f", meta.Summary["total_carbon"])
	}
}

func TestStoreList(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	runs, err := st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected 0 runs, got %d", len(runs))
	}

	if _, err := st.Save(RunMetadata{Model: "cbm"}, testResult(t, 1)); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	runs, err = st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 1 {
		t.Errorf("expected 1 run, got %d", len(runs))
	}
}

func TestStoreFileStructure(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	runID, err := st.Save(RunMetadata{Model: "cbm"}, testResult(t, 1))
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	runDir := filepath.Join(tmpDir, runID)
	for _, name := range []string{"metadata.json", "pools.csv", "flux.csv"} {
		if _, err := os.Stat(filepath.Join(runDir, name)); os.IsNotExist(err) {
			t.Errorf("%s not created", name)
		}
	}
}

func TestLoadResultRoundTrip(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	saved := testResult(t, 2)
	runID, err := st.Save(RunMetadata{Model: "cbm"}, saved)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	loaded, err := st.LoadResult(runID)
	if err != nil {
		t.Fatalf("load result failed: %v", err)
	}
	if got, want := loaded.Layout.PoolNames(), saved.Layout.PoolNames(); len(got) != len(want) || got[1] != want[1] {
		t.Errorf("expected pool names %v, got %v", want, got)
	}
	if got, want := loaded.Layout.FluxNames(), saved.Layout.FluxNames(); len(got) != 1 || got[0] != want[0] {
		t.Errorf("expected flux names %v, got %v", want, got)
	}
	if len(loaded.Pools) != 3 || len(loaded.Flux) != 2 {
		t.Fatalf("expected 3 pool and 2 flux batches, got %d and %d",
			len(loaded.Pools), len(loaded.Flux))
	}
	for ts := range loaded.Pools {
		for stand := 0; stand < 2; stand++ {
			got := loaded.Pools[ts].Row(stand)[1]
			want := saved.Pools[ts].Row(stand)[1]
			if got != want {
				t.Errorf("timestep %d stand %d: expected %g, got %g", ts, stand, want, got)
			}
		}
	}
	if got := loaded.Flux[0].Row(1)[0]; got != 0.25 {
		t.Errorf("expected flux 0.25, got %g", got)
	}
}

func TestExportJSONRoundTrip(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	runID, err := st.Save(RunMetadata{Model: "cbm", Stands: 2}, testResult(t, 1))
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	meta, err := st.Load(runID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	result, err := st.LoadResult(runID)
	if err != nil {
		t.Fatalf("load result failed: %v", err)
	}

	path := filepath.Join(t.TempDir(), "export.json")
	if err := ExportJSON(path, *meta, result); err != nil {
		t.Fatalf("export failed: %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	var data ExportData
	if err := json.Unmarshal(raw, &data); err != nil {
		t.Fatalf("decode export: %v", err)
	}
	if data.Meta.Model != "cbm" || data.Meta.ID != runID {
		t.Errorf("expected meta for run %s, got %+v", runID, data.Meta)
	}
	if len(data.Pools) != 2 || len(data.Flux) != 1 {
		t.Fatalf("expected 2 pool and 1 flux timesteps, got %d and %d",
			len(data.Pools), len(data.Flux))
	}
	if got := data.Pools[1][0][1]; got != 2 {
		t.Errorf("expected biomass 2 at timestep 1, got %g", got)
	}
	if got := data.Flux[0][1][0]; got != 0.25 {
		t.Errorf("expected flux 0.25, got %g", got)
	}
}

func TestLoadSeries(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	runID, err := st.Save(RunMetadata{Model: "cbm"}, testResult(t, 2))
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	series, err := st.LoadSeries(runID, "pools.csv", "Biomass")
	if err != nil {
		t.Fatalf("load series failed: %v", err)
	}
	// two stands summed: (s+1)+(s+2) per timestep
	want := []float64{3, 5, 7}
	if len(series.Values) != len(want) {
		t.Fatalf("expected %d timesteps, got %d", len(want), len(series.Values))
	}
	for i, v := range want {
		if series.Values[i] != v {
			t.Errorf("timestep %d: expected %f, got %f", i, v, series.Values[i])
		}
	}

	if _, err := st.LoadSeries(runID, "pools.csv", "NoSuchPool"); err == nil {
		t.Error("expected error for unknown column")
	}
}
