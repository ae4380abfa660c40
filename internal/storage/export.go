package storage

import (
	"encoding/json"
	"io"
	"os"
)

// ExportData is the flat JSON form of a recorded run, for downstream tools
// that do not want to parse the per-run CSV files.
type ExportData struct {
	Meta      RunMetadata   `json:"meta"`
	PoolNames []string      `json:"pool_names"`
	FluxNames []string      `json:"flux_names"`
	Pools     [][][]float64 `json:"pools"` // [timestep][stand][pool]
	Flux      [][][]float64 `json:"flux"`  // [timestep][stand][indicator]
}

func buildExport(meta RunMetadata, result *RunResult) ExportData {
	data := ExportData{
		Meta:      meta,
		PoolNames: result.Layout.PoolNames(),
		FluxNames: result.Layout.FluxNames(),
		Pools:     make([][][]float64, len(result.Pools)),
		Flux:      make([][][]float64, len(result.Flux)),
	}
	for t, pools := range result.Pools {
		data.Pools[t] = rows(pools.N, pools.Row)
	}
	for t, flux := range result.Flux {
		data.Flux[t] = rows(flux.N, flux.Row)
	}
	return data
}

func rows(n int, row func(int) []float64) [][]float64 {
	out := make([][]float64, n)
	for i := 0; i < n; i++ {
		out[i] = append([]float64(nil), row(i)...)
	}
	return out
}

func ExportJSON(path string, meta RunMetadata, result *RunResult) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return writeExport(file, meta, result)
}

func ExportJSONStdout(meta RunMetadata, result *RunResult) error {
	return writeExport(os.Stdout, meta, result)
}

func writeExport(w io.Writer, meta RunMetadata, result *RunResult) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(buildExport(meta, result))
}

// ExportMetaStdout prints just the run metadata.
func ExportMetaStdout(meta *RunMetadata) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(meta)
}
