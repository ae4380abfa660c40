package config

var Presets = map[string]map[string]*Config{
	"cbm": {
		"boreal": {
			Model: "cbm", Backend: "auto",
			Spinup: SpinupConfig{ReturnInterval: 125, MaxRotations: 30, MaxIterations: 10000},
			Step:   StepConfig{Steps: 100},
			Output: OutputConfig{Dir: "runs", Name: "boreal"},
		},
		"temperate": {
			Model: "cbm", Backend: "auto",
			Spinup: SpinupConfig{ReturnInterval: 80, MaxRotations: 30, MaxIterations: 10000},
			Step:   StepConfig{Steps: 100},
			Output: OutputConfig{Dir: "runs", Name: "temperate"},
		},
		"quick": {
			Model: "cbm", Backend: "serial",
			Spinup: SpinupConfig{ReturnInterval: 50, MaxRotations: 5, MaxIterations: 2000},
			Step:   StepConfig{Steps: 20},
			Output: OutputConfig{Dir: "runs", Name: "quick"},
		},
	},
	"moss": {
		"peatland": {
			Model: "moss", Backend: "auto",
			Spinup: SpinupConfig{ReturnInterval: 125, MaxRotations: 30, MaxIterations: 10000},
			Step:   StepConfig{Steps: 100},
			Output: OutputConfig{Dir: "runs", Name: "peatland"},
		},
		"quick": {
			Model: "moss", Backend: "serial",
			Spinup: SpinupConfig{ReturnInterval: 50, MaxRotations: 5, MaxIterations: 2000},
			Step:   StepConfig{Steps: 20},
			Output: OutputConfig{Dir: "runs", Name: "moss-quick"},
		},
	},
}

func GetPreset(model, preset string) *Config {
	modelPresets, ok := Presets[model]
	if !ok {
		return nil
	}
	cfg, ok := modelPresets[preset]
	if !ok {
		return nil
	}
	return cfg
}

func ListPresets(model string) []string {
	modelPresets, ok := Presets[model]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(modelPresets))
	for name := range modelPresets {
		names = append(names, name)
	}
	return names
}
