package moss

import "math"

// Params are the moss growth and decay coefficients. Openness, ground cover
// and productivity are empirical functions of the overstory merchantable
// volume; decay follows the same Q10 form as the mineral-soil pools.
type Params struct {
	// canopy openness from merch volume
	OpennessA float64
	OpennessB float64

	// ground cover from openness
	FeatherCoverC  float64
	FeatherCoverD  float64
	SphagnumCoverE float64
	SphagnumCoverF float64

	// productivity from openness
	FeatherNPPG  float64
	FeatherNPPH  float64
	SphagnumNPPI float64
	SphagnumNPPJ float64
	SphagnumNPPL float64

	// sphagnum slow decay base rate from the stand's maximum volume
	SlowBaseM float64
	SlowBaseN float64

	Q10  float64
	TRef float64

	KFeatherFast  float64
	KSphagnumFast float64
	KFeatherSlow  float64

	// share of fast-pool decay losses humified into the slow pools; the
	// remainder goes to the atmosphere
	FastToSlow float64
}

// Openness is the canopy openness for a stand of the given merchantable
// volume. Zero volume means open ground.
func (p Params) Openness(vol float64) float64 {
	if vol == 0 {
		return 60.0
	}
	return math.Pow(10, p.OpennessA*math.Log10(vol)+p.OpennessB)
}

// FeatherCover is the feather moss ground cover percentage.
func (p Params) FeatherCover(openness float64, age int) float64 {
	switch {
	case age < 10:
		return 0
	case openness > 70:
		return 100
	default:
		return openness*p.FeatherCoverC + p.FeatherCoverD
	}
}

// SphagnumCover is the sphagnum moss ground cover percentage.
func (p Params) SphagnumCover(openness float64, age int) float64 {
	switch {
	case age < 10:
		return 0
	case openness > 70:
		return 100
	default:
		return openness*p.SphagnumCoverE + p.SphagnumCoverF
	}
}

// FeatherNPP is feather moss productivity at full cover.
func (p Params) FeatherNPP(openness float64) float64 {
	if openness < 5 {
		return 0.6
	}
	return p.FeatherNPPG*math.Log(openness) + p.FeatherNPPH
}

// SphagnumNPP is sphagnum productivity at full cover.
func (p Params) SphagnumNPP(openness float64) float64 {
	return p.SphagnumNPPI*openness*openness + p.SphagnumNPPJ*openness + p.SphagnumNPPL
}

// SphagnumSlowBase is the sphagnum slow pool base decay rate, a function of
// the stand's maximum merchantable volume.
func (p Params) SphagnumSlowBase(maxVol float64) float64 {
	return p.SlowBaseM*math.Log(maxVol) + p.SlowBaseN
}

// AppliedRate adjusts a base decay rate to mean annual temperature t.
func (p Params) AppliedRate(base, t float64) float64 {
	return base * math.Pow(p.Q10, (t-p.TRef)/10.0)
}
