// Package sim contains the generic spinup and stepping controllers shared by
// every carbon model in this module.
//
// A model is a [Definition] (pool layout, slow pools, annual operation
// order) plus an [OperationBuilder] that produces the operations each
// iteration. The controllers own the per-stand state machine and
// bookkeeping; the builders own the biology. The CBM and moss models are two
// instantiations of this one skeleton.
//
//	model, _ := sim.NewModel(def, builder, compute.Auto())
//	res, _ := model.Spinup(inv, params)
//	for year := 0; year < years; year++ {
//	    _ = model.Step(res.Pools, flux, res.State, stepParams)
//	}
//
// Spinup runs all stands in lockstep: each iteration advances every stand's
// spinup state, builds the iteration's operations, applies the fixed annual
// schedule (growth twice, once within-period and once end-of-period) plus
// the state-selected disturbance, then updates ages, rotation counters and
// slow-pool history. A stand that has reached equilibrium stops being
// touched; the loop ends when every stand is done or the iteration cap
// force-finalizes the stragglers.
package sim
