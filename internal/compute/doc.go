// Package compute provides matrix-apply backends for the flow engine.
//
// Two native backends are available:
//
//   - serial: single goroutine, reference implementation
//   - parallel: stand axis chunked across workers, synchronized at
//     operation boundaries
//
// Both honor the same calling contract, so an accelerated external kernel
// can be slotted in behind the [Backend] interface without touching the
// controllers:
//
//	backend := compute.Auto()
//	err := backend.ApplyWithFlux(ops, layout, pools, flux, enabled)
//
// A backend failure means the entire operation set was not applied; pools
// and flux are left untouched.
package compute
