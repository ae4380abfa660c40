// Package cbm instantiates the flow engine for the Carbon Budget Model pool
// structure: five biomass pools, seven dead organic matter pools split into
// fast, medium and slow compartments, and a CO2 sink. Parameters arrive as
// tables; the builder turns them into per-stand flow operations.
package cbm
