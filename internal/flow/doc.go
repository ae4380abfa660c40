// Package flow defines the batched carbon-pool data model: pool and flux
// batches over N independent stands, sparse linear flow operations, and the
// process/indicator layout used for categorized flux accounting.
//
// A pool batch is an N x P matrix, one row per stand. Column 0 is the
// constant Input pool and is reset to 1.0 for every enabled stand before each
// operation applies. Operations are sparse proportional-flow matrices built
// from (source, sink, coefficient) triples:
//
//	op, _ := flow.NewOperation("growth", flow.ProcessGrowth, nPools,
//	    flow.Shared([]flow.Coord{{Src: 0, Snk: 1, Value: 0.25}}))
//
// Rows with outflows and no explicit diagonal retain 1 minus the sum of
// their off-diagonal coefficients; untouched rows retain everything. A
// diagonal triple sets the retention explicitly.
//
// Applying operations to pools is the job of a [compute] backend; the
// composition order within one backend call is significant, since each
// operation consumes the pool state the previous one produced.
package flow
