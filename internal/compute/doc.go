// Package compute provides the fixed-size worker pool that runs the parallel
// regions of a timestep.
//
// A [Pool] owns a set of worker goroutines started once in [NewPool].
// [Pool.For] splits an index range into one contiguous chunk per worker and
// returns only after every chunk has finished, so each call is a barrier:
//
//	pool := compute.NewPool(runtime.NumCPU())
//	defer pool.Close()
//	pool.For(n, func(lo, hi int) {
//	    for i := lo; i < hi; i++ {
//	        forces[i] = field.ForceOn(sys, i)
//	    }
//	})
//
// Chunk w always runs on worker w. Callers that write only the indices of
// their own chunk need no locking.
package compute
