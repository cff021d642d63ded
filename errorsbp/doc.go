// Package errorsbp provides Batch, which compiles multiple errors into a
// single one.
//
// It's used by the config validation code, which reports every problem in
// one pass instead of stopping at the first:
//
//	var batch errorsbp.Batch
//	for i, cfg := range cfgs {
//		batch.AddPrefix(fmt.Sprintf("watch[%d]", i), cfg.Validate())
//	}
//	return batch.Compile()
//
// This package is not thread-safe.
// The same batch should not be operated on different goroutines concurrently.
package errorsbp
