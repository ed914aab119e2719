// Package runner is the workload execution engine for docloader.
//
// A [Runner] splits the id range [0, NumDocs) into one contiguous [Range] per worker
// and starts a [Dispatcher] for each. Dispatchers issue [WorkItem]s in fixed-size
// batches against a [store.Set], resolving item j to target j mod len(targets):
//
//	opts := runner.Options{
//		Workers:   4,
//		BatchSize: 1000,
//		Operation: runner.OperationInsert,
//		NumDocs:   100000,
//		DocSize:   1024,
//	}
//	r, err := runner.New(opts, targets, factory, collector, logger)
//	result := r.Run(ctx)
//
// # Batches
//
// Every item of a batch runs concurrently and the batch is awaited as a whole before
// the next one starts, so at most BatchSize operations are in flight per Dispatcher.
// Insert and update batches share one generated document. Each item reports exactly
// one outcome to the [Recorder], whether it succeeded or failed.
//
// # Run Length
//
// A bounded run issues every key of its range once and returns. With RunForTime the
// cursor wraps to the start of the range and the run continues until the context is
// done or RunTime elapses. Cancellation is only observed between batches; operations
// already issued run to completion on a detached context bounded by OpTimeout.
//
// # Middleware
//
// Targets can be wrapped before the set is built:
//   - [WithLogging]: Log operation failures
//   - [WithRetry]: Retry transient failures with backoff
//
// # Query Workload
//
// [QueryWorkload] repeatedly executes one statement from several workers and can
// require a field in every returned row.
package runner
