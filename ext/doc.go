// Package ext defines the extension system for Onward.
//
// Extensions are notified of lifecycle events and can react to them —
// recording metrics, writing run journals, emitting webhooks, etc.
// Each lifecycle hook is a separate interface so extensions opt in only
// to the events they care about.
//
// # Implementing an Extension
//
//	type MyExtension struct{}
//
//	func (e *MyExtension) Name() string { return "my-extension" }
//
//	// Opt in to specific hooks by implementing their interfaces.
//	func (e *MyExtension) OnOperationCompleted(ctx context.Context, p *onward.Plan, op *operation.Descriptor, elapsed time.Duration) error {
//	    log.Printf("operation %s completed in %s", op.Name(), elapsed)
//	    return nil
//	}
//
// # Run Lifecycle Hooks
//
//   - [RunStarted] — the orchestrator loop began
//   - [RunCompleted] — every reachable node finished
//   - [RunFailed] — the run aborted with an error
//
// # Operation Lifecycle Hooks
//
//   - [OperationStarted] — an operation was dispatched to the executor
//   - [OperationCompleted] — an operation finished and its result was recorded
//   - [OperationFailed] — an operation's invocation raised an error
//
// # Other Hooks
//
//   - [Shutdown] — the engine is closing
//
// The [Registry] fans out each event to all registered extensions that
// implement the corresponding hook interface.
package ext
