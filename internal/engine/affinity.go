package engine

// bestEffortPin applies platform-specific thread priority/affinity hints
// for a decode worker, matching spec.md §5's "priority and core pinning
// are applied best-effort on thread start". Go's goroutine scheduler
// gives no portable handle to the underlying OS thread, so this hook is
// a deliberate no-op; a future platform-specific build (cgo or
// golang.org/x/sys) can replace it without changing the worker loop's
// contract.
func bestEffortPin(workerIndex int) {}
