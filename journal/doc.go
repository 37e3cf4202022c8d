// Package journal provides an extension that records an in-memory,
// ordered journal of run lifecycle events.
//
// Register it on an engine to capture the exact order in which
// operations were dispatched, completed, and failed:
//
//	j := journal.New()
//	eng, err := engine.Build(plan, reg, engine.WithExtension(j))
//	...
//	for _, entry := range j.Entries() {
//	    fmt.Println(entry.Event, entry.Operation)
//	}
//
// The journal is append-only for the lifetime of the extension (or
// bounded with WithLimit) and safe for concurrent use, so it observes
// runs under any executor.
package journal
