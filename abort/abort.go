// Package abort implements the process-termination hook: the only way
// this subsystem voluntarily terminates the host process. It is invoked
// when panic_on_db_errors is set and a persistent RPC failure occurs, or
// on an invariant violation such as a conflicting slot-parent edge.
package abort

import (
	"fmt"
	"os"
)

// Hook is the abort function used by the worker pool. It is
// a variable, not a direct os.Exit call, so tests can substitute a
// non-terminating stand-in.
var Hook = func(reason string, err error) {
	fmt.Fprintf(os.Stderr, "fatal: %s: %v\n", reason, err)
	os.Exit(1)
}

// Now invokes Hook with reason and err.
func Now(reason string, err error) {
	Hook(reason, err)
}
