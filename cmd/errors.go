package cmd

import "fmt"

// ConvergenceError reports that apply finished with resources out of sync.
// Partial counts resources that changed before a step failed, Failed those
// that could not be changed at all.
type ConvergenceError struct {
	Total   int
	Partial int
	Failed  int
}

func (e *ConvergenceError) Error() string {
	switch {
	case e.Failed == 0:
		return fmt.Sprintf("%d of %d resource(s) only partially converged", e.Partial, e.Total)
	case e.Partial == 0:
		return fmt.Sprintf("%d of %d resource(s) failed to converge", e.Failed, e.Total)
	default:
		return fmt.Sprintf("%d of %d resource(s) failed to converge, %d partially converged", e.Failed, e.Total, e.Partial)
	}
}
