package domain

import "strings"

// Result reports success or an ordered list of human readable failures.
type Result struct {
	Succeeded bool
	errors    []string
}

// Success is the shared successful result.
var Success = Result{Succeeded: true}

// Failed builds a failed result carrying errs in order.
func Failed(errs ...string) Result {
	return Result{errors: append([]string(nil), errs...)}
}

// Errors returns a copy of the failure messages.
func (r Result) Errors() []string {
	return append([]string(nil), r.errors...)
}

// String returns "Succeeded" or "Failed : " followed by the comma separated
// errors.
func (r Result) String() string {
	if r.Succeeded {
		return "Succeeded"
	}
	return "Failed : " + strings.Join(r.errors, ",")
}
