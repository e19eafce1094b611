package mock

import "fmt"

// ExhaustedError reports a request that arrived after every configured
// response had already been served.
type ExhaustedError struct {
	// Served is the number of responses delivered before the queue ran
	// out.
	Served int
}

// Error implements the error interface for ExhaustedError.
func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("no mocked responses left (%v served)", e.Served)
}
