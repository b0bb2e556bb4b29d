package cli

import "fmt"

// ExitError asks main to exit with Code without printing anything.
// Commands use it when the result itself is the answer (e.g. downloaded --exit-code).
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}
