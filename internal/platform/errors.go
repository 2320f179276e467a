package platform

import "fmt"

// CallError is returned when a Discord API call fails after retries
type CallError struct {
	// Op names the operation that failed, e.g. "create event".
	Op string
	// Err is the underlying discordgo or network error.
	Err error
}

func (e *CallError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("discord: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("discord: %v", e.Err)
}

func (e *CallError) Unwrap() error {
	return e.Err
}
