// Package errors provides structured, coded errors for the fiber engine.
//
// Every error carries a short code (e.g., "E002") that maps to a
// registered template with a category, a one-line message, and a longer
// explanation. Errors can wrap an underlying cause and work with the
// standard errors.Is and errors.As helpers.
//
// # Error Categories
//
//   - description: malformed element descriptions
//   - host: host mutation failures surfaced from commit
//   - scheduler: engine state violations (faulted, stopped, queue full)
//   - protocol: wire codec and remote handle errors
//   - config: configuration loading and validation
//
// # Usage
//
//	err := errors.New("E002").
//	    WithDetail("AppendChild failed for <li>").
//	    Wrap(cause)
//
//	fmt.Println(err.Format())
//	// Output:
//	// ERROR E002: Host mutation failed
//	//
//	//   AppendChild failed for <li>
//	//
//	//   Caused by: node detached
package errors
