// Package memhost is an in-memory host document.
//
// It implements host.Host over a plain node tree, records every
// primitive call in a journal, and can inject failures. Tests use it to
// assert exactly which mutations a commit performed; the CLI uses it to
// print the committed tree.
package memhost
