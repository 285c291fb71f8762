// Package fields flattens a page's slice of the content document into a list
// of editable field descriptors.
//
// The flattener never fails: a nil document, an unknown page or a malformed
// subtree all produce an empty list. Callers that need to tell "failed to
// load" apart from "nothing to edit" should use store.Snapshot instead.
package fields
