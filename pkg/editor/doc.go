// Package editor implements the field editing session that sits between the
// flattened field list and the content store.
//
// A Session moves through three states:
//
//	Idle --Change--> Editing --SaveAll--> Saving --ok--> Idle
//	                    ^                   |
//	                    +------failure------+
//
// Edits are buffered in insertion order and written one at a time. The first
// failing write stops the batch: earlier writes stay durable, later ones are
// never attempted, and the buffer is kept so the operator can retry. There is
// no rollback and no automatic retry.
package editor
