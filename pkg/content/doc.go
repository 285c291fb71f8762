// Package content models the nested page-content document edited by the CMS.
//
// A document is a tree of typed nodes: strings (the editable leaves), ordered
// objects, arrays and non-string scalars. Objects keep the key order found in
// the source payload so flattened field lists stay stable between reads.
//
// Paths are dot-delimited ("pages.home.hero.title"). Numeric segments index
// into arrays; everywhere else they are treated as plain object keys.
package content
