// Package mst walks the merkle search tree that indexes the records of a
// repository.
//
// A commit block names the tree root in its "data" field. Each tree node
// is a dag-cbor map
//
//	{"l": link | null, "e": [entry, ...]}
//	entry = {"p": prefix length, "k": key suffix, "v": value link, "t": link | null}
//
// Keys are prefix compressed within a node: the full key of an entry is
// the first p bytes of the previous entry's key in the same node followed
// by k. The first entry of a node has p = 0.
//
// An in order walk visits the left subtree "l", then for each entry the
// entry itself followed by its right subtree "t". This yields keys in
// ascending order. Keys have the form "collection/rkey" and a record is
// addressed as at://did/collection/rkey.
//
// The walk is best effort. A node that is missing from the block source
// or does not decode is logged and skipped along with its subtree, and the
// rest of the tree is still visited.
package mst
