// Package car reads and writes version 1 content addressed archives.
//
// An archive is a header followed by frames:
//
//	varint(len(header)) header
//	varint(len(cid) + len(payload)) cid payload
//	varint(len(cid) + len(payload)) cid payload
//	...
//
// The header is a dag-cbor map {"roots": [link, ...], "version": 1}. Each
// frame carries a binary content identifier followed by the block bytes.
// Version 0 identifiers are recognised by their leading 0x12 0x20 and are
// always 34 bytes, version 1 identifiers are self delimiting.
//
// Reading is tolerant. A frame whose payload does not hash to its
// identifier, or that does not decode under its codec, is skipped and
// counted; iteration carries on with the next frame. Only failures that
// lose our place in the stream, such as a truncated frame or an
// implausible frame length, stop iteration.
//
// For repository archives the first root is the signed commit. The commit
// points at the root of a merkle search tree whose leaves point at record
// blocks, see package mst.
package car
