// Package disk stores session metadata and uploaded documents under a data
// directory, one subdirectory per session:
//
//	<root>/data/<session-id>/meta.json
//	<root>/data/<session-id>/<original filename>
//
// The vector index lives beside it in <root>/models/<session-id>/ and is
// owned by the sqlite package.
package disk
