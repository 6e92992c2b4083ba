// Package diskfs provides locked access to the local files backing a user store.
//
// Reads and writes of the same path are serialized within the process, and
// WriteFileAtomic stages the new content in a sibling temp file before
// renaming it over the target so readers never see a half-written file.
package diskfs
