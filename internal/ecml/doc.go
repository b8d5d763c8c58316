// Package ecml implements the persisted document format of the editor.
//
// A document has a single theme holding the ordered stages and the media
// manifest. Stage bodies keep their field order so that plugins sharing a
// z-index are rebuilt in the order they were written. Older writers emit a
// bare object where a single-element array is meant; Decode accepts both
// shapes for the stage and media collections and Encode always writes arrays.
package ecml
