// Package library reads and writes the album directory on disk: it lists
// audio files, decodes their ID3 tags and file names, locates cover images,
// and applies an approved change plan back to the files.
//
// Writes hold an exclusive lock per album directory and touch each file at
// most once per Writer. A failure on one file is recorded in its WriteResult
// and does not stop the others.
package library
