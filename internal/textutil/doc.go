// Package textutil provides the text handling shared by the matcher and the
// tag writer: comparison keys, edit-distance similarity, qualifier splitting,
// and filename sanitization.
//
// Normalize is the single source of comparison keys. Both sides of every
// comparison go through it, so two strings a person would read as the same
// title (case, accents, punctuation, a "01 - " prefix) produce identical keys.
// The function is total and idempotent.
package textutil
