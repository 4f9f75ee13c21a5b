// Package tagplan turns a reconciliation result into a reviewable change set
// and decides whether that change set may reach the tag writer.
//
// Build is pure: it maps every local file to exactly one Entry whose
// Provenance says where the proposed values came from. Matched entries take
// their values from the release; manual and unresolved entries carry
// best-effort suggestions for a person to confirm or edit.
//
// Gate collects those decisions. It never lets an unresolved entry through:
// an unresolved file is either resolved by hand or skipped with a warning,
// and Approval.Entries lists exactly the entries a writer may touch.
package tagplan
