// Package services defines shared utilities consumed by the tagging workflow
// and its external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, stage names, and the album directory
//     for logging.
//   - Structured error markers plus the Wrap helper, and ExitCode which turns
//     those markers into process exit statuses.
//
// Use these helpers when wiring new collaborators so failures classify the
// same way across the CLI.
package services
