// Package workflow runs one tagging session for one album directory.
//
// A Session moves through fixed stages: scan the directory, load the
// canonical track list (a MusicBrainz release, a tracklist file, or nothing
// in manual mode), reconcile files against tracks, build the change plan,
// collect manual answers, render, pass the confirmation gate, and write. Each
// stage is stamped into the context so log lines carry run_id and stage.
//
// Fatal errors carry a services marker so the CLI can map them onto exit
// codes. Problems with single files never end the session; they surface in
// the plan as unresolved entries or in the write report.
package workflow
