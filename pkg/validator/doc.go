// Package validator decides whether an installed audio component is safe
// to load.
//
// # Overview
//
// Validate resolves the component through a native.Catalog, consults the
// exception policy and, when the policy does not decide, runs the probe
// battery against one shared component.Handle. The battery runs every probe
// once per pass; passes repeat with the probe order reshuffled from a
// seeded source, so a run can be reproduced with WithSeed.
//
// # Recovery
//
// A probe that fails with auerr.KindUninitialized while the sticky
// requires-init flag is unset gets exactly one retry: the flag is set, the
// handle is replaced by one that is initialized on open, and the probe runs
// again. auerr.KindUnauthorized is never retried and ends the battery.
// Panics inside a probe are probe failures; panics outside probes make the
// run Crashed.
//
// # Statuses
//
// Status values double as process exit codes:
//
//	NotFound                   identity is not installed
//	DuplicateFormat            blacklisted, superseded by another format
//	IncompatibleVersion        blacklisted
//	CouldNotRun                the component could not be opened
//	NotAuthorized              the component refused to run
//	Failure                    at least one probe failed
//	SuccessRequiresInit        all probes passed, initialize before use
//	SuccessDoesNotRequireInit  all probes passed
package validator
