// Package lifecycle provides the component initialisation registry for
// Pitchside Core.
//
// Feature modules register a named setup callback with a priority, a
// reinitializable flag, and a description. The registry runs every callback
// exactly once, in priority order, when the application starts, and can
// selectively replay reinitializable callbacks against a narrower scope when
// portal content is refreshed.
//
// # Phases
//
// The registry has two phases:
//
//   - Collecting: registrations are stored and deferred until Run is called.
//   - Running: entered once by Run and never exited. Registrations arriving
//     in this phase are invoked immediately so late-loading modules still
//     initialise.
//
// # Ordering
//
// The initial pass is a total order: priority descending, then registration
// sequence ascending for equal priorities. Callbacks are started in that
// order; the registry does not wait for asynchronous work a callback spawns,
// and no component may assume a predecessor's background setup has finished.
//
// # Isolation
//
// A callback that returns an error or panics is contained at the registry
// boundary: the failure is logged with the component's name and description,
// recorded in its status, and the remaining components still run. One broken
// feature must never block bootstrap for unrelated features.
//
// # Re-initialisation
//
// Reinit replays callbacks for the named components against a caller-supplied
// scope. Components registered with Reinitializable=false are skipped
// silently, so call sites may request "everything that supports it" without
// bookkeeping; unknown names are logged and ignored. A one-shot component's
// callback therefore fires at most once for the life of the process.
//
// # Usage
//
//	reg := lifecycle.NewRegistry()
//	reg.SetLogger(log)
//
//	err := reg.Register("schedule-board", refreshBoard, lifecycle.Options{
//	    Priority:        20,
//	    Reinitializable: true,
//	    Description:     "rebuilds the schedule board from current fixtures",
//	})
//
//	reg.Run(ctx)
//	reg.Reinit(ctx, []string{"schedule-board"}, lifecycle.Scope{Region: "standings"})
package lifecycle
