// Package dispatch hands generated artifacts to the external simulator.
//
// A Strategy performs one invocation per artifact. Three strategies exist:
//   - local: run the simulator as a synchronous subprocess
//   - queue: submit a job to the cluster queue and return immediately
//   - none: generate only, invoke nothing
//
// The strategy is chosen by configuration, never by inspecting the host
// platform. Dispatch is sequential and best-effort: a failed run is logged
// and recorded, and the remaining runs still dispatch.
//
// The queue strategy is not production-hardened. Submission is
// fire-and-forget: there is no acknowledgement, no retry, and no link
// between a submitted job and its eventual output.
package dispatch
