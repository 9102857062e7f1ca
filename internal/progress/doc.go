// Package progress provides the core data model for stillsync.
//
// This package contains type definitions only. All other internal packages
// import progress; progress imports nothing internal. This keeps the model
// the foundational layer with no circular dependencies.
//
// Key design constraints:
//   - All JSON tags use snake_case
//   - Sessions and Assessments are immutable once created; a Session is
//     superseded only by a later Session with the same ID (a correction)
//   - Progress counters are monotonic: producers may only grow them. The
//     merge engine's max-wins reducers depend on this precondition and do
//     not enforce it at runtime.
package progress
