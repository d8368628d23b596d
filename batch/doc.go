// Package batch implements a coalescer that merges concurrently issued
// single-item calls into one batched call.
//
// Each Call enqueues its argument into a pending buffer and waits on its own
// result slot. The buffer is drained into a single Func invocation when the
// coalescing window started by the first pending call elapses, when
// MaxBatchSize calls are pending, or when Flush is called explicitly.
// Arguments reach the Func in submission order and result i is delivered to
// the caller that submitted argument i.
package batch
