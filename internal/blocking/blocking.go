// Package blocking bounds how much CPU-bound work (gzip encode/decode)
// can run concurrently across the process, so a burst of archive builds
// can't pin an unbounded number of OS threads at once.
//
// The bounding mechanism mirrors the teacher's callgroup idiom
// (internal/callgroup): a fixed-size channel used as a counting
// semaphore, acquired before doing the work and released after.
package blocking

import "runtime"

// pool bounds the number of concurrent blocking jobs to GOMAXPROCS, so
// a burst of archive builds can't spawn unbounded OS-thread-pinning work.
var pool = make(chan struct{}, runtime.GOMAXPROCS(0))

// Run executes fn after acquiring a pool slot, bounding how many blocking
// jobs (gzip encode/decode) run concurrently across the process.
func Run(fn func() error) error {
	pool <- struct{}{}
	defer func() { <-pool }()
	return fn()
}
