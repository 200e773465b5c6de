/*
Package workers sizes and runs the two goroutine pools a scan uses.

# Overview

A scan splits its work in two:

  - the CPU pool decodes files, hashes them, builds thumbnails and clusters
    colors. It defaults to half of GOMAXPROCS (see ForCPU).
  - the I/O pool has exactly one goroutine and performs every catalog write,
    so writes never contend with each other.

Both are Pool values backed by github.com/sourcegraph/conc/pool. Submitting to
a busy pool blocks the caller, which keeps the amount of in-flight decoded
image data bounded.

# Futures

Submit returns a Future. A scan plugin returns the future of its CPU task
immediately; the job awaits those futures in submission order.

	fut := workers.Submit(cpu, func() (int, error) { return decode(path) })
	n, err := fut.Wait()

CPU work that needs to persist something calls SubmitAndWait on the I/O pool
and blocks until the write finished:

	inserted, err := workers.SubmitAndWait(io, func() (bool, error) {
	    return db.InsertMetadata(ctx, meta)
	})

That call is the only bridge between the pools. Work running on the I/O pool
must never submit to the I/O pool.

# Sizing

Count computes multiplier × GOMAXPROCS with an upper limit. CPU_WORKERS
overrides the result:

	env:
	- name: CPU_WORKERS
	  value: "4"

# Shutdown

Close waits for everything already submitted. Anything submitted afterwards
resolves with ErrPoolClosed instead of running. Close the CPU pool before the
I/O pool so that CPU tasks can still persist their results.
*/
package workers
