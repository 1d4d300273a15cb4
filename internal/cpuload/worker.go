package cpuload

// DefaultIterations is the fixed work size of one worker. It is a count, not
// a duration; a typical core finishes it in a few seconds.
const DefaultIterations uint64 = 1 << 31

// sink keeps the loop result observable so it is not optimised away
var sink uint64

// RunWorker spins through iterations steps of arithmetic. A panic is
// swallowed so the worker process still exits cleanly.
func RunWorker(iterations uint64) {
	defer func() {
		_ = recover()
	}()

	var acc uint64
	for i := uint64(0); i < iterations; i++ {
		acc += i ^ (acc >> 3)
	}
	sink = acc
}
