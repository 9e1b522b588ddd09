package audio

import "sync/atomic"

// Ring is a lock-free single-producer single-consumer ring buffer of
// float32 samples. One goroutine must call PushSlice exclusively;
// another may call Pop/PopInto/AddInto/Clear exclusively; OccupiedLen/VacantLen/
// Capacity are safe to call from either side. Adapted from the teacher's
// fixed-size atomic ring buffers (playbackRing, ringBuffer) generalized
// to arbitrary capacity, matching the overflow and pull-request buffers
// the mixer and drum render thread need.
type Ring struct {
	buf      []float32
	capacity uint64
	head     atomic.Uint64 // write position (producer)
	tail     atomic.Uint64 // read position (consumer)
}

// NewRing allocates a ring able to hold capacity samples.
func NewRing(capacity int) *Ring {
	return &Ring{
		buf:      make([]float32, capacity),
		capacity: uint64(capacity),
	}
}

// PushSlice writes as many samples from src as fit, returning the count
// actually written.
func (r *Ring) PushSlice(src []float32) int {
	head := r.head.Load()
	tail := r.tail.Load()

	available := int(r.capacity - (head - tail))
	toWrite := len(src)
	if toWrite > available {
		toWrite = available
	}

	for i := 0; i < toWrite; i++ {
		r.buf[(head+uint64(i))%r.capacity] = src[i]
	}

	r.head.Add(uint64(toWrite))
	return toWrite
}

// Pop removes and returns one sample. ok is false if the ring is empty.
func (r *Ring) Pop() (sample float32, ok bool) {
	head := r.head.Load()
	tail := r.tail.Load()

	if head == tail {
		return 0, false
	}

	sample = r.buf[tail%r.capacity]
	r.tail.Add(1)
	return sample, true
}

// PopInto pops up to len(dst) samples into dst, returning the count
// popped. Any unwritten tail of dst is left untouched by this call.
func (r *Ring) PopInto(dst []float32) int {
	n := 0
	for n < len(dst) {
		s, ok := r.Pop()
		if !ok {
			break
		}
		dst[n] = s
		n++
	}
	return n
}

// AddInto pops samples and adds them (rather than overwrites) into dst,
// up to len(dst) samples. Used to mix ring contents into an output
// buffer in place. Returns the count consumed.
func (r *Ring) AddInto(dst []float32) int {
	n := 0
	for n < len(dst) {
		s, ok := r.Pop()
		if !ok {
			break
		}
		dst[n] += s
		n++
	}
	return n
}

// OccupiedLen returns the number of samples currently stored.
func (r *Ring) OccupiedLen() int {
	return int(r.head.Load() - r.tail.Load())
}

// VacantLen returns the number of samples that can still be pushed.
func (r *Ring) VacantLen() int {
	return int(r.capacity) - r.OccupiedLen()
}

// Capacity returns the ring's total capacity in samples.
func (r *Ring) Capacity() int {
	return int(r.capacity)
}

// Clear discards all buffered samples.
func (r *Ring) Clear() {
	r.tail.Store(r.head.Load())
}
