package usb

// ringSize is the capacity of each serial buffer.
const ringSize = 128

// ring is a fixed-capacity byte FIFO.
type ring struct {
	buf   [ringSize]byte
	head  int
	count int
}

func (r *ring) len() int  { return r.count }
func (r *ring) free() int { return ringSize - r.count }

func (r *ring) reset() {
	r.head = 0
	r.count = 0
}

// write appends as much of p as fits and returns the count.
func (r *ring) write(p []byte) int {
	n := 0
	for n < len(p) && r.count < ringSize {
		r.buf[(r.head+r.count)%ringSize] = p[n]
		r.count++
		n++
	}
	return n
}

// peek copies up to len(p) bytes from the front without consuming them.
func (r *ring) peek(p []byte) int {
	n := min(len(p), r.count)
	for i := range n {
		p[i] = r.buf[(r.head+i)%ringSize]
	}
	return n
}

// discard drops n bytes from the front.
func (r *ring) discard(n int) {
	n = min(n, r.count)
	r.head = (r.head + n) % ringSize
	r.count -= n
}

// read moves up to len(p) bytes from the front into p.
func (r *ring) read(p []byte) int {
	n := r.peek(p)
	r.discard(n)
	return n
}
