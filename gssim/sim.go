// Package gssim is a software Graphics Synthesizer.
//
// A Sim executes GIF packets against its own 4 MiB of swizzled local memory.
// It implements periph's conn.Conn so that it can stand in for the real GIF
// path wherever a connection is expected, and it draws exactly the subset
// of the GS the greyscale pipeline relies on: sprites with or without
// texture, PSMCT32/PSMCT16/PSMT8 textures with a PSMCT32 CLUT, every wrap
// mode, frame write masks and host-to-local transfers.
//
// By default Tx executes the packet before it returns. With Opts.Async the
// packet is queued to a worker goroutine and WaitIdle blocks until the queue
// drains.
package gssim

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"periph.io/x/conn/v3"
	"periph.io/x/devices/v3/gsgrey/gs"
)

// ErrMalformed is returned for packets that cannot be parsed.
var ErrMalformed = errors.New("gssim: malformed packet")

// ErrClosed is returned by Tx after Close.
var ErrClosed = errors.New("gssim: closed")

const memorySize = gs.MemoryWords * 4

// Opts configures a Sim.
type Opts struct {
	// Async queues packets to a worker goroutine instead of executing them in
	// Tx.
	Async bool
	// Queue is the number of packets Tx can queue before it blocks
	// (default: 16). Only used with Async.
	Queue int
}

// Sim is a simulated GS.
type Sim struct {
	mu  sync.Mutex
	mem []byte
	reg [256]uint64 // shadow of every register written

	// Drawing state.
	q     float32
	verts []vertex
	clut  [256]uint32
	cbp   [2]uint32 // CLUT base of the last CLD 2/3 loads
	xfer  transfer

	// Asynchronous execution.
	queue  chan []byte
	idle   sync.WaitGroup
	err    error
	closed bool

	log     atomic.Pointer[slog.Logger]
	packets atomic.Uint64
}

// New returns a Sim with zeroed memory and registers.
func New(opts *Opts) *Sim {
	if opts == nil {
		opts = &Opts{}
	}
	s := &Sim{mem: make([]byte, memorySize)}
	s.reg[gs.RegCLAMP] = gs.DefaultCLAMP.Pack()
	s.reg[gs.RegTEXA] = gs.DefaultTEXA.Pack()
	s.reg[gs.RegSCISSOR] = gs.SCISSOR{X1: 2047, Y1: 2047}.Pack()
	s.q = 1
	s.SetLogger(nil)
	if opts.Async {
		n := opts.Queue
		if n <= 0 {
			n = 16
		}
		s.queue = make(chan []byte, n)
		go s.run()
	}
	return s
}

// SetLogger sets the logger for packet level diagnostics. nil disables
// logging.
func (s *Sim) SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.New(slog.DiscardHandler)
	}
	s.log.Store(l)
}

func (s *Sim) logger() *slog.Logger {
	return s.log.Load()
}

// String implements conn.Resource.
func (s *Sim) String() string {
	return "gssim"
}

// Duplex implements conn.Conn. The GIF path only writes.
func (s *Sim) Duplex() conn.Duplex {
	return conn.Half
}

// Tx implements conn.Conn. w is a GIF packet; r must be empty.
func (s *Sim) Tx(w, r []byte) error {
	if len(r) != 0 {
		return errors.New("gssim: local to host reads are not supported")
	}
	if len(w)%16 != 0 {
		return fmt.Errorf("%w: %d bytes is not a whole number of quadwords", ErrMalformed, len(w))
	}
	if s.queue == nil {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.closed {
			return ErrClosed
		}
		s.packets.Add(1)
		return s.exec(w)
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.packets.Add(1)
	s.idle.Add(1)
	s.mu.Unlock()
	// The caller may reuse w once Tx returns.
	p := make([]byte, len(w))
	copy(p, w)
	s.queue <- p
	return nil
}

// run executes queued packets until Close.
func (s *Sim) run() {
	for p := range s.queue {
		s.mu.Lock()
		if err := s.exec(p); err != nil && s.err == nil {
			s.err = err
		}
		s.mu.Unlock()
		s.idle.Done()
	}
}

// WaitIdle blocks until every packet sent so far has executed and returns
// the first execution error since the previous WaitIdle.
func (s *Sim) WaitIdle() error {
	s.idle.Wait()
	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.err
	s.err = nil
	return err
}

// Halt implements conn.Resource. It waits for queued packets.
func (s *Sim) Halt() error {
	return s.WaitIdle()
}

// Close stops the worker goroutine. Further Tx calls fail.
func (s *Sim) Close() error {
	s.idle.Wait()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if s.queue != nil {
		close(s.queue)
	}
	return nil
}

// Packets returns the number of packets Tx accepted.
func (s *Sim) Packets() uint64 {
	return s.packets.Load()
}

// Reg returns the last value written to register r.
func (s *Sim) Reg(r gs.Reg) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reg[r]
}

var _ conn.Conn = (*Sim)(nil)
