package canbus

import (
	"context"
	"fmt"
	"net"
	"sync"

	"go.einride.tech/can"
	"go.einride.tech/can/pkg/socketcan"

	"github.com/san-kum/dbwsim/internal/dbw"
)

type Writer interface {
	WriteFrame(ctx context.Context, frame can.Frame) error
	Close() error
}

type SocketCANWriter struct {
	conn net.Conn
	tx   *socketcan.Transmitter
}

// NewSocketCANWriter opens iface, e.g. "vcan0".
func NewSocketCANWriter(ctx context.Context, iface string) (*SocketCANWriter, error) {
	conn, err := socketcan.DialContext(ctx, "can", iface)
	if err != nil {
		return nil, fmt.Errorf("socketcan dial %s: %w", iface, err)
	}
	return &SocketCANWriter{
		conn: conn,
		tx:   socketcan.NewTransmitter(conn),
	}, nil
}

func (w *SocketCANWriter) WriteFrame(ctx context.Context, frame can.Frame) error {
	return w.tx.TransmitFrame(ctx, frame)
}

func (w *SocketCANWriter) Close() error {
	if w.conn != nil {
		return w.conn.Close()
	}
	return nil
}

// Recorder keeps every written frame in memory.
type Recorder struct {
	mu     sync.Mutex
	frames []can.Frame
	closed bool
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) WriteFrame(ctx context.Context, frame can.Frame) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return fmt.Errorf("canbus: recorder closed")
	}
	r.frames = append(r.frames, frame)
	return nil
}

func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

func (r *Recorder) Frames() []can.Frame {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]can.Frame, len(r.frames))
	copy(out, r.frames)
	return out
}

// Last returns the most recent frame with the given id.
func (r *Recorder) Last(id uint32) (can.Frame, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.frames) - 1; i >= 0; i-- {
		if r.frames[i].ID == id {
			return r.frames[i], true
		}
	}
	return can.Frame{}, false
}

// Publisher encodes controller outputs and stamps each cycle with a rolling
// counter.
type Publisher struct {
	w       Writer
	counter uint8
}

func NewPublisher(w Writer) *Publisher {
	return &Publisher{w: w}
}

func (p *Publisher) Publish(ctx context.Context, out dbw.Outputs, enabled bool) error {
	for _, f := range Encode(CommandFrom(out, enabled, p.counter)) {
		if err := p.w.WriteFrame(ctx, f); err != nil {
			return fmt.Errorf("canbus: write 0x%03X: %w", f.ID, err)
		}
	}
	p.counter++
	return nil
}

func (p *Publisher) Counter() uint8 { return p.counter }

func (p *Publisher) Close() error { return p.w.Close() }
