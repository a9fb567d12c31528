package usb

import (
	"errors"

	"github.com/ardnew/softbadge/hal"
	"github.com/ardnew/softbadge/pkg"
)

// port is the CDC-ACM function: line state plus the bulk data buffers.
type port struct {
	rx         ring
	tx         ring
	coding     LineCoding
	lines      uint8
	configured bool
	zlp        bool
	pkt        [DataPacketSize]byte
}

func (p *port) reset() {
	p.rx.reset()
	p.tx.reset()
	p.coding = DefaultLineCoding
	p.lines = 0
	p.configured = false
	p.zlp = false
}

func (p *port) configure() {
	p.configured = true
}

func (p *port) deconfigure() {
	p.configured = false
	p.lines = 0
	p.zlp = false
}

func (p *port) controlIn(s *hal.SetupPacket, buf []byte) (int, error) {
	if s.Request == RequestGetLineCoding {
		if len(buf) < LineCodingSize {
			return 0, pkg.ErrBufferTooSmall
		}
		b, _ := p.coding.AppendBinary(buf[:0])
		return len(b), nil
	}
	return 0, pkg.ErrInvalidRequest
}

func (p *port) controlOut(s *hal.SetupPacket, data []byte) error {
	switch s.Request {
	case RequestSetLineCoding:
		var lc LineCoding
		if err := lc.UnmarshalBinary(data); err != nil {
			return err
		}
		p.coding = lc
		return nil
	case RequestSetControlLineState:
		p.lines = uint8(s.Value) & (ControlLineDTR | ControlLineRTS)
		return nil
	case RequestSendBreak:
		return nil
	}
	return pkg.ErrInvalidRequest
}

// poll moves at most one IN packet and as many OUT packets as the receive
// buffer can take. A full-size IN packet that empties the transmit buffer is
// followed by a zero-length packet so the host completes the transfer.
func (p *port) poll(bus hal.USBBus) (bool, error) {
	if !p.configured {
		return false, nil
	}
	moved := false

	for p.rx.free() >= DataPacketSize {
		n, err := bus.Read(EndpointDataOut, p.pkt[:])
		if errors.Is(err, pkg.ErrWouldBlock) {
			break
		}
		if err != nil {
			return moved, err
		}
		p.rx.write(p.pkt[:n])
		moved = true
	}

	if p.tx.len() > 0 || p.zlp {
		n := p.tx.peek(p.pkt[:])
		_, err := bus.Write(EndpointDataIn, p.pkt[:n])
		switch {
		case errors.Is(err, pkg.ErrWouldBlock):
		case err != nil:
			return moved, err
		default:
			p.tx.discard(n)
			p.zlp = n == DataPacketSize && p.tx.len() == 0
			moved = true
		}
	}
	return moved, nil
}
