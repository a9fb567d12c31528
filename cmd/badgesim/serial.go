package main

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/ardnew/softbadge/hal/sim"
	"github.com/ardnew/softbadge/pkg"
	"github.com/ardnew/softbadge/usb"
)

// SerialCmd enumerates the badge serial port and echoes a message through
// it.
type SerialCmd struct {
	Product      string `help:"USB product string" default:"PyBadge"`
	SerialNumber string `help:"USB serial number (default: a random UUID)"`
	Address      uint8  `help:"Address the host assigns" default:"1"`
	Message      string `arg:"" optional:"" help:"Message to echo" default:"hello, badge"`
}

// echo moves every received byte back to the host.
func echo(s *usb.Serial) {
	s.Poll()
	var buf [64]byte
	for {
		n, err := s.Read(buf[:])
		if err != nil {
			return
		}
		if _, err := s.Write(buf[:n]); err != nil {
			return
		}
	}
}

// Run builds the serial port, enumerates it from the simulated host and
// echoes the message.
func (c *SerialCmd) Run(g *Globals) error {
	hw, b, err := badge()
	if err != nil {
		return err
	}
	serial := c.SerialNumber
	if serial == "" {
		serial = uuid.NewString()
	}
	port, err := b.USB.Product(c.Product).SerialNumber(serial).Build()
	if err != nil {
		return err
	}

	host := sim.NewHost(hw.USB, func() { echo(port) })
	en, err := host.Enumerate(c.Address)
	if err != nil {
		return fmt.Errorf("enumerate: %w", err)
	}
	id := port.Identity()
	title.Fprintf(g.Out, "usb %04x:%04x at address %d (%v)\n", id.VendorID, id.ProductID, en.Address, port.State())
	for i, label := range []string{"manufacturer", "product", "serial"} {
		s, err := host.GetString(uint8(i + 1))
		if err != nil {
			return err
		}
		fmt.Fprintf(g.Out, "  %-12s %s\n", label, s)
	}
	lc := port.LineCoding()
	fmt.Fprintf(g.Out, "  line coding  %d %d%c%s\n", lc.DTERate, lc.DataBits, "NOEMS"[lc.ParityType%5], stopBits(lc.CharFormat))

	if err := host.BulkOut(usb.EndpointDataOut, []byte(c.Message), usb.DataPacketSize); err != nil {
		return err
	}
	got, err := host.BulkIn(usb.EndpointDataIn)
	if err != nil && !errors.Is(err, pkg.ErrWouldBlock) {
		return err
	}
	good.Fprintf(g.Out, "  echo         %q\n", got)
	return nil
}

func stopBits(format uint8) string {
	switch format {
	case usb.StopBits1:
		return "1"
	case usb.StopBits1_5:
		return "1.5"
	default:
		return "2"
	}
}
