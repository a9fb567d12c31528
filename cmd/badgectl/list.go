package main

import (
	"fmt"
	"io"

	hostusb "github.com/karalabe/usb"

	"github.com/ardnew/softbadge/internal/usbids"
	"github.com/ardnew/softbadge/pkg"
	"github.com/ardnew/softbadge/usb"
)

// ListCmd enumerates badges by VID and PID.
type ListCmd struct {
	VID    uint16 `help:"Vendor ID" default:"0x16c0" env:"SOFTBADGE_VID"`
	PID    uint16 `help:"Product ID" default:"0x27dd" env:"SOFTBADGE_PID"`
	Serial string `help:"Only list the badge with this serial number"`
	IDs    string `name:"usb-ids" help:"usb.ids database used to name vendors" type:"path"`
}

// Run prints every matching device.
func (c *ListCmd) Run(g *Globals) error {
	if !hostusb.Supported() {
		return fmt.Errorf("host usb: %w", pkg.ErrNotSupported)
	}
	infos, err := hostusb.EnumerateRaw(c.VID, c.PID)
	if err != nil {
		return fmt.Errorf("enumerate %04x:%04x: %w", c.VID, c.PID, err)
	}
	found := filterDevices(infos, c.Serial)
	if len(found) == 0 {
		note.Fprintf(g.Out, "no badges at %04x:%04x\n", c.VID, c.PID)
		return nil
	}
	var paths []string
	if c.IDs != "" {
		paths = append(paths, c.IDs)
	}
	db, ok, err := usbids.Open(paths...)
	if err != nil || !ok {
		pkg.LogDebug(pkg.ComponentUSB, "usb.ids unavailable", "error", err)
	}
	for _, info := range found {
		formatDevice(g.Out, db, info)
	}
	return nil
}

// filterDevices keeps the CDC interface of each badge, optionally matching
// a serial number. Raw enumeration reports one entry per interface.
func filterDevices(infos []hostusb.DeviceInfo, serial string) []hostusb.DeviceInfo {
	var out []hostusb.DeviceInfo
	for _, info := range infos {
		if info.Interface != usb.InterfaceComm {
			continue
		}
		if serial != "" && info.Serial != serial {
			continue
		}
		out = append(out, info)
	}
	return out
}

func formatDevice(w io.Writer, db *usbids.DB, info hostusb.DeviceInfo) {
	title.Fprintf(w, "%04x:%04x %s\n", info.VendorID, info.ProductID, info.Path)
	if name := db.Vendor(info.VendorID); name != "" {
		fmt.Fprintf(w, "  vendor       %s\n", name)
	}
	if name := db.Product(info.VendorID, info.ProductID); name != "" {
		fmt.Fprintf(w, "  registered   %s\n", name)
	}
	fmt.Fprintf(w, "  manufacturer %s\n", info.Manufacturer)
	fmt.Fprintf(w, "  product      %s\n", info.Product)
	fmt.Fprintf(w, "  serial       %s\n", info.Serial)
	fmt.Fprintf(w, "  release      %x.%02x\n", info.Release>>8, info.Release&0xFF)
}
