package main

import (
	"encoding/hex"
	"fmt"

	"github.com/ardnew/softbadge/flash"
	"github.com/ardnew/softbadge/hal/sim"
	"github.com/ardnew/softbadge/internal/flashimg"
)

// FlashCmd groups the flash image commands.
type FlashCmd struct {
	ID    FlashIDCmd    `cmd:"" name:"id" help:"Print the JEDEC ID and status registers"`
	Read  FlashReadCmd  `cmd:"" help:"Hex dump a range of the image"`
	Write FlashWriteCmd `cmd:"" help:"Program text into one page (wraps within the page)"`
	Erase FlashEraseCmd `cmd:"" help:"Erase the whole chip"`
}

// imageFlag names the image file backing the simulated chip.
type imageFlag struct {
	Image string `help:"Flash image file" default:"badge.img" type:"path" env:"SOFTBADGE_FLASH_IMAGE"`
}

// open loads the image into the simulated chip.
func (f imageFlag) open(g *Globals) (*sim.Board, *flash.Flash, error) {
	hw, b, err := badge()
	if err != nil {
		return nil, nil, err
	}
	img, found, err := flashimg.Load(f.Image, flash.Size)
	if err != nil {
		return nil, nil, err
	}
	if !found {
		note.Fprintf(g.Out, "%s not found, starting erased\n", f.Image)
	}
	if err := hw.Flash.Load(img); err != nil {
		return nil, nil, err
	}
	return hw, b.Flash, nil
}

func (f imageFlag) save(g *Globals, hw *sim.Board) error {
	if err := flashimg.Save(f.Image, hw.Flash.Image()); err != nil {
		return err
	}
	good.Fprintf(g.Out, "saved %s\n", f.Image)
	return nil
}

// FlashIDCmd prints the chip identity.
type FlashIDCmd struct {
	Image imageFlag `embed:""`
}

// Run reads the JEDEC ID and status registers.
func (c *FlashIDCmd) Run(g *Globals) error {
	_, fl, err := c.Image.open(g)
	if err != nil {
		return err
	}
	id, err := fl.ReadID()
	if err != nil {
		return err
	}
	st, err := fl.Status()
	if err != nil {
		return err
	}
	title.Fprintf(g.Out, "flash %v\n", id)
	fmt.Fprintf(g.Out, "  SR1 0x%02X  SR2 0x%02X  quad=%t busy=%t\n", st.SR1, st.SR2, st.QuadEnabled(), st.Busy())
	fmt.Fprintf(g.Out, "  %d pages of %d bytes\n", flash.PageCount, flash.PageSize)
	return nil
}

// FlashReadCmd dumps bytes.
type FlashReadCmd struct {
	Image  imageFlag `embed:""`
	Addr   uint32    `help:"Start address" default:"0"`
	Length int       `help:"Number of bytes" default:"256"`
}

// Run hex dumps the range.
func (c *FlashReadCmd) Run(g *Globals) error {
	_, fl, err := c.Image.open(g)
	if err != nil {
		return err
	}
	buf := make([]byte, c.Length)
	if err := fl.Read(c.Addr, buf); err != nil {
		return err
	}
	title.Fprintf(g.Out, "page %d offset %d\n", flash.PageOf(c.Addr), flash.OffsetOf(c.Addr))
	fmt.Fprint(g.Out, hex.Dump(buf))
	return nil
}

// FlashWriteCmd programs text into a page.
type FlashWriteCmd struct {
	Image imageFlag `embed:""`
	Addr  uint32    `help:"Start address" default:"0"`
	Text  string    `arg:"" help:"Text to program"`
}

// Run programs the text and saves the image.
func (c *FlashWriteCmd) Run(g *Globals) error {
	hw, fl, err := c.Image.open(g)
	if err != nil {
		return err
	}
	data := []byte(c.Text)
	if err := fl.WritePage(c.Addr, data); err != nil {
		return err
	}
	if int(flash.OffsetOf(c.Addr))+len(data) > flash.PageSize {
		note.Fprintf(g.Out, "wrapped to the start of page %d\n", flash.PageOf(c.Addr))
	}
	fmt.Fprintf(g.Out, "programmed %d bytes at page %d offset %d\n",
		len(data), flash.PageOf(c.Addr), flash.OffsetOf(c.Addr))
	return c.Image.save(g, hw)
}

// FlashEraseCmd erases the chip.
type FlashEraseCmd struct {
	Image imageFlag `embed:""`
}

// Run erases and saves the image.
func (c *FlashEraseCmd) Run(g *Globals) error {
	hw, fl, err := c.Image.open(g)
	if err != nil {
		return err
	}
	if err := fl.EraseChip(); err != nil {
		return err
	}
	fmt.Fprintln(g.Out, "erased")
	return c.Image.save(g, hw)
}
