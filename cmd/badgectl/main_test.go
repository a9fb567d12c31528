package main

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/fatih/color"
	hostusb "github.com/karalabe/usb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ardnew/softbadge/internal/config"
	"github.com/ardnew/softbadge/internal/usbids"
)

func parse(t *testing.T, args ...string) (*CLI, *kong.Context) {
	t.Helper()
	t.Setenv(config.ConfigEnv, "")
	var cli CLI
	parser, err := newParser(&cli, args, kong.Exit(func(code int) { t.Fatalf("exit %d", code) }))
	require.NoError(t, err)
	ctx, err := parser.Parse(args)
	require.NoError(t, err)
	return &cli, ctx
}

func TestParse(t *testing.T) {
	cli, ctx := parse(t, "list", "--vid", "0x1209", "--serial", "TEST")
	assert.Equal(t, "list", ctx.Command())
	assert.Equal(t, uint16(0x1209), cli.List.VID)
	assert.Equal(t, uint16(0x27dd), cli.List.PID)
	assert.Equal(t, "TEST", cli.List.Serial)

	cli, ctx = parse(t, "console", "/dev/ttyACM0", "--baud", "9600", "--log.level", "debug")
	assert.Equal(t, "console <port>", ctx.Command())
	assert.Equal(t, "/dev/ttyACM0", cli.Console.Port)
	assert.Equal(t, 9600, cli.Console.Baud)
	assert.Equal(t, "debug", cli.Log.Level)
}

func TestFilterDevices(t *testing.T) {
	infos := []hostusb.DeviceInfo{
		{Path: "a0", Serial: "A", Interface: 0},
		{Path: "a1", Serial: "A", Interface: 1},
		{Path: "b0", Serial: "B", Interface: 0},
	}
	got := filterDevices(infos, "")
	require.Len(t, got, 2)
	assert.Equal(t, "a0", got[0].Path)
	assert.Equal(t, "b0", got[1].Path)

	got = filterDevices(infos, "B")
	require.Len(t, got, 1)
	assert.Equal(t, "b0", got[0].Path)
}

func TestFormatDevice(t *testing.T) {
	color.NoColor = true
	var buf bytes.Buffer
	db, err := usbids.Parse(strings.NewReader("16c0  Van Ooijen Technische Informatica\n\t27dd  CDC-ACM class devices (modems)\n"))
	require.NoError(t, err)
	formatDevice(&buf, db, hostusb.DeviceInfo{
		Path: "1-2:1.0", VendorID: 0x16c0, ProductID: 0x27dd, Release: 0x0010,
		Manufacturer: "Fake company", Product: "Serial port", Serial: "TEST",
	})
	out := buf.String()
	assert.Contains(t, out, "16c0:27dd 1-2:1.0")
	assert.Contains(t, out, "product      Serial port")
	assert.Contains(t, out, "release      0.10")
	assert.Contains(t, out, "vendor       Van Ooijen Technische Informatica")
	assert.Contains(t, out, "registered   CDC-ACM class devices (modems)")

	buf.Reset()
	formatDevice(&buf, &usbids.DB{}, hostusb.DeviceInfo{VendorID: 0x1209, ProductID: 1})
	assert.NotContains(t, buf.String(), "vendor")
}

func TestPump(t *testing.T) {
	var dst bytes.Buffer
	err := pump(&dst, strings.NewReader("abc\x1ddef"), escapeKey)
	require.ErrorIs(t, err, errEscape)
	assert.Equal(t, "abc", dst.String())

	dst.Reset()
	err = pump(&dst, strings.NewReader("xyz"), escapeKey)
	require.ErrorIs(t, err, io.EOF)
	assert.Equal(t, "xyz", dst.String())
}

type failWriter struct{}

func (failWriter) Write([]byte) (int, error) { return 0, errors.New("port gone") }

func TestPump_WriteError(t *testing.T) {
	err := pump(failWriter{}, strings.NewReader("a"), escapeKey)
	require.EqualError(t, err, "port gone")
}
