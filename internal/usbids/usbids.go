// Package usbids resolves vendor and product names from the usb.ids
// database shipped by most Linux distributions.
package usbids

import (
	"bufio"
	"errors"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"
)

// SearchPaths are tried in order by Open.
var SearchPaths = []string{
	"/usr/share/hwdata/usb.ids",
	"/var/lib/usbutils/usb.ids",
	"/usr/share/misc/usb.ids",
}

type key struct{ vid, pid uint16 }

// DB maps vendor and product IDs to names. The zero DB resolves nothing.
type DB struct {
	vendors  map[uint16]string
	products map[key]string
}

// Open parses the first readable file in paths, or SearchPaths if none are
// given. A missing database is not an error: found is false and the
// returned DB is empty.
func Open(paths ...string) (db *DB, found bool, err error) {
	if len(paths) == 0 {
		paths = SearchPaths
	}
	for _, p := range paths {
		f, err := os.Open(p)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return &DB{}, false, err
		}
		db, err := Parse(f)
		f.Close()
		return db, err == nil, err
	}
	return &DB{}, false, nil
}

// Parse reads the usb.ids text format. Vendor lines are "vvvv  name",
// product lines are a tab then "pppp  name". Class, language and other
// sections that follow the vendor list end the current vendor.
func Parse(r io.Reader) (*DB, error) {
	db := &DB{
		vendors:  make(map[uint16]string),
		products: make(map[key]string),
	}
	var (
		vid    uint16
		inside bool
	)
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := sc.Text()
		if line == "" || line[0] == '#' {
			continue
		}
		if line[0] == '\t' {
			if !inside || strings.HasPrefix(line, "\t\t") {
				continue
			}
			if id, name, ok := entry(line[1:]); ok {
				db.products[key{vid, id}] = name
			}
			continue
		}
		id, name, ok := entry(line)
		inside = ok
		if ok {
			vid = id
			db.vendors[vid] = name
		}
	}
	return db, sc.Err()
}

// entry splits "xxxx  name" into its hex ID and name.
func entry(s string) (uint16, string, bool) {
	if len(s) < 6 || s[4] != ' ' {
		return 0, "", false
	}
	id, err := strconv.ParseUint(s[:4], 16, 16)
	if err != nil {
		return 0, "", false
	}
	return uint16(id), strings.TrimSpace(s[5:]), true
}

// Vendor returns the name registered for vid, or "".
func (db *DB) Vendor(vid uint16) string { return db.vendors[vid] }

// Product returns the name registered for vid:pid, or "".
func (db *DB) Product(vid, pid uint16) string { return db.products[key{vid, pid}] }

// Len reports the number of vendors and products loaded.
func (db *DB) Len() (vendors, products int) {
	return len(db.vendors), len(db.products)
}
