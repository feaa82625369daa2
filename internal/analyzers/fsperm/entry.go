// Package fsperm classifies the permission bits of every entry in an
// unpacked root filesystem.
package fsperm

import (
	"fmt"
	"io/fs"
	"strings"
)

// Entry is the permission-relevant view of one filesystem object. Path is
// absolute inside the image ("/etc/passwd").
type Entry struct {
	Path string
	Mode fs.FileMode
	UID  uint32
	GID  uint32

	// Unlisted is set for a directory whose contents could not be read.
	Unlisted string
}

// UnixMode returns the permission and special bits in their traditional octal
// layout.
func (e Entry) UnixMode() uint32 {
	m := uint32(e.Mode.Perm())
	if e.Mode&fs.ModeSetuid != 0 {
		m |= 0o4000
	}
	if e.Mode&fs.ModeSetgid != 0 {
		m |= 0o2000
	}
	if e.Mode&fs.ModeSticky != 0 {
		m |= 0o1000
	}
	return m
}

func (e Entry) IsRegular() bool { return e.Mode.IsRegular() }
func (e Entry) IsDir() bool     { return e.Mode.IsDir() }

// Describe renders the report value: "mode=0755 uid=0 gid=0 owner=root".
func (e Entry) Describe() string {
	var b strings.Builder
	fmt.Fprintf(&b, "mode=%04o uid=%d gid=%d", e.UnixMode(), e.UID, e.GID)
	if e.UID == 0 || e.GID == 0 {
		b.WriteString(" owner=root")
	}
	if e.Unlisted != "" {
		fmt.Fprintf(&b, " unlisted (%s)", e.Unlisted)
	}
	return b.String()
}

func newEntry(rel string, info fs.FileInfo) Entry {
	uid, gid := owner(info)
	return Entry{Path: rel, Mode: info.Mode(), UID: uid, GID: gid}
}
