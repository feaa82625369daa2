package configfile

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math/bits"
	"strings"
)

const (
	capRevisionMask = 0xFF000000
	capEffective    = 0x000001

	capRevision1 = 0x01000000
	capRevision2 = 0x02000000
	capRevision3 = 0x03000000
)

var ErrCapability = errors.New("malformed security.capability attribute")

// capNames is indexed by capability number (linux/capability.h).
var capNames = []string{
	"cap_chown", "cap_dac_override", "cap_dac_read_search", "cap_fowner",
	"cap_fsetid", "cap_kill", "cap_setgid", "cap_setuid", "cap_setpcap",
	"cap_linux_immutable", "cap_net_bind_service", "cap_net_broadcast",
	"cap_net_admin", "cap_net_raw", "cap_ipc_lock", "cap_ipc_owner",
	"cap_sys_module", "cap_sys_rawio", "cap_sys_chroot", "cap_sys_ptrace",
	"cap_sys_pacct", "cap_sys_admin", "cap_sys_boot", "cap_sys_nice",
	"cap_sys_resource", "cap_sys_time", "cap_sys_tty_config", "cap_mknod",
	"cap_lease", "cap_audit_write", "cap_audit_control", "cap_setfcap",
	"cap_mac_override", "cap_mac_admin", "cap_syslog", "cap_wake_alarm",
	"cap_block_suspend", "cap_audit_read", "cap_perfmon", "cap_bpf",
	"cap_checkpoint_restore",
}

// Dangerous capabilities give a process a practical path to full root.
var dangerous = []string{
	"cap_sys_admin", "cap_sys_module", "cap_sys_ptrace",
	"cap_dac_override", "cap_setuid", "cap_setgid",
}

// CapSet is a decoded file capability set.
type CapSet struct {
	Permitted   uint64
	Inheritable uint64
	Effective   bool
}

// DecodeCapabilities parses the little-endian vfs_cap_data layout stored in
// the security.capability extended attribute.
func DecodeCapabilities(raw []byte) (CapSet, error) {
	if len(raw) < 4 {
		return CapSet{}, fmt.Errorf("%w: %d bytes", ErrCapability, len(raw))
	}
	magic := binary.LittleEndian.Uint32(raw)
	words := 0
	switch magic & capRevisionMask {
	case capRevision1:
		words = 1
	case capRevision2, capRevision3:
		words = 2
	default:
		return CapSet{}, fmt.Errorf("%w: revision %#x", ErrCapability, magic&capRevisionMask)
	}
	if len(raw) < 4+8*words {
		return CapSet{}, fmt.Errorf("%w: %d bytes for revision %#x", ErrCapability, len(raw), magic&capRevisionMask)
	}

	cs := CapSet{Effective: magic&capEffective != 0}
	for i := 0; i < words; i++ {
		off := 4 + 8*i
		cs.Permitted |= uint64(binary.LittleEndian.Uint32(raw[off:])) << (32 * i)
		cs.Inheritable |= uint64(binary.LittleEndian.Uint32(raw[off+4:])) << (32 * i)
	}
	return cs, nil
}

func capName(n int) string {
	if n < len(capNames) {
		return capNames[n]
	}
	return fmt.Sprintf("cap_%d", n)
}

// Names lists every capability present in either set, by number.
func (c CapSet) Names() []string {
	var out []string
	for all := c.Permitted | c.Inheritable; all != 0; all &= all - 1 {
		out = append(out, capName(bits.TrailingZeros64(all)))
	}
	return out
}

// String renders the set the way getcap does, e.g. "cap_net_raw+ep" or
// "cap_chown,cap_kill+ep cap_net_admin+i".
func (c CapSet) String() string {
	type group struct {
		flags string
		caps  []string
	}
	var groups []*group
	index := map[string]*group{}
	for all := c.Permitted | c.Inheritable; all != 0; all &= all - 1 {
		n := bits.TrailingZeros64(all)
		bit := uint64(1) << n
		var flags string
		if c.Effective && c.Permitted&bit != 0 {
			flags += "e"
		}
		if c.Inheritable&bit != 0 {
			flags += "i"
		}
		if c.Permitted&bit != 0 {
			flags += "p"
		}
		g, ok := index[flags]
		if !ok {
			g = &group{flags: flags}
			index[flags] = g
			groups = append(groups, g)
		}
		g.caps = append(g.caps, capName(n))
	}
	parts := make([]string, 0, len(groups))
	for _, g := range groups {
		parts = append(parts, strings.Join(g.caps, ",")+"+"+g.flags)
	}
	return strings.Join(parts, " ")
}

// Dangerous returns the dangerous capabilities in the set.
func (c CapSet) Dangerous() []string {
	present := map[string]bool{}
	for _, n := range c.Names() {
		present[n] = true
	}
	var out []string
	for _, d := range dangerous {
		if present[d] {
			out = append(out, d)
		}
	}
	return out
}
