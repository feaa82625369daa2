package fsperm

const (
	FlagWorldWritable        = "world-writable"
	FlagMissingSticky        = "missing-sticky"
	FlagInsecureSpecialPerms = "insecure-special-permission"
)

// Classify returns the flags raised by e, in a fixed order. Symlinks, devices
// and other special files are never flagged.
func Classify(e Entry) []string {
	mode := e.UnixMode()
	otherWrite := mode&0o002 != 0
	groupWrite := mode&0o020 != 0

	var flags []string
	switch {
	case e.IsDir():
		if otherWrite {
			flags = append(flags, FlagWorldWritable)
			if mode&0o1000 == 0 {
				flags = append(flags, FlagMissingSticky)
			}
		}
	case e.IsRegular():
		if otherWrite {
			flags = append(flags, FlagWorldWritable)
		}
		if mode&0o6000 != 0 && (groupWrite || otherWrite) {
			flags = append(flags, FlagInsecureSpecialPerms)
		}
	}
	return flags
}
