package platform

// libuiohook virtual key codes (VC_*) mapped to macOS virtual key codes.
// Shortcuts are stored with macOS codes on every platform; the hook reports
// the same VC_* value for a physical key regardless of OS.
var vcToMac = map[uint16]uint16{
	// letters
	0x001E: 0, 0x001F: 1, 0x0020: 2, 0x0021: 3, 0x0023: 4, 0x0022: 5,
	0x002C: 6, 0x002D: 7, 0x002E: 8, 0x002F: 9, 0x0030: 11, 0x0010: 12,
	0x0011: 13, 0x0012: 14, 0x0013: 15, 0x0015: 16, 0x0014: 17, 0x0018: 31,
	0x0016: 32, 0x0017: 34, 0x0019: 35, 0x0026: 37, 0x0024: 38, 0x0025: 40,
	0x0031: 45, 0x0032: 46,

	// digits
	0x0002: 18, 0x0003: 19, 0x0004: 20, 0x0005: 21, 0x0006: 23,
	0x0007: 22, 0x0008: 26, 0x0009: 28, 0x000A: 25, 0x000B: 29,

	// punctuation
	0x000C: 27, 0x000D: 24, 0x001A: 33, 0x001B: 30, 0x002B: 42,
	0x0027: 41, 0x0028: 39, 0x0029: 50, 0x0033: 43, 0x0034: 47, 0x0035: 44,

	// whitespace and editing
	0x000F: 48, 0x0039: 49, 0x001C: 36, 0x000E: 51, 0x0001: 53,
	0x0E53: 117, 0x0E47: 115, 0x0E4F: 119, 0x0E49: 116, 0x0E51: 121,
	0xE048: 126, 0xE050: 125, 0xE04B: 123, 0xE04D: 124,

	// function keys
	0x003B: 122, 0x003C: 120, 0x003D: 99, 0x003E: 118, 0x003F: 96, 0x0040: 97,
	0x0041: 98, 0x0042: 100, 0x0043: 101, 0x0044: 109, 0x0057: 103, 0x0058: 111,

	// modifiers
	0x0E5C: 54, 0x0E5B: 55, 0x002A: 56, 0x003A: 57, 0x0038: 58,
	0x001D: 59, 0x0036: 60, 0x0E38: 61, 0x0E1D: 62,
}

// macKeyCode translates a libuiohook key code. ok is false for keys without
// a macOS equivalent in the table.
func macKeyCode(vc uint16) (code uint16, ok bool) {
	code, ok = vcToMac[vc]
	return code, ok
}
