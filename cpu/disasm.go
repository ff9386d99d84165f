package cpu

import (
	"fmt"

	"golang.org/x/arch/x86/x86asm"
)

// Disasm decodes the instruction at the start of code in Intel syntax,
// returning its text and length. pc is the address of code, used for branch
// targets; big selects 32 bit operand and address size. Bytes that do not
// decode come back as a single "db".
func Disasm(code []byte, pc uint32, big bool) (string, int) {
	if len(code) == 0 {
		return "", 0
	}
	mode := 16
	if big {
		mode = 32
	}
	inst, err := x86asm.Decode(code, mode)
	if err != nil || inst.Len == 0 {
		return fmt.Sprintf("db 0x%02x", code[0]), 1
	}
	return x86asm.IntelSyntax(inst, uint64(pc), nil), inst.Len
}

// Listing disassembles code located at origin, one instruction per line
// with its address and bytes.
func Listing(code []byte, origin uint32, big bool) []string {
	var lines []string
	for pos := 0; pos < len(code); {
		pc := origin + uint32(pos)
		text, n := Disasm(code[pos:], pc, big)
		if n == 0 {
			break
		}
		raw := fmt.Sprintf("% x", code[pos:pos+n])
		lines = append(lines, fmt.Sprintf("%08x  %-24s %s", pc, raw, text))
		pos += n
	}
	return lines
}
