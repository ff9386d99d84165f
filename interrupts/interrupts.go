package interrupts

/**
 * Separate package exists mainly in order to avoid cyclic imports
 * between cpu, bios and system.
 */

// Trap is raised (via panic) by the processor when an exception occurs while
// executing an instruction. It is recovered at the instruction boundary.
type Trap struct {
	Vector uint8
	Msg    string

	// Fault traps return to the faulting instruction, everything else to the
	// following one.
	Fault bool
}

/********************************
 * exception vectors:
 ********************************/

// IntDivide - divide error
const IntDivide = 0x00

// IntDebug - single step
const IntDebug = 0x01

// IntNMI - non maskable interrupt
const IntNMI = 0x02

// IntBreakpoint - int3
const IntBreakpoint = 0x03

// IntInvalid - invalid opcode
const IntInvalid = 0x06

// IntDoubleFault - exception while delivering an exception
const IntDoubleFault = 0x08

// IntSegmentNotPresent - segment descriptor with P=0
const IntSegmentNotPresent = 0x0B

// IntStack - stack segment fault
const IntStack = 0x0C

// IntGeneralProtection - general protection fault
const IntGeneralProtection = 0x0D

/********************************
 * firmware service vectors:
 ********************************/

// IntVideo : firmware video services
const IntVideo = 0x10

// IntDisk : firmware disk services
const IntDisk = 0x13

// Name returns a short mnemonic for a vector number.
func Name(vector uint8) string {
	switch vector {
	case IntDivide:
		return "#DE"
	case IntDebug:
		return "#DB"
	case IntNMI:
		return "NMI"
	case IntBreakpoint:
		return "#BP"
	case IntInvalid:
		return "#UD"
	case IntDoubleFault:
		return "#DF"
	case IntSegmentNotPresent:
		return "#NP"
	case IntStack:
		return "#SS"
	case IntGeneralProtection:
		return "#GP"
	case IntVideo:
		return "VIDEO"
	case IntDisk:
		return "DISK"
	}
	return "INT"
}
