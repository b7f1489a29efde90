package solana

// InstructionKind tags how an instruction names its program.
type InstructionKind int

const (
	// ProgramIDKind instructions carry the program id directly
	// (jsonParsed responses).
	ProgramIDKind InstructionKind = iota
	// ProgramIndexKind instructions carry an index into the message's
	// account keys (base64 responses).
	ProgramIndexKind
)

// Instruction is the SDK-independent shape of one instruction.
type Instruction struct {
	Kind         InstructionKind
	ProgramID    string // set for ProgramIDKind
	ProgramIndex int    // set for ProgramIndexKind
	Raw          any
}

// ByProgramID builds a ProgramIDKind instruction.
func ByProgramID(programID string, raw any) Instruction {
	return Instruction{Kind: ProgramIDKind, ProgramID: programID, Raw: raw}
}

// ByProgramIndex builds a ProgramIndexKind instruction.
func ByProgramIndex(index int, raw any) Instruction {
	return Instruction{Kind: ProgramIndexKind, ProgramIndex: index, Raw: raw}
}

// ResolveProgramID returns the instruction's program id, or Unknown.
func (ix Instruction) ResolveProgramID(accountKeys []string) string {
	switch ix.Kind {
	case ProgramIDKind:
		return resolveByID(ix.ProgramID)
	case ProgramIndexKind:
		return resolveByIndex(ix.ProgramIndex, accountKeys)
	default:
		return Unknown
	}
}

func resolveByID(programID string) string {
	if programID == "" {
		return Unknown
	}
	return programID
}

func resolveByIndex(index int, accountKeys []string) string {
	if index < 0 || index >= len(accountKeys) || accountKeys[index] == "" {
		return Unknown
	}
	return accountKeys[index]
}

// InnerGroup holds the inner instructions invoked by one top-level instruction.
type InnerGroup struct {
	Index        int // index of the parent top-level instruction
	Instructions []Instruction
}

// Meta is the execution metadata of a transaction.
type Meta struct {
	Err               any
	Fee               *uint64
	InnerInstructions []InnerGroup
}

// Record is what the RPC node told us about a transaction, reduced to the
// fields the view needs.
type Record struct {
	Slot         uint64
	BlockTime    *int64 // unix seconds
	Meta         *Meta
	AccountKeys  []string
	Instructions []Instruction
}
