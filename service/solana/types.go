package solana

// Status is the outcome of a transaction as recorded on chain.
type Status string

const (
	StatusSuccess Status = "Success"
	StatusFailed  Status = "Failed"
)

// Unknown is shown for fields the node did not return.
const Unknown = "Unknown"

// TransactionView is the display-friendly form of a looked-up transaction.
// It is built fresh for each lookup and never modified afterwards.
type TransactionView struct {
	Signature    string            `json:"signature"`
	Status       Status            `json:"status"`
	Timestamp    string            `json:"timestamp"`
	Signer       string            `json:"signer"`
	Slot         uint64            `json:"slot"`
	Fee          uint64            `json:"fee"` // lamports
	Instructions []InstructionView `json:"instructions"`
}

// FeeSOL returns the fee formatted in SOL.
func (v *TransactionView) FeeSOL() string {
	return FormatSol(v.Fee)
}

// InstructionView is a single top-level or inner instruction.
type InstructionView struct {
	ProgramID   string `json:"program_id"`
	ProgramName string `json:"program_name"`
	Label       string `json:"label"`
	Inner       bool   `json:"inner"`
	Raw         any    `json:"raw,omitempty"`
}
