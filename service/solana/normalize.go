package solana

import (
	"fmt"
	"time"
)

// LamportsPerSOL is the number of lamports in one SOL.
const LamportsPerSOL = 1_000_000_000

// TimestampLayout renders block times as a local date-time.
const TimestampLayout = "1/2/2006, 3:04:05 PM"

// Normalize flattens a Record into a TransactionView. loc selects the time
// zone used for the timestamp; nil means time.Local.
func Normalize(signature string, rec *Record, loc *time.Location) *TransactionView {
	view := &TransactionView{
		Signature: signature,
		Status:    StatusSuccess,
		Timestamp: FormatBlockTime(rec.BlockTime, loc),
		Signer:    Unknown,
		Slot:      rec.Slot,
	}

	if rec.Meta != nil {
		if rec.Meta.Err != nil {
			view.Status = StatusFailed
		}
		if rec.Meta.Fee != nil {
			view.Fee = *rec.Meta.Fee
		}
	}

	// fee payer is always the first account key
	if len(rec.AccountKeys) > 0 && rec.AccountKeys[0] != "" {
		view.Signer = rec.AccountKeys[0]
	}

	view.Instructions = flattenInstructions(rec)
	return view
}

// flattenInstructions lists top-level instructions first, then every inner
// group in the order the node returned them.
func flattenInstructions(rec *Record) []InstructionView {
	out := make([]InstructionView, 0, len(rec.Instructions))

	for i, ix := range rec.Instructions {
		out = append(out, instructionView(ix, rec.AccountKeys, fmt.Sprintf("Instruction #%d", i+1), false))
	}

	if rec.Meta == nil {
		return out
	}
	for g, group := range rec.Meta.InnerInstructions {
		for i, ix := range group.Instructions {
			label := fmt.Sprintf("Inner Instruction #%d.%d", g+1, i+1)
			out = append(out, instructionView(ix, rec.AccountKeys, label, true))
		}
	}
	return out
}

func instructionView(ix Instruction, accountKeys []string, label string, inner bool) InstructionView {
	programID := ix.ResolveProgramID(accountKeys)
	return InstructionView{
		ProgramID:   programID,
		ProgramName: ProgramName(programID),
		Label:       label,
		Inner:       inner,
		Raw:         ix.Raw,
	}
}

// FormatBlockTime formats unix seconds for display, or returns Unknown.
func FormatBlockTime(blockTime *int64, loc *time.Location) string {
	if blockTime == nil || *blockTime == 0 {
		return Unknown
	}
	if loc == nil {
		loc = time.Local
	}
	return time.Unix(*blockTime, 0).In(loc).Format(TimestampLayout)
}

// FormatSol renders lamports as SOL with nine decimals, e.g. "1.000000000".
func FormatSol(lamports uint64) string {
	return fmt.Sprintf("%d.%09d", lamports/LamportsPerSOL, lamports%LamportsPerSOL)
}

// TruncateAddress shortens long addresses to "first...last" with chars on each side.
func TruncateAddress(address string, chars int) string {
	if chars <= 0 {
		chars = 8
	}
	if len(address) <= chars*2 {
		return address
	}
	return address[:chars] + "..." + address[len(address)-chars:]
}
