package solana

// UnknownProgram is the display name for program ids missing from the table.
const UnknownProgram = "Unknown Program"

// Well-known program ids.
const (
	SystemProgramID          = "11111111111111111111111111111111"
	TokenProgramID           = "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"
	Token2022ProgramID       = "TokenzQdBNbLqP5VEhdkAS6EPFLC1PHnBqCXEpPxuEb"
	AssociatedTokenProgramID = "ATokenGPvbdGVxr1b2hvZbsiqW5xWH25efTNsLJA8knL"
	MemoProgramIDSPL         = "MemoSq4gqABAXKb96qnH8TysNcWxMyWCqXgDLGmfcHr"
	MemoProgramIDLegacy      = "Memo1UhkJRfHyvLMcVucJwxXeuD728EqVDDwQDxFMNo"
	ComputeBudgetProgramID   = "ComputeBudget111111111111111111111111111111"
)

var programNames = map[string]string{
	SystemProgramID:          "System Program",
	TokenProgramID:           "Token Program",
	Token2022ProgramID:       "Token-2022 Program",
	AssociatedTokenProgramID: "Associated Token Program",
	MemoProgramIDSPL:         "Memo Program",
	MemoProgramIDLegacy:      "Memo Program (Legacy)",
	ComputeBudgetProgramID:   "Compute Budget Program",

	"So1endDq2YkqhipRh3WViPa8hdiSpxWy6z3Z6tMCpAo": "Solend Program",
	"srmqPiKhxpFqkQNFNHqNhJBNMT3CjPgE1nD2CdgF7q5": "Serum DEX",
	"Stake11111111111111111111111111111111111111": "Stake Program",
	"Vote111111111111111111111111111111111111111": "Vote Program",
	"AddressLookupTab1e1111111111111111111111111": "Address Lookup Table Program",
	"BPFLoaderUpgradeab1e11111111111111111111111": "BPF Upgradeable Loader",
	"metaqbxxUerdq28cj1RbAWkYQm3ybzjb6a8bt518x1s": "Token Metadata Program",
}

// ProgramName returns the display name for a program id.
func ProgramName(programID string) string {
	if name, ok := programNames[programID]; ok {
		return name
	}
	return UnknownProgram
}
