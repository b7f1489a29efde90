package solana

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsedInstruction_SystemProgram(t *testing.T) {
	// the system program id decodes to 32 zero bytes
	ix := parsedInstruction(&rpc.ParsedInstruction{ProgramId: solana.SystemProgramID})

	programID := ix.ResolveProgramID(nil)
	assert.Equal(t, SystemProgramID, programID)
	assert.Equal(t, "System Program", ProgramName(programID))
}

func TestParsedInstruction_Nil(t *testing.T) {
	ix := parsedInstruction(nil)
	assert.Equal(t, Unknown, ix.ResolveProgramID(nil))
}

func TestRecordFromParsed_SystemTransfer(t *testing.T) {
	rec, err := recordFromParsed(loadParsed(t))
	require.NoError(t, err)

	view := Normalize(testSignature, rec, nil)
	require.Len(t, view.Instructions, 4)
	assert.Equal(t, SystemProgramID, view.Instructions[1].ProgramID)
	assert.Equal(t, "System Program", view.Instructions[1].ProgramName)
}

func TestRecordFromEncoded_LoadedAddresses(t *testing.T) {
	res := loadEncoded(t)
	loadedWritable := solana.MustPublicKeyFromBase58("4Nd1mBQtrMJVYVfKf2PJy9NZUZdTAsp7D4xWLs4gDB4T")
	res.Meta.LoadedAddresses.Writable = solana.PublicKeySlice{loadedWritable}
	res.Meta.LoadedAddresses.ReadOnly = solana.PublicKeySlice{solana.MustPublicKeyFromBase58(MemoProgramIDSPL)}

	rec, err := recordFromEncoded(res)
	require.NoError(t, err)

	// four static keys, then writable, then read-only
	require.Len(t, rec.AccountKeys, 6)
	assert.Equal(t, loadedWritable.String(), rec.AccountKeys[4])
	assert.Equal(t, MemoProgramIDSPL, rec.AccountKeys[5])

	assert.Equal(t, MemoProgramIDSPL, ByProgramIndex(5, nil).ResolveProgramID(rec.AccountKeys))
	assert.Equal(t, Unknown, ByProgramIndex(6, nil).ResolveProgramID(rec.AccountKeys))
}

func TestRecordFromEncoded_StaticKeysOnly(t *testing.T) {
	rec, err := recordFromEncoded(loadEncoded(t))
	require.NoError(t, err)

	require.Len(t, rec.AccountKeys, 4)
	assert.Equal(t, SystemProgramID, ByProgramIndex(2, nil).ResolveProgramID(rec.AccountKeys))
	assert.Equal(t, Unknown, ByProgramIndex(4, nil).ResolveProgramID(rec.AccountKeys))
}
