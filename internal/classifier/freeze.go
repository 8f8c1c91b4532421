// internal/classifier/freeze.go
package classifier

import (
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/token"
	"github.com/mr-tron/base58"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/solana-relay/internal/domain"
)

// TokenProgramID is the SPL token program whose instructions are inspected.
var TokenProgramID = solana.TokenProgramID.String()

// FreezeAccountDiscriminant is the first data byte of a freeze-account instruction.
const FreezeAccountDiscriminant = token.Instruction_FreezeAccount

// Freeze scans a callback for freeze-account instructions that involve
// address. The payload may be one transaction or a batch of them.
func (c *Classifier) Freeze(data any, address string) []domain.Event {
	if address == "" {
		return nil
	}

	var txs []map[string]any
	switch v := data.(type) {
	case map[string]any:
		txs = append(txs, v)
	case []any:
		for _, item := range v {
			if tx, ok := asObject(item); ok {
				txs = append(txs, tx)
			}
		}
	default:
		c.logger.Debug("Freeze callback is neither object nor list")
		return nil
	}

	var events []domain.Event
	for _, tx := range txs {
		events = append(events, c.freezeInTransaction(tx, address)...)
	}
	return events
}

func (c *Classifier) freezeInTransaction(tx map[string]any, address string) []domain.Event {
	instructions, _ := asList(tx["instructions"])
	if !involvesAccount(tx, instructions, address) {
		return nil
	}

	sig := signatureOf(tx)
	ts := timestampOf(tx, c.clock.Now())

	var events []domain.Event
	for i, raw := range instructions {
		ix, ok := asObject(raw)
		if !ok || stringField(ix, "programId", "program_id") != TokenProgramID {
			continue
		}

		encoded := stringField(ix, "data")
		decoded, err := base58.Decode(encoded)
		if err != nil || len(decoded) == 0 {
			c.logger.Debug("Skipping undecodable token instruction",
				zap.String("signature", sig),
				zap.Int("index", i),
				zap.Error(err))
			continue
		}
		if decoded[0] != FreezeAccountDiscriminant {
			continue
		}

		events = append(events, domain.NewFreezeEvent(ts, sig, address, domain.FreezeData{
			Accounts:        stringList(ix["accounts"]),
			ProgramID:       TokenProgramID,
			InstructionData: encoded,
		}))
	}

	if len(events) > 0 {
		c.logger.Info("🧊 Freeze instruction detected",
			zap.String("address", address),
			zap.String("signature", sig),
			zap.Int("count", len(events)))
	}
	return events
}

// involvesAccount reports whether address is part of the transaction's
// account list: accountData entries, accountKeys or instruction accounts.
func involvesAccount(tx map[string]any, instructions []any, address string) bool {
	if items, ok := asList(tx["accountData"]); ok {
		for _, item := range items {
			if entry, ok := asObject(item); ok && entry["account"] == address {
				return true
			}
		}
	}
	for _, key := range stringList(tx["accountKeys"]) {
		if key == address {
			return true
		}
	}
	for _, raw := range instructions {
		ix, ok := asObject(raw)
		if !ok {
			continue
		}
		for _, acc := range stringList(ix["accounts"]) {
			if acc == address {
				return true
			}
		}
	}
	return false
}
