package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// EventKind represents the kind of a normalized on-chain event
type EventKind string

const (
	KindPoolCreated      EventKind = "pool_created"
	KindSwap             EventKind = "swap"
	KindLiquidityRemoved EventKind = "liquidity_removed"
	KindFreezeAccount    EventKind = "freeze_account"
)

// Event is a normalized on-chain event built from a provider callback.
// Exactly one of the payload pointers is set, matching Kind.
type Event struct {
	Kind      EventKind `json:"kind"`
	Timestamp time.Time `json:"timestamp"`
	Signature string    `json:"transaction_signature,omitempty"`
	Key       string    `json:"key"`

	Pool      *PoolCreatedData      `json:"pool,omitempty"`
	Swap      *SwapData             `json:"swap,omitempty"`
	Liquidity *LiquidityRemovedData `json:"liquidity,omitempty"`
	Freeze    *FreezeData           `json:"freeze,omitempty"`
}

// Event data structures

// PoolCreatedData contains the token of interest for a freshly created pool
type PoolCreatedData struct {
	MintAddress string `json:"mint_address"`
}

// SwapData contains swap amounts and tokens
type SwapData struct {
	TokenIn   string          `json:"token_in,omitempty"`
	TokenOut  string          `json:"token_out,omitempty"`
	AmountIn  decimal.Decimal `json:"amount_in"`
	AmountOut decimal.Decimal `json:"amount_out"`
}

// LiquidityRemovedData contains the withdrawn sides of a pool
type LiquidityRemovedData struct {
	TokenA  string          `json:"token_a,omitempty"`
	TokenB  string          `json:"token_b,omitempty"`
	AmountA decimal.Decimal `json:"amount_a"`
	AmountB decimal.Decimal `json:"amount_b"`
}

// FreezeData contains the raw freeze-account instruction
type FreezeData struct {
	Accounts        []string `json:"accounts"`
	ProgramID       string   `json:"program_id"`
	InstructionData string   `json:"instruction_data"`
}

// NewPoolCreatedEvent creates a pool creation event
func NewPoolCreatedEvent(ts time.Time, signature, pool, mint string) Event {
	return Event{
		Kind:      KindPoolCreated,
		Timestamp: ts,
		Signature: signature,
		Key:       pool,
		Pool:      &PoolCreatedData{MintAddress: mint},
	}
}

// NewSwapEvent creates a swap event for the given pool
func NewSwapEvent(ts time.Time, signature, pool string, data SwapData) Event {
	return Event{
		Kind:      KindSwap,
		Timestamp: ts,
		Signature: signature,
		Key:       pool,
		Swap:      &data,
	}
}

// NewLiquidityRemovedEvent creates a liquidity removal event for the given pool
func NewLiquidityRemovedEvent(ts time.Time, signature, pool string, data LiquidityRemovedData) Event {
	return Event{
		Kind:      KindLiquidityRemoved,
		Timestamp: ts,
		Signature: signature,
		Key:       pool,
		Liquidity: &data,
	}
}

// NewFreezeEvent creates a freeze-account event for a monitored address
func NewFreezeEvent(ts time.Time, signature, address string, data FreezeData) Event {
	accounts := make([]string, len(data.Accounts))
	copy(accounts, data.Accounts)
	data.Accounts = accounts
	return Event{
		Kind:      KindFreezeAccount,
		Timestamp: ts,
		Signature: signature,
		Key:       address,
		Freeze:    &data,
	}
}

// TokenDiscovery is a token observed in a pool creation callback
type TokenDiscovery struct {
	PoolAddress string    `json:"pool_address"`
	MintAddress string    `json:"mint_address"`
	ObservedAt  time.Time `json:"-"`
	Timestamp   float64   `json:"timestamp"`
	ReceivedAt  string    `json:"received_at"`
}

// NewTokenDiscovery stamps a discovery record with the observation time
func NewTokenDiscovery(pool, mint string, observedAt time.Time) TokenDiscovery {
	return TokenDiscovery{
		PoolAddress: pool,
		MintAddress: mint,
		ObservedAt:  observedAt,
		Timestamp:   float64(observedAt.UnixNano()) / float64(time.Second),
		ReceivedAt:  observedAt.UTC().Format("2006-01-02T15:04:05.000000Z"),
	}
}
