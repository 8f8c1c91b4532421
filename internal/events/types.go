// internal/events/types.go
package events

import (
	"github.com/rovshanmuradov/solana-relay/internal/domain"
)

// Kinds every relay subscriber may listen to
var AllKinds = []domain.EventKind{
	domain.KindPoolCreated,
	domain.KindSwap,
	domain.KindLiquidityRemoved,
	domain.KindFreezeAccount,
}

// LiquidityKinds are the kinds delivered through the liquidity callback
var LiquidityKinds = []domain.EventKind{
	domain.KindSwap,
	domain.KindLiquidityRemoved,
}
