// internal/classifier/classifier.go
package classifier

import (
	"github.com/andres-erbsen/clock"
	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/solana-relay/internal/domain"
)

// Action type tags used by the indexing provider
const (
	ActionCreatePool      = "CREATE_POOL"
	ActionSwap            = "SWAP"
	ActionRemoveLiquidity = "REMOVE_LIQUIDITY"
)

// WrappedSOLMint is never reported as the token of interest.
var WrappedSOLMint = solana.WrappedSol.String()

var (
	poolKeyFields = []string{"liquidity_pool_address", "pool_address", "amm_id"}

	swapTokenInFields   = []string{"token_in", "input_mint"}
	swapTokenOutFields  = []string{"token_out", "output_mint"}
	swapAmountInFields  = []string{"amount_in", "in_amount"}
	swapAmountOutFields = []string{"amount_out", "out_amount"}

	removeTokenAFields  = []string{"token_mint_one", "token_a"}
	removeTokenBFields  = []string{"token_mint_two", "token_b"}
	removeAmountAFields = []string{"token_a_amount", "amount_a"}
	removeAmountBFields = []string{"token_b_amount", "amount_b"}
)

// Classifier turns raw provider callbacks into normalized events.
// Every failure is reported as "no event"; logging is a side effect only.
type Classifier struct {
	logger *zap.Logger
	clock  clock.Clock
}

// New creates a classifier. A nil clock defaults to wall time.
func New(logger *zap.Logger, clk clock.Clock) *Classifier {
	if clk == nil {
		clk = clock.New()
	}
	return &Classifier{
		logger: logger.Named("classifier"),
		clock:  clk,
	}
}

// ExtractPoolAddresses finds the first CREATE_POOL action and returns its pool
// address and the mint of the non-native token. Missing fields come back empty.
func ExtractPoolAddresses(data any) (pool, mint string, ok bool) {
	actions, found := actionsOf(data)
	if !found {
		return "", "", false
	}

	for _, raw := range actions {
		action, isObj := asObject(raw)
		if !isObj || action["type"] != ActionCreatePool {
			continue
		}
		info, hasInfo := asObject(action["info"])
		if !hasInfo {
			continue
		}

		pool = stringField(info, "liquidity_pool_address")
		mint = stringField(info, "token_mint_two")
		if mint == WrappedSOLMint {
			mint = stringField(info, "token_mint_one")
		}
		break
	}

	return pool, mint, pool != "" && mint != ""
}

// PoolCreation classifies a pool creation callback.
func (c *Classifier) PoolCreation(data any) (domain.Event, bool) {
	pool, mint, ok := ExtractPoolAddresses(data)
	if !ok {
		if _, found := actionsOf(data); !found {
			c.logger.Debug("Callback without actions list")
		} else {
			c.logger.Debug("No complete CREATE_POOL action",
				zap.String("pool", pool),
				zap.String("mint", mint))
		}
		return domain.Event{}, false
	}

	obj, _ := asObject(data)
	return domain.NewPoolCreatedEvent(timestampOf(obj, c.clock.Now()), signatureOf(obj), pool, mint), true
}

// Liquidity classifies swap and liquidity removal callbacks. Only the first
// matching action is used.
func (c *Classifier) Liquidity(data any) (domain.Event, bool) {
	actions, found := actionsOf(data)
	if !found {
		c.logger.Debug("Liquidity callback without actions list")
		return domain.Event{}, false
	}
	obj, _ := asObject(data)

	for _, raw := range actions {
		action, isObj := asObject(raw)
		if !isObj {
			continue
		}
		kind, _ := action["type"].(string)
		if kind != ActionSwap && kind != ActionRemoveLiquidity {
			continue
		}

		info, _ := asObject(action["info"])
		if info == nil {
			info = map[string]any{}
		}
		pool := stringField(info, poolKeyFields...)
		ts := timestampOf(obj, c.clock.Now())
		sig := signatureOf(obj)

		if kind == ActionSwap {
			return domain.NewSwapEvent(ts, sig, pool, domain.SwapData{
				TokenIn:   stringField(info, swapTokenInFields...),
				TokenOut:  stringField(info, swapTokenOutFields...),
				AmountIn:  decimalField(info, swapAmountInFields...),
				AmountOut: decimalField(info, swapAmountOutFields...),
			}), true
		}
		return domain.NewLiquidityRemovedEvent(ts, sig, pool, domain.LiquidityRemovedData{
			TokenA:  stringField(info, removeTokenAFields...),
			TokenB:  stringField(info, removeTokenBFields...),
			AmountA: decimalField(info, removeAmountAFields...),
			AmountB: decimalField(info, removeAmountBFields...),
		}), true
	}

	c.logger.Debug("No swap or liquidity action in callback")
	return domain.Event{}, false
}

func actionsOf(data any) ([]any, bool) {
	obj, ok := asObject(data)
	if !ok {
		return nil, false
	}
	return asList(obj["actions"])
}
