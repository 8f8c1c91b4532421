// internal/notify/notify.go
package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rovshanmuradov/solana-relay/internal/domain"
)

const dexScreenerURL = "https://dexscreener.com/solana/"

// Alert is a human-readable notification about an on-chain event
type Alert struct {
	Kind      domain.EventKind
	Address   string
	Mint      string
	Signature string
	Timestamp time.Time
}

// Notifier delivers alerts to operators
type Notifier interface {
	Notify(ctx context.Context, alert Alert) error
}

// AlertFromEvent maps a normalized event to an alert. Only pool creations and
// freeze instructions are worth waking someone up for.
func AlertFromEvent(event domain.Event) (Alert, bool) {
	alert := Alert{
		Kind:      event.Kind,
		Address:   event.Key,
		Signature: event.Signature,
		Timestamp: event.Timestamp,
	}

	switch event.Kind {
	case domain.KindPoolCreated:
		if event.Pool != nil {
			alert.Mint = event.Pool.MintAddress
		}
		return alert, true
	case domain.KindFreezeAccount:
		return alert, true
	default:
		return Alert{}, false
	}
}

// Format renders the alert text
func Format(alert Alert) string {
	var b strings.Builder

	switch alert.Kind {
	case domain.KindPoolCreated:
		b.WriteString("🆕 New liquidity pool\n")
		fmt.Fprintf(&b, "Pool: %s\n", alert.Address)
		if alert.Mint != "" {
			fmt.Fprintf(&b, "Token: %s\n", alert.Mint)
			fmt.Fprintf(&b, "Chart: %s%s\n", dexScreenerURL, alert.Mint)
		}
	case domain.KindFreezeAccount:
		b.WriteString("🧊 Freeze instruction detected\n")
		fmt.Fprintf(&b, "Address: %s\n", alert.Address)
	default:
		fmt.Fprintf(&b, "Event %s\n", alert.Kind)
		fmt.Fprintf(&b, "Address: %s\n", alert.Address)
	}

	if alert.Signature != "" {
		fmt.Fprintf(&b, "Tx: https://solscan.io/tx/%s\n", alert.Signature)
	}
	if !alert.Timestamp.IsZero() {
		fmt.Fprintf(&b, "Time: %s", alert.Timestamp.UTC().Format(time.RFC3339))
	}

	return strings.TrimRight(b.String(), "\n")
}

// Nop discards every alert
type Nop struct{}

// Notify implements Notifier
func (Nop) Notify(context.Context, Alert) error { return nil }
