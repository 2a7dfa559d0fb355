package notification

import (
	"context"
	"log/slog"
	"time"
)

const (
	// KindTransfer marks a completed transfer receipt.
	KindTransfer = "transfer"
	// KindMiningReward marks a successful mining claim.
	KindMiningReward = "miningreward"
	// KindMiningFail marks a mining attempt rejected by the per-block guard.
	KindMiningFail = "miningfail"
)

// Event is the audit receipt emitted alongside a ledger state transition.
// Receipts are observable outputs only; they never mutate ledger state.
type Event struct {
	ID       string    `json:"id"`
	Kind     string    `json:"kind"`
	From     string    `json:"from"`
	To       string    `json:"to"`
	Quantity string    `json:"quantity,omitempty"`
	Symbol   string    `json:"symbol"`
	Memo     string    `json:"memo,omitempty"`
	At       time.Time `json:"at"`
}

// Notifier delivers ledger events to downstream observers.
type Notifier interface {
	Send(ctx context.Context, event Event) error
}

// LoggerNotifier writes events to the structured logger. It is the default
// transport in dev mode and behind tests.
type LoggerNotifier struct {
	logger *slog.Logger
}

// NewLoggerNotifier constructs a logging notifier.
func NewLoggerNotifier(logger *slog.Logger) *LoggerNotifier {
	return &LoggerNotifier{logger: logger}
}

// Send writes the event to the structured logger.
func (n *LoggerNotifier) Send(_ context.Context, event Event) error {
	if n == nil || n.logger == nil {
		return nil
	}
	n.logger.Info("ledger event",
		"kind", event.Kind,
		"from", event.From,
		"to", event.To,
		"quantity", event.Quantity,
		"symbol", event.Symbol,
		"memo", event.Memo,
	)
	return nil
}
