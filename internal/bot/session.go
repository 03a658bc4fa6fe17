package bot

import (
	"github.com/m3rciful/finbot/core/telegram/state"
	"github.com/m3rciful/finbot/internal/ledger"
)

// Conversation states.
const (
	StateAwaitingEntry        state.State = "awaiting_amount_and_category"
	StateAwaitingConfirmation state.State = "awaiting_delete_confirmation"
	StateAwaitingCategory     state.State = "awaiting_report_category"
	StateAwaitingPeriod       state.State = "awaiting_report_period"
)

// Pending is the scratch data of an unfinished conversation.
type Pending struct {
	// TxType is the type being entered in the add flow.
	TxType ledger.TxType `json:"tx_type,omitempty"`
	// Snapshot is the transaction shown for deletion. Display only: the
	// delete removes whatever is most recent at confirmation time.
	Snapshot *ledger.Transaction `json:"snapshot,omitempty"`

	ReportType     ledger.TxType `json:"report_type,omitempty"`
	ReportCategory string        `json:"report_category,omitempty"`
}

// Sessions stores Pending per user.
type Sessions = state.Manager[Pending]
