package bot

import (
	"fmt"
	"strings"

	tghelpers "github.com/m3rciful/finbot/core/telegram/helpers"
	"github.com/m3rciful/finbot/internal/ledger"

	tele "gopkg.in/telebot.v4"
)

// Balance replies with income, expense and their difference.
func (h *Handlers) Balance(c tele.Context) error {
	b, err := h.store.Balance(tghelpers.BuildContext(c), senderID(c))
	if err != nil {
		return fail(c, err)
	}
	return reply(c, fmt.Sprintf(textBalance,
		ledger.FormatMoney(b.Income), ledger.FormatMoney(b.Expense), ledger.FormatMoney(b.Net())), mainMenu())
}

// History lists the most recent transactions, newest first.
func (h *Handlers) History(c tele.Context) error {
	txs, err := h.store.RecentTransactions(tghelpers.BuildContext(c), senderID(c), h.limit)
	if err != nil {
		return fail(c, err)
	}
	if len(txs) == 0 {
		return reply(c, textHistoryEmpty, mainMenu())
	}
	var b strings.Builder
	b.WriteString(textHistoryHead)
	for i, tx := range txs {
		fmt.Fprintf(&b, "\n%d. %s", i+1, tx.Summary(h.loc))
	}
	return reply(c, b.String(), mainMenu())
}

// Stats offers the statistics windows.
func (h *Handlers) Stats(c tele.Context) error {
	return reply(c, textChoosePeriod, statsKeyboard())
}

// StatsFor returns the callback handler printing per-category totals for p.
func (h *Handlers) StatsFor(p ledger.Period) tele.HandlerFunc {
	return func(c tele.Context) error {
		totals, err := h.store.CategoryTotals(tghelpers.BuildContext(c), senderID(c), p.Since(h.now()))
		if err != nil {
			return fail(c, err)
		}
		if len(totals) == 0 {
			return reply(c, fmt.Sprintf(textStatsEmpty, p.Title()))
		}
		var b strings.Builder
		fmt.Fprintf(&b, textStatsHead, p.Title())
		sums := ledger.Totals(totals)
		for _, typ := range []ledger.TxType{ledger.Income, ledger.Expense} {
			items := ledger.OfType(totals, typ)
			if len(items) == 0 {
				continue
			}
			fmt.Fprintf(&b, "\n\n%s:", typ.Plural())
			for _, it := range items {
				fmt.Fprintf(&b, "\n  %s: %s", it.Category, ledger.FormatMoney(it.Total))
			}
		}
		fmt.Fprintf(&b, "\n\n"+textReportTotal, ledger.FormatMoney(sums.Net()))
		return reply(c, b.String())
	}
}
