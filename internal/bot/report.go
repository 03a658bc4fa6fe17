package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/m3rciful/finbot/core/logger"
	"github.com/m3rciful/finbot/core/telegram/callbacks"
	tghelpers "github.com/m3rciful/finbot/core/telegram/helpers"
	"github.com/m3rciful/finbot/core/telegram/keyboard"
	"github.com/m3rciful/finbot/core/telegram/router"
	"github.com/m3rciful/finbot/internal/charts"
	"github.com/m3rciful/finbot/internal/ledger"

	tele "gopkg.in/telebot.v4"
)

// Report offers the report types.
func (h *Handlers) Report(c tele.Context) error {
	return reply(c, textChooseType, reportTypeKeyboard())
}

// ReportType returns the callback handler listing categories of typ.
func (h *Handlers) ReportType(typ ledger.TxType) tele.HandlerFunc {
	return func(c tele.Context) error {
		ctx := tghelpers.BuildContext(c)
		names, err := h.store.Categories(ctx, senderID(c), typ)
		if err != nil {
			return fail(c, err)
		}
		buttons := categoryButtons(ctx, typ, names)
		if len(buttons) == 0 {
			return reply(c, fmt.Sprintf(textNoCategories, typeNoun(typ)))
		}
		if err := h.begin(ctx, c, StateAwaitingCategory, Pending{ReportType: typ}); err != nil {
			return fail(c, err)
		}
		return reply(c, textChooseCat, categoryKeyboard(buttons))
	}
}

func typeNoun(typ ledger.TxType) string {
	if typ == ledger.Income {
		return textLabelIncomes
	}
	return textLabelExpenses
}

// categoryButtons encodes "<type>_<category>" buttons, skipping names that
// do not fit into callback data.
func categoryButtons(ctx context.Context, typ ledger.TxType, names []string) []keyboard.Button {
	out := make([]keyboard.Button, 0, len(names))
	for _, name := range names {
		data, err := callbacks.Join(string(typ), name)
		if err != nil {
			logger.Warn(ctx, "tg", "report.category.skip",
				slog.String("category", logger.SanitizeLimit(name, 32)),
				slog.String("err", err.Error()),
			)
			continue
		}
		out = append(out, keyboard.Button{Text: name, Data: data})
	}
	return out
}

// OnReportCategory handles a "<type>_<category>" button, either inside the
// report flow or from an older message. Other data abandons the flow.
func (h *Handlers) OnReportCategory(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	head, category, ok := callbacks.Split(callbacks.Data(c))
	typ, valid := ledger.ParseTxType(head)
	if !ok || !valid || strings.TrimSpace(category) == "" {
		h.finish(ctx, c)
		return router.ErrPass
	}
	if err := h.begin(ctx, c, StateAwaitingPeriod, Pending{ReportType: typ, ReportCategory: category}); err != nil {
		return fail(c, err)
	}
	return reply(c, fmt.Sprintf(textChooseCatPer, category), periodKeyboard())
}

// OnReportPeriod prints the chosen category's transactions for the period
// and ends the flow.
func (h *Handlers) OnReportPeriod(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	p, ok := ledger.ParsePeriod(callbacks.Data(c))
	if !ok {
		h.finish(ctx, c)
		return router.ErrPass
	}
	sess, err := h.sessions.Get(ctx, senderID(c))
	h.finish(ctx, c)
	if err != nil {
		return fail(c, err)
	}
	typ, category := sess.Data.ReportType, sess.Data.ReportCategory
	if !typ.Valid() || category == "" {
		return reply(c, textInternalError, mainMenu())
	}

	txs, err := h.store.CategoryTransactions(ctx, senderID(c), typ, category, p.Since(h.now()))
	if err != nil {
		return fail(c, err)
	}
	if len(txs) == 0 {
		return reply(c, fmt.Sprintf(textReportEmpty, category, p.Title()))
	}
	var b strings.Builder
	fmt.Fprintf(&b, textReportHead, typ.Plural(), category, p.Title())
	total := decimal.Zero
	for _, tx := range txs {
		total = total.Add(tx.Amount)
		fmt.Fprintf(&b, "\n%s: %s", ledger.FormatTime(tx.CreatedAt, h.loc), ledger.FormatMoney(tx.Amount))
	}
	fmt.Fprintf(&b, "\n"+textReportTotal, ledger.FormatMoney(total))
	return reply(c, b.String())
}

// Chart offers the chart types.
func (h *Handlers) Chart(c tele.Context) error {
	return reply(c, textChooseChart, chartKeyboard())
}

// ChartFor returns the callback handler sending a month pie chart of typ.
func (h *Handlers) ChartFor(typ ledger.TxType) tele.HandlerFunc {
	return func(c tele.Context) error {
		ctx := tghelpers.BuildContext(c)
		totals, err := h.store.CategoryTotals(ctx, senderID(c), ledger.Month.Since(h.now()))
		if err != nil {
			return fail(c, err)
		}
		items := ledger.OfType(totals, typ)
		slices := make([]charts.Slice, 0, len(items))
		for _, it := range items {
			slices = append(slices, charts.Slice{Label: it.Category, Value: it.Total})
		}
		title := fmt.Sprintf(textChartTitle, typ.Plural())
		png, err := h.chart(title, slices)
		switch {
		case errors.Is(err, charts.ErrNoData):
			return reply(c, textChartEmpty)
		case err != nil:
			return fail(c, err)
		}
		return tghelpers.SendPhoto(c, png, title)
	}
}
