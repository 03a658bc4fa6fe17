package bot

import (
	"github.com/m3rciful/finbot/core/telegram/commands"
	"github.com/m3rciful/finbot/core/telegram/router"
	"github.com/m3rciful/finbot/internal/ledger"
)

// Register binds every handler to t.
func (h *Handlers) Register(t *router.Table) {
	t.Command("/start", commands.Command{Handler: h.Start, Description: "Начать работу и показать меню"})
	t.Command("/help", commands.Command{Handler: h.Help, Description: "Что умеет бот"})
	t.Command("/add_expense", commands.Command{Handler: h.AddCommand(ledger.Expense), Description: "Добавить расход: /add_expense 500 Продукты"})
	t.Command("/add_income", commands.Command{Handler: h.AddCommand(ledger.Income), Description: "Добавить доход: /add_income 50000 Зарплата"})
	t.Command("/balance", commands.Command{Handler: h.Balance, Description: "Баланс"})
	t.Command("/remind", commands.Command{Handler: h.Remind, Description: "Разослать напоминания", AdminOnly: true})

	t.Exact(router.Text, LabelAddExpense, "add.expense", h.StartAdd(ledger.Expense))
	t.Exact(router.Text, LabelAddIncome, "add.income", h.StartAdd(ledger.Income))
	t.Exact(router.Text, LabelDeleteLast, "delete.start", h.StartDelete)
	t.Exact(router.Text, LabelBalance, "balance", h.Balance)
	t.Exact(router.Text, LabelHistory, "history", h.History)
	t.Exact(router.Text, LabelStats, "stats", h.Stats)
	t.Exact(router.Text, LabelReport, "report", h.Report)
	t.Exact(router.Text, LabelChart, "chart", h.Chart)

	t.OnState(router.Text, StateAwaitingEntry, "add.entry", h.OnEntry)
	t.OnState(router.Text, StateAwaitingConfirmation, "delete.confirm", h.OnConfirm)
	t.OnState(router.Callback, StateAwaitingCategory, "report.category", h.OnReportCategory)
	t.OnState(router.Callback, StateAwaitingPeriod, "report.period", h.OnReportPeriod)

	t.Exact(router.Callback, CallbackStatsWeek, "stats.week", h.StatsFor(ledger.Week))
	t.Exact(router.Callback, CallbackStatsMonth, "stats.month", h.StatsFor(ledger.Month))
	t.Exact(router.Callback, string(ledger.Income), "report.income", h.ReportType(ledger.Income))
	t.Exact(router.Callback, string(ledger.Expense), "report.expense", h.ReportType(ledger.Expense))
	t.Prefix(string(ledger.Income)+"_", "report.category", h.OnReportCategory)
	t.Prefix(string(ledger.Expense)+"_", "report.category", h.OnReportCategory)
	t.Exact(router.Callback, CallbackChartExpense, "chart.expense", h.ChartFor(ledger.Expense))
	t.Exact(router.Callback, CallbackChartIncome, "chart.income", h.ChartFor(ledger.Income))

	t.Fallback(router.Text, "fallback.text", h.UnknownText)
	t.Fallback(router.Callback, "fallback.callback", h.UnknownCallback)
}
