package bot

import (
	"github.com/m3rciful/finbot/core/telegram/keyboard"
	"github.com/m3rciful/finbot/internal/ledger"

	tele "gopkg.in/telebot.v4"
)

func mainMenu() *tele.ReplyMarkup {
	return keyboard.Reply(
		[]string{LabelAddExpense, LabelAddIncome},
		[]string{LabelDeleteLast},
		[]string{LabelHistory, LabelChart},
		[]string{LabelStats, LabelReport},
		[]string{LabelBalance},
	)
}

func backKeyboard() *tele.ReplyMarkup {
	return keyboard.ReplyOnce([]string{LabelBack})
}

func confirmKeyboard() *tele.ReplyMarkup {
	return keyboard.ReplyOnce([]string{LabelYes, LabelNo})
}

func statsKeyboard() *tele.ReplyMarkup {
	return keyboard.Inline([]keyboard.Button{
		{Text: "📆 Неделя", Data: CallbackStatsWeek},
		{Text: "🗓️ Месяц", Data: CallbackStatsMonth},
	})
}

func reportTypeKeyboard() *tele.ReplyMarkup {
	return keyboard.Inline([]keyboard.Button{
		{Text: "💰 Доходы", Data: string(ledger.Income)},
		{Text: "💸 Расходы", Data: string(ledger.Expense)},
	})
}

func periodKeyboard() *tele.ReplyMarkup {
	return keyboard.Inline([]keyboard.Button{
		{Text: "📆 Неделя", Data: string(ledger.Week)},
		{Text: "🗓️ Месяц", Data: string(ledger.Month)},
	})
}

func chartKeyboard() *tele.ReplyMarkup {
	return keyboard.Inline([]keyboard.Button{
		{Text: "📉 Расходы", Data: CallbackChartExpense},
		{Text: "📈 Доходы", Data: CallbackChartIncome},
	})
}

func categoryKeyboard(buttons []keyboard.Button) *tele.ReplyMarkup {
	return keyboard.Inline(keyboard.Chunk(buttons, 2)...)
}
