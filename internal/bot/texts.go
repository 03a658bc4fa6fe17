package bot

import (
	"errors"

	"github.com/m3rciful/finbot/internal/ledger"
)

// Reply keyboard labels. Incoming text is matched against them exactly.
const (
	LabelAddExpense = "➕ Добавить расход"
	LabelAddIncome  = "💰 Добавить доход"
	LabelDeleteLast = "🗑 Удалить последнюю транзакцию"
	LabelHistory    = "📜 История транзакций"
	LabelChart      = "📈 График"
	LabelStats      = "💸 Статистика"
	LabelReport     = "📊 Отчет"
	LabelBalance    = "⚖️ Баланс"
	LabelBack       = "🔙 Назад"
	LabelYes        = "Да✅"
	LabelNo         = "Нет❌"
)

// Inline callback data.
const (
	CallbackStatsWeek    = "report_week"
	CallbackStatsMonth   = "report_month"
	CallbackChartExpense = "chart_expense"
	CallbackChartIncome  = "chart_income"
)

const (
	textWelcome = "Привет, %s! Я твой финансовый трекер.\n" +
		"Записывай доходы и расходы кнопками меню, смотри баланс, историю и отчеты."
	textHelp = "Что я умею:\n" +
		"➕ / 💰 записать расход или доход: сумма и категория через пробел, например «500 Продукты»\n" +
		"🗑 удалить последнюю транзакцию (с подтверждением)\n" +
		"⚖️ баланс, 📜 последние транзакции\n" +
		"💸 статистика по категориям за неделю или месяц\n" +
		"📊 отчет по выбранной категории, 📈 круговая диаграмма\n\n" +
		"Команды: /add_expense 500 Продукты, /add_income 50000 Зарплата"
	textUnknown         = "Не понимаю. Выберите действие в меню ниже."
	textUnknownCallback = "Неизвестное действие"
	textSlowDown        = "Слишком часто, подождите немного."
	textInternalError   = "Произошла ошибка. Попробуйте позже."
	textNotRegistered   = "Вы ещё не зарегистрированы. Отправьте /start, чтобы начать."

	textPromptExpense = "Введите сумму и категорию расхода через пробел.\nНапример: 500 Продукты"
	textPromptIncome  = "Введите сумму и категорию дохода через пробел.\nНапример: 50000 Зарплата"
	textAddCancelled  = "Добавление отменено."
	textAdded         = "✅ %s добавлен: %s, категория «%s»."
	textUsageCommand  = "Использование: %s <сумма> <категория>"

	textNothingToDelete = "Нет транзакций для удаления."
	textConfirmDelete   = "Удалить последнюю транзакцию?\n%s"
	textDeleted         = "Транзакция удалена: %s"
	textAlreadyDeleted  = "Ошибка: транзакция уже удалена или отсутствует."
	textNoSnapshot      = "Ошибка: не удалось получить последнюю транзакцию."
	textDeleteCancelled = "Вы отменили удаление последней транзакции."
	textAnswerYesNo     = "Пожалуйста, ответьте «" + LabelYes + "» или «" + LabelNo + "»."

	textBalance      = "⚖️ Баланс\nДоходы: %s\nРасходы: %s\nИтого: %s"
	textHistoryEmpty = "История транзакций пуста."
	textHistoryHead  = "📜 Последние транзакции:"

	textChoosePeriod  = "Выберите период:"
	textStatsHead     = "💸 Статистика за %s"
	textStatsEmpty    = "Нет транзакций за %s."
	textChooseType    = "Выберите тип отчета:"
	textNoCategories  = "Нет данных для отчета: сначала добавьте %s."
	textChooseCat     = "Выберите категорию:"
	textChooseCatPer  = "Выберите период для категории «%s»:"
	textReportHead    = "📊 %s, «%s» за %s:"
	textReportEmpty   = "Нет транзакций в категории «%s» за %s."
	textReportTotal   = "Итого: %s"
	textChooseChart   = "Выберите тип графика:"
	textChartTitle    = "%s за месяц"
	textChartEmpty    = "Нет данных для графика за месяц."
	textRemindOff     = "Напоминания отключены."
	textRemindBusy    = "Рассылка уже выполняется."
	textRemindDone    = "Напоминания отправлены: %d из %d."
	textLabelExpenses = "расходы"
	textLabelIncomes  = "доходы"
)

// validationText maps entry errors to the corrective reply.
func validationText(err error) string {
	switch {
	case errors.Is(err, ledger.ErrEntryFormat):
		return "Неверный формат. Введите сумму и категорию через пробел, например: 500 Продукты"
	case errors.Is(err, ledger.ErrAmountNotNumber):
		return "Сумма должна быть числом. Например: 500 Продукты"
	case errors.Is(err, ledger.ErrAmountNotPositive):
		return "Сумма должна быть больше нуля."
	case errors.Is(err, ledger.ErrAmountTooLarge):
		return "Слишком большая сумма."
	case errors.Is(err, ledger.ErrCategoryEmpty):
		return "Укажите категорию после суммы."
	case errors.Is(err, ledger.ErrCategoryNumeric):
		return "Категория не может состоять только из цифр."
	}
	return textInternalError
}
