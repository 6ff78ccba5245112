package formatting

// pluralize выбирает форму слова для числа: одна, две-четыре, пять и больше
func pluralize(count int, one, few, many string) string {
	if count < 0 {
		count = -count
	}
	if count%10 == 1 && count%100 != 11 {
		return one
	}
	if count%10 >= 2 && count%10 <= 4 && (count%100 < 10 || count%100 >= 20) {
		return few
	}
	return many
}

// PluralizeCredits возвращает правильное склонение слова "занятие" для баланса кредитов
func PluralizeCredits(count int) string {
	return pluralize(count, "занятие", "занятия", "занятий")
}

// PluralizeRequests возвращает правильное склонение слова "заявка"
func PluralizeRequests(count int) string {
	return pluralize(count, "заявка", "заявки", "заявок")
}

// PluralizeSeats возвращает правильное склонение слова "место"
func PluralizeSeats(count int) string {
	return pluralize(count, "место", "места", "мест")
}

// PluralizeDays возвращает правильное склонение слова "день"
func PluralizeDays(count int) string {
	return pluralize(count, "день", "дня", "дней")
}
