package entity

// UpsertResult итог пакетной записи. Conflicts содержит индексы строк,
// запись которых не прошла проверку версии или уникальности ключа.
type UpsertResult struct {
	Conflicts []int
}

// Conflicted сообщает, была ли i-я строка отклонена.
func (r UpsertResult) Conflicted(i int) bool {
	for _, c := range r.Conflicts {
		if c == i {
			return true
		}
	}
	return false
}
