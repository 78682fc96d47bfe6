package listing

// DeleteFlow — двухшаговое удаление: запрос подтверждения, затем
// подтверждение того же идентификатора.
type DeleteFlow struct {
	// PendingID — expediente, ожидающий подтверждения (пусто — нет запроса)
	PendingID string
}

// Request переводит поток в ожидание подтверждения для id.
func (d DeleteFlow) Request(id string) DeleteFlow {
	return DeleteFlow{PendingID: id}
}

// Cancel сбрасывает ожидающий запрос.
func (d DeleteFlow) Cancel() DeleteFlow {
	return DeleteFlow{}
}

// Pending сообщает, ожидает ли id подтверждения.
func (d DeleteFlow) Pending(id string) bool {
	return id != "" && d.PendingID == id
}

// Confirm подтверждает удаление id. Возвращает true только если
// подтверждается ранее запрошенный идентификатор; поток сбрасывается.
func (d DeleteFlow) Confirm(id string) (DeleteFlow, bool) {
	ok := d.Pending(id)
	return DeleteFlow{}, ok
}
