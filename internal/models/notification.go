package models

// Шаблоны уведомлений.
const (
	TemplateWelcome       = "welcome"
	TemplateRenewal       = "renewal"
	TemplateExpiryWarning = "expiry_warning"
	TemplateReactivation  = "reactivation"
)

// Notification сообщение для отправки клиенту, публикуется в очередь.
type Notification struct {
	ID       string            `json:"id"`
	Template string            `json:"template"`
	To       string            `json:"to"`
	Subject  string            `json:"subject"`
	Fields   map[string]string `json:"fields"`
}

// BulkResult итог массовой рассылки.
type BulkResult struct {
	Sent   int `json:"sent"`
	Failed int `json:"failed"`
	Total  int `json:"total"`
}
