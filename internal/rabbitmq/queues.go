package rabbitmq

const (
	// Exchange общий обменник уведомлений.
	Exchange = "notifications"
	// EmailRoutingKey ключ маршрутизации писем клиентам.
	EmailRoutingKey = "email"
	// EmailQueue очередь, которую читает отправитель писем.
	EmailQueue = "notifications.email"

	prefetch = 10
)

// QueueConfig очередь и ключ, которым она привязана к Exchange.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// GetNotificationQueues очереди, объявляемые каждым процессом при старте.
func GetNotificationQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: EmailQueue, RoutingKey: EmailRoutingKey},
	}
}
