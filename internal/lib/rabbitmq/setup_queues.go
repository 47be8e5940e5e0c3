package rabbitmq

// QueueConfig связывает очередь с ключом маршрутизации в exchange "notifications".
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// EmailQueue — очередь писем, которые публикует API и забирает notification-sender.
const EmailQueue = "notification.email"

// EmailRoutingKey — ключ маршрутизации для писем.
const EmailRoutingKey = "email"

// NotificationsExchange — имя direct exchange для уведомлений.
const NotificationsExchange = "notifications"

// GetNotificationQueues возвращает очереди, которые должны существовать
// до старта публикации и потребления.
func GetNotificationQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: EmailQueue, RoutingKey: EmailRoutingKey},
	}
}
