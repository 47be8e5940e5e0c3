package rabbitmq

import (
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/dedoc-backend/internal/models"
)

// EmailPublisher публикует почтовые задания в очередь уведомлений.
type EmailPublisher struct {
	ch *amqp.Channel
}

// NewEmailPublisher создает новый EmailPublisher поверх открытого канала.
func NewEmailPublisher(ch *amqp.Channel) *EmailPublisher {
	return &EmailPublisher{ch: ch}
}

// PublishEmail отправляет задание на отправку письма.
func (p *EmailPublisher) PublishEmail(msg models.EmailMessage) error {
	return PublishMessage(p.ch, NotificationsExchange, EmailRoutingKey, msg)
}
