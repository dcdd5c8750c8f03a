package ports

import "github.com/oreforge/oreforge-server/internal/core/models"

type Notifier interface {
	Publish(event models.Notification)
}
