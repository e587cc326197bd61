package services

import (
	"context"

	"github.com/taskflow/backend/internal/models"
	"github.com/taskflow/backend/pkg/logger"
	"gorm.io/gorm"
)

// NotificationService delivers mention notifications pulled off the queue.
type NotificationService struct {
	db         *gorm.DB
	activities *ActivityService
	email      *EmailService
	queue      NotificationQueue
}

func NewNotificationService(db *gorm.DB, activities *ActivityService, email *EmailService, queue NotificationQueue) *NotificationService {
	return &NotificationService{
		db:         db,
		activities: activities,
		email:      email,
		queue:      queue,
	}
}

// EnqueueMentionNotification implements Notifier.
func (s *NotificationService) EnqueueMentionNotification(activityID, userID uint) error {
	return s.queue.Enqueue(&NotificationTask{ActivityID: activityID, UserID: userID})
}

// Process delivers one mention notification: look up the mention, email the
// mentioned user and flag the mention as notified. Already-notified mentions
// are skipped so retries stay idempotent.
func (s *NotificationService) Process(ctx context.Context, task *NotificationTask) error {
	mention, activity, err := s.activities.GetMention(task.ActivityID, task.UserID)
	if err != nil {
		logger.Warn().Err(err).
			Uint("activity_id", task.ActivityID).
			Uint("user_id", task.UserID).
			Msg("Mention lookup failed")
		return nil
	}
	if mention.Notified {
		return nil
	}

	var recipient models.User
	if err := s.db.First(&recipient, task.UserID).Error; err != nil {
		return nil
	}
	if !recipient.IsActive {
		return nil
	}

	msg := &MentionEmail{
		RecipientName: recipient.Name,
		Message:       activity.Message,
	}
	if activity.User != nil {
		msg.ActorName = activity.User.Name
	}
	if activity.Workspace != nil {
		msg.WorkspaceName = activity.Workspace.Name
	}
	msg.Detail = activity.Metadata

	if err := s.email.SendMentionNotification(msg, recipient.Email); err != nil {
		// Leave the mention unnotified so a retry can pick it up
		return err
	}

	return s.activities.MarkMentionNotified(task.ActivityID, task.UserID)
}
