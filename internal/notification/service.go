package notification

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/cotizapp/cotiz/internal/cotisation"
)

// Common errors
var (
	ErrNotificationNotFound = errors.New("notification not found")
	ErrNotRecipient         = errors.New("not the recipient of this notification")
	ErrUnknownTier          = errors.New("unknown reminder tier")
)

// ReminderMailer emails overdue reminders. Fire-and-forget.
type ReminderMailer interface {
	SendReminder(ctx context.Context, memberID int64, message string)
}

// Service handles notification business logic
type Service struct {
	repo        *Repository
	cotisations *cotisation.Service
	mailer      ReminderMailer
	now         func() time.Time
}

// NewService creates a new notification service. mailer may be nil.
func NewService(repo *Repository, cotisations *cotisation.Service, mailer ReminderMailer) *Service {
	return &Service{
		repo:        repo,
		cotisations: cotisations,
		mailer:      mailer,
		now:         time.Now,
	}
}

// Create creates a new notification
func (s *Service) Create(ctx context.Context, recipientID int64, message string, entityType *string, entityID *int64) (*Notification, error) {
	return s.repo.Create(ctx, recipientID, message, entityType, entityID)
}

// GetByID retrieves a notification by its ID
func (s *Service) GetByID(ctx context.Context, id int64) (*Notification, error) {
	notification, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if notification == nil {
		return nil, ErrNotificationNotFound
	}
	return notification, nil
}

// ListByRecipientID retrieves all notifications for a member
func (s *Service) ListByRecipientID(ctx context.Context, recipientID int64, page, perPage int, unreadOnly bool) ([]*Notification, int, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	offset := (page - 1) * perPage
	return s.repo.ListByRecipientID(ctx, recipientID, perPage, offset, unreadOnly)
}

// MarkAsRead marks a notification as read
func (s *Service) MarkAsRead(ctx context.Context, id, memberID int64) error {
	notification, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if notification == nil {
		return ErrNotificationNotFound
	}
	if notification.RecipientID != memberID {
		return ErrNotRecipient
	}

	return s.repo.MarkAsRead(ctx, id)
}

// MarkAllAsRead marks all notifications as read for a member
func (s *Service) MarkAllAsRead(ctx context.Context, memberID int64) error {
	return s.repo.MarkAllAsRead(ctx, memberID)
}

// GetUnreadCount returns the count of unread notifications
func (s *Service) GetUnreadCount(ctx context.Context, memberID int64) (int, error) {
	return s.repo.GetUnreadCount(ctx, memberID)
}

// PaymentRecorded notifies a member that money landed on their cotisation.
// Part of the cotisation notifier contract; errors are swallowed here.
func (s *Service) PaymentRecorded(ctx context.Context, c *cotisation.Cotisation, amount float64) {
	message := fmt.Sprintf("Payment of %.2f recorded on your cotisation (remaining %.2f)", amount, c.Remaining())
	entityType := "COTISATION"
	if _, err := s.repo.Create(ctx, c.MemberID, message, &entityType, &c.ID); err != nil {
		log.Printf("failed to create payment notification: %v", err)
	}
}

// CotisationSettled notifies a member that their cotisation is fully paid.
func (s *Service) CotisationSettled(ctx context.Context, c *cotisation.Cotisation) {
	message := fmt.Sprintf("Your cotisation of %.2f is fully paid. Thank you!", c.AmountDue)
	entityType := "COTISATION"
	if _, err := s.repo.Create(ctx, c.MemberID, message, &entityType, &c.ID); err != nil {
		log.Printf("failed to create settlement notification: %v", err)
	}
}

// ReminderRequest filters which overdue cotisations get a reminder.
type ReminderRequest struct {
	Tier      ReminderTier `json:"tier"`
	MinDays   int          `json:"min_days,omitempty"`   // custom tier only
	MaxDays   int          `json:"max_days,omitempty"`   // custom tier only, 0 = unbounded
	MinAmount float64      `json:"min_amount,omitempty"` // skip balances below this
	Message   *string      `json:"message,omitempty"`    // custom tier only
}

// ReminderResult reports how many reminders went out.
type ReminderResult struct {
	Matched int `json:"matched"`
	Sent    int `json:"sent"`
}

// SendReminders walks the overdue cotisations and notifies every member whose
// item falls in the tier's days-overdue window. Each reminder is an in-app
// notification plus an email when a mailer is wired.
func (s *Service) SendReminders(ctx context.Context, req *ReminderRequest) (*ReminderResult, error) {
	window, ok := tierWindows[req.Tier]
	if !ok {
		if req.Tier != TierCustom {
			return nil, ErrUnknownTier
		}
		window = tierWindow{MinDays: req.MinDays, MaxDays: req.MaxDays}
	}
	if window.MinDays < 1 {
		window.MinDays = 1
	}

	overdue, err := s.cotisations.ListOverdue(ctx)
	if err != nil {
		return nil, err
	}

	today := s.now()
	result := &ReminderResult{}
	entityType := "COTISATION"
	for _, c := range overdue {
		days := c.DaysOverdue(today)
		if !window.matches(days) {
			continue
		}
		if req.MinAmount > 0 && c.Remaining() < req.MinAmount {
			continue
		}
		result.Matched++

		message := reminderMessage(req.Tier, days, c.Remaining())
		if req.Message != nil && *req.Message != "" {
			message = *req.Message
		}
		if _, err := s.repo.Create(ctx, c.MemberID, message, &entityType, &c.ID); err != nil {
			log.Printf("failed to create reminder for cotisation %d: %v", c.ID, err)
			continue
		}
		if s.mailer != nil {
			s.mailer.SendReminder(ctx, c.MemberID, message)
		}
		result.Sent++
	}
	return result, nil
}

func reminderMessage(tier ReminderTier, days int, remaining float64) string {
	switch tier {
	case TierSecond:
		return fmt.Sprintf("Second reminder: your cotisation of %.2f is %d days overdue", remaining, days)
	case TierFinal:
		return fmt.Sprintf("Final notice: your cotisation of %.2f is %d days overdue. Please settle or contact your group manager", remaining, days)
	default:
		return fmt.Sprintf("Reminder: your cotisation of %.2f is %d days overdue", remaining, days)
	}
}
