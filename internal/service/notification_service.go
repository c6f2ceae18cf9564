package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/shopspring/decimal"
	"github.com/zeroup-initiative/partner-backend/internal/model"
	"github.com/zeroup-initiative/partner-backend/internal/notify"
	"github.com/zeroup-initiative/partner-backend/internal/repository"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	linkContributions = "/contributions"
	linkProjects      = "/projects"
	linkDashboard     = "/dashboard"

	subscriptionLimit = 100
)

type NotificationService interface {
	Create(ctx context.Context, userUID string, typ model.NotificationType, title, msg string, link *string, metadata map[string]interface{}) (uint64, error)
	List(ctx context.Context, userUID string, unreadOnly bool, limit int) ([]model.Notification, int64, error)
	Subscribe(ctx context.Context, userUID string, onChange func([]model.Notification, error)) (cancel func())
	SubscribeUnreadCount(ctx context.Context, userUID string, onChange func(int64, error)) (cancel func())
	UnreadCount(ctx context.Context, userUID string) (int64, error)
	MarkAsRead(ctx context.Context, userUID string, id uint64) error
	MarkAllAsRead(ctx context.Context, userUID string) (int64, error)
	Delete(ctx context.Context, userUID string, id uint64) error

	ContributionApproved(ctx context.Context, userUID string, amount decimal.Decimal, projectName string) (uint64, error)
	ContributionRejected(ctx context.Context, userUID string, amount decimal.Decimal, reason string) (uint64, error)
	NewProject(ctx context.Context, userUID string, projectTitle string) (uint64, error)
	BadgeEarned(ctx context.Context, userUID string, badgeName string) (uint64, error)
	SystemMessage(ctx context.Context, userUID string, title, msg string) (uint64, error)
	BroadcastNewProject(ctx context.Context, userUIDs []string, projectTitle string) (int, error)
}

type notificationService struct {
	repo   repository.NotificationRepository
	broker notify.Broker
}

func NewNotificationService(repo repository.NotificationRepository, broker notify.Broker) NotificationService {
	return &notificationService{repo: repo, broker: broker}
}

// Create stores an unread notification and wakes the owner's live views.
func (s *notificationService) Create(ctx context.Context, userUID string, typ model.NotificationType, title, msg string, link *string, metadata map[string]interface{}) (uint64, error) {
	if userUID == "" || typ == "" {
		return 0, errors.New("user and type are required")
	}
	n := &model.Notification{
		UserUID: userUID,
		Type:    typ,
		Title:   title,
		Message: msg,
		Link:    link,
	}
	if metadata != nil {
		n.Metadata = datatypes.JSONMap(metadata)
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return 0, fmt.Errorf("create notification: %w", err)
	}
	s.touch(ctx, userUID)
	return n.ID, nil
}

func (s *notificationService) List(ctx context.Context, userUID string, unreadOnly bool, limit int) ([]model.Notification, int64, error) {
	if userUID == "" {
		return nil, 0, nil
	}
	list, err := s.repo.ListByUser(ctx, userUID, unreadOnly, limit)
	if err != nil {
		return nil, 0, err
	}
	cnt, err := s.repo.CountUnread(ctx, userUID)
	if err != nil {
		return list, 0, err
	}
	return list, cnt, nil
}

// Subscribe delivers the user's notifications, newest first, now and after
// every change. Load failures are handed to onChange rather than returned.
func (s *notificationService) Subscribe(ctx context.Context, userUID string, onChange func([]model.Notification, error)) func() {
	return s.watch(ctx, userUID, func() {
		list, err := s.repo.ListByUser(ctx, userUID, false, subscriptionLimit)
		if err != nil {
			onChange([]model.Notification{}, err)
			return
		}
		onChange(list, nil)
	})
}

func (s *notificationService) SubscribeUnreadCount(ctx context.Context, userUID string, onChange func(int64, error)) func() {
	return s.watch(ctx, userUID, func() {
		onChange(s.repo.CountUnread(ctx, userUID))
	})
}

func (s *notificationService) UnreadCount(ctx context.Context, userUID string) (int64, error) {
	return s.repo.CountUnread(ctx, userUID)
}

func (s *notificationService) MarkAsRead(ctx context.Context, userUID string, id uint64) error {
	if _, err := s.owned(ctx, userUID, id); err != nil {
		return err
	}
	if err := s.repo.MarkRead(ctx, id); err != nil {
		return err
	}
	s.touch(ctx, userUID)
	return nil
}

func (s *notificationService) MarkAllAsRead(ctx context.Context, userUID string) (int64, error) {
	if userUID == "" {
		return 0, nil
	}
	n, err := s.repo.MarkAllRead(ctx, userUID)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.touch(ctx, userUID)
	}
	return n, nil
}

func (s *notificationService) Delete(ctx context.Context, userUID string, id uint64) error {
	if _, err := s.owned(ctx, userUID, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.touch(ctx, userUID)
	return nil
}

func (s *notificationService) ContributionApproved(ctx context.Context, userUID string, amount decimal.Decimal, projectName string) (uint64, error) {
	title, msg := ApprovedText(amount, projectName)
	return s.Create(ctx, userUID, model.NotificationContributionApproved, title, msg, strPtr(linkContributions), nil)
}

func (s *notificationService) ContributionRejected(ctx context.Context, userUID string, amount decimal.Decimal, reason string) (uint64, error) {
	title, msg := RejectedText(amount, reason)
	return s.Create(ctx, userUID, model.NotificationContributionRejected, title, msg, strPtr(linkContributions), nil)
}

func (s *notificationService) NewProject(ctx context.Context, userUID string, projectTitle string) (uint64, error) {
	title, msg := NewProjectText(projectTitle)
	return s.Create(ctx, userUID, model.NotificationNewProject, title, msg, strPtr(linkProjects), nil)
}

func (s *notificationService) BadgeEarned(ctx context.Context, userUID string, badgeName string) (uint64, error) {
	title, msg := BadgeEarnedText(badgeName)
	return s.Create(ctx, userUID, model.NotificationBadgeEarned, title, msg, strPtr(linkDashboard), nil)
}

func (s *notificationService) SystemMessage(ctx context.Context, userUID string, title, msg string) (uint64, error) {
	return s.Create(ctx, userUID, model.NotificationSystem, title, msg, nil, nil)
}

// BroadcastNewProject writes one new_project notification per user in a
// single batch and returns how many were written.
func (s *notificationService) BroadcastNewProject(ctx context.Context, userUIDs []string, projectTitle string) (int, error) {
	title, msg := NewProjectText(projectTitle)
	list := make([]model.Notification, 0, len(userUIDs))
	for _, uid := range userUIDs {
		if uid == "" {
			continue
		}
		list = append(list, model.Notification{
			UserUID: uid,
			Type:    model.NotificationNewProject,
			Title:   title,
			Message: msg,
			Link:    strPtr(linkProjects),
		})
	}
	if err := s.repo.CreateBatch(ctx, list); err != nil {
		return 0, fmt.Errorf("broadcast new project: %w", err)
	}
	for _, n := range list {
		s.touch(ctx, n.UserUID)
	}
	return len(list), nil
}

func (s *notificationService) owned(ctx context.Context, userUID string, id uint64) (*model.Notification, error) {
	n, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if n.UserUID != userUID {
		return nil, ErrForbidden
	}
	return n, nil
}

func (s *notificationService) watch(ctx context.Context, userUID string, fn func()) func() {
	cancel := s.broker.Watch(notify.NotificationsKey(userUID), fn)
	if done := ctx.Done(); done != nil {
		go func() {
			<-done
			cancel()
		}()
	}
	return cancel
}

func (s *notificationService) touch(ctx context.Context, userUID string) {
	if err := s.broker.Touch(ctx, notify.NotificationsKey(userUID)); err != nil {
		log.Printf("[notification] touch failed uid=%s err=%v", userUID, err)
	}
}

var printer = message.NewPrinter(language.English)

// FormatNaira renders amount with thousands separators, e.g. "5,000" or
// "2,500.5".
func FormatNaira(amount decimal.Decimal) string {
	return printer.Sprint(number.Decimal(amount.InexactFloat64(), number.MaxFractionDigits(2)))
}

func ApprovedText(amount decimal.Decimal, projectName string) (string, string) {
	title := "Contribution Approved! ✅"
	if projectName != "" {
		return title, fmt.Sprintf("Your contribution of ₦%s to \"%s\" has been verified.", FormatNaira(amount), projectName)
	}
	return title, fmt.Sprintf("Your contribution of ₦%s has been verified.", FormatNaira(amount))
}

func RejectedText(amount decimal.Decimal, reason string) (string, string) {
	title := "Contribution Not Approved"
	if reason != "" {
		return title, fmt.Sprintf("Your contribution of ₦%s was not approved. Reason: %s", FormatNaira(amount), reason)
	}
	return title, fmt.Sprintf("Your contribution of ₦%s was not approved. Please contact support.", FormatNaira(amount))
}

func NewProjectText(projectTitle string) (string, string) {
	return "New Project Available! 🎉", fmt.Sprintf("Check out our new project: \"%s\". Your contribution can make a difference!", projectTitle)
}

func BadgeEarnedText(badgeName string) (string, string) {
	return "Badge Earned! 🏆", fmt.Sprintf("Congratulations! You've earned the \"%s\" badge.", badgeName)
}

func strPtr(s string) *string {
	return &s
}
