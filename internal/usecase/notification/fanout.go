package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/gigmarket-backend/internal/domain/entity"
	"github.com/ignatzorin/gigmarket-backend/internal/domain/event"
	"github.com/ignatzorin/gigmarket-backend/internal/domain/repository"
	"github.com/ignatzorin/gigmarket-backend/internal/domain/valueobject"
	"github.com/ignatzorin/gigmarket-backend/internal/goroutine"
	"github.com/ignatzorin/gigmarket-backend/internal/logger"
	"github.com/ignatzorin/gigmarket-backend/internal/pkg/retry"
)

// Pusher доставляет событие подключённым клиентам пользователя.
type Pusher interface {
	Push(ctx context.Context, userID uuid.UUID, event string, data any) error
}

var statusTitles = map[valueobject.ApplicationStatus]string{
	valueobject.ApplicationStatusAccepted:  "Отклик принят",
	valueobject.ApplicationStatusRejected:  "Отклик отклонён",
	valueobject.ApplicationStatusCancelled: "Участие в смене отменено",
	valueobject.ApplicationStatusCompleted: "Смена завершена",
}

// FanOutGigUseCase уведомляет исполнителей с подходящими навыками о новой смене.
type FanOutGigUseCase struct {
	userRepo  repository.UserRepository
	notifRepo repository.NotificationRepository
	pusher    Pusher
	policy    retry.Policy
}

func NewFanOutGigUseCase(userRepo repository.UserRepository, notifRepo repository.NotificationRepository, pusher Pusher, policy retry.Policy) *FanOutGigUseCase {
	return &FanOutGigUseCase{userRepo: userRepo, notifRepo: notifRepo, pusher: pusher, policy: policy}
}

// Execute возвращает число созданных уведомлений. Запись пачкой повторяется при временных сбоях.
func (uc *FanOutGigUseCase) Execute(ctx context.Context, e event.GigCreated) (int, error) {
	log := logger.WithComponent("notification").WithField("gig_id", e.GigID)

	var recipients []uuid.UUID
	err := retry.Do(ctx, uc.policy, func() error {
		var err error
		recipients, err = uc.userRepo.FindFreelancersBySkills(ctx, e.SkillIDs, e.EmployerID)
		return err
	}, nil)
	if err != nil {
		return 0, err
	}
	if len(recipients) == 0 {
		return 0, nil
	}

	now := time.Now()
	data := map[string]interface{}{
		"gig_id":   e.GigID.String(),
		"title":    e.Title,
		"location": e.Location,
		"start_at": e.StartAt.Format(time.RFC3339),
		"pay":      e.Pay,
	}
	items := make([]*entity.Notification, 0, len(recipients))
	for _, userID := range recipients {
		items = append(items, entity.NewNotification(userID, entity.NotificationNewGigMatch,
			"Новая смена по вашим навыкам",
			fmt.Sprintf("%s, %s", e.Title, e.Location),
			data, now))
	}

	err = retry.Do(ctx, uc.policy, func() error {
		return uc.notifRepo.CreateBatch(ctx, items)
	}, func(err error, next time.Duration) {
		log.WithError(err).WithField("retry_in", next).Warn("повтор записи уведомлений")
	})
	if err != nil {
		return 0, err
	}

	for _, n := range items {
		if err := uc.pusher.Push(ctx, n.UserID, n.Type, newView(n)); err != nil {
			log.WithError(err).WithField("user_id", n.UserID).Warn("не удалось отправить уведомление в реальном времени")
		}
	}

	log.WithField("recipients", len(items)).Info("исполнители уведомлены о новой смене")
	return len(items), nil
}

type NotifyApplicationStatusUseCase struct {
	notifRepo repository.NotificationRepository
	pusher    Pusher
	policy    retry.Policy
}

func NewNotifyApplicationStatusUseCase(notifRepo repository.NotificationRepository, pusher Pusher, policy retry.Policy) *NotifyApplicationStatusUseCase {
	return &NotifyApplicationStatusUseCase{notifRepo: notifRepo, pusher: pusher, policy: policy}
}

func (uc *NotifyApplicationStatusUseCase) Execute(ctx context.Context, e event.ApplicationStatusChanged) error {
	title, ok := statusTitles[e.Status]
	if !ok {
		return nil
	}
	body := e.GigTitle
	if e.Reason != nil && *e.Reason != "" {
		body = fmt.Sprintf("%s: %s", e.GigTitle, *e.Reason)
	}
	n := entity.NewNotification(e.FreelancerID, entity.NotificationApplicationStatusChanged, title, body, map[string]interface{}{
		"application_id": e.ApplicationID.String(),
		"gig_id":         e.GigID.String(),
		"status":         string(e.Status),
		"gig_status":     string(e.GigStatus),
	}, time.Now())

	if err := retry.Do(ctx, uc.policy, func() error { return uc.notifRepo.Create(ctx, n) }, nil); err != nil {
		return err
	}
	return uc.pusher.Push(ctx, n.UserID, n.Type, newView(n))
}

// Notifier реализует event.Publisher: доставка идёт в фоне и не задерживает ответ на запрос.
type Notifier struct {
	fanOut *FanOutGigUseCase
	status *NotifyApplicationStatusUseCase
	pusher Pusher
	tasks  goroutine.Group
}

var _ event.Publisher = (*Notifier)(nil)

func NewNotifier(fanOut *FanOutGigUseCase, status *NotifyApplicationStatusUseCase, pusher Pusher) *Notifier {
	return &Notifier{fanOut: fanOut, status: status, pusher: pusher}
}

func (n *Notifier) GigCreated(ctx context.Context, e event.GigCreated) {
	n.tasks.Go(ctx, "notify.gig_created", func(ctx context.Context) {
		if _, err := n.fanOut.Execute(ctx, e); err != nil {
			logger.WithComponent("notification").WithFields(logrus.Fields{
				"gig_id": e.GigID,
				"error":  err.Error(),
			}).Error("рассылка о новой смене не удалась")
		}
	})
}

func (n *Notifier) ApplicationStatusChanged(ctx context.Context, e event.ApplicationStatusChanged) {
	n.tasks.Go(ctx, "notify.application_status", func(ctx context.Context) {
		if err := n.status.Execute(ctx, e); err != nil {
			logger.WithComponent("notification").WithFields(logrus.Fields{
				"application_id": e.ApplicationID,
				"error":          err.Error(),
			}).Error("уведомление о статусе отклика не доставлено")
		}
	})
}

// MessageCreated только пушит событие получателю: сообщения хранятся в беседе.
func (n *Notifier) MessageCreated(ctx context.Context, e event.MessageCreated) {
	n.tasks.Go(ctx, "notify.message_created", func(ctx context.Context) {
		if err := n.pusher.Push(ctx, e.RecipientID, entity.NotificationMessageCreated, e); err != nil {
			logger.WithComponent("notification").WithError(err).Warn("не удалось отправить сообщение в реальном времени")
		}
	})
}

// Wait дожидается завершения фоновых доставок.
func (n *Notifier) Wait() {
	n.tasks.Wait()
}
