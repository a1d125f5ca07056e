// Package notifications sends email notices for access review decisions.
// Delivery is best effort: failures are logged and never fail the request
// that triggered them.
package notifications

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"staffcore/internal/platform/config"
)

type Mailer interface {
	Send(ctx context.Context, from, to, subject, body string) error
}

type Service struct {
	mailer Mailer
	from   string
}

func NewService(cfg config.Config, mailer Mailer) *Service {
	return &Service{mailer: mailer, from: cfg.EmailFrom}
}

// AccessDecision notifies the requester that their access request was
// approved or rejected.
func (s *Service) AccessDecision(to, routeName, actionName, status string) {
	subject := fmt.Sprintf("Access request %s", status)
	body := fmt.Sprintf("Your request for action %q on route %q has been %s.", actionName, routeName, status)
	s.send(to, subject, body)
}

// AccountVerified notifies a newly verified admin that their registration
// was accepted.
func (s *Service) AccountVerified(to, role string) {
	subject := "Registration approved"
	body := fmt.Sprintf("Your account has been verified with the %s role. You can now sign in.", role)
	s.send(to, subject, body)
}

func (s *Service) send(to, subject, body string) {
	if to == "" {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := s.mailer.Send(ctx, s.from, to, subject, body); err != nil {
			slog.Warn("notification send failed", "to", to, "subject", subject, "err", err)
		}
	}()
}
