package directory

import (
	"context"

	"github.com/healflow/healflow/internal/platform/notification"
)

// MailNotifier sends the welcome email to newly registered patients.
type MailNotifier struct {
	mgr *notification.Manager
}

func NewMailNotifier(mgr *notification.Manager) *MailNotifier {
	return &MailNotifier{mgr: mgr}
}

func (n *MailNotifier) PatientRegistered(ctx context.Context, p *Patient) error {
	_, err := n.mgr.SendFromTemplate(ctx, notification.TemplateWelcome, map[string]string{
		"name":     p.FullName,
		"username": p.Username,
	}, p.Email)
	return err
}
