package appointment

import (
	"context"

	"github.com/healflow/healflow/internal/platform/notification"
	"github.com/healflow/healflow/pkg/calendar"
)

// MailNotifier emails the patient about bookings, cancellations and
// completed visits.
type MailNotifier struct {
	mgr *notification.Manager
}

func NewMailNotifier(mgr *notification.Manager) *MailNotifier {
	return &MailNotifier{mgr: mgr}
}

func templateData(a *Appointment) map[string]string {
	return map[string]string{
		"patient_name": a.PatientName,
		"doctor_name":  a.DoctorName,
		"department":   a.DepartmentName,
		"date":         calendar.HumanDate(a.Date),
		"time":         calendar.HumanClock(a.Time),
	}
}

func (n *MailNotifier) AppointmentBooked(ctx context.Context, a *Appointment) error {
	_, err := n.mgr.SendFromTemplate(ctx, notification.TemplateAppointmentBooked, templateData(a), a.PatientEmail)
	return err
}

func (n *MailNotifier) AppointmentCancelled(ctx context.Context, a *Appointment, by string) error {
	data := templateData(a)
	data["cancelled_by"] = by
	_, err := n.mgr.SendFromTemplate(ctx, notification.TemplateAppointmentCancelled, data, a.PatientEmail)
	return err
}

// VisitCompleted sends the visit summary PDF as an attachment.
func (n *MailNotifier) VisitCompleted(ctx context.Context, a *Appointment) error {
	pdf, err := RenderSummary(a, a.UpdatedAt)
	if err != nil {
		return err
	}
	_, err = n.mgr.SendFromTemplate(ctx, notification.TemplateVisitSummary, templateData(a), a.PatientEmail,
		notification.Attachment{Name: SummaryFilename(a), Data: pdf})
	return err
}
