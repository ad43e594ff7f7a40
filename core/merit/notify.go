package merit

import (
	"net/mail"

	"github.com/trezcool/meritlist/core"
)

const (
	submissionTemplate = "merit_submission"
	validationTemplate = "merit_validation"
	reminderTemplate   = "validation_reminder"
)

// notifier builds the merit emails. Delivery is best-effort: the EmailService logs its own failures.
type notifier struct {
	mailer core.EmailService
}

func recipients(emails ...string) []mail.Address {
	addrs := make([]mail.Address, 0, len(emails))
	seen := make(map[string]bool)
	for _, email := range emails {
		email = core.CleanString(email, true /* lower */)
		if email == "" || seen[email] {
			continue
		}
		seen[email] = true
		addrs = append(addrs, mail.Address{Address: email})
	}
	return addrs
}

func (n notifier) send(msg *core.EmailMessage) bool {
	if n.mailer == nil || len(msg.To) == 0 {
		return false
	}
	n.mailer.SendMessages(msg)
	return true
}

func (n notifier) submissionReceived(s Submission) bool {
	return n.send(&core.EmailMessage{
		To:           recipients(s.ApplicantEmail),
		Subject:      "Merit Score Submitted - " + s.ApplicantName,
		Reference:    "merit_submission:" + s.ID,
		TemplateName: submissionTemplate,
		TemplateData: s,
	})
}

func (n notifier) validationUpdated(s Submission, validatorEmail string) bool {
	return n.send(&core.EmailMessage{
		To:           recipients(s.ApplicantEmail, validatorEmail),
		Subject:      "Merit Score Validation Update - " + s.ApplicantName,
		Reference:    "merit_submission:" + s.ID,
		TemplateName: validationTemplate,
		TemplateData: s,
	})
}

func (n notifier) validationReminder(v Validation) bool {
	return n.send(&core.EmailMessage{
		To:           recipients(v.ValidatorEmail),
		Subject:      "Pending Merit Score Validation - " + v.ApplicantName,
		Reference:    "merit_validation:" + v.ID,
		TemplateName: reminderTemplate,
		TemplateData: v,
	})
}
