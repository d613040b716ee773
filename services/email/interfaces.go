package email

type EmailSender interface {
	SendEmail(to, subject, htmlBody, plainBody string) error
	SendNewsletterConfirmation(to string) error
	SendActivationReceipt(to string, receipt Receipt) error
}
