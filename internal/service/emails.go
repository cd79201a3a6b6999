package service

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"html/template"
	"io"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"

	"github.com/ikyum/shopbridge/internal/config"
	"github.com/ikyum/shopbridge/internal/domain"
)

// mailSender abstracts the SMTP dialer so tests can capture messages
type mailSender interface {
	DialAndSend(m ...*gomail.Message) error
}

// EmailService sends the transactional mails: registration notification to
// staff, registration confirmation to the customer, and order
// confirmations.
type EmailService struct {
	cfg    config.SMTPConfig
	sender mailSender
	logger *zap.Logger
}

// NewEmailService creates an email service backed by an SMTP dialer
func NewEmailService(cfg config.SMTPConfig, logger *zap.Logger) *EmailService {
	return &EmailService{
		cfg:    cfg,
		sender: gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password),
		logger: logger,
	}
}

// NewEmailServiceWithSender creates an email service with a custom sender.
// Used by tests.
func NewEmailServiceWithSender(cfg config.SMTPConfig, sender mailSender, logger *zap.Logger) *EmailService {
	return &EmailService{cfg: cfg, sender: sender, logger: logger}
}

var registrationStaffTmpl = template.Must(template.New("registration_staff").Parse(`
<h2>Nouvelle inscription professionnelle</h2>
<table>
  <tr><td><b>Société</b></td><td>{{.Company}}</td></tr>
  <tr><td><b>Contact</b></td><td>{{.FirstName}} {{.LastName}}</td></tr>
  <tr><td><b>Email</b></td><td>{{.Email}}</td></tr>
  <tr><td><b>Téléphone</b></td><td>{{.Phone}}</td></tr>
  <tr><td><b>Adresse</b></td><td>{{.Address1}} {{.Address2}}, {{.Zip}} {{.City}}, {{.Country}}</td></tr>
  <tr><td><b>N° TVA</b></td><td>{{.VATNumber}}</td></tr>
  <tr><td><b>Message</b></td><td>{{.Message}}</td></tr>
</table>
<p>La ligne CSV est jointe à ce message.</p>
`))

var registrationConfirmTmpl = template.Must(template.New("registration_confirm").Parse(`
<h2>Votre demande a bien été reçue</h2>
<p>Bonjour {{.FirstName}},</p>
<p>Nous avons bien reçu la demande d'inscription professionnelle de
<b>{{.Company}}</b>. Notre équipe la traite sous 48h ouvrées et reviendra
vers vous à l'adresse {{.Email}}.</p>
<p>L'équipe Ikyum</p>
`))

var orderConfirmTmpl = template.Must(template.New("order_confirm").Parse(`
<h2>Confirmation de commande {{.Name}}</h2>
<p>Votre commande a bien été enregistrée.</p>
<table>
  {{range .LineItems}}<tr><td>{{.Title}}</td><td>x{{.Quantity}}</td><td>{{.Price}}</td></tr>
  {{end}}
  <tr><td><b>Total</b></td><td></td><td><b>{{.DisplayTotal}} {{.Currency}}</b></td></tr>
</table>
`))

// orderEmailData is the order confirmation template input. DisplayTotal is
// the upstream total when present, otherwise the sum of the line items.
type orderEmailData struct {
	*domain.Order
	DisplayTotal string
}

// SendRegistrationNotification mails the staff recipients with the form
// contents and a one-row CSV attachment
func (s *EmailService) SendRegistrationNotification(data *domain.RegistrationData) error {
	if len(s.cfg.RegistrationRecipients) == 0 {
		return fmt.Errorf("no registration recipients configured")
	}

	var body bytes.Buffer
	if err := registrationStaffTmpl.Execute(&body, data); err != nil {
		return fmt.Errorf("failed to render staff template: %w", err)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.cfg.From)
	m.SetHeader("To", s.cfg.RegistrationRecipients...)
	m.SetHeader("Subject", fmt.Sprintf("Inscription pro: %s", data.Company))
	m.SetBody("text/html", body.String())
	m.Attach("inscription.csv", gomail.SetCopyFunc(func(w io.Writer) error {
		cw := csv.NewWriter(w)
		if err := cw.Write(domain.CSVHeader()); err != nil {
			return err
		}
		if err := cw.Write(data.CSVRecord()); err != nil {
			return err
		}
		cw.Flush()
		return cw.Error()
	}))

	if err := s.sender.DialAndSend(m); err != nil {
		s.logger.Error("Failed to send registration notification", zap.Error(err))
		return err
	}
	return nil
}

// SendRegistrationConfirmation mails the applicant an acknowledgement
func (s *EmailService) SendRegistrationConfirmation(data *domain.RegistrationData) error {
	if data.Email == "" {
		return fmt.Errorf("registration has no email address")
	}

	var body bytes.Buffer
	if err := registrationConfirmTmpl.Execute(&body, data); err != nil {
		return fmt.Errorf("failed to render confirmation template: %w", err)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.cfg.From)
	m.SetHeader("To", data.Email)
	m.SetHeader("Subject", "Votre demande d'inscription professionnelle")
	m.SetBody("text/html", body.String())

	if err := s.sender.DialAndSend(m); err != nil {
		s.logger.Error("Failed to send registration confirmation",
			zap.String("to", data.Email),
			zap.Error(err),
		)
		return err
	}
	return nil
}

// SendOrderConfirmation mails an order recap to the given address
func (s *EmailService) SendOrderConfirmation(to string, order *domain.Order) error {
	if to == "" {
		to = order.Email
	}
	if to == "" {
		return fmt.Errorf("no recipient for order confirmation")
	}

	total := order.TotalPrice
	if total == "" {
		total = order.Subtotal().StringFixed(2)
	}

	var body bytes.Buffer
	if err := orderConfirmTmpl.Execute(&body, orderEmailData{Order: order, DisplayTotal: total}); err != nil {
		return fmt.Errorf("failed to render order template: %w", err)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.cfg.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", fmt.Sprintf("Confirmation de commande %s", order.Name))
	m.SetBody("text/html", body.String())

	if err := s.sender.DialAndSend(m); err != nil {
		s.logger.Error("Failed to send order confirmation",
			zap.String("to", to),
			zap.Int64("order_id", order.ID),
			zap.Error(err),
		)
		return err
	}
	return nil
}
