package bootstrap

import (
	appconfig "github.com/wolfman30/nail-studio-api/internal/config"
	"github.com/wolfman30/nail-studio-api/internal/notify"
	"github.com/wolfman30/nail-studio-api/pkg/logging"
)

// BuildEmailSender selects the outbound email provider. It returns the sender
// and the provider name actually in use. Misconfigured providers degrade to the
// logging stub.
func BuildEmailSender(cfg *appconfig.Config, ses notify.SESAPI, logger *logging.Logger) (notify.EmailSender, string) {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg == nil {
		return notify.NewStubEmailSender(logger), "stub"
	}

	switch cfg.EmailProvider {
	case "sendgrid":
		sender := notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.SendGridFromEmail,
			FromName:  cfg.SendGridFromName,
		}, logger)
		if sender != nil {
			return sender, "sendgrid"
		}
		logger.Warn("SENDGRID_API_KEY not set; emails will only be logged")
	case "ses":
		sender := notify.NewSESSender(ses, notify.SESConfig{
			FromEmail: cfg.SESFromEmail,
			FromName:  cfg.SendGridFromName,
		}, logger)
		if sender != nil && cfg.SESFromEmail != "" {
			return sender, "ses"
		}
		logger.Warn("SES is not fully configured; emails will only be logged")
	case "", "none", "stub":
	default:
		logger.Warn("unknown email provider; emails will only be logged", "provider", cfg.EmailProvider)
	}
	return notify.NewStubEmailSender(logger), "stub"
}
