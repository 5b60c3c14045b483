package providers

import (
	"fitsink/internal/structures"
	"fmt"

	"github.com/gookit/validate"
)

type CnfValidator struct {
	conf *structures.Config
}

func NewCnfValidator(conf *structures.Config) *CnfValidator {
	return &CnfValidator{conf: conf}
}

// Validate checks the struct tags of every config section and a couple of
// cross-field rules the tags cannot express.
func (cv *CnfValidator) Validate() error {
	v := validate.Struct(cv.conf)
	if !v.Validate() {
		return v.Errors.OneError()
	}

	if cv.conf.IsProduction() {
		if cv.conf.Vital.WebhookSecret == "" {
			return fmt.Errorf("vital.webhookSecret is required in production")
		}
		if cv.conf.Terra.SigningSecret == "" {
			return fmt.Errorf("terra.signingSecret is required in production")
		}
		if cv.conf.Stripe.WebhookSecret == "" {
			return fmt.Errorf("stripe.webhookSecret is required in production")
		}
	}

	if cv.conf.Archive.Enabled && cv.conf.Archive.Dir == "" {
		return fmt.Errorf("archive.dir is required when the archive is enabled")
	}

	return nil
}
