package goIdentity

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// MaskEmail hides an email address for client display: the first two
// characters of the local part survive, the rest is starred, the domain
// is kept. Short local parts are starred entirely.
func MaskEmail(email string) string {
	at := strings.Index(email, "@")
	if at <= 0 {
		return email
	}

	local, domain := email[:at], email[at:]
	if len(local) <= 2 {
		return strings.Repeat("*", len(local)) + domain
	}
	return local[:2] + "****" + domain
}

// MaskPhone hides a phone number for client display: every digit but the
// last four is starred.
func MaskPhone(phone string) string {
	if len(phone) <= 4 {
		return phone
	}
	return strings.Repeat("*", len(phone)-4) + phone[len(phone)-4:]
}

// codePurpose selects the wording of a code message.
type codePurpose uint8

const (
	purposeVerification codePurpose = iota
	purposeReset
)

// deliverCode sends a code to destination over the channel implied by
// its classified kind and returns the receipt the caller echoes to the
// client. Transport failures surface as ErrDeliveryFailed; per-flow
// masking of that error is the caller's decision.
func (e *Engine) deliverCode(
	ctx context.Context,
	destination Identifier,
	code string,
	purpose codePurpose,
	expiresAt time.Time,
) (*DeliveryReceipt, error) {
	switch destination.Kind {
	case KindEmail:
		subject, body := e.emailMessage(code, purpose, expiresAt)
		if err := e.delivery.SendEmail(ctx, destination.Value, subject, body); err != nil {
			e.metricInc(MetricDeliveryFailure)
			return nil, fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
		}
		return &DeliveryReceipt{
			Method:            DeliveryEmail,
			MaskedDestination: MaskEmail(destination.Value),
			Identifier:        destination.Value,
			ExpiresAt:         expiresAt,
		}, nil
	case KindMobile:
		if err := e.delivery.SendSMS(ctx, destination.Value, e.smsMessage(code, purpose)); err != nil {
			e.metricInc(MetricDeliveryFailure)
			return nil, fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
		}
		return &DeliveryReceipt{
			Method:            DeliverySMS,
			MaskedDestination: MaskPhone(destination.Value),
			Identifier:        destination.Value,
			ExpiresAt:         expiresAt,
		}, nil
	default:
		return nil, &InvalidIdentifierError{Raw: destination.Value}
	}
}

func (e *Engine) emailMessage(code string, purpose codePurpose, expiresAt time.Time) (subject, body string) {
	minutes := int(time.Until(expiresAt).Round(time.Minute).Minutes())
	if minutes < 1 {
		minutes = 1
	}

	switch purpose {
	case purposeReset:
		subject = fmt.Sprintf("%s password reset code", e.config.Messaging.AppName)
		body = fmt.Sprintf("Your password reset code is %s. It expires in %d minutes.", code, minutes)
	default:
		subject = fmt.Sprintf("%s verification code", e.config.Messaging.AppName)
		body = fmt.Sprintf("Your verification code is %s. It expires in %d minutes.", code, minutes)
	}
	return subject, body
}

func (e *Engine) smsMessage(code string, purpose codePurpose) string {
	kind := "verification"
	if purpose == purposeReset {
		kind = "password reset"
	}

	body := fmt.Sprintf("<#> %s is your %s %s code.", code, e.config.Messaging.AppName, kind)
	if e.config.Messaging.SMSAppHash != "" {
		body += " " + e.config.Messaging.SMSAppHash
	}
	return body
}
