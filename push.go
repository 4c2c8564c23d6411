package goIdentity

import "context"

// notifyPush delivers a best-effort push notification. Failures are
// recorded in metrics and audit but never propagate to the caller.
func (e *Engine) notifyPush(ctx context.Context, accountID, title, body string, data map[string]string) {
	if e.push == nil {
		return
	}

	if _, err := e.push.SendPush(ctx, accountID, title, body, data); err != nil {
		e.metricInc(MetricPushFailure)
		e.emitAudit(ctx, auditEventPushFailure, false, accountID, nil, func() map[string]string {
			return map[string]string{"title": title}
		})
	}
}
