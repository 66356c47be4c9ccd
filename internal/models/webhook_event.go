// internal/models/webhook_event.go
package models

// WebhookEvent records every payment-provider event we accepted, with the
// outcome of processing it. It exists for manual reconciliation; settlement
// idempotency itself rests on the Transaction row's persisted status, which
// survives restarts and multiple instances.
type WebhookEvent struct {
	BaseModel
	ProviderEventID string `json:"provider_event_id" gorm:"size:255;not null;index"`
	EventType       string `json:"event_type" gorm:"size:100;not null;index"`
	SessionID       string `json:"session_id" gorm:"size:255;index"`
	Outcome         string `json:"outcome" gorm:"size:50;not null"`
	Detail          string `json:"detail,omitempty" gorm:"type:text"`
}
