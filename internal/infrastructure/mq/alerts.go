package mq

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"admitpredict/internal/model"
)

// LedgerAlertPublisher publishes audit-append failures to the ledger
// alert topic. The publish itself is best-effort: if Kafka is also
// down, the failure is still in the server log, never swallowed.
type LedgerAlertPublisher struct {
	topic string
}

func NewLedgerAlertPublisher(topic string) *LedgerAlertPublisher {
	return &LedgerAlertPublisher{topic: topic}
}

func (p *LedgerAlertPublisher) PublishAuditFailure(trans *model.CreditTransaction, cause error) {
	payload, _ := json.Marshal(map[string]interface{}{
		"alert":          "ledger.audit_append_failed",
		"user_id":        trans.UserID,
		"credits_delta":  trans.CreditsDelta,
		"type":           trans.Type,
		"payment_id":     trans.PaymentID,
		"transaction_no": trans.TransactionNo,
		"cause":          cause.Error(),
		"ts":             time.Now().UTC().Format(time.RFC3339),
	})

	key := fmt.Sprintf("user-%d", trans.UserID)
	if err := SendMessage(p.topic, key, string(payload)); err != nil {
		log.Printf("[LedgerAlert] publish failed: userID=%d cause=%v publishErr=%v",
			trans.UserID, cause, err)
	}
}
