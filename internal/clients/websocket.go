package clients

import (
	"context"
	"fmt"

	"campus-billing/internal/domain"
	"campus-billing/internal/money"
	ws "campus-billing/internal/transport/websocket"
)

// WebSocketClient pushes billing events to connected actors. All methods are
// best-effort; a failed or dropped notification never fails the billing
// operation that triggered it.
type WebSocketClient struct {
	hub *ws.Hub
}

func NewWebSocketClient(hub *ws.Hub) *WebSocketClient {
	return &WebSocketClient{
		hub: hub,
	}
}

func (c *WebSocketClient) NotifyPaymentApplied(ctx context.Context, studentID string, result *domain.PaymentResult) error {
	if c.hub == nil {
		return nil
	}

	channel := fmt.Sprintf("notify_student_payment_applied#%s", studentID)
	message := &ws.Message{
		Type:    "payment_applied",
		Channel: channel,
		Data: map[string]interface{}{
			"target_bill_id":            result.TargetBillID,
			"settled_bill_ids":          result.SettledBillIDs,
			"partially_applied_bill_id": result.PartiallyAppliedBillID,
			"unabsorbed_credit":         result.UnabsorbedCredit.String(),
			"transaction_ref":           result.TransactionRef,
		},
	}

	c.hub.Broadcast(studentID, message)
	return nil
}

func (c *WebSocketClient) NotifyScheduleGenerated(ctx context.Context, studentID, enrollmentID string, installments int, total money.Amount) error {
	if c.hub == nil {
		return nil
	}

	channel := fmt.Sprintf("notify_student_schedule_generated#%s", studentID)
	message := &ws.Message{
		Type:    "schedule_generated",
		Channel: channel,
		Data: map[string]interface{}{
			"enrollment_id": enrollmentID,
			"installments":  installments,
			"total":         total.String(),
		},
	}

	c.hub.Broadcast(studentID, message)
	return nil
}

func (c *WebSocketClient) NotifyStatementProgress(
	ctx context.Context,
	actorID string,
	exportID string,
	progress float64,
	stage string,
) error {
	if c.hub == nil {
		return nil
	}

	channel := fmt.Sprintf("notify_actor_of_statement_progress#%s", actorID)
	data := map[string]interface{}{
		"id":       exportID,
		"progress": progress,
	}
	if stage != "" {
		data["stage"] = stage
	}

	message := &ws.Message{
		Type:    "statement_progress",
		Channel: channel,
		Data:    data,
	}

	c.hub.Broadcast(actorID, message)
	return nil
}

func (c *WebSocketClient) NotifyStatementComplete(
	ctx context.Context,
	actorID string,
	exportID string,
	url string,
	filename string,
) error {
	if c.hub == nil {
		return nil
	}

	channel := fmt.Sprintf("notify_actor_when_statement_complete#%s", actorID)
	message := &ws.Message{
		Type:    "statement_complete",
		Channel: channel,
		Data: map[string]interface{}{
			"id":       exportID,
			"url":      url,
			"filename": filename,
			"actor_id": actorID,
		},
	}

	c.hub.Broadcast(actorID, message)
	return nil
}

// NotifyStatementFailed notifies an actor that a statement export failed.
func (c *WebSocketClient) NotifyStatementFailed(ctx context.Context, actorID string, exportID string, errMsg string) error {
	if c.hub == nil {
		return nil
	}

	channel := fmt.Sprintf("notify_actor_when_statement_failed#%s", actorID)
	message := &ws.Message{
		Type:    "statement_failed",
		Channel: channel,
		Data: map[string]interface{}{
			"id":       exportID,
			"message":  errMsg,
			"actor_id": actorID,
		},
	}

	c.hub.Broadcast(actorID, message)
	return nil
}
