package services

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AuditFact is a before/after description of one mutating operation,
// sufficient for an external audit-log collaborator to reconstruct a record.
// The core does not define the persisted audit format.
type AuditFact struct {
	ID      string             `json:"id"`
	Action  string             `json:"action"`
	ActorID primitive.ObjectID `json:"actorId"`
	Subject primitive.ObjectID `json:"subject"`
	Before  interface{}        `json:"before,omitempty"`
	After   interface{}        `json:"after,omitempty"`
	At      time.Time          `json:"at"`
}

// AuditSink receives audit facts from mutating operations. Sinks must not
// block; persistence belongs to the collaborator behind the sink.
type AuditSink func(ctx context.Context, fact AuditFact)

// NewAuditFact stamps a fact with a fresh id and timestamp.
func NewAuditFact(action string, actorID, subject primitive.ObjectID, before, after interface{}) AuditFact {
	return AuditFact{
		ID:      uuid.NewString(),
		Action:  action,
		ActorID: actorID,
		Subject: subject,
		Before:  before,
		After:   after,
		At:      time.Now(),
	}
}

// LogAuditSink writes facts to the process log. Used when no external audit
// collaborator is wired.
func LogAuditSink(ctx context.Context, fact AuditFact) {
	log.Printf("audit %s action=%s actor=%s subject=%s", fact.ID, fact.Action, fact.ActorID.Hex(), fact.Subject.Hex())
}
