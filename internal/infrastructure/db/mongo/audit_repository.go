package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/launchbase/auth-platform/internal/core/domain"
)

const auditCollection = "auth_audit"

// AuditRepository stores auth audit events.
type AuditRepository struct {
	coll *mongo.Collection
}

func NewAuditRepository(db *mongo.Database) *AuditRepository {
	return &AuditRepository{coll: db.Collection(auditCollection)}
}

type mongoAuthEvent struct {
	Type      string `bson:"type"`
	Email     string `bson:"email"`
	UserID    string `bson:"user_id,omitempty"`
	Success   bool   `bson:"success"`
	Reason    string `bson:"reason,omitempty"`
	IP        string `bson:"ip,omitempty"`
	Timestamp int64  `bson:"timestamp"`
}

func (r *AuditRepository) Insert(ctx context.Context, event domain.AuthEvent) error {
	doc := mongoAuthEvent{
		Type:      string(event.Type),
		Email:     event.Email,
		UserID:    event.UserID,
		Success:   event.Success,
		Reason:    event.Reason,
		IP:        event.IP,
		Timestamp: event.Timestamp.Unix(),
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

func (r *AuditRepository) ListByEmail(ctx context.Context, email string, limit int) ([]domain.AuthEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(int64(limit))

	cur, err := r.coll.Find(ctx, bson.M{"email": email}, opts)
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer cur.Close(ctx)

	var events []domain.AuthEvent
	for cur.Next(ctx) {
		var me mongoAuthEvent
		if err := cur.Decode(&me); err != nil {
			return nil, fmt.Errorf("decode audit event: %w", err)
		}
		events = append(events, domain.AuthEvent{
			Type:      domain.AuthEventType(me.Type),
			Email:     me.Email,
			UserID:    me.UserID,
			Success:   me.Success,
			Reason:    me.Reason,
			IP:        me.IP,
			Timestamp: time.Unix(me.Timestamp, 0).UTC(),
		})
	}
	return events, cur.Err()
}
