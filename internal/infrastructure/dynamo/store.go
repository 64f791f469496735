// Package dynamo is the remote document-store backend. It relies on
// DynamoDB's per-item atomicity instead of a process-level mutex; a write to
// one record is all-or-nothing without serializing unrelated operations.
package dynamo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-secret-switch/internal/config"
	"github.com/go-secret-switch/internal/domain"
	"github.com/go-secret-switch/internal/pkg/clock"
	"github.com/go-secret-switch/internal/pkg/id"
)

const (
	fieldRevealed            = "revealed"
	fieldOwnerNotifiedOn     = "owner_notified_on"
	fieldRecipientNotifiedOn = "recipient_notified_on"
	fieldSubscription        = "subscription"
)

// Store implements the storage contract on top of DynamoDB.
type Store struct {
	client *dynamodb.Client
	tables config.DynamoTables
	now    clock.Clock
}

func NewStore(client *dynamodb.Client, tables config.DynamoTables, now clock.Clock) *Store {
	return &Store{client: client, tables: tables, now: now}
}

func (s *Store) PutUser(ctx context.Context, u domain.User) error {
	item, err := attributevalue.MarshalMap(u)
	if err != nil {
		return fmt.Errorf("marshal user: %w", err)
	}
	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tables.Users),
		Item:      item,
	})
	return err
}

func (s *Store) GetUser(ctx context.Context, email string) (domain.User, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tables.Users),
		Key:       strKey("id", email),
	})
	if err != nil {
		return domain.User{}, err
	}
	if out.Item == nil {
		return domain.User{}, fmt.Errorf("user %s: %w", email, domain.ErrNotFound)
	}
	var u domain.User
	if err := attributevalue.UnmarshalMap(out.Item, &u); err != nil {
		return domain.User{}, err
	}
	return u, nil
}

func (s *Store) PutMessage(ctx context.Context, m domain.SecretMessage) (string, error) {
	if err := m.Validate(); err != nil {
		return "", err
	}
	m.ID = id.New()
	m.CreatedTS = s.now()

	item, err := attributevalue.MarshalMap(m)
	if err != nil {
		return "", fmt.Errorf("marshal message: %w", err)
	}
	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.tables.Messages),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(id)"),
	})
	if err != nil {
		return "", err
	}
	slog.Info("message stored", "id", m.ID)
	return m.ID, nil
}

func (s *Store) UpdateMessageNotifiedOn(ctx context.Context, msgID, actingEmail string) error {
	m, err := s.getMessage(ctx, msgID)
	if err != nil {
		return err
	}
	var field string
	switch actingEmail {
	case m.Recipient:
		field = fieldRecipientNotifiedOn
	case m.Owner:
		field = fieldOwnerNotifiedOn
	default:
		return fmt.Errorf("%s is neither owner nor recipient of message %s: %w",
			actingEmail, msgID, domain.ErrBadRequest)
	}
	return s.updateMessage(ctx, msgID, map[string]interface{}{field: s.now()})
}

func (s *Store) SetMessageRevealedIfNeeded(ctx context.Context, msgID string) (bool, error) {
	m, err := s.getMessage(ctx, msgID)
	if err != nil {
		return false, err
	}
	if m.Revealed {
		return true, nil
	}
	owner, err := s.GetUser(ctx, m.Owner)
	if err != nil {
		return false, err
	}
	if !m.ShouldReveal(owner.LastSeen, s.now()) {
		return false, nil
	}
	if err := s.updateMessage(ctx, msgID, map[string]interface{}{fieldRevealed: true}); err != nil {
		return false, err
	}
	slog.Info("message revealed", "id", msgID)
	return true, nil
}

func (s *Store) GetAllMessages(ctx context.Context) (map[string]domain.SecretMessage, error) {
	out := map[string]domain.SecretMessage{}
	// Full scan, paginated only by DynamoDB's own 1MB pages; message volumes
	// stay well below anything that needs caller-side pagination.
	var startKey map[string]types.AttributeValue
	for {
		page, err := s.client.Scan(ctx, &dynamodb.ScanInput{
			TableName:         aws.String(s.tables.Messages),
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, err
		}
		var messages []domain.SecretMessage
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &messages); err != nil {
			return nil, err
		}
		for _, m := range messages {
			out[m.ID] = m
		}
		if page.LastEvaluatedKey == nil {
			break
		}
		startKey = page.LastEvaluatedKey
	}
	return out, nil
}

func (s *Store) GetMessagesFor(ctx context.Context, email string) ([]domain.MessageProjection, error) {
	all, err := s.GetAllMessages(ctx)
	if err != nil {
		return nil, err
	}
	var out []domain.MessageProjection
	for msgID, m := range all {
		if m.Owner != email && m.Recipient != email {
			continue
		}
		owner, err := s.GetUser(ctx, m.Owner)
		if err != nil {
			return nil, err
		}
		recipient, err := s.GetUser(ctx, m.Recipient)
		if err != nil {
			return nil, err
		}
		revealed, err := s.SetMessageRevealedIfNeeded(ctx, msgID)
		if err != nil {
			return nil, err
		}
		p := domain.MessageProjection{
			ID:                    msgID,
			Owner:                 owner.ID,
			Recipient:             recipient.ID,
			VerifyEveryMinutes:    m.VerifyEveryMinutes,
			MaxFailedVerification: m.MaxFailedVerification,
			CreatedTS:             m.CreatedTS,
			Revealed:              revealed,
			OwnerLastSeen:         owner.LastSeen,
			RecipientLastSeen:     recipient.LastSeen,
		}
		if email == m.Owner || (email == m.Recipient && revealed) {
			p.SystemShare = m.SystemShare
		}
		out = append(out, p)
	}
	return out, nil
}

func (s *Store) DeleteMessage(ctx context.Context, email, msgID string) error {
	m, err := s.getMessage(ctx, msgID)
	if err != nil {
		return err
	}
	if m.Owner != email && m.Recipient != email {
		return fmt.Errorf("message %s: %w", msgID, domain.ErrNotFound)
	}
	if email == m.Recipient {
		// Evaluated at delete time, not from the possibly stale flag.
		revealed, err := s.SetMessageRevealedIfNeeded(ctx, msgID)
		if err != nil {
			return err
		}
		if !revealed {
			return fmt.Errorf("message %s is not revealed yet: %w", msgID, domain.ErrForbidden)
		}
	}
	_, err = s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.tables.Messages),
		Key:       strKey("id", msgID),
	})
	return err
}

func (s *Store) SubscribeUser(ctx context.Context, email string, sub domain.Subscription) error {
	return s.updateSubscription(ctx, email, sub)
}

func (s *Store) UnsubscribeUser(ctx context.Context, email string) error {
	return s.updateSubscription(ctx, email, domain.Subscription{})
}

func (s *Store) updateSubscription(ctx context.Context, email string, sub domain.Subscription) error {
	// Existence check so a subscribe for an unknown email surfaces NotFound
	// instead of creating a half-formed user record.
	if _, err := s.GetUser(ctx, email); err != nil {
		return err
	}
	ue, err := buildUpdateExpr(map[string]interface{}{fieldSubscription: sub})
	if err != nil {
		return err
	}
	_, err = s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(s.tables.Users),
		Key:                       strKey("id", email),
		UpdateExpression:          aws.String(ue.Expr),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	return err
}

func (s *Store) getMessage(ctx context.Context, msgID string) (domain.SecretMessage, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tables.Messages),
		Key:       strKey("id", msgID),
	})
	if err != nil {
		return domain.SecretMessage{}, err
	}
	if out.Item == nil {
		return domain.SecretMessage{}, fmt.Errorf("message %s: %w", msgID, domain.ErrNotFound)
	}
	var m domain.SecretMessage
	if err := attributevalue.UnmarshalMap(out.Item, &m); err != nil {
		return domain.SecretMessage{}, err
	}
	return m, nil
}

func (s *Store) updateMessage(ctx context.Context, msgID string, updates map[string]interface{}) error {
	ue, err := buildUpdateExpr(updates)
	if err != nil {
		return err
	}
	_, err = s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(s.tables.Messages),
		Key:                       strKey("id", msgID),
		ConditionExpression:       aws.String("attribute_exists(id)"),
		UpdateExpression:          aws.String(ue.Expr),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		return fmt.Errorf("message %s: %w", msgID, domain.ErrNotFound)
	}
	return err
}
