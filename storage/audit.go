package storage

import (
	"context"
	"github.com/NITHINKR06/e-voting-backend/logging"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

type AuditLogStorage interface {
	Append(ctx context.Context, entry *AuditLogEntry) error
	// List returns matching entries, newest first.
	List(ctx context.Context, filter AuditLogFilter) ([]*AuditLogEntry, error)
	// ListByUser returns up to limit most recent entries for one actor.
	ListByUser(ctx context.Context, userID string, limit int) ([]*AuditLogEntry, error)
}

type DynamoAuditLogStorage struct {
	Client    *dynamodb.Client
	TableName string
}

func (s *DynamoAuditLogStorage) Append(ctx context.Context, entry *AuditLogEntry) error {
	item, err := attributevalue.MarshalMap(entry)
	if err != nil {
		logging.Log.Errorf("AUDIT: failed to marshal entry: %v", err)
		return err
	}

	_, err = s.Client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           &s.TableName,
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(PK)"),
	})
	if err != nil {
		logging.Log.Errorf("AUDIT: PUT storage failed: %v", err)
		return err
	}
	return nil
}

// List scans the whole table and filters in process. The audit table stays
// small enough for a single election cycle that a scan is fine; filtering
// here keeps the semantics identical to the in-memory driver.
func (s *DynamoAuditLogStorage) List(ctx context.Context, filter AuditLogFilter) ([]*AuditLogEntry, error) {
	var entries []*AuditLogEntry
	paginator := dynamodb.NewScanPaginator(s.Client, &dynamodb.ScanInput{
		TableName: &s.TableName,
	})
	for paginator.HasMorePages() {
		out, err := paginator.NextPage(ctx)
		if err != nil {
			logging.Log.Errorf("AUDIT: SCAN storage failed: %v", err)
			return nil, err
		}
		var page []*AuditLogEntry
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			logging.Log.Errorf("AUDIT: failed to unmarshal list: %v", err)
			return nil, err
		}
		for _, e := range page {
			if filter.Matches(e) {
				entries = append(entries, e)
			}
		}
	}

	sortEntriesNewestFirst(entries)
	return entries, nil
}

func (s *DynamoAuditLogStorage) ListByUser(ctx context.Context, userID string, limit int) ([]*AuditLogEntry, error) {
	entries, err := s.List(ctx, AuditLogFilter{UserID: userID})
	if err != nil {
		return nil, err
	}
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}
