package storage

import (
	"context"
	"github.com/NITHINKR06/e-voting-backend/logging"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

type CandidateStorage interface {
	GetAll(ctx context.Context) ([]*Candidate, error)
	Get(ctx context.Context, id string) (*Candidate, error)
	Create(ctx context.Context, candidate *Candidate) error
	Update(ctx context.Context, candidate *Candidate) error
	Delete(ctx context.Context, id string) error
	// IncrementVotes adds exactly 1 to the tally as a storage-side ADD, not
	// a load/add/store, so concurrent votes for the same candidate never
	// lose updates.
	IncrementVotes(ctx context.Context, id string) error
}

type DynamoCandidateStorage struct {
	Client    *dynamodb.Client
	TableName string
}

func (s *DynamoCandidateStorage) GetAll(ctx context.Context) ([]*Candidate, error) {
	out, err := s.Client.Scan(ctx, &dynamodb.ScanInput{
		TableName: &s.TableName,
	})
	if err != nil {
		logging.Log.Errorf("CANDIDATE: SCAN storage failed: %v", err)
		return nil, err
	}

	var candidates []*Candidate
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &candidates); err != nil {
		logging.Log.Errorf("CANDIDATE: failed to unmarshal list: %v", err)
		return nil, err
	}
	return candidates, nil
}

func (s *DynamoCandidateStorage) Get(ctx context.Context, id string) (*Candidate, error) {
	key, err := attributevalue.MarshalMap(map[string]string{"PK": id})
	if err != nil {
		logging.Log.Errorf("CANDIDATE: failed to marshal key: %v", err)
		return nil, err
	}

	out, err := s.Client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: &s.TableName,
		Key:       key,
	})
	if err != nil {
		logging.Log.Errorf("CANDIDATE: GET storage failed: %v", err)
		return nil, err
	}
	if out.Item == nil {
		return nil, ErrCandidateNotFound
	}

	var candidate *Candidate
	if err := attributevalue.UnmarshalMap(out.Item, &candidate); err != nil {
		logging.Log.Errorf("CANDIDATE: failed to unmarshal result: %v", err)
		return nil, err
	}
	return candidate, nil
}

func (s *DynamoCandidateStorage) Create(ctx context.Context, candidate *Candidate) error {
	candidate.Votes = 0
	item, err := attributevalue.MarshalMap(candidate)
	if err != nil {
		logging.Log.Errorf("CANDIDATE: failed to marshal candidate: %v", err)
		return err
	}

	_, err = s.Client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           &s.TableName,
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(PK)"),
	})
	if err != nil {
		if isConditionalCheckFailed(err) {
			return ErrItemAlreadyExists
		}
		logging.Log.Errorf("CANDIDATE: PUT storage failed: %v", err)
		return err
	}
	return nil
}

// Update rewrites the descriptive fields only. The tally is owned by
// IncrementVotes and is never touched here.
func (s *DynamoCandidateStorage) Update(ctx context.Context, candidate *Candidate) error {
	_, err := s.Client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(s.TableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: candidate.ID},
		},
		ConditionExpression: aws.String("attribute_exists(PK)"),
		UpdateExpression:    aws.String("SET #n = :name, Party = :party, Description = :desc, PhotoURL = :photo"),
		ExpressionAttributeNames: map[string]string{
			"#n": "Name",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":name":  &types.AttributeValueMemberS{Value: candidate.Name},
			":party": &types.AttributeValueMemberS{Value: candidate.Party},
			":desc":  &types.AttributeValueMemberS{Value: candidate.Description},
			":photo": &types.AttributeValueMemberS{Value: candidate.PhotoURL},
		},
	})
	if err != nil {
		if isConditionalCheckFailed(err) {
			return ErrCandidateNotFound
		}
		logging.Log.Errorf("CANDIDATE: failed to update candidate: %v", err)
		return err
	}
	return nil
}

func (s *DynamoCandidateStorage) Delete(ctx context.Context, id string) error {
	key, err := attributevalue.MarshalMap(map[string]string{"PK": id})
	if err != nil {
		logging.Log.Errorf("CANDIDATE: failed to marshal key: %v", err)
		return err
	}

	_, err = s.Client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: &s.TableName,
		Key:       key,
	})
	if err != nil {
		logging.Log.Errorf("CANDIDATE: DEL storage item failed: %v", err)
		return err
	}
	return nil
}

func (s *DynamoCandidateStorage) IncrementVotes(ctx context.Context, id string) error {
	_, err := s.Client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(s.TableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: id},
		},
		ConditionExpression: aws.String("attribute_exists(PK)"),
		UpdateExpression:    aws.String("ADD Votes :one"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":one": &types.AttributeValueMemberN{Value: "1"},
		},
	})
	if err != nil {
		if isConditionalCheckFailed(err) {
			return ErrCandidateNotFound
		}
		logging.Log.Errorf("CANDIDATE: failed to increment votes: %v", err)
		return err
	}
	return nil
}
