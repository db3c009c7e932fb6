package storage

import (
	"context"
	"errors"
	"github.com/NITHINKR06/e-voting-backend/logging"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"time"
)

type VoterStorage interface {
	Create(ctx context.Context, voter *Voter) error
	GetByID(ctx context.Context, id string) (*Voter, error)
	GetByEmail(ctx context.Context, email string) (*Voter, error)
	SetPendingOTP(ctx context.Context, id, code string, expires time.Time) error
	// ClearOTP consumes a pending code: it removes the code and expiry and
	// marks the voter verified, but only if the stored code still equals the
	// given one. A second caller with the same code gets ErrOTPMismatch.
	ClearOTP(ctx context.Context, id, code string) error
	// ClaimVote flips HasVoted false->true as a single conditional write.
	// When the flag was already set the update matches nothing and
	// ErrAlreadyVoted is returned, so concurrent votes by one voter can
	// never both pass.
	ClaimVote(ctx context.Context, id string) error
}

type DynamoVoterStorage struct {
	Client     *dynamodb.Client
	TableName  string
	EmailIndex string
}

func (s *DynamoVoterStorage) Create(ctx context.Context, voter *Voter) error {
	if voter.CreatedAt.IsZero() {
		voter.CreatedAt = time.Now().UTC()
	}
	item, err := attributevalue.MarshalMap(voter)
	if err != nil {
		logging.Log.Errorf("VOTER: failed to marshal voter: %v", err)
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
		logging.Log.Errorf("VOTER: PUT storage failed: %v", err)
		return err
	}
	return nil
}

func (s *DynamoVoterStorage) GetByID(ctx context.Context, id string) (*Voter, error) {
	key, err := attributevalue.MarshalMap(map[string]string{"PK": id})
	if err != nil {
		logging.Log.Errorf("VOTER: failed to marshal key: %v", err)
		return nil, err
	}

	out, err := s.Client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: &s.TableName,
		Key:       key,
	})
	if err != nil {
		logging.Log.Errorf("VOTER: GET storage failed: %v", err)
		return nil, err
	}
	if out.Item == nil {
		return nil, ErrVoterNotFound
	}

	var voter *Voter
	if err := attributevalue.UnmarshalMap(out.Item, &voter); err != nil {
		logging.Log.Errorf("VOTER: failed to unmarshal result: %v", err)
		return nil, err
	}
	return voter, nil
}

func (s *DynamoVoterStorage) GetByEmail(ctx context.Context, email string) (*Voter, error) {
	out, err := s.Client.Query(ctx, &dynamodb.QueryInput{
		TableName:              &s.TableName,
		IndexName:              &s.EmailIndex,
		KeyConditionExpression: aws.String("Email = :email"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":email": &types.AttributeValueMemberS{Value: email},
		},
		Limit: aws.Int32(1),
	})
	if err != nil {
		logging.Log.Errorf("VOTER: QUERY storage failed: %v", err)
		return nil, err
	}
	if len(out.Items) == 0 {
		return nil, ErrVoterNotFound
	}

	var voter *Voter
	if err := attributevalue.UnmarshalMap(out.Items[0], &voter); err != nil {
		logging.Log.Errorf("VOTER: failed to unmarshal result: %v", err)
		return nil, err
	}
	return voter, nil
}

func (s *DynamoVoterStorage) SetPendingOTP(ctx context.Context, id, code string, expires time.Time) error {
	exp, err := attributevalue.Marshal(expires)
	if err != nil {
		return err
	}
	_, err = s.Client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(s.TableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: id},
		},
		ConditionExpression: aws.String("attribute_exists(PK)"),
		UpdateExpression:    aws.String("SET OTP = :code, OTPExpires = :exp"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":code": &types.AttributeValueMemberS{Value: code},
			":exp":  exp,
		},
	})
	if err != nil {
		if isConditionalCheckFailed(err) {
			return ErrVoterNotFound
		}
		logging.Log.Errorf("VOTER: failed to set pending OTP: %v", err)
		return err
	}
	return nil
}

func (s *DynamoVoterStorage) ClearOTP(ctx context.Context, id, code string) error {
	_, err := s.Client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(s.TableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: id},
		},
		ConditionExpression: aws.String("OTP = :code"),
		UpdateExpression:    aws.String("SET Verified = :true REMOVE OTP, OTPExpires"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":code": &types.AttributeValueMemberS{Value: code},
			":true": &types.AttributeValueMemberBOOL{Value: true},
		},
	})
	if err != nil {
		if isConditionalCheckFailed(err) {
			return ErrOTPMismatch
		}
		logging.Log.Errorf("VOTER: failed to clear OTP: %v", err)
		return err
	}
	return nil
}

func (s *DynamoVoterStorage) ClaimVote(ctx context.Context, id string) error {
	_, err := s.Client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(s.TableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: id},
		},
		ConditionExpression: aws.String("attribute_exists(PK) AND HasVoted = :false"),
		UpdateExpression:    aws.String("SET HasVoted = :true"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":false": &types.AttributeValueMemberBOOL{Value: false},
			":true":  &types.AttributeValueMemberBOOL{Value: true},
		},
	})
	if err != nil {
		if isConditionalCheckFailed(err) {
			return ErrAlreadyVoted
		}
		logging.Log.Errorf("VOTER: failed to claim vote: %v", err)
		return err
	}
	return nil
}

func isConditionalCheckFailed(err error) bool {
	var ccf *types.ConditionalCheckFailedException
	return errors.As(err, &ccf)
}
