package dynamo

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/zinema-api/internal/domain"
)

// UserRepo provides typed DynamoDB operations for the users table.
type UserRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewUserRepo(client *dynamodb.Client, tableName string) *UserRepo {
	return &UserRepo{client: client, tableName: tableName}
}

func (r *UserRepo) Put(ctx context.Context, u *domain.User) error {
	item, err := attributevalue.MarshalMap(u)
	if err != nil {
		return fmt.Errorf("marshal user: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *UserRepo) Get(ctx context.Context, userID string) (*domain.User, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey(fieldUserID, userID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("user not found: %w", domain.ErrNotFound)
	}
	var u domain.User
	if err := attributevalue.UnmarshalMap(out.Item, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByEmail looks up a user via the email-index GSI. The match is
// case-sensitive, exactly as stored.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.queryGSI(ctx, "email-index", fieldEmail, email)
}

// GetByResetToken looks up a user via the reset_token-index GSI by token
// equality. Expiry is not checked here; callers decide validity with
// User.ResetTokenValid and ConsumeResetToken enforces it atomically.
func (r *UserRepo) GetByResetToken(ctx context.Context, token string) (*domain.User, error) {
	return r.queryGSI(ctx, "reset_token-index", fieldResetToken, token)
}

func (r *UserRepo) Update(ctx context.Context, userID string, updates map[string]interface{}) error {
	updates[fieldUpdatedAt] = time.Now().UTC().Format(time.RFC3339)
	ue, err := buildUpdateExpr(updates)
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey(fieldUserID, userID),
		UpdateExpression:          aws.String(ue.Expr),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	return err
}

// HardDelete removes the user record permanently and returns the removed
// user. There is no tombstone; a deleted account is gone.
func (r *UserRepo) HardDelete(ctx context.Context, userID string) (*domain.User, error) {
	out, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:    aws.String(r.tableName),
		Key:          strKey(fieldUserID, userID),
		ReturnValues: types.ReturnValueAllOld,
	})
	if err != nil {
		return nil, err
	}
	if len(out.Attributes) == 0 {
		return nil, fmt.Errorf("user not found: %w", domain.ErrNotFound)
	}
	var u domain.User
	if err := attributevalue.UnmarshalMap(out.Attributes, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// SetResetToken stores a pending reset token and its expiry on the user,
// overwriting any previous token. Last write wins: issuing a new token
// invalidates an earlier unconsumed one.
func (r *UserRepo) SetResetToken(ctx context.Context, userID, tok string, expiresAt int64) error {
	return r.Update(ctx, userID, map[string]interface{}{
		fieldResetToken:        tok,
		fieldResetTokenExpires: expiresAt,
	})
}

// ConsumeResetToken replaces the password hash and clears the reset token in
// a single conditional write. The condition requires the stored token to
// still equal tok and its expiry to be strictly in the future, so at most
// one redemption can ever succeed for a given token. A failed condition is
// reported as domain.ErrNotFound.
func (r *UserRepo) ConsumeResetToken(ctx context.Context, userID, tok, newHash string, now time.Time) error {
	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 strKey(fieldUserID, userID),
		UpdateExpression:    aws.String("SET #ph = :h, #ua = :ua REMOVE #rt, #re"),
		ConditionExpression: aws.String("#rt = :tok AND #re > :now"),
		ExpressionAttributeNames: map[string]string{
			"#ph": fieldPasswordHash,
			"#ua": fieldUpdatedAt,
			"#rt": fieldResetToken,
			"#re": fieldResetTokenExpires,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":h":   &types.AttributeValueMemberS{Value: newHash},
			":ua":  &types.AttributeValueMemberS{Value: now.UTC().Format(time.RFC3339)},
			":tok": &types.AttributeValueMemberS{Value: tok},
			":now": &types.AttributeValueMemberN{Value: strconv.FormatInt(now.Unix(), 10)},
		},
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return fmt.Errorf("reset token no longer valid: %w", domain.ErrNotFound)
		}
		return err
	}
	return nil
}

func (r *UserRepo) queryGSI(ctx context.Context, index, attr, value string) (*domain.User, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(index),
		KeyConditionExpression:    aws.String("#a = :v"),
		ExpressionAttributeNames:  map[string]string{"#a": attr},
		ExpressionAttributeValues: map[string]types.AttributeValue{":v": &types.AttributeValueMemberS{Value: value}},
		Limit:                     aws.Int32(1),
	})
	if err != nil {
		return nil, err
	}
	if len(out.Items) == 0 {
		return nil, fmt.Errorf("user not found: %w", domain.ErrNotFound)
	}
	var u domain.User
	if err := attributevalue.UnmarshalMap(out.Items[0], &u); err != nil {
		return nil, err
	}
	return &u, nil
}
