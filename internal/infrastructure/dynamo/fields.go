package dynamo

// DynamoDB attribute names used in key schemas and update expressions.
// Using constants prevents silent runtime bugs caused by key typos.
const (
	fieldUserID            = "user_id"
	fieldEmail             = "email"
	fieldPasswordHash      = "password_hash"
	fieldResetToken        = "reset_token"
	fieldResetTokenExpires = "reset_token_expires_at"
	fieldUpdatedAt         = "updated_at"
)
