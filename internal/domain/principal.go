package domain

// Principal is the identity carried by a validated collaborator-issued token.
// Token issuance itself belongs to the external identity provider.
type Principal struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}
