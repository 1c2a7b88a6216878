package httpdto

// SyncUserRequest is the session-start identity sync payload.
type SyncUserRequest struct {
	Name      string `json:"name"`
	Email     string `json:"email" binding:"required"`
	AvatarURL string `json:"avatar_url"`
}

// IdentityWebhookRequest is the server-to-server "user created" event from
// the identity provider.
type IdentityWebhookRequest struct {
	Type string `json:"type" binding:"required"`
	Data struct {
		AuthSubjectID string `json:"auth_subject_id" binding:"required"`
		Name          string `json:"name"`
		Email         string `json:"email" binding:"required"`
		AvatarURL     string `json:"avatar_url"`
	} `json:"data"`
}

type UpsertUserResponse struct {
	UserID string `json:"user_id"`
}
