package httpdto

type SendMessageRequest struct {
	Content string `json:"content" binding:"required"`
	Type    string `json:"type" binding:"required"`
}

type SendMessageResponse struct {
	MessageID string `json:"message_id"`
	CreatedAt int64  `json:"created_at"`
}

type ToggleReactionRequest struct {
	Emoji string `json:"emoji" binding:"required"`
}

type UnreadCountResponse struct {
	Count int64 `json:"count"`
}
