package httpdto

// CreateDirectRequest opens (or returns) the 1:1 conversation with the other
// user. The acting user comes from the auth context.
type CreateDirectRequest struct {
	OtherUserID string `json:"other_user_id" binding:"required"`
}

type CreateGroupRequest struct {
	Name         string   `json:"name" binding:"required"`
	Participants []string `json:"participants" binding:"required"`
}

type CreateConversationResponse struct {
	ConversationID string `json:"conversation_id"`
}
