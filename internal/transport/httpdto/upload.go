package httpdto

type PresignUploadRequest struct {
	ConversationID string `json:"conversation_id" binding:"required"`
	ContentType    string `json:"content_type" binding:"required"`
}
