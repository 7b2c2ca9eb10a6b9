package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"msgboard/internal/model"
	"msgboard/internal/notify"
	"msgboard/internal/transport/http/response"
	"msgboard/internal/validation"
)

const (
	msgInvalidRequest     = "Invalid request"
	msgInvalidMessageData = "Invalid message data"
	publishTimeout        = 3 * time.Second
)

type MessageService interface {
	Create(ctx context.Context, message model.Message) (model.Message, error)
	ListAll(ctx context.Context) ([]model.Message, error)
}

type MessageHandler struct {
	messages  MessageService
	publisher notify.Publisher
	log       logrus.FieldLogger
}

type AddMessageRequest struct {
	MessageToAdd *MessageBody `json:"messageToAdd"`
}

type MessageBody struct {
	Msg         string          `json:"msg" validate:"notblank"`
	MsgFrom     string          `json:"msgFrom" validate:"notblank"`
	MsgDateTime json.RawMessage `json:"msgDateTime" validate:"omitempty,jsdate"`
}

func NewMessageHandler(messages MessageService, publisher notify.Publisher, log logrus.FieldLogger) *MessageHandler {
	return &MessageHandler{
		messages:  messages,
		publisher: publisher,
		log:       log.WithField("component", "message_handler"),
	}
}

func (h *MessageHandler) AddMessage(c *gin.Context) {
	var req AddMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.MessageToAdd == nil {
		h.log.WithError(err).Debug("decode message request failed")
		response.Error(c, http.StatusBadRequest, msgInvalidRequest)
		return
	}

	body := req.MessageToAdd
	if result := validation.Struct(body); !result.Valid() {
		h.log.WithField("problems", result.String()).Debug("message rejected")
		response.Error(c, http.StatusBadRequest, msgInvalidMessageData)
		return
	}
	sentAt, err := validation.ParseDateTime(body.MsgDateTime)
	if err != nil {
		response.Error(c, http.StatusBadRequest, msgInvalidMessageData)
		return
	}

	saved, err := h.messages.Create(c.Request.Context(), model.Message{
		Msg:         body.Msg,
		MsgFrom:     body.MsgFrom,
		MsgDateTime: sentAt,
	})
	if err != nil {
		response.ServiceError(c, err, "Error saving message")
		return
	}

	h.publish(c.Request.Context(), saved)
	response.Created(c, saved)
}

func (h *MessageHandler) GetMessages(c *gin.Context) {
	messages, err := h.messages.ListAll(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, "Error fetching messages")
		return
	}
	response.OK(c, messages)
}

// publish is fire-and-forget: a failed broadcast never fails the request.
func (h *MessageHandler) publish(ctx context.Context, message model.Message) {
	event, err := notify.NewMessageUpdate(message)
	if err != nil {
		h.log.WithError(err).Error("build message update failed")
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := h.publisher.Publish(ctx, event); err != nil {
		h.log.WithError(err).WithField("message_id", message.ID).Warn("publish message update failed")
	}
}
