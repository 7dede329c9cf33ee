package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"walrus-messaging-core/internal/auth"
	"walrus-messaging-core/internal/chat"
	apperrors "walrus-messaging-core/internal/errors"
)

// ChatHandler serves the /api/chats endpoints.
type ChatHandler struct {
	svc *chat.Service
}

func NewChatHandler(svc *chat.Service) *ChatHandler {
	return &ChatHandler{svc: svc}
}

func pageParams(c *fiber.Ctx) (pageSize, page int) {
	pageSize, _ = strconv.Atoi(c.Query("page_size"))
	page, _ = strconv.Atoi(c.Query("page"))
	if page > 0 {
		page--
	}
	return pageSize, page
}

// HandleListChats lists the caller's chats, paginated.
func (h *ChatHandler) HandleListChats(c *fiber.Ctx) error {
	userID, err := auth.UserIDFromContext(c)
	if err != nil {
		return err
	}

	pageSize, page := pageParams(c)
	chats, err := h.svc.ListChats(c.Context(), userID, pageSize, page)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"chats": chats})
}

type createPrivateChatRequest struct {
	RecipientAlias string `json:"recipient_alias"`
}

// HandleCreatePrivateChat creates a private chat between the caller and
// the named recipient, failing AlreadyExists if the pair is already
// paired.
func (h *ChatHandler) HandleCreatePrivateChat(c *fiber.Ctx) error {
	userID, err := auth.UserIDFromContext(c)
	if err != nil {
		return err
	}

	var body createPrivateChatRequest
	if err := c.BodyParser(&body); err != nil {
		return apperrors.New(apperrors.KindInvalidInput, "invalid request body")
	}

	chatID, err := h.svc.CreatePrivateChat(c.Context(), userID, body.RecipientAlias)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"chat_id": chatID})
}

// HandleListMessages lists a chat's messages, membership-gated.
func (h *ChatHandler) HandleListMessages(c *fiber.Ctx) error {
	userID, err := auth.UserIDFromContext(c)
	if err != nil {
		return err
	}

	chatID, err := strconv.ParseInt(c.Params("chat_id"), 10, 64)
	if err != nil {
		return apperrors.InvalidInput(c.Params("chat_id"), "chat_id must be an integer")
	}

	pageSize, page := pageParams(c)
	messages, err := h.svc.ListMessages(c.Context(), userID, chatID, pageSize, page)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"messages": messages})
}

type sendMessageRequest struct {
	Text string `json:"text"`
}

// HandleSendMessage sends a message to a chat, membership-gated.
func (h *ChatHandler) HandleSendMessage(c *fiber.Ctx) error {
	userID, err := auth.UserIDFromContext(c)
	if err != nil {
		return err
	}

	chatID, err := strconv.ParseInt(c.Params("chat_id"), 10, 64)
	if err != nil {
		return apperrors.InvalidInput(c.Params("chat_id"), "chat_id must be an integer")
	}

	var body sendMessageRequest
	if err := c.BodyParser(&body); err != nil {
		return apperrors.New(apperrors.KindInvalidInput, "invalid request body")
	}

	messageID, err := h.svc.SendMessage(c.Context(), userID, chatID, body.Text)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message_id": messageID})
}
