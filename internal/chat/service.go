// Package chat implements the membership-gated chat operations
// (SPEC_FULL.md §4.5): private-chat creation, membership checks, message
// sending, and the illustrative listing paths scenario S1 exercises.
package chat

import (
	"context"
	"strings"

	apperrors "walrus-messaging-core/internal/errors"
	"walrus-messaging-core/internal/services"
	"walrus-messaging-core/internal/store"
	"walrus-messaging-core/internal/validation"
)

// Service is the chat-membership core. cache is optional: a nil cache
// simply disables caching of the listing paths without changing their
// correctness.
type Service struct {
	store store.Store
	cache services.CacheService
}

func NewService(s store.Store, cache services.CacheService) *Service {
	return &Service{store: s, cache: cache}
}

// ChatSummary is the read-path projection returned by ListChats.
type ChatSummary struct {
	ID          int64
	DisplayName *string
	Description *string
	Kind        store.ChatKind
}

// CreateWithSelfChat inserts a WithSelf chat for userID and makes them its
// Owner. Called by internal/auth.Service.InviteUser inside the invite
// transaction; never exposed over HTTP on its own.
func (s *Service) CreateWithSelfChat(ctx context.Context, userID int) (int64, error) {
	chatID, err := s.store.CreateChat(ctx, nil, nil, store.ChatKindWithSelf)
	if err != nil {
		return 0, err
	}
	if err := s.store.AddMember(ctx, userID, chatID, store.ChatRoleOwner); err != nil {
		return 0, err
	}
	return chatID, nil
}

// CreatePrivateChat resolves the recipient by alias and, if no private
// chat already pairs caller and recipient, creates one transactionally
// with both parties as Members.
func (s *Service) CreatePrivateChat(ctx context.Context, caller int, recipientAlias string) (int64, error) {
	recipientID, err := s.store.UserIDByAlias(ctx, recipientAlias)
	if err != nil {
		return 0, err
	}
	if recipientID == caller {
		return 0, apperrors.InvalidInput(recipientAlias, "cannot create a private chat with yourself")
	}

	exists, err := s.store.PrivateChatExists(ctx, caller, recipientID)
	if err != nil {
		return 0, err
	}
	if exists {
		return 0, apperrors.AlreadyExists("a private chat with this user already exists")
	}

	var chatID int64
	err = s.store.WithTransaction(ctx, func(tx store.Store) error {
		id, err := tx.CreateChat(ctx, nil, nil, store.ChatKindPrivate)
		if err != nil {
			return err
		}
		if err := tx.AddMember(ctx, caller, id, store.ChatRoleMember); err != nil {
			return err
		}
		if err := tx.AddMember(ctx, recipientID, id, store.ChatRoleMember); err != nil {
			return err
		}
		chatID = id
		return nil
	})
	if err != nil {
		return 0, err
	}

	return chatID, nil
}

// IsMember reports whether userID belongs to chatID.
func (s *Service) IsMember(ctx context.Context, chatID int64, userID int) (bool, error) {
	return s.store.IsMember(ctx, chatID, userID)
}

// SendMessage validates the text, verifies membership and inserts a
// message. Non-members get NotFound rather than a distinguishable
// "forbidden", so the existence of a chat is never leaked to outsiders.
func (s *Service) SendMessage(ctx context.Context, caller int, chatID int64, text string) (int64, error) {
	if err := validation.MessageText(text); err != nil {
		return 0, err
	}

	member, err := s.store.IsMember(ctx, chatID, caller)
	if err != nil {
		return 0, err
	}
	if !member {
		return 0, apperrors.NotFound("chat not found")
	}

	id, err := s.store.CreateMessage(ctx, chatID, caller, strings.TrimSpace(text))
	if err != nil {
		return 0, err
	}

	return id, nil
}

// ListChats returns the chats userID belongs to, paginated, cache-eligible
// because it is outside the core's correctness surface. A cache miss or a
// disabled cache always falls through to the store; cache errors are
// never propagated to the caller.
func (s *Service) ListChats(ctx context.Context, userID int, pageSize, page int) ([]ChatSummary, error) {
	key := services.GenerateCacheKey("chats", userID, pageSize, page)
	if s.cache != nil {
		var cached []ChatSummary
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			return cached, nil
		}
	}

	rows, err := s.store.ListChatsForUser(ctx, userID, pageSize, page)
	if err != nil {
		return nil, err
	}

	summaries := make([]ChatSummary, 0, len(rows))
	for _, c := range rows {
		summaries = append(summaries, ChatSummary{ID: c.ID, DisplayName: c.DisplayName, Description: c.Description, Kind: c.Kind})
	}

	if s.cache != nil {
		_ = s.cache.Set(ctx, key, summaries, services.ListingTTL)
	}
	return summaries, nil
}

// ListMessages returns chatID's messages, membership-gated and
// cache-eligible like ListChats.
func (s *Service) ListMessages(ctx context.Context, caller int, chatID int64, pageSize, page int) ([]store.Message, error) {
	member, err := s.store.IsMember(ctx, chatID, caller)
	if err != nil {
		return nil, err
	}
	if !member {
		return nil, apperrors.NotFound("chat not found")
	}

	key := services.GenerateCacheKey("messages", chatID, pageSize, page)
	if s.cache != nil {
		var cached []store.Message
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			return cached, nil
		}
	}

	messages, err := s.store.ListMessagesForChat(ctx, chatID, pageSize, page)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		_ = s.cache.Set(ctx, key, messages, services.ListingTTL)
	}
	return messages, nil
}
