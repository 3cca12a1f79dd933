/*
Package services contains the chat service sitting between the HTTP handlers
and the store: sending, history fetches, seen-state reconciliation, unseen
counting, and the recency-ranked contact list.
*/
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"duochat/internal/app/message"
	"duochat/internal/app/storage"
	"duochat/internal/app/store"
	"duochat/internal/app/user"
	"duochat/internal/pkg/errs"
	"duochat/internal/pkg/logx"
)

// MaxTextBytes caps the length of a message's text content.
const MaxTextBytes = 5000

// Deliverer pushes a persisted message to its receiver's live channel,
// best-effort. Satisfied by chat.Router.
type Deliverer interface {
	Deliver(m message.Message)
}

// ChatService implements the chat operations behind the message endpoints:
// sending, history fetches, seen-state flips, and the two contact-list modes.
type ChatService struct {
	store   store.Store
	blobs   storage.BlobStore // nil when no blob store is configured
	deliver Deliverer
	logger  zerolog.Logger
}

// NewChatService constructs the chat service. blobs may be nil; image sends
// then fail with the blob-upload error while text flow keeps working.
func NewChatService(st store.Store, blobs storage.BlobStore, deliver Deliverer) *ChatService {
	return &ChatService{
		store:   st,
		blobs:   blobs,
		deliver: deliver,
		logger:  logx.Logger().With().Str("component", "chat_service").Logger(),
	}
}

// Send validates, persists, and best-effort-delivers one message. Exactly one
// of text/image must be present; image is a base64 data URL uploaded to the
// blob store before the append. The returned record is the authoritative copy
// clients append to their local state.
func (s *ChatService) Send(ctx context.Context, senderID, receiverID, text, image string) (*message.Message, *errs.CustomError) {
	text = strings.TrimSpace(text)

	if text == "" && image == "" {
		return nil, errs.NewError(errs.ErrEmptyMessage)
	}
	if len(text) > MaxTextBytes {
		return nil, errs.NewError(errs.ErrMessageTooLong)
	}

	if _, err := s.store.GetUserByID(ctx, receiverID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, errs.NewError(errs.ErrUserNotFound)
		}
		return nil, errs.NewError(errs.ErrPersistence)
	}

	imageURL := ""
	if image != "" {
		url, customErr := s.uploadImage(ctx, image)
		if customErr != nil {
			return nil, customErr
		}
		imageURL = url
	}

	m := &message.Message{
		ID:         uuid.New().String(),
		SenderID:   senderID,
		ReceiverID: receiverID,
		Text:       text,
		ImageURL:   imageURL,
	}

	if err := s.store.AppendMessage(ctx, m); err != nil {
		s.logger.Error().Err(err).Msg("Failed to persist message")
		return nil, errs.NewError(errs.ErrPersistence)
	}

	// Persistence and push happen back-to-back in the send handler, which is
	// what gives a connected receiver per-sender ordering.
	s.deliver.Deliver(*m)

	return m, nil
}

// uploadImage decodes a base64 data URL and stores it in the blob store.
func (s *ChatService) uploadImage(ctx context.Context, dataURL string) (string, *errs.CustomError) {
	mimeType, data, err := storage.DecodeDataURL(dataURL)
	if err != nil {
		return "", errs.NewError(errs.ErrInvalidImageData)
	}

	ext, ok := storage.AllowedImageMIME[mimeType]
	if !ok {
		return "", errs.NewError(errs.ErrInvalidImageData)
	}

	if s.blobs == nil {
		return "", errs.NewError(errs.ErrImageUpload)
	}

	key := fmt.Sprintf("messages/%s%s", uuid.New().String(), ext)
	url, err := s.blobs.Upload(ctx, key, mimeType, data)
	if err != nil {
		s.logger.Error().Err(err).Msg("Blob store rejected image upload")
		return "", errs.NewError(errs.ErrImageUpload)
	}
	return url, nil
}

// History returns the full conversation with peerID, oldest first, and then
// bulk-flips the peer's messages to seen. The returned rows reflect the state
// read before the flip.
func (s *ChatService) History(ctx context.Context, selfID, peerID string) ([]message.Message, *errs.CustomError) {
	msgs, err := s.store.Conversation(ctx, selfID, peerID)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to load conversation")
		return nil, errs.NewError(errs.ErrPersistence)
	}

	if err := s.store.MarkAllSeenFrom(ctx, peerID, selfID); err != nil {
		s.logger.Error().Err(err).Msg("Failed to flip seen state on history fetch")
		return nil, errs.NewError(errs.ErrPersistence)
	}

	if msgs == nil {
		msgs = []message.Message{}
	}
	return msgs, nil
}

// MarkSeen flips one message to seen. Unknown ids are a documented no-op.
func (s *ChatService) MarkSeen(ctx context.Context, messageID string) *errs.CustomError {
	if err := s.store.MarkSeen(ctx, messageID); err != nil {
		s.logger.Error().Err(err).Str("message_id", messageID).Msg("Failed to mark message seen")
		return errs.NewError(errs.ErrPersistence)
	}
	return nil
}

// Contacts implements the sidebar list. With an empty search it returns every
// other known user; with a non-empty search it returns only case-insensitive
// substring matches on display name or email. The unseen map only carries
// counts for the returned users.
func (s *ChatService) Contacts(ctx context.Context, selfID, search string) ([]user.User, map[string]int, *errs.CustomError) {
	var (
		users []user.User
		err   error
	)

	search = strings.TrimSpace(search)
	if search != "" {
		users, err = s.store.SearchUsersExcept(ctx, selfID, search)
	} else {
		users, err = s.store.ListUsersExcept(ctx, selfID)
	}
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to list users")
		return nil, nil, errs.NewError(errs.ErrPersistence)
	}

	unseen, customErr := s.unseenMapFor(ctx, selfID, users)
	if customErr != nil {
		return nil, nil, customErr
	}

	if users == nil {
		users = []user.User{}
	}
	return users, unseen, nil
}

// RecentContacts implements the recency-ranked contact list: only counterparts
// with conversation history, ordered by the timestamp of the latest message in
// each conversation, newest first.
func (s *ChatService) RecentContacts(ctx context.Context, selfID string) ([]user.User, map[string]int, *errs.CustomError) {
	msgs, err := s.store.MessagesInvolving(ctx, selfID)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to load message history for ranking")
		return nil, nil, errs.NewError(errs.ErrPersistence)
	}

	// msgs arrive newest-activity first, so the first message naming a
	// counterpart is that conversation's latest. Keeping first occurrences in
	// order yields the ranking directly.
	seen := make(map[string]struct{})
	ranked := make([]string, 0)
	for _, m := range msgs {
		peer := m.Counterpart(selfID)
		if _, ok := seen[peer]; ok {
			continue
		}
		seen[peer] = struct{}{}
		ranked = append(ranked, peer)
	}

	users := make([]user.User, 0, len(ranked))
	for _, peerID := range ranked {
		u, err := s.store.GetUserByID(ctx, peerID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				// Counterpart row vanished; skip rather than fail the list.
				continue
			}
			return nil, nil, errs.NewError(errs.ErrPersistence)
		}
		users = append(users, *u)
	}

	unseen, customErr := s.unseenMapFor(ctx, selfID, users)
	if customErr != nil {
		return nil, nil, customErr
	}

	return users, unseen, nil
}

// unseenMapFor is the bulk mode of unseen counting: one point-in-time
// aggregate per sender, restricted to the users the caller is about to return
// so hidden contacts never leak counts into a filtered listing.
func (s *ChatService) unseenMapFor(ctx context.Context, selfID string, users []user.User) (map[string]int, *errs.CustomError) {
	counts, err := s.store.UnseenCounts(ctx, selfID)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to aggregate unseen counts")
		return nil, errs.NewError(errs.ErrPersistence)
	}

	unseen := make(map[string]int, len(counts))
	for _, u := range users {
		if n, ok := counts[u.ID]; ok {
			unseen[u.ID] = n
		}
	}
	return unseen, nil
}
