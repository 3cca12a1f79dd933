package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"duochat/internal/pkg/auth/jwt"
	"duochat/internal/pkg/errs"
	"duochat/internal/pkg/req"
	"duochat/internal/pkg/resp"
)

type SendMessageInput struct {
	Text  string `json:"text"`
	Image string `json:"image"`
}

// HandleListContacts returns the sidebar contact list with the unseen map.
// Without ?search it lists every other user; with ?search only matches.
func HandleListContacts(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload := jwt.GetPayloadFromContext(r)
		if payload == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		search := r.URL.Query().Get("search")

		users, unseen, customErr := deps.Service.Contacts(r.Context(), payload.ID, search)
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		resp.RespondSuccess(w, r, map[string]any{
			"success":        true,
			"users":          users,
			"unseenMessages": unseen,
		})
	}
}

// HandleRecentContacts returns only counterparts with conversation history,
// ranked by latest activity.
func HandleRecentContacts(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload := jwt.GetPayloadFromContext(r)
		if payload == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		users, unseen, customErr := deps.Service.RecentContacts(r.Context(), payload.ID)
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		resp.RespondSuccess(w, r, map[string]any{
			"success":        true,
			"users":          users,
			"unseenMessages": unseen,
		})
	}
}

// HandleConversation returns the full history with a peer, oldest first, and
// flips the peer's messages to seen as a side effect.
func HandleConversation(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload := jwt.GetPayloadFromContext(r)
		if payload == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		peerID := chi.URLParam(r, "peerID")
		if peerID == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		msgs, customErr := deps.Service.History(r.Context(), payload.ID, peerID)
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		resp.RespondSuccess(w, r, map[string]any{
			"success":  true,
			"messages": msgs,
		})
	}
}

// HandleMarkSeen flips one message to seen. Unknown ids succeed silently.
func HandleMarkSeen(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload := jwt.GetPayloadFromContext(r)
		if payload == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		messageID := chi.URLParam(r, "messageID")
		if messageID == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		if customErr := deps.Service.MarkSeen(r.Context(), messageID); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		resp.RespondSuccess(w, r, map[string]any{
			"success": true,
		})
	}
}

// HandleSendMessage persists a message to the peer and pushes it to the peer's
// live channel when one is registered.
func HandleSendMessage(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload := jwt.GetPayloadFromContext(r)
		if payload == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		peerID := chi.URLParam(r, "peerID")
		if peerID == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		var input SendMessageInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		m, customErr := deps.Service.Send(r.Context(), payload.ID, peerID, input.Text, input.Image)
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		resp.RespondSuccess(w, r, map[string]any{
			"success":    true,
			"newMessage": m,
		})
	}
}
