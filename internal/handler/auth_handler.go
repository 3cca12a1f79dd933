/*
Package handler provides the HTTP handlers and routing setup for the duochat server.

This file covers the account surface: signup, login, session introspection, and
profile updates.
*/
package handler

import (
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"duochat/internal/app/db"
	"duochat/internal/app/storage"
	"duochat/internal/app/store"
	"duochat/internal/app/user"
	"duochat/internal/pkg/auth/jwt"
	"duochat/internal/pkg/errs"
	"duochat/internal/pkg/logx"
	"duochat/internal/pkg/req"
	"duochat/internal/pkg/resp"
)

var emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

type SignupInput struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type UpdateProfileInput struct {
	FullName   string `json:"fullName"`
	ProfilePic string `json:"profilePic"`
}

func validatePassword(password string) *errs.CustomError {
	passwordLen := utf8.RuneCountInString(password)
	if passwordLen < 6 || passwordLen > 72 {
		return errs.NewError(errs.ErrInvalidPassword)
	}
	return nil
}

func issueSession(u *user.User, secret string) (string, error) {
	payload := &jwt.Payload{
		ID:       u.ID,
		Email:    u.Email,
		FullName: u.FullName,
	}
	return jwt.GenerateToken(payload, secret, jwt.SessionExpiration)
}

// HandleSignup creates a new account and returns a session token alongside the
// created user record.
func HandleSignup(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input SignupInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		input.FullName = strings.TrimSpace(input.FullName)
		input.Email = strings.ToLower(strings.TrimSpace(input.Email))

		nameLen := utf8.RuneCountInString(input.FullName)
		if nameLen < 2 || nameLen > 50 {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidFullName))
			return
		}
		if !emailRegex.MatchString(input.Email) {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidEmail))
			return
		}
		if customErr := validatePassword(input.Password); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
		if err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		u := &user.User{
			ID:           uuid.New().String(),
			FullName:     input.FullName,
			Email:        input.Email,
			PasswordHash: string(hashedPassword),
		}

		if err := deps.Store.CreateUser(r.Context(), u); err != nil {
			if db.IsUniqueViolation(err) {
				logx.Warn("Signup conflict: email already registered", "email", input.Email)
				resp.RespondError(w, r, errs.NewError(errs.ErrEmailTaken))
				return
			}

			logx.Error(err, "Failed to create user")
			resp.RespondError(w, r, errs.NewError(errs.ErrPersistence))
			return
		}

		tokenString, err := issueSession(u, deps.Config.JWTSecret)
		if err != nil {
			logx.Error(err, "Failed to generate token after signup")
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		resp.RespondSuccess(w, r, map[string]any{
			"success": true,
			"token":   tokenString,
			"user":    u,
		})
	}
}

// HandleLogin authenticates against the stored bcrypt hash and returns a fresh
// session token. Unknown email and wrong password yield the same error.
func HandleLogin(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input LoginInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		email := strings.ToLower(strings.TrimSpace(input.Email))

		u, err := deps.Store.GetUserByEmail(r.Context(), email)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				resp.RespondError(w, r, errs.NewError(errs.ErrInvalidCredentials))
				return
			}
			logx.Error(err, "Failed to look up user at login")
			resp.RespondError(w, r, errs.NewError(errs.ErrPersistence))
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(input.Password)); err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidCredentials))
			return
		}

		tokenString, err := issueSession(u, deps.Config.JWTSecret)
		if err != nil {
			logx.Error(err, "Failed to generate token at login")
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		resp.RespondSuccess(w, r, map[string]any{
			"success": true,
			"token":   tokenString,
			"user":    u,
		})
	}
}

// HandleMe returns the current user's record, resolved from the session token.
func HandleMe(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload := jwt.GetPayloadFromContext(r)
		if payload == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		u, err := deps.Store.GetUserByID(r.Context(), payload.ID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				resp.RespondError(w, r, errs.NewError(errs.ErrUserNotFound))
				return
			}
			logx.Error(err, "Failed to load current user", "user_id", payload.ID)
			resp.RespondError(w, r, errs.NewError(errs.ErrPersistence))
			return
		}

		resp.RespondSuccess(w, r, map[string]any{
			"success": true,
			"user":    u,
		})
	}
}

// HandleUpdateProfile updates the display name and/or avatar. The avatar
// arrives as an inline base64 data URL and is stored in the blob store.
func HandleUpdateProfile(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload := jwt.GetPayloadFromContext(r)
		if payload == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		var input UpdateProfileInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		input.FullName = strings.TrimSpace(input.FullName)
		if input.FullName == "" && input.ProfilePic == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}
		if input.FullName != "" {
			nameLen := utf8.RuneCountInString(input.FullName)
			if nameLen < 2 || nameLen > 50 {
				resp.RespondError(w, r, errs.NewError(errs.ErrInvalidFullName))
				return
			}
		}

		current, err := deps.Store.GetUserByID(r.Context(), payload.ID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				resp.RespondError(w, r, errs.NewError(errs.ErrUserNotFound))
				return
			}
			logx.Error(err, "Failed to load user for profile update", "user_id", payload.ID)
			resp.RespondError(w, r, errs.NewError(errs.ErrPersistence))
			return
		}

		fullName := current.FullName
		if input.FullName != "" {
			fullName = input.FullName
		}

		avatarURL := current.AvatarURL
		if input.ProfilePic != "" {
			mimeType, data, err := storage.DecodeDataURL(input.ProfilePic)
			if err != nil {
				resp.RespondError(w, r, errs.NewError(errs.ErrInvalidImageData))
				return
			}
			ext, ok := storage.AllowedImageMIME[mimeType]
			if !ok {
				resp.RespondError(w, r, errs.NewError(errs.ErrInvalidImageData))
				return
			}

			if deps.BlobStore == nil {
				resp.RespondError(w, r, errs.NewError(errs.ErrImageUpload))
				return
			}

			key := fmt.Sprintf("avatars/%s/%s%s", payload.ID, uuid.New().String(), ext)
			url, err := deps.BlobStore.Upload(r.Context(), key, mimeType, data)
			if err != nil {
				logx.Error(err, "Failed to upload avatar", "user_id", payload.ID)
				resp.RespondError(w, r, errs.NewError(errs.ErrImageUpload))
				return
			}
			avatarURL = url
		}

		updated, err := deps.Store.UpdateUserProfile(r.Context(), payload.ID, fullName, avatarURL)
		if err != nil {
			logx.Error(err, "Failed to persist profile update", "user_id", payload.ID)
			resp.RespondError(w, r, errs.NewError(errs.ErrPersistence))
			return
		}

		// The previous avatar object is unreachable once the new URL is
		// persisted; removal is best-effort.
		if input.ProfilePic != "" && current.AvatarURL != "" && current.AvatarURL != avatarURL {
			if oldKey, ok := storage.KeyFromURL(current.AvatarURL); ok {
				if err := deps.BlobStore.Delete(r.Context(), oldKey); err != nil {
					logx.Warn("Failed to delete superseded avatar object", "key", oldKey, "error", err)
				}
			}
		}

		resp.RespondSuccess(w, r, map[string]any{
			"success": true,
			"user":    updated,
		})
	}
}
