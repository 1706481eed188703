package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/oconnorjohnson/project-hub/internal/application/ports"
	"github.com/oconnorjohnson/project-hub/internal/domain"
	"github.com/oconnorjohnson/project-hub/internal/infrastructure/webhook"
)

const maxWebhookBody = 1 << 20 // 1 MiB

// WebhooksHandler ingests user lifecycle events pushed by the identity
// provider. Deliveries are authenticated by their HMAC signature, not by a
// session token.
type WebhooksHandler struct {
	verifier *webhook.Verifier
	users    ports.UserRepository
	log      zerolog.Logger
}

func NewWebhooksHandler(verifier *webhook.Verifier, users ports.UserRepository, log zerolog.Logger) *WebhooksHandler {
	return &WebhooksHandler{verifier: verifier, users: users, log: log}
}

type webhookEvent struct {
	Type string `json:"type"`
	Data struct {
		ID                    string  `json:"id"`
		FirstName             *string `json:"first_name"`
		LastName              *string `json:"last_name"`
		ImageURL              *string `json:"image_url"`
		PrimaryEmailAddressID string  `json:"primary_email_address_id"`
		EmailAddresses        []struct {
			ID           string `json:"id"`
			EmailAddress string `json:"email_address"`
		} `json:"email_addresses"`
	} `json:"data"`
}

// HandleClerk verifies and applies one provider event. user.created and
// user.updated upsert the local row; user.deleted removes it. Unknown event
// types are acknowledged and ignored.
func (h *WebhooksHandler) HandleClerk(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		writeErr(w, http.StatusBadRequest, ErrCodeInvalidRequest, "unreadable body")
		return
	}
	if err := h.verifier.Verify(r.Header, payload); err != nil {
		h.log.Warn().Err(err).Msg("webhook signature rejected")
		writeErr(w, http.StatusUnauthorized, ErrCodeUnauthorized, "invalid webhook signature")
		return
	}

	var event webhookEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		writeErr(w, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid payload")
		return
	}
	if event.Data.ID == "" {
		writeErr(w, http.StatusBadRequest, ErrCodeInvalidRequest, "missing user id")
		return
	}

	switch event.Type {
	case "user.created", "user.updated":
		user := &domain.User{
			ID:        event.Data.ID,
			Email:     primaryEmail(&event),
			FirstName: event.Data.FirstName,
			LastName:  event.Data.LastName,
			ImageURL:  event.Data.ImageURL,
		}
		if err := h.users.Upsert(r.Context(), user); err != nil {
			writeDomainErr(w, h.log, err)
			return
		}
	case "user.deleted":
		if err := h.users.Delete(r.Context(), event.Data.ID); err != nil {
			writeDomainErr(w, h.log, err)
			return
		}
	default:
		h.log.Debug().Str("type", event.Type).Msg("ignoring webhook event")
	}
	writeMessage(w, http.StatusOK, nil, "received")
}

// primaryEmail picks the address flagged primary, falling back to the
// first one listed.
func primaryEmail(event *webhookEvent) string {
	for _, addr := range event.Data.EmailAddresses {
		if addr.ID == event.Data.PrimaryEmailAddressID {
			return addr.EmailAddress
		}
	}
	if len(event.Data.EmailAddresses) > 0 {
		return event.Data.EmailAddresses[0].EmailAddress
	}
	return ""
}
