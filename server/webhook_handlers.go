package server

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/zentriq/deskbridge/helpdesk"
	apperrors "github.com/zentriq/deskbridge/internal/errors"
)

const (
	webhookSignatureHeader = "X-Webhook-Signature"
	maxWebhookBytes        = 256 << 10
	recentOrderCount       = 3
)

// CallEvent is the inbound webhook payload from the telephony platform.
type CallEvent struct {
	CallID          string `json:"call_id"`
	Direction       string `json:"direction"`
	CallerNumber    string `json:"caller_number"`
	CallerName      string `json:"caller_name,omitempty"`
	DurationSeconds int    `json:"duration_seconds,omitempty"`
}

// CallWebhookHandler turns a call event into an enriched helpdesk ticket.
func (s *Server) CallWebhookHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBytes))
		if err != nil {
			http.Error(w, "unreadable body", http.StatusBadRequest)
			return
		}

		if !s.verifyWebhookSignature(body, r.Header.Get(webhookSignatureHeader)) {
			http.Error(w, "invalid webhook signature", http.StatusUnauthorized)
			return
		}

		var event CallEvent
		if err := json.Unmarshal(body, &event); err != nil {
			http.Error(w, "malformed call event", http.StatusBadRequest)
			return
		}
		if event.CallerNumber == "" {
			http.Error(w, "caller_number is required", http.StatusBadRequest)
			return
		}

		created, err := s.ticketForCall(r.Context(), event)
		if err != nil {
			s.writeTokenAwareError(w, event.CallID, err)
			return
		}

		log.Info().
			Str("call_id", event.CallID).
			Str("ticket_id", created.ID).
			Msg("ticket created for call event")

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"ticket_id":     created.ID,
			"ticket_number": created.TicketNumber,
		})
	}
}

// ticketForCall assembles the enrichment context and creates the ticket.
// Lookup misses are tolerated; token failures are not, since ticket creation
// would fail on the same token anyway.
func (s *Server) ticketForCall(ctx context.Context, event CallEvent) (*helpdesk.CreatedTicket, error) {
	description := helpdesk.DescriptionData{
		CallerName:   event.CallerName,
		CallerNumber: event.CallerNumber,
		Direction:    event.Direction,
	}
	if event.DurationSeconds > 0 {
		description.Duration = (time.Duration(event.DurationSeconds) * time.Second).String()
	}

	contactEmail := ""
	contact, err := s.deps.Telephony.ContactByPhone(ctx, event.CallerNumber)
	switch {
	case err == nil:
		contactEmail = contact.Email
		if description.CallerName == "" {
			description.CallerName = contact.Name
		}
	case !apperrors.Is(err, apperrors.ErrNotFound):
		log.Warn().Err(err).Str("number", event.CallerNumber).Msg("telephony lookup failed, creating unenriched ticket")
	}

	if contactEmail != "" {
		if err := s.enrichFromCommerce(ctx, contactEmail, &description); err != nil {
			return nil, err
		}
	}

	html, err := helpdesk.BuildDescription(description)
	if err != nil {
		return nil, apperrors.Wrapf(err, "[Server.ticketForCall] rendering description")
	}

	callerLabel := description.CallerName
	if callerLabel == "" {
		callerLabel = event.CallerNumber
	}

	return s.deps.Helpdesk.CreateTicket(ctx, helpdesk.Ticket{
		Subject:      fmt.Sprintf("Call from %s", callerLabel),
		DepartmentID: s.config.GetHelpdeskDepartmentID(),
		Description:  html,
		Channel:      "Phone",
		Contact: helpdesk.Contact{
			Name:  callerLabel,
			Email: contactEmail,
			Phone: event.CallerNumber,
		},
	})
}

func (s *Server) enrichFromCommerce(ctx context.Context, email string, description *helpdesk.DescriptionData) error {
	customer, err := s.deps.Commerce.CustomerByEmail(ctx, email)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			return nil
		}
		if isTokenError(err) {
			return err
		}
		log.Warn().Err(err).Str("email", email).Msg("commerce customer lookup failed, skipping enrichment")
		return nil
	}

	description.Customer = &helpdesk.CustomerSummary{
		Name:        customer.FullName(),
		Email:       customer.Email,
		TotalOrders: customer.TotalOrders,
	}

	orders, err := s.deps.Commerce.RecentOrders(ctx, customer.ID, recentOrderCount)
	if err != nil {
		if isTokenError(err) {
			return err
		}
		log.Warn().Err(err).Str("customer_id", customer.ID).Msg("order lookup failed, skipping order context")
		return nil
	}
	for _, order := range orders {
		description.Orders = append(description.Orders, helpdesk.OrderLine{
			Number: order.Number,
			Status: order.Status,
			Total:  fmt.Sprintf("%.2f", order.Total),
		})
	}
	return nil
}

// writeTokenAwareError maps the token taxonomy onto webhook response codes:
// a missing refresh token means the consent flow must be re-run (503), a
// rejected refresh is an upstream failure the edge platform may retry (502).
func (s *Server) writeTokenAwareError(w http.ResponseWriter, callID string, err error) {
	switch {
	case apperrors.Is(err, apperrors.ErrReauthorizationRequired):
		log.Error().Err(err).Str("call_id", callID).Msg("no token on record, re-run the consent flow")
		http.Error(w, "helpdesk authorization expired, reauthorization required", http.StatusServiceUnavailable)
	case apperrors.Is(err, apperrors.ErrTokenRefreshFailed):
		log.Error().Err(err).Str("call_id", callID).Msg("token refresh failed")
		http.Error(w, "helpdesk token refresh failed", http.StatusBadGateway)
	default:
		log.Error().Err(err).Str("call_id", callID).Msg("ticket creation failed")
		http.Error(w, "ticket creation failed", http.StatusInternalServerError)
	}
}

func isTokenError(err error) bool {
	return apperrors.Is(err, apperrors.ErrReauthorizationRequired) ||
		apperrors.Is(err, apperrors.ErrTokenRefreshFailed)
}

// verifyWebhookSignature checks the hex HMAC-SHA256 of the body against the
// shared secret. An unset secret disables verification for local development.
func (s *Server) verifyWebhookSignature(body []byte, signature string) bool {
	secret := s.config.GetWebhookSecret()
	if secret == "" {
		return true
	}

	provided, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hmac.Equal(provided, mac.Sum(nil))
}
