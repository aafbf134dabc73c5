package relay

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/blissito/whatsapp-bot-educational-service/internal/student"
)

const (
	fieldMessages           = "messages"
	originBusinessInitiated = "business_initiated"
)

// Context is the per-message envelope serialized into the prompt so the
// downstream flow can condition its reply on who is messaging.
type Context struct {
	From               string `json:"whatsapp_from"`
	MessageID          string `json:"whatsapp_message_id"`
	PhoneNumberID      string `json:"whatsapp_phone_number_id"`
	MessageType        string `json:"whatsapp_message_type"`
	Timestamp          string `json:"whatsapp_timestamp"`
	ContactName        string `json:"contact_name"`
	ContactWaID        string `json:"contact_wa_id"`
	DisplayPhoneNumber string `json:"display_phone_number"`
	EntryID            string `json:"webhook_entry_id"`
	StudentName        string `json:"student_name"`
	StudentPhoneID     string `json:"student_phone_id"`
}

// Service walks inbound webhook deliveries and forwards each surviving
// message to the owning student's flow endpoint. Failures at every
// level are absorbed: the provider must always see success, otherwise
// it retries indefinitely or disables the subscription.
type Service struct {
	students  student.Repository
	forwarder *Forwarder
	logger    *slog.Logger
}

// NewService creates a relay over the given student store and forwarder.
func NewService(students student.Repository, forwarder *Forwarder, logger *slog.Logger) *Service {
	return &Service{students: students, forwarder: forwarder, logger: logger}
}

// Process handles one webhook delivery. It returns only after every
// forward attempt in the batch has settled; the HTTP handler then
// answers the provider with success regardless of what happened here.
func (s *Service) Process(ctx context.Context, body []byte) {
	var payload Payload
	if err := json.Unmarshal(body, &payload); err != nil {
		s.logger.Warn("malformed webhook payload", slog.Any("error", err))
		return
	}

	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			if change.Field != fieldMessages {
				continue
			}
			s.processChange(ctx, entry, change.Value)
		}
	}
}

func (s *Service) processChange(ctx context.Context, entry Entry, value Value) {
	if len(value.Messages) == 0 {
		return
	}

	phoneNumberID := extractPhoneNumberID(value)
	if phoneNumberID == "" {
		return
	}

	cfg, err := s.students.Get(ctx, phoneNumberID)
	if err != nil {
		// Unknown or unreadable tenant: drop the change, never the response.
		s.logger.Warn("no student config for webhook",
			slog.String("phone_number_id", phoneNumberID),
			slog.Any("error", err))
		return
	}

	if value.Metadata.Origin.Type == originBusinessInitiated {
		// Echoes of the bot's own outbound sends, not new user input.
		return
	}

	endpoint := cfg.FlowEndpoint()

	// Forwards for the messages of one change run concurrently, but the
	// provider response waits for all of them to settle.
	var wg sync.WaitGroup
	for _, msg := range value.Messages {
		wg.Add(1)
		go func(msg Message) {
			defer wg.Done()

			prompt := buildPrompt(entry, value, msg, cfg, phoneNumberID)
			res := s.forwarder.Forward(ctx, endpoint, prompt)
			if res.Delivered {
				s.logger.Info("message forwarded",
					slog.String("phone_number_id", phoneNumberID),
					slog.String("message_id", msg.ID),
					slog.Int("status", res.StatusCode))
			} else {
				s.logger.Warn("forward failed",
					slog.String("phone_number_id", phoneNumberID),
					slog.String("message_id", msg.ID),
					slog.Int("status", res.StatusCode),
					slog.Any("error", res.Err))
			}
		}(msg)
	}
	wg.Wait()
}

// extractPhoneNumberID prefers value.metadata.phone_number_id and falls
// back to the top-level field. Providers occasionally serialize absent
// ids as the literal strings "undefined" or "null"; both are rejected.
func extractPhoneNumberID(value Value) string {
	id := strings.TrimSpace(value.Metadata.PhoneNumberID)
	if id == "" {
		id = strings.TrimSpace(value.PhoneNumberID)
	}
	if id == "" || id == "undefined" || id == "null" {
		return ""
	}
	return id
}

func buildPrompt(entry Entry, value Value, msg Message, cfg student.Config, phoneNumberID string) string {
	contactName := "Usuario"
	contactWaID := msg.From
	if len(value.Contacts) > 0 {
		if name := value.Contacts[0].Profile.Name; name != "" {
			contactName = name
		}
		if waID := value.Contacts[0].WaID; waID != "" {
			contactWaID = waID
		}
	}

	displayPhone := value.Metadata.DisplayPhoneNumber
	if displayPhone == "" {
		displayPhone = phoneNumberID
	}

	timestamp := msg.Timestamp
	if timestamp == "" {
		timestamp = strconv.FormatInt(time.Now().UnixMilli(), 10)
	}

	msgCtx := Context{
		From:               orUnknown(msg.From),
		MessageID:          orUnknown(msg.ID),
		PhoneNumberID:      phoneNumberID,
		MessageType:        orDefault(msg.Type, "text"),
		Timestamp:          timestamp,
		ContactName:        contactName,
		ContactWaID:        orUnknown(contactWaID),
		DisplayPhoneNumber: displayPhone,
		EntryID:            orUnknown(entry.ID),
		StudentName:        cfg.StudentName,
		StudentPhoneID:     cfg.PhoneNumberID,
	}

	encoded, _ := json.Marshal(msgCtx)
	return "CONTEXTO_WHATSAPP: " + string(encoded) + "\n\nMENSAJE_USUARIO: " + msg.PromptText()
}

func orUnknown(v string) string {
	return orDefault(v, "unknown")
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
