package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/blissito/whatsapp-bot-educational-service/internal/logging"
	"github.com/blissito/whatsapp-bot-educational-service/internal/student"
)

type capturingFlow struct {
	mu      sync.Mutex
	paths   []string
	prompts []string
}

func (f *capturingFlow) handler(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	var req struct {
		Question string `json:"question"`
	}
	_ = json.Unmarshal(body, &req)

	f.mu.Lock()
	f.paths = append(f.paths, r.URL.Path)
	f.prompts = append(f.prompts, req.Question)
	f.mu.Unlock()

	w.WriteHeader(http.StatusOK)
}

func (f *capturingFlow) snapshot() ([]string, []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.paths...), append([]string(nil), f.prompts...)
}

func setupRelay(t *testing.T) (*Service, *capturingFlow) {
	t.Helper()

	flow := &capturingFlow{}
	srv := httptest.NewServer(http.HandlerFunc(flow.handler))
	t.Cleanup(srv.Close)

	repo := student.NewMemoryRepository()
	if err := repo.Put(context.Background(), student.Config{
		StudentName:     "Ana",
		PhoneNumberID:   "555",
		FlowBaseURL:     srv.URL,
		FlowID:          "abc-123",
		CompleteFlowURL: srv.URL + "/api/v1/prediction/abc-123",
		AccessToken:     "EAAF...",
		RegisteredAt:    time.Now().UTC(),
	}); err != nil {
		t.Fatalf("seed config: %v", err)
	}

	return NewService(repo, NewForwarder(2*time.Second), logging.Discard()), flow
}

func textDelivery(phoneNumberID, text string) []byte {
	return []byte(fmt.Sprintf(`{
        "object": "whatsapp_business_account",
        "entry": [{
            "id": "entry-1",
            "changes": [{
                "field": "messages",
                "value": {
                    "metadata": {"display_phone_number": "5215500000000", "phone_number_id": %q},
                    "contacts": [{"profile": {"name": "Luis"}, "wa_id": "5215587654321"}],
                    "messages": [{
                        "from": "5215587654321",
                        "id": "wamid.1",
                        "timestamp": "1700000000",
                        "type": "text",
                        "text": {"body": %q}
                    }]
                }
            }]
        }]
    }`, phoneNumberID, text))
}

func TestProcessForwardsTextMessage(t *testing.T) {
	svc, flow := setupRelay(t)

	svc.Process(context.Background(), textDelivery("555", "hola"))

	paths, prompts := flow.snapshot()
	if len(paths) != 1 {
		t.Fatalf("expected 1 forward, got %d", len(paths))
	}
	if paths[0] != "/api/v1/prediction/abc-123" {
		t.Fatalf("unexpected endpoint path %s", paths[0])
	}

	prompt := prompts[0]
	if !strings.HasPrefix(prompt, "CONTEXTO_WHATSAPP: ") {
		t.Fatalf("prompt missing context header: %q", prompt)
	}
	if !strings.HasSuffix(prompt, "\n\nMENSAJE_USUARIO: hola") {
		t.Fatalf("prompt missing user message: %q", prompt)
	}

	header := strings.TrimPrefix(prompt, "CONTEXTO_WHATSAPP: ")
	header = header[:strings.Index(header, "\n\n")]
	var msgCtx Context
	if err := json.Unmarshal([]byte(header), &msgCtx); err != nil {
		t.Fatalf("context header not valid json: %v", err)
	}
	if msgCtx.From != "5215587654321" || msgCtx.PhoneNumberID != "555" {
		t.Fatalf("context sender fields wrong: %+v", msgCtx)
	}
	if msgCtx.ContactName != "Luis" || msgCtx.StudentName != "Ana" {
		t.Fatalf("context name fields wrong: %+v", msgCtx)
	}
	if msgCtx.EntryID != "entry-1" || msgCtx.DisplayPhoneNumber != "5215500000000" {
		t.Fatalf("context entry fields wrong: %+v", msgCtx)
	}
}

func TestProcessSkipsBusinessInitiatedEcho(t *testing.T) {
	svc, flow := setupRelay(t)

	payload := []byte(`{
        "entry": [{
            "id": "entry-1",
            "changes": [{
                "field": "messages",
                "value": {
                    "metadata": {"phone_number_id": "555", "origin": {"type": "business_initiated"}},
                    "messages": [{"from": "x", "id": "wamid.1", "type": "text", "text": {"body": "echo"}}]
                }
            }]
        }]
    }`)
	svc.Process(context.Background(), payload)

	if paths, _ := flow.snapshot(); len(paths) != 0 {
		t.Fatalf("echo message must not be forwarded, got %d forwards", len(paths))
	}
}

func TestProcessSkipsUnknownPhoneNumberID(t *testing.T) {
	svc, flow := setupRelay(t)

	svc.Process(context.Background(), textDelivery("999", "hola"))

	if paths, _ := flow.snapshot(); len(paths) != 0 {
		t.Fatalf("unknown tenant must not forward, got %d forwards", len(paths))
	}
}

func TestProcessRejectsPlaceholderPhoneNumberIDs(t *testing.T) {
	svc, flow := setupRelay(t)

	for _, id := range []string{"", "  ", "undefined", "null"} {
		svc.Process(context.Background(), textDelivery(id, "hola"))
	}

	if paths, _ := flow.snapshot(); len(paths) != 0 {
		t.Fatalf("placeholder ids must be rejected, got %d forwards", len(paths))
	}
}

func TestProcessFallsBackToValuePhoneNumberID(t *testing.T) {
	svc, flow := setupRelay(t)

	payload := []byte(`{
        "entry": [{
            "id": "entry-1",
            "changes": [{
                "field": "messages",
                "value": {
                    "phone_number_id": "555",
                    "messages": [{"from": "x", "id": "wamid.1", "type": "text", "text": {"body": "hola"}}]
                }
            }]
        }]
    }`)
	svc.Process(context.Background(), payload)

	if paths, _ := flow.snapshot(); len(paths) != 1 {
		t.Fatalf("expected fallback id to forward once, got %d", len(paths))
	}
}

func TestProcessAudioPlaceholder(t *testing.T) {
	svc, flow := setupRelay(t)

	payload := []byte(`{
        "entry": [{
            "id": "entry-1",
            "changes": [{
                "field": "messages",
                "value": {
                    "metadata": {"phone_number_id": "555"},
                    "messages": [{"from": "x", "id": "wamid.1", "type": "audio", "audio": {"id": "media-1"}}]
                }
            }]
        }]
    }`)
	svc.Process(context.Background(), payload)

	_, prompts := flow.snapshot()
	if len(prompts) != 1 {
		t.Fatalf("expected 1 forward, got %d", len(prompts))
	}
	if !strings.HasSuffix(prompts[0], "MENSAJE_USUARIO: [Audio recibido]") {
		t.Fatalf("expected audio placeholder, got %q", prompts[0])
	}
}

func TestProcessIgnoresNonMessageChanges(t *testing.T) {
	svc, flow := setupRelay(t)

	payload := []byte(`{
        "entry": [{
            "id": "entry-1",
            "changes": [{
                "field": "statuses",
                "value": {
                    "metadata": {"phone_number_id": "555"},
                    "messages": [{"from": "x", "id": "wamid.1", "type": "text", "text": {"body": "hola"}}]
                }
            }]
        }]
    }`)
	svc.Process(context.Background(), payload)

	if paths, _ := flow.snapshot(); len(paths) != 0 {
		t.Fatalf("non-message changes must be ignored, got %d forwards", len(paths))
	}
}

func TestProcessMalformedPayloads(t *testing.T) {
	svc, flow := setupRelay(t)

	for _, body := range []string{
		`not json at all`,
		`{}`,
		`{"entry": "nope"}`,
		`{"entry": [{}]}`,
		`{"entry": [{"changes": [{"field": "messages"}]}]}`,
		`{"entry": [{"changes": [{"field": "messages", "value": {"messages": []}}]}]}`,
	} {
		svc.Process(context.Background(), []byte(body))
	}

	if paths, _ := flow.snapshot(); len(paths) != 0 {
		t.Fatalf("malformed payloads must be no-ops, got %d forwards", len(paths))
	}
}

func TestProcessForwardsEveryMessageInChange(t *testing.T) {
	svc, flow := setupRelay(t)

	payload := []byte(`{
        "entry": [{
            "id": "entry-1",
            "changes": [{
                "field": "messages",
                "value": {
                    "metadata": {"phone_number_id": "555"},
                    "messages": [
                        {"from": "x", "id": "wamid.1", "type": "text", "text": {"body": "uno"}},
                        {"from": "x", "id": "wamid.2", "type": "text", "text": {"body": "dos"}}
                    ]
                }
            }]
        }]
    }`)
	svc.Process(context.Background(), payload)

	_, prompts := flow.snapshot()
	if len(prompts) != 2 {
		t.Fatalf("expected 2 forwards, got %d", len(prompts))
	}
}

func TestPromptTextPlaceholders(t *testing.T) {
	cases := []struct {
		name string
		msg  Message
		want string
	}{
		{"text", Message{Type: "text", Text: &Text{Body: "hola"}}, "hola"},
		{"image with caption", Message{Type: "image", Image: &Media{Caption: "una foto"}}, "[Imagen] una foto"},
		{"image without caption", Message{Type: "image"}, "[Imagen] Sin descripción"},
		{"audio", Message{Type: "audio"}, "[Audio recibido]"},
		{"document named", Message{Type: "document", Document: &Document{Filename: "tarea.pdf"}}, "[Documento] tarea.pdf"},
		{"document unnamed", Message{Type: "document"}, "[Documento] Sin nombre"},
		{"sticker", Message{Type: "sticker"}, "[Mensaje tipo: sticker]"},
	}

	for _, tc := range cases {
		if got := tc.msg.PromptText(); got != tc.want {
			t.Fatalf("%s: expected %q, got %q", tc.name, tc.want, got)
		}
	}
}

func TestForwarderReportsFailureWithoutPropagating(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	f := NewForwarder(time.Second)

	res := f.Forward(context.Background(), srv.URL, "hola")
	if res.Delivered {
		t.Fatalf("expected failure result for 502")
	}
	if res.StatusCode != http.StatusBadGateway {
		t.Fatalf("expected status 502, got %d", res.StatusCode)
	}

	// Unreachable endpoint settles with an error, still no panic.
	res = f.Forward(context.Background(), "http://127.0.0.1:1", "hola")
	if res.Delivered || res.Err == nil {
		t.Fatalf("expected network error result, got %+v", res)
	}
}

func TestProcessDownstreamFailureStillSettles(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	repo := student.NewMemoryRepository()
	_ = repo.Put(context.Background(), student.Config{
		StudentName:   "Ana",
		PhoneNumberID: "555",
		FlowBaseURL:   srv.URL,
		FlowID:        "abc-123",
		AccessToken:   "EAAF...",
	})
	svc := NewService(repo, NewForwarder(time.Second), logging.Discard())

	// Must return normally; the handler above it answers 200 regardless.
	svc.Process(context.Background(), textDelivery("555", "hola"))
}
