package relay

// Payload mirrors the WhatsApp Cloud API webhook envelope. Only the
// fields the relay reads are modeled; absent or partial nesting decodes
// to zero values, which the processing loop treats as a skip, never as
// an error.
type Payload struct {
	Object string  `json:"object"`
	Entry  []Entry `json:"entry"`
}

type Entry struct {
	ID      string   `json:"id"`
	Changes []Change `json:"changes"`
}

type Change struct {
	Field string `json:"field"`
	Value Value  `json:"value"`
}

type Value struct {
	MessagingProduct string    `json:"messaging_product"`
	Metadata         Metadata  `json:"metadata"`
	PhoneNumberID    string    `json:"phone_number_id"`
	Contacts         []Contact `json:"contacts"`
	Messages         []Message `json:"messages"`
}

type Metadata struct {
	DisplayPhoneNumber string `json:"display_phone_number"`
	PhoneNumberID      string `json:"phone_number_id"`
	Origin             Origin `json:"origin"`
}

type Origin struct {
	Type string `json:"type"`
}

type Contact struct {
	Profile Profile `json:"profile"`
	WaID    string  `json:"wa_id"`
}

type Profile struct {
	Name string `json:"name"`
}

type Message struct {
	From      string    `json:"from"`
	ID        string    `json:"id"`
	Timestamp string    `json:"timestamp"`
	Type      string    `json:"type"`
	Text      *Text     `json:"text"`
	Image     *Media    `json:"image"`
	Audio     *Media    `json:"audio"`
	Document  *Document `json:"document"`
}

type Text struct {
	Body string `json:"body"`
}

type Media struct {
	ID      string `json:"id"`
	Caption string `json:"caption"`
}

type Document struct {
	Filename string `json:"filename"`
}

// PromptText renders the message as plain text for the flow endpoint,
// substituting bracketed placeholders for non-text types since the
// downstream flow accepts text only.
func (m Message) PromptText() string {
	if m.Text != nil && m.Text.Body != "" {
		return m.Text.Body
	}

	switch m.Type {
	case "image":
		caption := "Sin descripción"
		if m.Image != nil && m.Image.Caption != "" {
			caption = m.Image.Caption
		}
		return "[Imagen] " + caption
	case "audio":
		return "[Audio recibido]"
	case "document":
		filename := "Sin nombre"
		if m.Document != nil && m.Document.Filename != "" {
			filename = m.Document.Filename
		}
		return "[Documento] " + filename
	default:
		return "[Mensaje tipo: " + m.Type + "]"
	}
}
