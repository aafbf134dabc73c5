package student

import "time"

// Config is one registered student's record. The store key is always
// PhoneNumberID; the two must never disagree, so the id is written once
// at registration and never rewritten.
type Config struct {
	StudentName        string     `json:"studentName"`
	PhoneNumberID      string     `json:"phoneNumberId"`
	FlowBaseURL        string     `json:"flowBaseUrl"`
	FlowID             string     `json:"flowId"`
	CompleteFlowURL    string     `json:"completeFlowUrl"`
	AccessToken        string     `json:"accessToken"`
	WebhookVerifyToken string     `json:"webhookVerifyToken,omitempty"`
	RegisteredAt       time.Time  `json:"registeredAt"`
	LastUpdate         *time.Time `json:"lastUpdate,omitempty"`
	LastTokenUpdate    *time.Time `json:"lastTokenUpdate,omitempty"`
}

// FlowEndpoint reconstructs the downstream prediction URL from the two
// derived fields.
func (c Config) FlowEndpoint() string {
	return c.FlowBaseURL + "/api/v1/prediction/" + c.FlowID
}

// ResolveVerifyToken picks the edit-auth secret for a record: its own
// webhookVerifyToken when set, otherwise the process-wide fallback.
func ResolveVerifyToken(cfg Config, global string) string {
	if cfg.WebhookVerifyToken != "" {
		return cfg.WebhookVerifyToken
	}
	return global
}
