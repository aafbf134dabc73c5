package student

import (
	"context"
	"crypto/subtle"
	"errors"
	"time"
)

// Service manages student registration and the authenticated edit flow.
type Service struct {
	repo              Repository
	globalVerifyToken string
}

// NewService creates a new student service. The global token doubles as
// the fallback edit-auth secret for records without their own.
func NewService(repo Repository, globalVerifyToken string) *Service {
	return &Service{repo: repo, globalVerifyToken: globalVerifyToken}
}

// RegistrationInput carries the submitted registration form fields.
type RegistrationInput struct {
	StudentName        string
	PhoneNumberID      string
	CompleteFlowURL    string
	AccessToken        string
	WebhookVerifyToken string
}

// UpdateInput carries the edit form fields. PhoneNumberID and
// VerifyToken authenticate; the remaining fields overwrite the record.
type UpdateInput struct {
	PhoneNumberID      string
	VerifyToken        string
	StudentName        string
	CompleteFlowURL    string
	AccessToken        string
	WebhookVerifyToken string
}

// CheckResult reports whether a phone number id is already registered.
type CheckResult struct {
	Exists      bool   `json:"exists"`
	StudentName string `json:"studentName,omitempty"`
}

// VerifyResult is the post-write confirmation for a registration.
type VerifyResult struct {
	Exists       bool       `json:"exists"`
	Valid        bool       `json:"valid"`
	StudentName  string     `json:"studentName,omitempty"`
	RegisteredAt *time.Time `json:"registeredAt,omitempty"`
}

// Register validates the submitted fields, derives the flow endpoint
// from the complete URL and persists a new record. Existing ids are
// rejected, never overwritten.
//
// The lookup-then-create pair is not transactional across callers; two
// concurrent registrations for the same id can both pass the lookup.
// The repository's Create narrows that window to its single-key write.
func (s *Service) Register(ctx context.Context, in RegistrationInput) (Config, error) {
	baseURL, flowID, err := DeriveFlow(in.CompleteFlowURL)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		StudentName:        in.StudentName,
		PhoneNumberID:      in.PhoneNumberID,
		FlowBaseURL:        baseURL,
		FlowID:             flowID,
		CompleteFlowURL:    in.CompleteFlowURL,
		AccessToken:        in.AccessToken,
		WebhookVerifyToken: in.WebhookVerifyToken,
		RegisteredAt:       time.Now().UTC(),
	}

	if missing := missingFields(cfg); len(missing) > 0 {
		return Config{}, &MissingFieldsError{Fields: missing}
	}

	if existing, err := s.repo.Get(ctx, cfg.PhoneNumberID); err == nil {
		return Config{}, &DuplicateError{PhoneNumberID: cfg.PhoneNumberID, OwnerName: existing.StudentName}
	} else if !errors.Is(err, ErrNotFound) {
		return Config{}, err
	}

	if err := s.repo.Create(ctx, cfg); err != nil {
		if errors.Is(err, ErrAlreadyExists) {
			dup := &DuplicateError{PhoneNumberID: cfg.PhoneNumberID}
			if existing, gerr := s.repo.Get(ctx, cfg.PhoneNumberID); gerr == nil {
				dup.OwnerName = existing.StudentName
			}
			return Config{}, dup
		}
		return Config{}, err
	}

	return cfg, nil
}

// CheckPhone is a pure read used for live form validation.
func (s *Service) CheckPhone(ctx context.Context, phoneNumberID string) (CheckResult, error) {
	cfg, err := s.repo.Get(ctx, phoneNumberID)
	if errors.Is(err, ErrNotFound) {
		return CheckResult{}, nil
	}
	if err != nil {
		return CheckResult{}, err
	}
	return CheckResult{Exists: true, StudentName: cfg.StudentName}, nil
}

// VerifyRegistration is a read-only confirmation that a stored record
// exists and carries all five required fields.
func (s *Service) VerifyRegistration(ctx context.Context, phoneNumberID string) (VerifyResult, error) {
	cfg, err := s.repo.Get(ctx, phoneNumberID)
	if errors.Is(err, ErrNotFound) {
		return VerifyResult{}, nil
	}
	if err != nil {
		return VerifyResult{}, err
	}

	registeredAt := cfg.RegisteredAt
	return VerifyResult{
		Exists:       true,
		Valid:        len(missingFields(cfg)) == 0,
		StudentName:  cfg.StudentName,
		RegisteredAt: &registeredAt,
	}, nil
}

// Authenticate verifies the (phoneNumberId, token) pair and returns the
// full record on success, access token and secret included, so the edit
// form can pre-fill. Callers must treat the result as sensitive.
func (s *Service) Authenticate(ctx context.Context, phoneNumberID, verifyToken string) (Config, error) {
	cfg, err := s.repo.Get(ctx, phoneNumberID)
	if err != nil {
		return Config{}, err
	}

	want := ResolveVerifyToken(cfg, s.globalVerifyToken)
	if subtle.ConstantTimeCompare([]byte(verifyToken), []byte(want)) != 1 {
		return Config{}, ErrInvalidToken
	}
	return cfg, nil
}

// Update re-authenticates on its own (it never trusts a prior
// Authenticate call), re-derives the flow fields and overwrites the
// mutable part of the record. PhoneNumberID and RegisteredAt are never
// rewritten.
func (s *Service) Update(ctx context.Context, in UpdateInput) (Config, error) {
	existing, err := s.Authenticate(ctx, in.PhoneNumberID, in.VerifyToken)
	if err != nil {
		return Config{}, err
	}

	baseURL, flowID, err := DeriveFlow(in.CompleteFlowURL)
	if err != nil {
		return Config{}, err
	}

	now := time.Now().UTC()
	updated := existing
	updated.StudentName = in.StudentName
	updated.FlowBaseURL = baseURL
	updated.FlowID = flowID
	updated.CompleteFlowURL = in.CompleteFlowURL
	updated.AccessToken = in.AccessToken
	updated.WebhookVerifyToken = in.WebhookVerifyToken
	updated.LastUpdate = &now
	updated.LastTokenUpdate = &now

	if err := s.repo.Put(ctx, updated); err != nil {
		return Config{}, err
	}
	return updated, nil
}

func missingFields(cfg Config) []string {
	var missing []string
	if cfg.StudentName == "" {
		missing = append(missing, "studentName")
	}
	if cfg.PhoneNumberID == "" {
		missing = append(missing, "phoneNumberId")
	}
	if cfg.FlowBaseURL == "" {
		missing = append(missing, "flowBaseUrl")
	}
	if cfg.FlowID == "" {
		missing = append(missing, "flowId")
	}
	if cfg.AccessToken == "" {
		missing = append(missing, "accessToken")
	}
	return missing
}
