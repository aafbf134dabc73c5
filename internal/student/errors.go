package student

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound indicates no record is stored under the phone number id.
	ErrNotFound = errors.New("no se encontró configuración con ese Phone Number ID")
	// ErrInvalidToken indicates the edit-auth secret did not match.
	ErrInvalidToken = errors.New("Webhook Verify Token incorrecto")
	// ErrInvalidFlowURL indicates the complete flow URL lacks a usable
	// prediction segment.
	ErrInvalidFlowURL = errors.New("la URL del flujo IA no tiene el formato correcto")
	// ErrAlreadyExists is returned by Repository.Create when the key is
	// already claimed; the service wraps it into a DuplicateError.
	ErrAlreadyExists = errors.New("configuration already exists")
)

// DuplicateError reports an attempt to register an already-claimed
// phone number id, naming the current owner.
type DuplicateError struct {
	PhoneNumberID string
	OwnerName     string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("ya existe un registro con Phone Number ID %q para %q. Si eres tú, usa el enlace \"Editar mi configuración\" desde la página principal", e.PhoneNumberID, e.OwnerName)
}

// MissingFieldsError lists required fields that came back empty after
// flow-URL derivation.
type MissingFieldsError struct {
	Fields []string
}

func (e *MissingFieldsError) Error() string {
	return "campos requeridos vacíos: " + strings.Join(e.Fields, ", ")
}
