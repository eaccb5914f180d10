package config

import (
	"encoding/json"
	"errors"
	"strings"
)

// TokenURI is the OAuth2 token endpoint written into service-account
// credentials. It is not configurable.
const TokenURI = "https://oauth2.googleapis.com/token"

var ErrMissingCredentials = errors.New("firebase credentials are incomplete")

// FirebaseConfig holds the service-account fields used to reach Firestore.
type FirebaseConfig struct {
	ProjectID    string
	ClientEmail  string
	PrivateKey   string
	PrivateKeyID string
}

type serviceAccount struct {
	Type         string `json:"type"`
	ProjectID    string `json:"project_id"`
	PrivateKeyID string `json:"private_key_id,omitempty"`
	PrivateKey   string `json:"private_key"`
	ClientEmail  string `json:"client_email"`
	TokenURI     string `json:"token_uri"`
}

// UnescapePrivateKey turns literal "\n" sequences into line breaks. Keys
// pasted into .env files usually arrive on a single line.
func UnescapePrivateKey(key string) string {
	return strings.ReplaceAll(key, `\n`, "\n")
}

// Validate reports which required fields are missing.
func (c FirebaseConfig) Validate() error {
	var missing []string
	if c.ProjectID == "" {
		missing = append(missing, "FIREBASE_PROJECT_ID")
	}
	if c.ClientEmail == "" {
		missing = append(missing, "FIREBASE_CLIENT_EMAIL")
	}
	if c.PrivateKey == "" {
		missing = append(missing, "FIREBASE_PRIVATE_KEY")
	}
	if len(missing) > 0 {
		return &MissingFieldsError{Fields: missing}
	}
	return nil
}

// ServiceAccountJSON renders the credential document understood by the
// Google auth libraries.
func (c FirebaseConfig) ServiceAccountJSON() ([]byte, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return json.Marshal(serviceAccount{
		Type:         "service_account",
		ProjectID:    c.ProjectID,
		PrivateKeyID: c.PrivateKeyID,
		PrivateKey:   c.PrivateKey,
		ClientEmail:  c.ClientEmail,
		TokenURI:     TokenURI,
	})
}

// MissingFieldsError lists unset environment variables.
type MissingFieldsError struct {
	Fields []string
}

func (e *MissingFieldsError) Error() string {
	return ErrMissingCredentials.Error() + ": missing " + strings.Join(e.Fields, ", ")
}

func (e *MissingFieldsError) Unwrap() error {
	return ErrMissingCredentials
}
