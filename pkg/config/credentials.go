package config

import (
	"encoding/json"
	"fmt"
	"os"

	errs "boorudl/pkg/errors"
)

// Credentials holds the API key and user id passed through to the booru API
type Credentials struct {
	APIKey string `json:"api_key"`
	UserID string `json:"user_id"`
}

// credentialsFile mirrors Credentials with pointers so absent keys can be told apart from empty ones
type credentialsFile struct {
	APIKey *string `json:"api_key"`
	UserID *string `json:"user_id"`
}

// LoadCredentials reads a credentials.json file. A missing file, invalid JSON or an absent
// api_key/user_id key is an error.
func LoadCredentials(path string) (*Credentials, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypeConfig, err, fmt.Sprintf("failed to read credentials file %s", path))
	}

	var raw credentialsFile
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errs.Wrap(errs.ErrorTypeParsing, err, fmt.Sprintf("failed to parse credentials file %s", path))
	}

	if raw.APIKey == nil {
		return nil, errs.New(errs.ErrorTypeConfig, fmt.Sprintf("credentials file %s is missing api_key", path))
	}
	if raw.UserID == nil {
		return nil, errs.New(errs.ErrorTypeConfig, fmt.Sprintf("credentials file %s is missing user_id", path))
	}

	return &Credentials{
		APIKey: *raw.APIKey,
		UserID: *raw.UserID,
	}, nil
}

// Masked returns a copy safe to print, with the API key hidden
func (c Credentials) Masked() Credentials {
	masked := c
	if len(masked.APIKey) > 4 {
		masked.APIKey = masked.APIKey[:4] + "****"
	} else if masked.APIKey != "" {
		masked.APIKey = "****"
	}
	return masked
}
