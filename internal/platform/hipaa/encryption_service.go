package hipaa

import (
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
)

var ErrKeyRequired = errors.New("HIPAA_ENCRYPTION_KEY is required")

// EncryptionService owns the configured PHI encryptor. With no key it runs
// disabled and Encryptor returns nil, which repositories treat as "do not
// store encrypted columns".
type EncryptionService struct {
	encryptor FieldEncryptor
}

// NewEncryptionService parses a 64-char hex key. An empty key is allowed
// unless required is set.
func NewEncryptionService(key string, required bool, logger zerolog.Logger) (*EncryptionService, error) {
	if key == "" {
		if required {
			return nil, ErrKeyRequired
		}
		logger.Warn().Msg("PHI encryption disabled: HIPAA_ENCRYPTION_KEY is not set, SSNs will not be stored")
		return &EncryptionService{}, nil
	}

	keyBytes, err := hex.DecodeString(key)
	if err != nil {
		return nil, fmt.Errorf("HIPAA_ENCRYPTION_KEY is not valid hex: %w", err)
	}
	if len(keyBytes) != 32 {
		return nil, fmt.Errorf("HIPAA_ENCRYPTION_KEY must be 32 bytes (64 hex chars), got %d bytes", len(keyBytes))
	}

	enc, err := NewPHIEncryptor(keyBytes)
	if err != nil {
		return nil, fmt.Errorf("create PHI encryptor: %w", err)
	}
	logger.Info().Msg("PHI field-level encryption enabled")
	return &EncryptionService{encryptor: enc}, nil
}

func (s *EncryptionService) Enabled() bool { return s.encryptor != nil }

// Encryptor returns the encryptor or nil when disabled.
func (s *EncryptionService) Encryptor() FieldEncryptor {
	return s.encryptor
}

// MaskSSN keeps only the last four digits of a social security number.
func MaskSSN(ssn string) string {
	digits := make([]byte, 0, len(ssn))
	for i := 0; i < len(ssn); i++ {
		if ssn[i] >= '0' && ssn[i] <= '9' {
			digits = append(digits, ssn[i])
		}
	}
	if len(digits) < 4 {
		if len(digits) == 0 {
			return ""
		}
		return "***-**-****"
	}
	return "***-**-" + string(digits[len(digits)-4:])
}
