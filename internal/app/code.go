package app

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"

	"github.com/KNagaSaiSatyaTeja/BuzzerBattle/internal/domain"
)

const (
	codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789" // no 0/O, 1/I
	codeLength   = 6
	codeAttempts = 10
)

// newJoinCode returns a crypto-random short code.
func newJoinCode() (string, error) {
	buf := make([]byte, codeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i, b := range buf {
		buf[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return string(buf), nil
}

// uniqueJoinCode generates a code not used by any existing session,
// retrying on collision.
func (s *Service) uniqueJoinCode(ctx context.Context) (string, error) {
	for i := 0; i < codeAttempts; i++ {
		code, err := newJoinCode()
		if err != nil {
			return "", err
		}
		_, err = s.store.GetSessionByCode(ctx, code)
		if errors.Is(err, domain.ErrSessionNotFound) {
			return code, nil
		}
		if err != nil {
			return "", err
		}
	}
	return "", fmt.Errorf("after %d attempts: %w", codeAttempts, domain.ErrCodeTaken)
}
