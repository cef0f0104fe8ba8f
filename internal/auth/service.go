package auth

import (
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

// Token is an issued access token.
type Token struct {
	AccessToken string    `json:"accessToken"`
	TokenType   string    `json:"tokenType"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

// Service exchanges the shared consultant passphrase for access tokens.
type Service struct {
	hash   []byte
	tokens *JWTManager
}

// NewService takes the bcrypt hash of the passphrase.
func NewService(passphraseHash string, tokens *JWTManager) (*Service, error) {
	if _, err := bcrypt.Cost([]byte(passphraseHash)); err != nil {
		return nil, fmt.Errorf("passphrase hash: %w", err)
	}
	return &Service{hash: []byte(passphraseHash), tokens: tokens}, nil
}

func (s *Service) Login(passphrase string) (Token, error) {
	if err := bcrypt.CompareHashAndPassword(s.hash, []byte(passphrase)); err != nil {
		return Token{}, ErrInvalidCredentials
	}
	signed, expires, err := s.tokens.Generate(SubjectConsultant)
	if err != nil {
		return Token{}, err
	}
	return Token{AccessToken: signed, TokenType: "Bearer", ExpiresAt: expires}, nil
}

// Verify validates an access token issued by Login.
func (s *Service) Verify(token string) (Claims, error) {
	claims, err := s.tokens.Validate(token)
	if err != nil {
		return Claims{}, err
	}
	if claims.Subject != SubjectConsultant {
		return Claims{}, fmt.Errorf("%w: unexpected subject %q", ErrInvalidToken, claims.Subject)
	}
	return claims, nil
}
