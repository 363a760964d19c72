package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"paygate/internal/apperr"
	"paygate/internal/model"
	"paygate/internal/store"
)

// Credentials of the merchant seeded at startup for local testing.
const (
	TestMerchantID     = "550e8400-e29b-41d4-a716-446655440000"
	TestMerchantName   = "Test Merchant"
	TestMerchantEmail  = "test@example.com"
	TestMerchantKey    = "key_test_abc123"
	TestMerchantSecret = "secret_test_xyz789"
)

type MerchantService struct {
	merchants store.MerchantStore
}

func NewMerchantService(merchants store.MerchantStore) *MerchantService {
	return &MerchantService{merchants: merchants}
}

// Authenticate resolves an API key/secret pair to its merchant.
func (s *MerchantService) Authenticate(ctx context.Context, apiKey, apiSecret string) (*model.Merchant, error) {
	if apiKey == "" || apiSecret == "" {
		return nil, apperr.Authentication("Invalid API credentials")
	}

	m, err := s.merchants.GetByAPIKey(ctx, apiKey)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.Authentication("Invalid API credentials")
		}
		return nil, fmt.Errorf("get merchant: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword(m.APISecretHash, []byte(apiSecret)); err != nil {
		return nil, apperr.Authentication("Invalid API credentials")
	}
	return m, nil
}

func (s *MerchantService) Get(ctx context.Context, id string) (*model.Merchant, error) {
	m, err := s.merchants.Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.Authentication("Merchant not found")
		}
		return nil, fmt.Errorf("get merchant: %w", err)
	}
	return m, nil
}

func (s *MerchantService) TestMerchant(ctx context.Context) (*model.Merchant, error) {
	m, err := s.merchants.GetByEmail(ctx, TestMerchantEmail)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.NotFound("Test merchant not seeded")
		}
		return nil, fmt.Errorf("get test merchant: %w", err)
	}
	return m, nil
}

func (s *MerchantService) SeedTestMerchant(ctx context.Context) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(TestMerchantSecret), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash secret: %w", err)
	}
	return s.merchants.Seed(ctx, &model.Merchant{
		ID:            TestMerchantID,
		Name:          TestMerchantName,
		Email:         TestMerchantEmail,
		APIKey:        TestMerchantKey,
		APISecretHash: hash,
		CreatedAt:     time.Now().UTC(),
	})
}
