package customerService

import (
	"AgriVoice/internal/api/customer"
	"AgriVoice/internal/entity"
	bcryptPkg "AgriVoice/pkg/bcrypt"
	contextPkg "AgriVoice/pkg/context"
	jwtPkg "AgriVoice/pkg/jwt"
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

func (s *customerService) Register(ctx context.Context, req customer.RegisterRequest) (customer.AuthResponse, error) {
	requestID := contextPkg.GetRequestID(ctx)

	phone, err := NormalizePhoneNumber(req.PhoneNumber)
	if err != nil {
		return customer.AuthResponse{}, err
	}

	repo, err := s.repo.NewClient(true)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to create repository client")
		return customer.AuthResponse{}, err
	}
	defer repo.Rollback()

	if _, err := repo.Customers.GetByPhoneNumber(ctx, phone); err == nil {
		return customer.AuthResponse{}, customer.ErrPhoneNumberAlreadyExists
	} else if !errors.Is(err, customer.ErrCustomerNotFound) {
		return customer.AuthResponse{}, err
	}

	pinHash, err := s.bcrypt.Hash(req.Pin)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to hash PIN")
		return customer.AuthResponse{}, err
	}

	id, err := s.utils.NewULIDFromTimestamp(time.Now())
	if err != nil {
		return customer.AuthResponse{}, err
	}

	language := req.Language
	if language == "" {
		language = "en"
	}

	cust := entity.Customer{
		ID:          id,
		Name:        strings.TrimSpace(req.Name),
		PhoneNumber: phone,
		PinHash:     pinHash,
		Language:    language,
	}

	if err := repo.Customers.CreateCustomer(ctx, cust); err != nil {
		return customer.AuthResponse{}, err
	}

	if err := repo.Commit(); err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to commit transaction")
		return customer.AuthResponse{}, err
	}

	s.log.WithFields(logrus.Fields{
		"request_id":  requestID,
		"customer_id": id,
	}).Info("Customer registered")

	return s.issueToken(cust)
}

func (s *customerService) Login(ctx context.Context, req customer.LoginRequest) (customer.AuthResponse, error) {
	requestID := contextPkg.GetRequestID(ctx)

	phone, err := NormalizePhoneNumber(req.PhoneNumber)
	if err != nil {
		return customer.AuthResponse{}, customer.ErrInvalidCredentials
	}

	repo, err := s.repo.NewClient(false)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to create repository client")
		return customer.AuthResponse{}, err
	}

	cust, err := repo.Customers.GetByPhoneNumber(ctx, phone)
	if err != nil {
		if errors.Is(err, customer.ErrCustomerNotFound) {
			return customer.AuthResponse{}, customer.ErrInvalidCredentials
		}
		return customer.AuthResponse{}, err
	}

	if err := s.bcrypt.Compare(cust.PinHash, req.Pin); err != nil {
		if errors.Is(err, bcryptPkg.ErrMismatch) {
			s.log.WithFields(logrus.Fields{
				"request_id":  requestID,
				"customer_id": cust.ID,
			}).Warn("Wrong PIN")
			return customer.AuthResponse{}, customer.ErrInvalidCredentials
		}
		return customer.AuthResponse{}, err
	}

	return s.issueToken(cust)
}

func (s *customerService) issueToken(cust entity.Customer) (customer.AuthResponse, error) {
	token, exp, err := jwtPkg.Sign(map[string]interface{}{
		jwtPkg.ClaimID:          cust.ID,
		jwtPkg.ClaimPhoneNumber: cust.PhoneNumber,
	}, s.tokenTTL, jwtPkg.AccessTokenSecretEnv)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"customer_id": cust.ID,
			"error":       err.Error(),
		}).Error("Failed to sign access token")
		return customer.AuthResponse{}, err
	}

	return customer.AuthResponse{
		Token:            token,
		UserID:           cust.ID,
		ExpiresAt:        exp,
		ExpiresInMinutes: int(s.tokenTTL.Minutes()),
	}, nil
}

// NormalizePhoneNumber strips separators and keeps an optional leading plus.
func NormalizePhoneNumber(raw string) (string, error) {
	var sb strings.Builder
	for i, r := range strings.TrimSpace(raw) {
		switch {
		case r >= '0' && r <= '9':
			sb.WriteRune(r)
		case r == '+' && i == 0:
			sb.WriteRune(r)
		case r == ' ' || r == '-' || r == '(' || r == ')' || r == '.':
		default:
			return "", customer.ErrInvalidPhoneNumber
		}
	}

	phone := sb.String()
	digits := len(strings.TrimPrefix(phone, "+"))
	if digits < 8 || digits > 15 {
		return "", customer.ErrInvalidPhoneNumber
	}

	return phone, nil
}
