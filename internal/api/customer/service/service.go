package customerService

import (
	"AgriVoice/internal/api/customer"
	customerRepository "AgriVoice/internal/api/customer/repository"
	"AgriVoice/pkg/bcrypt"
	"AgriVoice/pkg/utils"
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

const defaultTokenTTL = 24 * time.Hour

type ICustomerService interface {
	Register(ctx context.Context, req customer.RegisterRequest) (customer.AuthResponse, error)
	Login(ctx context.Context, req customer.LoginRequest) (customer.AuthResponse, error)
}

type customerService struct {
	log      *logrus.Logger
	repo     customerRepository.Repository
	bcrypt   bcrypt.IBcrypt
	utils    utils.IUtils
	tokenTTL time.Duration
}

func New(
	log *logrus.Logger,
	repo customerRepository.Repository,
	bcryptUtils bcrypt.IBcrypt,
	utils utils.IUtils,
	tokenTTL time.Duration,
) ICustomerService {
	if tokenTTL <= 0 {
		tokenTTL = defaultTokenTTL
	}

	return &customerService{
		log:      log,
		repo:     repo,
		bcrypt:   bcryptUtils,
		utils:    utils,
		tokenTTL: tokenTTL,
	}
}
