package app

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/foldline/boxoffice/internal/clock"
	"github.com/foldline/boxoffice/internal/domain"
)

type CustomerRepository interface {
	Create(ctx context.Context, c domain.Customer) error
	GetByIdentifier(ctx context.Context, organizerID, identifier string) (domain.Customer, error)
	GetByEmail(ctx context.Context, organizerID, email string) (domain.Customer, error)
	List(ctx context.Context, organizerID string, limit, offset int) ([]domain.Customer, int, error)
	Update(ctx context.Context, c domain.Customer) error
	ListOrders(ctx context.Context, customerID string, limit, offset int) ([]domain.Order, int, error)
}

type CustomerService struct {
	repo      CustomerRepository
	clock     clock.Clock
	jwtSecret []byte
	tokenTTL  time.Duration
}

const defaultTokenTTL = 24 * time.Hour

func NewCustomerService(repo CustomerRepository, clk clock.Clock, jwtSecret []byte, opts ...CustomerServiceOption) *CustomerService {
	svc := &CustomerService{
		repo:      repo,
		clock:     clk,
		jwtSecret: jwtSecret,
		tokenTTL:  defaultTokenTTL,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

type CustomerServiceOption func(*CustomerService)

// WithTokenTTL overrides the lifetime of issued login tokens.
func WithTokenTTL(d time.Duration) CustomerServiceOption {
	return func(s *CustomerService) {
		if d > 0 {
			s.tokenTTL = d
		}
	}
}

type CreateCustomerInput struct {
	Email    string
	Name     string
	Password string
}

func (s *CustomerService) Create(ctx context.Context, org domain.Organizer, in CreateCustomerInput) (domain.Customer, error) {
	if in.Email == "" {
		return domain.Customer{}, domain.ErrEmailRequired
	}
	if in.Password == "" {
		return domain.Customer{}, domain.ErrPasswordRequired
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return domain.Customer{}, err
	}
	identifier, err := newCustomerIdentifier()
	if err != nil {
		return domain.Customer{}, err
	}

	c := domain.Customer{
		ID:           newID(),
		OrganizerID:  org.ID,
		Identifier:   identifier,
		Email:        in.Email,
		Name:         in.Name,
		PasswordHash: string(hash),
		IsActive:     true,
		CreatedAt:    s.clock.Now(),
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return domain.Customer{}, err
	}
	return c, nil
}

func (s *CustomerService) Get(ctx context.Context, org domain.Organizer, identifier string) (domain.Customer, error) {
	return s.repo.GetByIdentifier(ctx, org.ID, identifier)
}

func (s *CustomerService) List(ctx context.Context, org domain.Organizer, limit, offset int) ([]domain.Customer, int, error) {
	return s.repo.List(ctx, org.ID, limit, offset)
}

type UpdateCustomerInput struct {
	Email    *string
	Name     *string
	IsActive *bool
}

func (s *CustomerService) Update(ctx context.Context, org domain.Organizer, identifier string, in UpdateCustomerInput) (domain.Customer, error) {
	c, err := s.repo.GetByIdentifier(ctx, org.ID, identifier)
	if err != nil {
		return domain.Customer{}, err
	}
	if in.Email != nil {
		if *in.Email == "" {
			return domain.Customer{}, domain.ErrEmailRequired
		}
		c.Email = *in.Email
	}
	if in.Name != nil {
		c.Name = *in.Name
	}
	if in.IsActive != nil {
		c.IsActive = *in.IsActive
	}
	if err := s.repo.Update(ctx, c); err != nil {
		return domain.Customer{}, err
	}
	return c, nil
}

func (s *CustomerService) Orders(ctx context.Context, org domain.Organizer, identifier string, limit, offset int) ([]domain.Order, int, error) {
	c, err := s.repo.GetByIdentifier(ctx, org.ID, identifier)
	if err != nil {
		return nil, 0, err
	}
	return s.repo.ListOrders(ctx, c.ID, limit, offset)
}

// LoginResult is a signed customer token and its expiry.
type LoginResult struct {
	Token   string
	Expires time.Time
}

// Login verifies the credentials and issues an HS256 token carrying the
// customer identifier and organizer slug. All failure modes collapse into
// the same error so the response does not reveal whether the email exists.
func (s *CustomerService) Login(ctx context.Context, org domain.Organizer, email, password string) (LoginResult, error) {
	if email == "" || password == "" {
		return LoginResult{}, domain.ErrInvalidCredentials
	}
	c, err := s.repo.GetByEmail(ctx, org.ID, email)
	if err != nil {
		if err == domain.ErrCustomerNotFound {
			return LoginResult{}, domain.ErrInvalidCredentials
		}
		return LoginResult{}, err
	}
	if !c.IsActive {
		return LoginResult{}, domain.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(c.PasswordHash), []byte(password)); err != nil {
		return LoginResult{}, domain.ErrInvalidCredentials
	}

	now := s.clock.Now()
	expires := now.Add(s.tokenTTL)
	claims := jwt.MapClaims{
		"sub": c.Identifier,
		"org": org.Slug,
		"iat": now.Unix(),
		"exp": expires.Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return LoginResult{}, err
	}
	return LoginResult{Token: token, Expires: expires}, nil
}
