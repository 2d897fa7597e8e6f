package auth

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/boligweb/authserver/internal/logutil"
	"github.com/boligweb/authserver/userstore"
)

type (
	SignupRequest struct {
		Email     string `json:"email"`
		Password  string `json:"password"`
		FirstName string `json:"firstName"`
		LastName  string `json:"lastName"`
		Phone     string `json:"phone"`
	}

	LoginRequest struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	Session struct {
		Token string
		User  userstore.User
	}

	Service struct {
		users    userstore.Store
		sessions SessionRegistry
		hasher   Hasher
		tokens   TokenIssuer
		now      func() time.Time

		// guards the read-check-append-save cycle of signup,
		// other processes sharing the store are not covered
		signupLock sync.Mutex
	}

	Option func(*Service)
)

func WithHasher(h Hasher) Option {
	return func(s *Service) { s.hasher = h }
}

func WithTokens(t TokenIssuer) Option {
	return func(s *Service) { s.tokens = t }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(users userstore.Store, sessions SessionRegistry, opts ...Option) *Service {
	s := &Service{
		users:    users,
		sessions: sessions,
		hasher:   SHA256Hasher{},
		tokens:   RandomTokens{},
		now:      time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Service) Signup(ctx context.Context, req SignupRequest) (Session, error) {
	if req.Email == "" || req.Password == "" || req.FirstName == "" || req.LastName == "" {
		return Session{}, errMissingSignupFields
	}
	log := logutil.GetOrDefault(ctx)

	s.signupLock.Lock()
	users := s.users.LoadAll(ctx)
	if userstore.FindByEmail(users, req.Email) >= 0 {
		s.signupLock.Unlock()
		return Session{}, errUserExists
	}
	digest, err := s.hasher.Hash(req.Password)
	if err != nil {
		s.signupLock.Unlock()
		return Session{}, err
	}
	now := s.now().UTC().Truncate(time.Millisecond)
	user := userstore.User{
		ID:           nextID(users, now),
		Email:        req.Email,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Phone:        req.Phone,
		PasswordHash: digest,
		CreatedAt:    now,
	}
	err = s.users.SaveAll(ctx, append(users, user))
	s.signupLock.Unlock()
	if err != nil {
		return Session{}, err
	}
	log.Info().Str("user.id", user.ID).Msg("User registered")
	return s.openSession(ctx, user)
}

func (s *Service) Login(ctx context.Context, req LoginRequest) (Session, error) {
	if req.Email == "" || req.Password == "" {
		return Session{}, errMissingLoginFields
	}
	users := s.users.LoadAll(ctx)
	idx := userstore.FindByEmail(users, req.Email)
	if idx < 0 || !s.hasher.Verify(req.Password, users[idx].PasswordHash) {
		return Session{}, errInvalidCredentials
	}
	return s.openSession(ctx, users[idx])
}

func (s *Service) Me(ctx context.Context, token string) (userstore.User, error) {
	if token == "" {
		return userstore.User{}, errUnauthorized
	}
	userID, found, err := s.sessions.Get(ctx, token)
	if err != nil {
		return userstore.User{}, fmt.Errorf("unable to lookup session, cause %w", err)
	} else if !found {
		return userstore.User{}, errUnauthorized
	}
	users := s.users.LoadAll(ctx)
	idx := userstore.FindByID(users, userID)
	if idx < 0 {
		log := logutil.GetOrDefault(ctx)
		log.Warn().Str("user.id", userID).Msg("Session points to a user that no longer exists")
		return userstore.User{}, errInvalidSession
	}
	return users[idx], nil
}

func (s *Service) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.sessions.Remove(ctx, token)
}

func (s *Service) openSession(ctx context.Context, user userstore.User) (Session, error) {
	token, err := s.tokens.Issue()
	if err != nil {
		return Session{}, err
	}
	err = s.sessions.Put(ctx, token, user.ID)
	if err != nil {
		return Session{}, fmt.Errorf("unable to register session, cause %w", err)
	}
	return Session{Token: token, User: user}, nil
}

// nextID uses the creation time in milliseconds and moves forward
// until the id is not taken by any loaded user.
func nextID(users []userstore.User, now time.Time) string {
	ms := now.UnixMilli()
	for {
		id := strconv.FormatInt(ms, 10)
		if userstore.FindByID(users, id) < 0 {
			return id
		}
		ms++
	}
}
