package user

import (
	"context"
	"time"

	"golang.org/x/crypto/bcrypt"

	chatmodel "github.com/ishaan-vashist/chatcraft-ai/module/chat/model"
	"github.com/ishaan-vashist/chatcraft-ai/service/storage"
	"github.com/ishaan-vashist/chatcraft-ai/tools/errs"
	"github.com/ishaan-vashist/chatcraft-ai/tools/security"
)

// Service owns account registration, login and token verification. It is
// the chat.TokenVerifier the websocket handshake and the REST auth gate
// share, so a token means the same identity everywhere.
type Service struct {
	store   *storage.Store
	jwtOpts security.Options
}

func NewService(store *storage.Store, jwtOpts security.Options) *Service {
	return &Service{store: store, jwtOpts: jwtOpts}
}

func (s *Service) Register(ctx context.Context, email, displayName, password string) (*chatmodel.User, error) {
	if len(password) < 8 {
		return nil, errs.ErrValidation.WrapMsg("password must be at least 8 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errs.WrapMsg(err, "hash password")
	}
	return s.store.CreateUser(ctx, email, displayName, string(hash))
}

// Login checks credentials and issues an access token. Wrong email and
// wrong password are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (token string, expireAt time.Time, u *chatmodel.User, err error) {
	u, err = s.store.GetUserByEmail(ctx, email)
	if err != nil {
		return "", time.Time{}, nil, errs.ErrAuth.WrapMsg("invalid credentials")
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return "", time.Time{}, nil, errs.ErrAuth.WrapMsg("invalid credentials")
	}
	token, expireAt, err = security.Generate(s.jwtOpts, u.ID, u.DisplayName)
	if err != nil {
		return "", time.Time{}, nil, errs.WrapMsg(err, "sign token")
	}
	return token, expireAt, u, nil
}

// Verify implements chat.TokenVerifier.
func (s *Service) Verify(_ context.Context, token string) (chatmodel.Identity, error) {
	claims, err := security.Verify(s.jwtOpts, token)
	if err != nil {
		return chatmodel.Identity{}, errs.ErrAuth.WrapMsg("invalid token")
	}
	return chatmodel.Identity{ID: claims.Subject, DisplayName: claims.DisplayName}, nil
}
