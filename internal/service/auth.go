package service

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/eshop/internal/events"
	"github.com/Skotchmaster/eshop/internal/mailer"
	"github.com/Skotchmaster/eshop/internal/models"
	"github.com/Skotchmaster/eshop/internal/repo"
	"github.com/Skotchmaster/eshop/pkg/hash"
	"github.com/Skotchmaster/eshop/pkg/logging"
	"github.com/Skotchmaster/eshop/pkg/tokens"
)

const codeTTL = 10 * time.Minute

type AuthService struct {
	Repo      *repo.GormRepo
	Mail      mailer.Sender
	Events    events.Publisher
	JWTSecret []byte
	TokenTTL  time.Duration
	Now       func() time.Time
}

func (s *AuthService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

func (s *AuthService) IssueToken(userID uuid.UUID) (string, error) {
	token, err := tokens.NewAccessToken(s.JWTSecret, userID.String(), s.now(), s.TokenTTL)
	if err != nil {
		return "", errors.Wrap(err, "sign token")
	}
	return token, nil
}

// Authenticate resolves a bearer token to its still valid user.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	claims, err := tokens.AccessClaimsFromToken(token, s.JWTSecret)
	if err != nil {
		return nil, err
	}
	id, err := uuid.Parse(claims.UserID())
	if err != nil {
		return nil, fail(ErrUnauthorized, "Invalid token, please log in again.")
	}

	user, err := s.Repo.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fail(ErrUnauthorized, "The user belonging to this token no longer exists.")
		}
		return nil, err
	}
	if claims.IssuedAt != nil && user.ChangedPasswordAfter(claims.IssuedAt.Time) {
		return nil, fail(ErrUnauthorized, "Password recently changed. Please log in again.")
	}
	return user, nil
}

// NewUser hashes the password and normalizes the identity fields of a user
// that is about to be stored.
func NewUser(name, email, password, phone string, role models.Role) (*models.User, error) {
	hashed, err := hash.HashPassword(password)
	if err != nil {
		return nil, errors.Wrap(err, "hash password")
	}
	if role == "" {
		role = models.RoleUser
	}
	return &models.User{
		Name:     name,
		Slug:     Slug(name),
		Email:    strings.ToLower(strings.TrimSpace(email)),
		Phone:    phone,
		Password: hashed,
		Role:     role,
		Active:   true,
	}, nil
}

func (s *AuthService) Signup(ctx context.Context, name, email, password string) (*models.User, string, error) {
	taken, err := s.Repo.EmailTaken(ctx, email, uuid.Nil)
	if err != nil {
		return nil, "", err
	}
	if taken {
		return nil, "", fail(ErrConflict, "This email is already registered")
	}

	user, err := NewUser(name, email, password, "", models.RoleUser)
	if err != nil {
		return nil, "", err
	}
	if err := s.Repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, "", fail(ErrConflict, "This email is already registered")
		}
		return nil, "", errors.Wrap(err, "create user")
	}

	token, err := s.IssueToken(user.ID)
	if err != nil {
		return nil, "", err
	}
	events.Emit(ctx, s.Events, events.TopicUsers, events.Event{Type: "user_signed_up", ID: user.ID.String(), UserID: user.ID.String()})
	return user, token, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	user, err := s.Repo.GetUserByEmail(ctx, email)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, "", err
	}
	if user == nil || !hash.CheckPassword(user.Password, password) {
		return nil, "", fail(ErrUnauthorized, "Incorrect email or password")
	}

	token, err := s.IssueToken(user.ID)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// ForgotPassword mails a six digit reset code valid for ten minutes. Only its
// hash is stored.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	l := logging.FromContext(ctx).With("svc", "auth.forgot_password")

	user, err := s.Repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fail(ErrNotFound, "There is no user with that email %s", email)
		}
		return err
	}

	code, err := sixDigitCode()
	if err != nil {
		return err
	}
	expires := s.now().Add(codeTTL)
	if _, err := s.Repo.UpdateUser(ctx, user.ID, map[string]any{
		"password_reset_code":     hash.SHA256Hex(code),
		"password_reset_expires":  expires,
		"password_reset_verified": false,
	}); err != nil {
		return errors.Wrap(err, "store reset code")
	}

	err = s.Mail.Send(ctx, mailer.Message{
		To:      user.Email,
		Subject: "Your password reset code (valid for 10 min)",
		Text: "Hi " + user.Name + ",\n\nWe received a request to reset the password on your E-shop account.\n" +
			code + "\nEnter this code to complete the reset.\n",
	})
	if err != nil {
		l.Error("reset_mail_failed", "user_id", user.ID, "error", err)
		if _, rbErr := s.Repo.UpdateUser(ctx, user.ID, map[string]any{
			"password_reset_code":     nil,
			"password_reset_expires":  nil,
			"password_reset_verified": nil,
		}); rbErr != nil {
			l.Error("reset_rollback_failed", "user_id", user.ID, "error", rbErr)
		}
		return failWith(ErrInternal, err, "Error sending email. Please try again later.")
	}
	return nil
}

func (s *AuthService) VerifyResetCode(ctx context.Context, code string) error {
	user, err := s.Repo.GetUserByResetCode(ctx, hash.SHA256Hex(strings.TrimSpace(code)), s.now())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fail(ErrValidation, "Reset code invalid or expired")
		}
		return err
	}
	_, err = s.Repo.UpdateUser(ctx, user.ID, map[string]any{"password_reset_verified": true})
	return err
}

// ResetPassword sets a new password once the reset code was verified and
// returns a fresh token.
func (s *AuthService) ResetPassword(ctx context.Context, email, newPassword string) (string, error) {
	user, err := s.Repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", fail(ErrNotFound, "There is no user with email %s", email)
		}
		return "", err
	}
	if user.PasswordResetVerified == nil || !*user.PasswordResetVerified {
		return "", fail(ErrValidation, "Reset code not verified")
	}

	if err := s.setPassword(ctx, user.ID, newPassword, map[string]any{
		"password_reset_code":     nil,
		"password_reset_expires":  nil,
		"password_reset_verified": nil,
	}); err != nil {
		return "", err
	}
	return s.IssueToken(user.ID)
}

// ChangePassword replaces a user's password. Tokens issued before the change
// stop working.
func (s *AuthService) ChangePassword(ctx context.Context, userID uuid.UUID, newPassword string) (*models.User, error) {
	if err := s.setPassword(ctx, userID, newPassword, nil); err != nil {
		return nil, err
	}
	return s.Repo.GetUserByID(ctx, userID)
}

// ChangeMyPassword checks the current password first and returns a token
// issued after the change.
func (s *AuthService) ChangeMyPassword(ctx context.Context, user *models.User, current, newPassword string) (string, error) {
	if !hash.CheckPassword(user.Password, current) {
		return "", fail(ErrValidation, "Incorrect current password")
	}
	if err := s.setPassword(ctx, user.ID, newPassword, nil); err != nil {
		return "", err
	}
	return s.IssueToken(user.ID)
}

func (s *AuthService) setPassword(ctx context.Context, userID uuid.UUID, password string, extra map[string]any) error {
	hashed, err := hash.HashPassword(password)
	if err != nil {
		return errors.Wrap(err, "hash password")
	}
	fields := map[string]any{
		"password":            hashed,
		"password_changed_at": s.now(),
	}
	for k, v := range extra {
		fields[k] = v
	}
	if _, err := s.Repo.UpdateUser(ctx, userID, fields); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fail(ErrNotFound, "No user for this id: %s", userID)
		}
		return errors.Wrap(err, "update password")
	}
	events.Emit(ctx, s.Events, events.TopicUsers, events.Event{Type: "user_password_changed", ID: userID.String(), UserID: userID.String()})
	return nil
}
