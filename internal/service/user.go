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
)

type UserService struct {
	Repo   *repo.GormRepo
	Mail   mailer.Sender
	Events events.Publisher
	Now    func() time.Time
}

func (s *UserService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

type ProfileUpdate struct {
	Name  *string
	Email *string
	Phone *string
}

// CheckEmail fails with a conflict when email belongs to a user other than
// except.
func (s *UserService) CheckEmail(ctx context.Context, email string, except uuid.UUID) error {
	taken, err := s.Repo.EmailTaken(ctx, strings.ToLower(strings.TrimSpace(email)), except)
	if err != nil {
		return err
	}
	if taken {
		return fail(ErrConflict, "This email is already registered")
	}
	return nil
}

func (s *UserService) UpdateMe(ctx context.Context, userID uuid.UUID, upd ProfileUpdate) (*models.User, error) {
	fields := map[string]any{}
	if upd.Name != nil {
		fields["name"] = *upd.Name
		fields["slug"] = Slug(*upd.Name)
	}
	if upd.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*upd.Email))
		if err := s.CheckEmail(ctx, email, userID); err != nil {
			return nil, err
		}
		fields["email"] = email
	}
	if upd.Phone != nil {
		fields["phone"] = *upd.Phone
	}
	if len(fields) == 0 {
		return s.Repo.GetUserByID(ctx, userID)
	}
	return s.Repo.UpdateUser(ctx, userID, fields)
}

func (s *UserService) Deactivate(ctx context.Context, userID uuid.UUID) error {
	if _, err := s.Repo.UpdateUser(ctx, userID, map[string]any{"active": false}); err != nil {
		return errors.Wrap(err, "deactivate user")
	}
	events.Emit(ctx, s.Events, events.TopicUsers, events.Event{Type: "user_deactivated", ID: userID.String(), UserID: userID.String()})
	return nil
}

// RequestActivation mails a six digit code that reactivates the account.
func (s *UserService) RequestActivation(ctx context.Context, user *models.User) error {
	l := logging.FromContext(ctx).With("svc", "user.request_activation")

	if user.Active {
		return fail(ErrValidation, "Account is already active")
	}
	code, err := sixDigitCode()
	if err != nil {
		return err
	}
	if _, err := s.Repo.UpdateUser(ctx, user.ID, map[string]any{
		"activation_code":    hash.SHA256Hex(code),
		"activation_expires": s.now().Add(codeTTL),
	}); err != nil {
		return errors.Wrap(err, "store activation code")
	}

	err = s.Mail.Send(ctx, mailer.Message{
		To:      user.Email,
		Subject: "Your account activation code (valid for 10 min)",
		Text:    "Hi " + user.Name + ",\n\n" + code + "\nEnter this code to activate your E-shop account.\n",
	})
	if err != nil {
		l.Error("activation_mail_failed", "user_id", user.ID, "error", err)
		if _, rbErr := s.Repo.UpdateUser(ctx, user.ID, map[string]any{
			"activation_code":    nil,
			"activation_expires": nil,
		}); rbErr != nil {
			l.Error("activation_rollback_failed", "user_id", user.ID, "error", rbErr)
		}
		return failWith(ErrInternal, err, "Error sending email. Please try again later.")
	}
	return nil
}

func (s *UserService) Activate(ctx context.Context, user *models.User, code string) (*models.User, error) {
	valid := user.ActivationCode != nil && user.ActivationExpires != nil &&
		*user.ActivationCode == hash.SHA256Hex(strings.TrimSpace(code)) &&
		user.ActivationExpires.After(s.now())
	if !valid {
		return nil, fail(ErrValidation, "Activation code invalid or expired")
	}
	updated, err := s.Repo.UpdateUser(ctx, user.ID, map[string]any{
		"active":             true,
		"activation_code":    nil,
		"activation_expires": nil,
	})
	if err != nil {
		return nil, errors.Wrap(err, "activate user")
	}
	events.Emit(ctx, s.Events, events.TopicUsers, events.Event{Type: "user_activated", ID: user.ID.String(), UserID: user.ID.String()})
	return updated, nil
}

func (s *UserService) Wishlist(ctx context.Context, userID uuid.UUID) ([]models.Product, error) {
	return s.Repo.Wishlist(ctx, userID)
}

func (s *UserService) AddToWishlist(ctx context.Context, userID, productID uuid.UUID) ([]models.Product, error) {
	if _, err := s.Repo.GetProduct(ctx, productID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fail(ErrNotFound, "No product for this id: %s", productID)
		}
		return nil, err
	}
	return s.Repo.AddToWishlist(ctx, userID, productID)
}

func (s *UserService) RemoveFromWishlist(ctx context.Context, userID, productID uuid.UUID) ([]models.Product, error) {
	return s.Repo.RemoveFromWishlist(ctx, userID, productID)
}

func (s *UserService) Addresses(ctx context.Context, userID uuid.UUID) ([]models.Address, error) {
	return s.Repo.Addresses(ctx, userID)
}

func (s *UserService) AddAddress(ctx context.Context, userID uuid.UUID, addr models.Address) ([]models.Address, error) {
	return s.Repo.AddAddress(ctx, userID, addr)
}

func (s *UserService) RemoveAddress(ctx context.Context, userID, addressID uuid.UUID) ([]models.Address, error) {
	return s.Repo.RemoveAddress(ctx, userID, addressID)
}
