package usecase

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/vasapolrittideah/appointment-booking-api/services/booking-service/internal/model"
	"github.com/vasapolrittideah/appointment-booking-api/services/booking-service/internal/repository"
)

// AccountKind tells which of the identity collections holds an email.
type AccountKind int

const (
	AccountNotFound AccountKind = iota
	AccountVerified
	AccountRegisteredUnverified
	AccountPending
)

// Account is the result of looking an email up across users and pending signups.
// User is set for AccountVerified and AccountRegisteredUnverified, Pending for AccountPending.
type Account struct {
	Kind    AccountKind
	User    *model.User
	Pending *model.PendingUser
}

type accountLookup struct {
	userRepo        repository.UserRepository
	pendingUserRepo repository.PendingUserRepository
}

// lookupAccount checks users first; a pending signup is only consulted when no user exists.
func (l accountLookup) lookupAccount(ctx context.Context, email string) (Account, error) {
	user, err := l.userRepo.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		if user.IsEmailVerified {
			return Account{Kind: AccountVerified, User: user}, nil
		}
		return Account{Kind: AccountRegisteredUnverified, User: user}, nil
	case !errors.Is(err, mongo.ErrNoDocuments):
		return Account{}, err
	}

	pending, err := l.pendingUserRepo.GetPendingUserByEmail(ctx, email)
	switch {
	case err == nil:
		return Account{Kind: AccountPending, Pending: pending}, nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return Account{Kind: AccountNotFound}, nil
	default:
		return Account{}, err
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
