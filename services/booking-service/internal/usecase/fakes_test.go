package usecase

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/vasapolrittideah/appointment-booking-api/services/booking-service/internal/model"
	"github.com/vasapolrittideah/appointment-booking-api/services/booking-service/internal/repository"
)

var duplicateKey = mongo.WriteException{WriteErrors: mongo.WriteErrors{{Code: 11000, Message: "E11000 duplicate key error"}}}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[bson.ObjectID]*model.User
}

func newFakeUserRepo(users ...*model.User) *fakeUserRepo {
	r := &fakeUserRepo{users: map[bson.ObjectID]*model.User{}}
	for _, u := range users {
		if u.ID.IsZero() {
			u.ID = bson.NewObjectID()
		}
		r.users[u.ID] = u
	}
	return r
}

func (r *fakeUserRepo) CreateUser(_ context.Context, user *model.User) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Email == user.Email {
			return nil, duplicateKey
		}
	}

	stored := *user
	stored.ID = bson.NewObjectID()
	stored.CreatedAt = time.Now()
	stored.UpdatedAt = stored.CreatedAt
	r.users[stored.ID] = &stored

	out := stored
	return &out, nil
}

func (r *fakeUserRepo) GetUser(_ context.Context, id string) (*model.User, error) {
	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, repository.ErrInvalidID
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[objectID]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	out := *u
	return &out, nil
}

func (r *fakeUserRepo) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	return r.find(func(u *model.User) bool { return u.Email == email })
}

func (r *fakeUserRepo) GetUserByEmailOrGoogleID(_ context.Context, email, googleID string) (*model.User, error) {
	return r.find(func(u *model.User) bool {
		return u.Email == email || (googleID != "" && u.GoogleID == googleID)
	})
}

func (r *fakeUserRepo) UpdateUser(_ context.Context, id string, params repository.UpdateUserParams) (*model.User, error) {
	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, repository.ErrInvalidID
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[objectID]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}

	if params.Password != nil {
		u.Password = *params.Password
	}
	if params.GoogleID != nil {
		u.GoogleID = *params.GoogleID
	}
	if params.Avatar != nil {
		u.Avatar = *params.Avatar
	}
	if params.IsEmailVerified != nil {
		u.IsEmailVerified = *params.IsEmailVerified
	}
	if params.ClearVerificationCode {
		u.EmailVerificationCode = ""
		u.EmailVerificationExpires = nil
	} else {
		if params.VerificationCode != nil {
			u.EmailVerificationCode = *params.VerificationCode
		}
		if params.VerificationExpires != nil {
			expires := *params.VerificationExpires
			u.EmailVerificationExpires = &expires
		}
	}
	u.UpdatedAt = time.Now()

	out := *u
	return &out, nil
}

func (r *fakeUserRepo) find(match func(*model.User) bool) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if match(u) {
			out := *u
			return &out, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (r *fakeUserRepo) byEmail(email string) *model.User {
	u, _ := r.find(func(u *model.User) bool { return u.Email == email })
	return u
}

type fakePendingUserRepo struct {
	mu        sync.Mutex
	pending   map[string]*model.PendingUser
	deleteErr error
}

func newFakePendingUserRepo(pending ...*model.PendingUser) *fakePendingUserRepo {
	r := &fakePendingUserRepo{pending: map[string]*model.PendingUser{}}
	for _, p := range pending {
		r.pending[p.Email] = p
	}
	return r
}

func (r *fakePendingUserRepo) UpsertPendingUser(_ context.Context, pending *model.PendingUser) (*model.PendingUser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.pending[pending.Email]
	if !ok {
		stored = &model.PendingUser{ID: bson.NewObjectID(), Email: pending.Email, CreatedAt: time.Now()}
		r.pending[pending.Email] = stored
	}
	stored.Name = pending.Name
	stored.Password = pending.Password
	stored.EmailVerificationCode = ""
	stored.EmailVerificationExpires = nil
	stored.UpdatedAt = time.Now()

	out := *stored
	return &out, nil
}

func (r *fakePendingUserRepo) GetPendingUserByEmail(_ context.Context, email string) (*model.PendingUser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.pending[email]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	out := *p
	return &out, nil
}

func (r *fakePendingUserRepo) SetVerificationCode(_ context.Context, email, code string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.pending[email]
	if !ok {
		return mongo.ErrNoDocuments
	}
	p.EmailVerificationCode = code
	p.EmailVerificationExpires = &expiresAt
	return nil
}

func (r *fakePendingUserRepo) DeletePendingUser(_ context.Context, email string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.deleteErr != nil {
		return r.deleteErr
	}
	delete(r.pending, email)
	return nil
}

func (r *fakePendingUserRepo) get(email string) *model.PendingUser {
	p, _ := r.GetPendingUserByEmail(context.Background(), email)
	return p
}

// fakeAppointmentRepo enforces the same uniqueness over active appointments as the
// partial indexes. With staleReads set, the pre-check lookups never see existing rows.
type fakeAppointmentRepo struct {
	mu           sync.Mutex
	appointments []*model.Appointment
	staleReads   bool
}

func (r *fakeAppointmentRepo) CreateAppointment(_ context.Context, a *model.Appointment) (*model.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a.Active = a.Status != model.AppointmentStatusCancelled
	if a.Active {
		for _, existing := range r.appointments {
			if !existing.Active {
				continue
			}
			if existing.Date.Equal(a.Date) && existing.Time == a.Time {
				return nil, repository.ErrSlotTaken
			}
			if existing.UserID == a.UserID && existing.Date.Equal(a.Date) {
				return nil, repository.ErrDayTaken
			}
		}
	}

	stored := *a
	stored.ID = bson.NewObjectID()
	stored.CreatedAt = time.Now()
	stored.UpdatedAt = stored.CreatedAt
	r.appointments = append(r.appointments, &stored)

	out := stored
	return &out, nil
}

func (r *fakeAppointmentRepo) GetAppointment(_ context.Context, id string) (*model.Appointment, error) {
	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, repository.ErrInvalidID
	}
	return r.find(false, func(a *model.Appointment) bool { return a.ID == objectID })
}

func (r *fakeAppointmentRepo) FindActiveBySlot(_ context.Context, date time.Time, slot string) (*model.Appointment, error) {
	return r.find(r.staleReads, func(a *model.Appointment) bool {
		return a.Active && a.Date.Equal(date) && a.Time == slot
	})
}

func (r *fakeAppointmentRepo) FindActiveByUserAndDate(_ context.Context, userID string, date time.Time) (*model.Appointment, error) {
	return r.find(r.staleReads, func(a *model.Appointment) bool {
		return a.Active && a.UserID == userID && a.Date.Equal(date)
	})
}

func (r *fakeAppointmentRepo) ListBookedTimes(_ context.Context, date time.Time) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var times []string
	for _, a := range r.appointments {
		if a.Active && a.Date.Equal(date) {
			times = append(times, a.Time)
		}
	}
	return times, nil
}

func (r *fakeAppointmentRepo) CancelAppointment(_ context.Context, id string) (*model.Appointment, error) {
	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, repository.ErrInvalidID
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, a := range r.appointments {
		if a.ID == objectID && a.Active {
			a.Status = model.AppointmentStatusCancelled
			a.Active = false
			a.UpdatedAt = time.Now()
			out := *a
			return &out, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (r *fakeAppointmentRepo) ListAppointments(_ context.Context, params repository.FilterAppointmentsParams) ([]*model.Appointment, error) {
	matched := r.filter(params)

	sort.SliceStable(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		less := a.Date.Before(b.Date) || (a.Date.Equal(b.Date) && a.Time < b.Time)
		if params.SortAsc {
			return less
		}
		greater := a.Date.After(b.Date) || (a.Date.Equal(b.Date) && a.Time > b.Time)
		return greater
	})

	start := min(int(params.Offset), len(matched))
	end := len(matched)
	if params.Limit > 0 {
		end = min(start+int(params.Limit), len(matched))
	}

	return matched[start:end], nil
}

func (r *fakeAppointmentRepo) CountAppointments(_ context.Context, params repository.FilterAppointmentsParams) (int64, error) {
	return int64(len(r.filter(params))), nil
}

func (r *fakeAppointmentRepo) filter(params repository.FilterAppointmentsParams) []*model.Appointment {
	r.mu.Lock()
	defer r.mu.Unlock()

	matched := []*model.Appointment{}
	for _, a := range r.appointments {
		if params.UserID != nil && a.UserID != *params.UserID {
			continue
		}
		if params.Date != nil && !a.Date.Equal(*params.Date) {
			continue
		}
		if params.Status != nil && a.Status != *params.Status {
			continue
		}
		out := *a
		matched = append(matched, &out)
	}
	return matched
}

func (r *fakeAppointmentRepo) find(stale bool, match func(*model.Appointment) bool) (*model.Appointment, error) {
	if stale {
		return nil, mongo.ErrNoDocuments
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, a := range r.appointments {
		if match(a) {
			out := *a
			return &out, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

type sentMail struct {
	to      []string
	subject string
	body    string
}

type fakeMailer struct {
	mu         sync.Mutex
	configured bool
	err        error
	sent       []sentMail
}

func (m *fakeMailer) Configured() bool { return m.configured }

func (m *fakeMailer) SendHTML(to []string, subject, htmlBody string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{to: to, subject: subject, body: htmlBody})
	return nil
}

type fakePasswordResetTokenRepo struct {
	mu     sync.Mutex
	tokens map[string]*model.PasswordResetToken
}

func newFakePasswordResetTokenRepo() *fakePasswordResetTokenRepo {
	return &fakePasswordResetTokenRepo{tokens: map[string]*model.PasswordResetToken{}}
}

func (r *fakePasswordResetTokenRepo) CreateToken(_ context.Context, token *model.PasswordResetToken) (*model.PasswordResetToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *token
	stored.ID = bson.NewObjectID()
	r.tokens[token.JTI] = &stored
	return token, nil
}

func (r *fakePasswordResetTokenRepo) GetTokenByJTI(_ context.Context, jti string) (*model.PasswordResetToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tokens[jti]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	out := *t
	return &out, nil
}

func (r *fakePasswordResetTokenRepo) MarkTokenAsUsed(_ context.Context, jti string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tokens[jti]
	if !ok || t.Used {
		return mongo.ErrNoDocuments
	}
	t.Used = true
	return nil
}

func (r *fakePasswordResetTokenRepo) InvalidateUserTokens(_ context.Context, userID bson.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, t := range r.tokens {
		if t.UserID == userID {
			t.Used = true
		}
	}
	return nil
}
