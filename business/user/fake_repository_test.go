//go:build !integration

package user

import (
	"context"
	"errors"
	"maps"
	"sync"
	"time"

	"ravello/domain"
)

type memUserState struct {
	clients map[uint64]domain.Client
	pending map[uint64]domain.TempRegistration
	codes   map[uint64]domain.OTPVerification
	nextID  uint64
}

func (s memUserState) clone() memUserState {
	return memUserState{
		clients: maps.Clone(s.clients),
		pending: maps.Clone(s.pending),
		codes:   maps.Clone(s.codes),
		nextID:  s.nextID,
	}
}

type memUserRepo struct {
	mu    sync.Mutex
	state memUserState
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{state: memUserState{
		clients: map[uint64]domain.Client{},
		pending: map[uint64]domain.TempRegistration{},
		codes:   map[uint64]domain.OTPVerification{},
	}}
}

func (r *memUserRepo) WithinTx(ctx context.Context, fn func(tx RegistrationTx) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	staged := r.state.clone()
	if err := fn(&memRegistrationTx{state: &staged}); err != nil {
		return err
	}
	r.state = staged
	return nil
}

func (r *memUserRepo) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for id, c := range r.state.codes {
		if c.Expired(now) {
			if c.TempRegID != nil {
				delete(r.state.pending, *c.TempRegID)
			}
			delete(r.state.codes, id)
			n++
		}
	}
	return n, nil
}

func (r *memUserRepo) FindByID(ctx context.Context, id uint64) (domain.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.state.clients[id]
	if !ok {
		return domain.Client{}, domain.ErrRecordNotFound
	}
	return c, nil
}

func (r *memUserRepo) FindByEmail(ctx context.Context, email string) (domain.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, c := range r.state.clients {
		if c.Email == email {
			return c, nil
		}
	}
	return domain.Client{}, domain.ErrRecordNotFound
}

func (r *memUserRepo) FindLoginByEmail(ctx context.Context, email string) (domain.ClientLogin, error) {
	c, err := r.FindByEmail(ctx, email)
	if err != nil {
		return domain.ClientLogin{}, err
	}
	return domain.ClientLogin{
		ClientID: c.ClientID,
		Name:     c.Name,
		Email:    c.Email,
		Password: c.Password,
		Role:     c.Role,
		StoreID:  c.StoreID,
	}, nil
}

func (r *memUserRepo) UpdateProfile(ctx context.Context, id uint64, update domain.ProfileUpdate) (domain.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.state.clients[id]
	if !ok {
		return domain.Client{}, domain.ErrRecordNotFound
	}
	if update.Name != nil {
		c.Name = *update.Name
	}
	if update.Email != nil {
		c.Email = *update.Email
	}
	if update.PhoneNumber != nil {
		c.PhoneNumber = update.PhoneNumber
	}
	if update.Bio != nil {
		c.Bio = update.Bio
	}
	if update.Address != nil {
		c.Address = update.Address
	}
	r.state.clients[id] = c
	return c, nil
}

func (r *memUserRepo) UpdatePassword(ctx context.Context, email, currentHash, newHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, c := range r.state.clients {
		if c.Email == email && c.Password == currentHash {
			c.Password = newHash
			r.state.clients[id] = c
			return nil
		}
	}
	return domain.ErrRecordNotFound
}

func (r *memUserRepo) codesFor(email string, purpose domain.OTPPurpose) []domain.OTPVerification {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []domain.OTPVerification
	for _, c := range r.state.codes {
		if c.Email == email && c.Purpose == purpose {
			out = append(out, c)
		}
	}
	return out
}

func (r *memUserRepo) pendingCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.state.pending)
}

// expireCodes moves every code expiry into the past.
func (r *memUserRepo) expireCodes(at time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, c := range r.state.codes {
		c.OTPExpire = at
		r.state.codes[id] = c
	}
}

type memRegistrationTx struct {
	state *memUserState
}

func (t *memRegistrationTx) next() uint64 {
	t.state.nextID++
	return t.state.nextID
}

func (t *memRegistrationTx) ClientExists(ctx context.Context, email string) (bool, error) {
	for _, c := range t.state.clients {
		if c.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (t *memRegistrationTx) CreateClient(ctx context.Context, client *domain.Client) error {
	for _, c := range t.state.clients {
		if c.Email == client.Email {
			return domain.ErrDuplicateKey
		}
	}
	client.ClientID = t.next()
	t.state.clients[client.ClientID] = *client
	return nil
}

func (t *memRegistrationTx) CreatePending(ctx context.Context, pending *domain.TempRegistration) error {
	pending.TempID = t.next()
	t.state.pending[pending.TempID] = *pending
	return nil
}

func (t *memRegistrationTx) FindPending(ctx context.Context, tempID uint64) (domain.TempRegistration, error) {
	p, ok := t.state.pending[tempID]
	if !ok {
		return domain.TempRegistration{}, domain.ErrRecordNotFound
	}
	return p, nil
}

func (t *memRegistrationTx) DeletePending(ctx context.Context, tempID uint64) error {
	delete(t.state.pending, tempID)
	return nil
}

func (t *memRegistrationTx) DeletePendingByEmail(ctx context.Context, email string) error {
	for id, p := range t.state.pending {
		if p.Email == email {
			delete(t.state.pending, id)
		}
	}
	return nil
}

func (t *memRegistrationTx) CreateCode(ctx context.Context, code *domain.OTPVerification) error {
	code.ID = t.next()
	t.state.codes[code.ID] = *code
	return nil
}

func (t *memRegistrationTx) FindCode(ctx context.Context, email, code string, purpose domain.OTPPurpose) (domain.OTPVerification, error) {
	for _, c := range t.state.codes {
		if c.Email == email && c.OTP == code && c.Purpose == purpose {
			return c, nil
		}
	}
	return domain.OTPVerification{}, domain.ErrRecordNotFound
}

func (t *memRegistrationTx) DeleteCodes(ctx context.Context, email string, purpose domain.OTPPurpose) error {
	for id, c := range t.state.codes {
		if c.Email == email && c.Purpose == purpose {
			delete(t.state.codes, id)
		}
	}
	return nil
}

type sentMail struct {
	to      string
	subject string
	body    string
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (m *fakeMailer) SendEmail(ctx context.Context, toName, toEmail, subject, message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{to: toEmail, subject: subject, body: message})
	return nil
}

type fakeSessions struct {
	mu     sync.Mutex
	tokens map[string]uint64
	err    error
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{tokens: map[string]uint64{}}
}

func (f *fakeSessions) Register(ctx context.Context, token string, clientID uint64, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if ttl <= 0 {
		return errors.New("ttl must be positive")
	}
	f.tokens[token] = clientID
	return nil
}

func (f *fakeSessions) Revoke(ctx context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.tokens, token)
	return nil
}

func (f *fakeSessions) RevokeAll(ctx context.Context, clientID uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for token, id := range f.tokens {
		if id == clientID {
			delete(f.tokens, token)
		}
	}
	return nil
}
