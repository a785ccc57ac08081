package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/learnloop/learnloop/internal/auth/domain"
	"github.com/learnloop/learnloop/internal/auth/store"
	"github.com/learnloop/learnloop/internal/auth/store/drivers/sqlite"
	"github.com/learnloop/learnloop/pkg/jwtx"
)

type sentMail struct {
	To    string
	Token string
}

// fakeSender records outgoing mail so tests can pull the raw tokens.
type fakeSender struct {
	mu            sync.Mutex
	verifications []sentMail
	resets        []sentMail
}

func (s *fakeSender) SendVerificationEmail(ctx context.Context, to, name, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.verifications = append(s.verifications, sentMail{To: to, Token: token})
	return nil
}

func (s *fakeSender) SendPasswordResetEmail(ctx context.Context, to, name, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resets = append(s.resets, sentMail{To: to, Token: token})
	return nil
}

func (s *fakeSender) verificationCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.verifications)
}

func (s *fakeSender) lastReset() (sentMail, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.resets) == 0 {
		return sentMail{}, false
	}
	return s.resets[len(s.resets)-1], true
}

type testStack struct {
	Sessions      *SessionService
	Refresh       *RefreshService
	Verifications *VerificationService
	Federation    *FederationService
	Store         store.Store
	Sender        *fakeSender
	Codec         *jwtx.Codec
}

func newTestStack(t *testing.T) *testStack {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, st.ApplyMigrations())
	t.Cleanup(func() { _ = st.Close() })

	sender := &fakeSender{}
	codec := jwtx.NewCodec("test-issuer",
		[]byte("access-secret-for-tests"),
		[]byte("refresh-secret-for-tests"),
		nil,
	)

	verifications := &VerificationService{
		Store:           st,
		Email:           sender,
		VerificationTTL: DefaultVerificationTTL,
		ResetTTL:        DefaultResetTTL,
	}
	sessions := &SessionService{
		Codec:        codec,
		Store:        st,
		Verification: verifications,
		AccessTTL:    time.Hour,
		RefreshTTL:   30 * 24 * time.Hour,
	}

	return &testStack{
		Sessions:      sessions,
		Refresh:       &RefreshService{Sessions: sessions, Codec: codec},
		Verifications: verifications,
		Federation:    &FederationService{Store: st},
		Store:         st,
		Sender:        sender,
		Codec:         codec,
	}
}

func (ts *testStack) register(t *testing.T, email, password string) domain.Account {
	t.Helper()

	account, _, err := ts.Sessions.Register(context.Background(), RegisterParams{
		Email:    email,
		Password: password,
		Name:     "Test Account",
	})
	require.NoError(t, err)
	return account
}
