package memory

import (
	"context"
	"sync"

	"studiometrics/internal/core"
	"studiometrics/internal/source"
)

// Store is an in-memory record source. It backs tests and the "memory"
// data backend, where records are seeded at construction time.
type Store struct {
	mu       sync.Mutex
	sessions []core.Session
	payroll  []core.PayrollLine
	clients  []core.ClientConversion
}

var _ source.RecordSource = (*Store)(nil)

func New() *Store {
	return &Store{}
}

// Seed replaces the store contents with the given records. Invalid
// records are rejected and nothing is changed.
func (s *Store) Seed(sessions []core.Session, payroll []core.PayrollLine, clients []core.ClientConversion) error {
	for _, sess := range sessions {
		if err := sess.Validate(); err != nil {
			return err
		}
	}
	for _, line := range payroll {
		if err := line.Validate(); err != nil {
			return err
		}
	}
	for _, c := range clients {
		if err := c.Validate(); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions = append([]core.Session(nil), sessions...)
	s.payroll = append([]core.PayrollLine(nil), payroll...)
	s.clients = append([]core.ClientConversion(nil), clients...)
	return nil
}

// AddSession appends a single validated session record.
func (s *Store) AddSession(sess core.Session) error {
	if err := sess.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions = append(s.sessions, sess)
	return nil
}

func (s *Store) ListSessions(_ context.Context) ([]core.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Session(nil), s.sessions...), nil
}

func (s *Store) ListPayroll(_ context.Context) ([]core.PayrollLine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.PayrollLine(nil), s.payroll...), nil
}

func (s *Store) ListClients(_ context.Context) ([]core.ClientConversion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.ClientConversion(nil), s.clients...), nil
}
