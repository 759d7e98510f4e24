package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"ysa-registration/internal/model"

	"github.com/google/uuid"
)

// Memory is an in-memory RemoteStore used by the test suites and by local
// development without cloud credentials. Failure injection mirrors the error
// classes the real store produces.
type Memory struct {
	mu    sync.Mutex
	regs  []model.Registration
	users []model.SystemUser

	// FailAll, when set, is returned by every call.
	FailAll error
	// FailWrites, when set, is returned by insert/update/delete calls while
	// reads keep working.
	FailWrites error
}

func NewMemory() *Memory { return &Memory{} }

func (m *Memory) readErr() error {
	return m.FailAll
}

func (m *Memory) writeErr() error {
	if m.FailAll != nil {
		return m.FailAll
	}
	return m.FailWrites
}

// Registrations returns a copy of the stored registrations, newest first.
func (m *Memory) Registrations() []model.Registration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sortedLocked()
}

func (m *Memory) sortedLocked() []model.Registration {
	out := make([]model.Registration, len(m.regs))
	copy(out, m.regs)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out
}

func (m *Memory) InsertRegistration(_ context.Context, reg model.Registration) (model.Registration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.writeErr(); err != nil {
		return model.Registration{}, err
	}
	reg.ID = uuid.New().String()
	m.regs = append(m.regs, reg)
	return reg, nil
}

func (m *Memory) UpdateRegistration(_ context.Context, reg model.Registration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.writeErr(); err != nil {
		return err
	}
	for i := range m.regs {
		if m.regs[i].ID == reg.ID {
			m.regs[i] = reg
			return nil
		}
	}
	return ErrNotFound
}

func (m *Memory) DeleteRegistration(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.writeErr(); err != nil {
		return err
	}
	for i := range m.regs {
		if m.regs[i].ID == id {
			m.regs = append(m.regs[:i], m.regs[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (m *Memory) ListRegistrations(_ context.Context) ([]model.Registration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.readErr(); err != nil {
		return nil, err
	}
	return m.sortedLocked(), nil
}

func (m *Memory) FindByNamePair(_ context.Context, fullName, englishName string) (*model.Registration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.readErr(); err != nil {
		return nil, err
	}
	for _, r := range m.regs {
		if r.FullName == fullName && r.EnglishName == englishName {
			reg := r
			return &reg, nil
		}
	}
	return nil, nil
}

func (m *Memory) FindByRecordNumber(_ context.Context, recordNumber string) (*model.Registration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.readErr(); err != nil {
		return nil, err
	}
	for _, r := range m.regs {
		if r.RecordNumber != "" && r.RecordNumber == recordNumber {
			reg := r
			return &reg, nil
		}
	}
	return nil, nil
}

func (m *Memory) InsertUser(_ context.Context, u model.SystemUser) (model.SystemUser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.writeErr(); err != nil {
		return model.SystemUser{}, err
	}
	u.ID = uuid.New().String()
	m.users = append(m.users, u)
	return u, nil
}

func (m *Memory) DeleteUser(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.writeErr(); err != nil {
		return err
	}
	for i := range m.users {
		if m.users[i].ID == id {
			m.users = append(m.users[:i], m.users[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (m *Memory) ListUsers(_ context.Context) ([]model.SystemUser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.readErr(); err != nil {
		return nil, err
	}
	out := make([]model.SystemUser, len(m.users))
	copy(out, m.users)
	return out, nil
}

func (m *Memory) FindUserByUsername(_ context.Context, username string) (*model.SystemUser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.readErr(); err != nil {
		return nil, err
	}
	for _, u := range m.users {
		if u.Username == username {
			user := u
			return &user, nil
		}
	}
	return nil, nil
}

func (m *Memory) FindUserByCredentials(_ context.Context, username, password string) (*model.SystemUser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.readErr(); err != nil {
		return nil, err
	}
	for _, u := range m.users {
		if u.Username == username && u.Password == password {
			user := u
			return &user, nil
		}
	}
	return nil, nil
}

// Seed inserts registrations directly, bypassing failure injection. Test
// setup helper.
func (m *Memory) Seed(regs ...model.Registration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, reg := range regs {
		if reg.ID == "" {
			reg.ID = fmt.Sprintf("seed-%d", len(m.regs)+1)
		}
		m.regs = append(m.regs, reg)
	}
}

var _ RemoteStore = (*Memory)(nil)
