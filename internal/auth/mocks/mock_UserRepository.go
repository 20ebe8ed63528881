// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 PetNova Contributors

package mocks

import (
	"context"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/mock"

	"github.com/petnova/petnova/internal/auth"
)

// MockUserRepository is a mock implementation of auth.UserRepository.
type MockUserRepository struct {
	mock.Mock
}

var _ auth.UserRepository = (*MockUserRepository)(nil)

// NewMockUserRepository creates a MockUserRepository whose expectations are
// asserted when the test ends.
func NewMockUserRepository(t interface {
	mock.TestingT
	Cleanup(func())
},
) *MockUserRepository {
	m := &MockUserRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// Add provides a mock function.
func (m *MockUserRepository) Add(ctx context.Context, u *auth.User) error {
	return m.Called(ctx, u).Error(0)
}

// FindByID provides a mock function.
func (m *MockUserRepository) FindByID(ctx context.Context, id ulid.ULID) (*auth.User, bool, error) {
	ret := m.Called(ctx, id)
	u, _ := ret.Get(0).(*auth.User) //nolint:errcheck // nil when not configured
	return u, ret.Bool(1), ret.Error(2)
}

// List provides a mock function.
func (m *MockUserRepository) List(ctx context.Context) ([]*auth.User, error) {
	ret := m.Called(ctx)
	users, _ := ret.Get(0).([]*auth.User) //nolint:errcheck // nil when not configured
	return users, ret.Error(1)
}

// Update provides a mock function.
func (m *MockUserRepository) Update(ctx context.Context, u *auth.User) error {
	return m.Called(ctx, u).Error(0)
}

// Remove provides a mock function.
func (m *MockUserRepository) Remove(ctx context.Context, u *auth.User) error {
	return m.Called(ctx, u).Error(0)
}
