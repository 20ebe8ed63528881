// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 PetNova Contributors

// Package mocks provides testify mocks for the httpapi service interfaces.
package mocks

import (
	"context"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/mock"

	"github.com/petnova/petnova/internal/auth"
	"github.com/petnova/petnova/internal/httpapi"
)

// MockAuthService is a mock implementation of httpapi.AuthService.
type MockAuthService struct {
	mock.Mock
}

var _ httpapi.AuthService = (*MockAuthService)(nil)

// NewMockAuthService creates a MockAuthService whose expectations are
// asserted when the test ends.
func NewMockAuthService(t interface {
	mock.TestingT
	Cleanup(func())
},
) *MockAuthService {
	m := &MockAuthService{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// Register provides a mock function.
func (m *MockAuthService) Register(ctx context.Context, in auth.RegisterInput) (*auth.User, error) {
	ret := m.Called(ctx, in)
	user, _ := ret.Get(0).(*auth.User) //nolint:errcheck // nil means no user
	return user, ret.Error(1)
}

// Authenticate provides a mock function.
func (m *MockAuthService) Authenticate(ctx context.Context, usernameOrEmail, password string) (*auth.User, error) {
	ret := m.Called(ctx, usernameOrEmail, password)
	user, _ := ret.Get(0).(*auth.User) //nolint:errcheck // nil means no user
	return user, ret.Error(1)
}

// ListUsers provides a mock function.
func (m *MockAuthService) ListUsers(ctx context.Context) ([]*auth.User, error) {
	ret := m.Called(ctx)
	users, _ := ret.Get(0).([]*auth.User) //nolint:errcheck // nil means no users
	return users, ret.Error(1)
}

// GetUserByID provides a mock function.
func (m *MockAuthService) GetUserByID(ctx context.Context, id ulid.ULID) (*auth.User, error) {
	ret := m.Called(ctx, id)
	user, _ := ret.Get(0).(*auth.User) //nolint:errcheck // nil means no user
	return user, ret.Error(1)
}
