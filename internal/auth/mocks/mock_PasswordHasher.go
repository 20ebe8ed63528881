// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 PetNova Contributors

// Package mocks provides testify mocks for the auth package interfaces.
package mocks

import (
	"github.com/stretchr/testify/mock"

	"github.com/petnova/petnova/internal/auth"
)

// MockPasswordHasher is a mock implementation of auth.PasswordHasher.
type MockPasswordHasher struct {
	mock.Mock
}

var _ auth.PasswordHasher = (*MockPasswordHasher)(nil)

// NewMockPasswordHasher creates a MockPasswordHasher whose expectations are
// asserted when the test ends.
func NewMockPasswordHasher(t interface {
	mock.TestingT
	Cleanup(func())
},
) *MockPasswordHasher {
	m := &MockPasswordHasher{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// Hash provides a mock function.
func (m *MockPasswordHasher) Hash(password string) (string, error) {
	ret := m.Called(password)
	return ret.String(0), ret.Error(1)
}

// Verify provides a mock function.
func (m *MockPasswordHasher) Verify(encodedHash, password string) (auth.VerificationResult, error) {
	ret := m.Called(encodedHash, password)
	result, _ := ret.Get(0).(auth.VerificationResult) //nolint:errcheck // zero value is VerificationFailed
	return result, ret.Error(1)
}

// NeedsUpgrade provides a mock function.
func (m *MockPasswordHasher) NeedsUpgrade(encodedHash string) bool {
	ret := m.Called(encodedHash)
	return ret.Bool(0)
}
