// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 PetNova Contributors

// Package mocks provides testify mocks for the entity package interfaces.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/petnova/petnova/internal/entity"
)

// MockUnitOfWork is a mock implementation of entity.UnitOfWork.
type MockUnitOfWork struct {
	mock.Mock
}

var _ entity.UnitOfWork = (*MockUnitOfWork)(nil)

// NewMockUnitOfWork creates a MockUnitOfWork whose expectations are
// asserted when the test ends.
func NewMockUnitOfWork(t interface {
	mock.TestingT
	Cleanup(func())
},
) *MockUnitOfWork {
	m := &MockUnitOfWork{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// Commit provides a mock function.
func (m *MockUnitOfWork) Commit(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

// Rollback provides a mock function.
func (m *MockUnitOfWork) Rollback() {
	m.Called()
}
