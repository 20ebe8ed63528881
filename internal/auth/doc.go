// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 PetNova Contributors

// Package auth provides account registration and password authentication.
//
// # Domain Types
//
// Users should be created with NewUser, which validates the username,
// email and role and assigns a fresh ID. Direct struct initialization
// bypasses validation and may create invalid state. Repository
// implementations receive pre-validated users from this constructor.
//
// # Services
//
// Service coordinates the user store and the PasswordHasher:
//   - Register - creates a user unless the username or email is taken
//   - Authenticate - checks a username-or-email and password pair
//   - ListUsers, GetUserByID - read access for the API
//
// Services are created with NewAuthService constructors that validate
// dependencies. Both lookups are exact, case-sensitive string matches.
package auth
