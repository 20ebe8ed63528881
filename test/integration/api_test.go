// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 PetNova Contributors

//go:build integration

package integration

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"sync"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
)

// call sends a JSON request to the test server and decodes the response into out when non-nil.
func call(method, path, bearer string, body, out any) int {
	GinkgoHelper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		Expect(err).NotTo(HaveOccurred())
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, env.server.URL+path, reader)
	Expect(err).NotTo(HaveOccurred())
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := env.server.Client().Do(req)
	Expect(err).NotTo(HaveOccurred())
	defer func() { _ = resp.Body.Close() }()

	if out != nil && resp.StatusCode < http.StatusInternalServerError {
		Expect(json.NewDecoder(resp.Body).Decode(out)).To(Succeed())
	}
	return resp.StatusCode
}

type userJSON struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

type loginJSON struct {
	Token string   `json:"token"`
	User  userJSON `json:"user"`
}

type statusJSON struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Type        string `json:"type"`
	IsActive    bool   `json:"isActive"`
}

var _ = Describe("PetNova API", Ordered, func() {
	var (
		alice      userJSON
		userToken  string
		adminToken string
	)

	BeforeAll(func(ctx SpecContext) {
		Expect(env.pg.Truncate(ctx, "users", "statuses")).To(Succeed())
	})

	Describe("registration and login", func() {
		It("registers a user with the default role", func() {
			code := call(http.MethodPost, "/api/auth/register", "", map[string]string{
				"username": "alice",
				"email":    "alice@example.com",
				"password": "correct horse",
			}, &alice)
			Expect(code).To(Equal(http.StatusCreated))
			Expect(alice.Role).To(Equal("User"))
			Expect(alice.ID).To(HaveLen(26))
		})

		It("rejects a second account with the same email", func() {
			code := call(http.MethodPost, "/api/auth/register", "", map[string]string{
				"username": "alice2",
				"email":    "alice@example.com",
				"password": "pw",
			}, nil)
			Expect(code).To(Equal(http.StatusConflict))
		})

		It("lets exactly one of many concurrent registrations win", func() {
			const attempts = 6
			codes := make([]int, attempts)
			var wg sync.WaitGroup
			for i := range attempts {
				wg.Add(1)
				go func() {
					defer wg.Done()
					defer GinkgoRecover()
					codes[i] = call(http.MethodPost, "/api/auth/register", "", map[string]string{
						"username": "racer",
						"email":    "racer@example.com",
						"password": "pw",
					}, nil)
				}()
			}
			wg.Wait()
			Expect(codes).To(ContainElement(http.StatusCreated))
			created := 0
			for _, c := range codes {
				if c == http.StatusCreated {
					created++
				} else {
					Expect(c).To(Equal(http.StatusConflict))
				}
			}
			Expect(created).To(Equal(1))
		})

		It("logs in by username or email", func() {
			var byName, byEmail loginJSON
			Expect(call(http.MethodPost, "/api/auth/login", "", map[string]string{
				"usernameOrEmail": "alice", "password": "correct horse",
			}, &byName)).To(Equal(http.StatusOK))
			Expect(call(http.MethodPost, "/api/auth/login", "", map[string]string{
				"usernameOrEmail": "alice@example.com", "password": "correct horse",
			}, &byEmail)).To(Equal(http.StatusOK))

			Expect(byName.User.ID).To(Equal(alice.ID))
			Expect(byEmail.User.ID).To(Equal(alice.ID))
			userToken = byName.Token
		})

		It("gives the same answer for a wrong password and an unknown user", func() {
			var wrong, unknown map[string]string
			Expect(call(http.MethodPost, "/api/auth/login", "", map[string]string{
				"usernameOrEmail": "alice", "password": "battery staple",
			}, &wrong)).To(Equal(http.StatusUnauthorized))
			Expect(call(http.MethodPost, "/api/auth/login", "", map[string]string{
				"usernameOrEmail": "mallory", "password": "correct horse",
			}, &unknown)).To(Equal(http.StatusUnauthorized))
			Expect(wrong).To(Equal(unknown))
		})
	})

	Describe("protected endpoints", func() {
		It("returns the caller from the token", func() {
			var me userJSON
			Expect(call(http.MethodGet, "/api/auth/me", userToken, nil, &me)).To(Equal(http.StatusOK))
			Expect(me.Username).To(Equal("alice"))
		})

		It("rejects requests without a token", func() {
			Expect(call(http.MethodGet, "/api/auth/me", "", nil, nil)).To(Equal(http.StatusUnauthorized))
			Expect(call(http.MethodGet, "/api/auth/me", "forged.token.value", nil, nil)).To(Equal(http.StatusUnauthorized))
		})

		It("limits the user list to admins", func() {
			Expect(call(http.MethodGet, "/api/users", userToken, nil, nil)).To(Equal(http.StatusForbidden))

			Expect(call(http.MethodPost, "/api/auth/register", "", map[string]string{
				"username": "root", "email": "root@example.com", "password": "pw", "role": "Admin",
			}, nil)).To(Equal(http.StatusCreated))
			var login loginJSON
			Expect(call(http.MethodPost, "/api/auth/login", "", map[string]string{
				"usernameOrEmail": "root", "password": "pw",
			}, &login)).To(Equal(http.StatusOK))
			adminToken = login.Token

			var users []userJSON
			Expect(call(http.MethodGet, "/api/users", adminToken, nil, &users)).To(Equal(http.StatusOK))
			Expect(users).To(HaveLen(3))
		})

		It("finds a user by id", func() {
			var got userJSON
			Expect(call(http.MethodGet, "/api/users/"+alice.ID, userToken, nil, &got)).To(Equal(http.StatusOK))
			Expect(got.Email).To(Equal("alice@example.com"))
		})
	})

	Describe("statuses", func() {
		var scheduled statusJSON

		It("creates a status", func() {
			Expect(call(http.MethodPost, "/api/status", userToken, map[string]any{
				"name": "Scheduled", "type": "Appointment", "description": "Booked",
			}, &scheduled)).To(Equal(http.StatusCreated))
			Expect(scheduled.IsActive).To(BeTrue())
		})

		It("rejects a duplicate type and name through the unique index", func() {
			Expect(call(http.MethodPost, "/api/status", userToken, map[string]any{
				"name": "Scheduled", "type": "Appointment",
			}, nil)).To(Equal(http.StatusConflict))
		})

		It("lists by type", func() {
			Expect(call(http.MethodPost, "/api/status", userToken, map[string]any{
				"name": "Paid", "type": "Invoice",
			}, nil)).To(Equal(http.StatusCreated))

			var items []statusJSON
			Expect(call(http.MethodGet, "/api/status/type/Invoice", userToken, nil, &items)).To(Equal(http.StatusOK))
			Expect(items).To(HaveLen(1))
			Expect(items[0].Name).To(Equal("Paid"))
		})

		It("updates and deletes", func() {
			var updated statusJSON
			Expect(call(http.MethodPut, "/api/status/"+scheduled.ID, userToken, map[string]any{
				"name": "Scheduled", "type": "Appointment", "description": "Booked online", "isActive": false,
			}, &updated)).To(Equal(http.StatusOK))
			Expect(updated.Description).To(Equal("Booked online"))
			Expect(updated.IsActive).To(BeFalse())

			Expect(call(http.MethodDelete, "/api/status/"+scheduled.ID, userToken, nil, nil)).To(Equal(http.StatusNoContent))
			Expect(call(http.MethodGet, "/api/status/"+scheduled.ID, userToken, nil, nil)).To(Equal(http.StatusNotFound))
		})
	})
})
