// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 PetNova Contributors

//go:build integration

package postgres_test

import (
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/petnova/petnova/internal/auth"
	authpg "github.com/petnova/petnova/internal/auth/postgres"
	"github.com/petnova/petnova/internal/entity"
	entitypg "github.com/petnova/petnova/internal/entity/postgres"
)

var _ = Describe("Users table", func() {
	var (
		users auth.UserSource
		svc   *auth.Service
	)

	BeforeEach(func() {
		users = authpg.NewUserSource(entitypg.NewDB(pg.Pool))
		var err error
		svc, err = auth.NewAuthService(users, auth.NewArgon2idHasherWithParams(auth.Params{
			Time: 1, Memory: 8 * 1024, Threads: 1, SaltLen: 16, KeyLen: 32,
		}))
		Expect(err).NotTo(HaveOccurred())
	})

	It("round-trips a user", func(ctx SpecContext) {
		u, err := auth.NewUser("alice", "alice@example.com", "hash", "")
		Expect(err).NotTo(HaveOccurred())

		repo, uow, err := users.Open(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(repo.Add(ctx, u)).To(Succeed())
		Expect(uow.Commit(ctx)).To(Succeed())

		repo, _, err = users.Open(ctx)
		Expect(err).NotTo(HaveOccurred())
		got, ok, err := repo.FindByID(ctx, u.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeTrue())
		Expect(got.Username).To(Equal("alice"))
		Expect(got.Role).To(Equal(auth.DefaultRole))
		Expect(got.CreatedAt).To(BeTemporally("~", u.CreatedAt, time.Millisecond))
	})

	It("reports a duplicate username at commit as a conflict", func(ctx SpecContext) {
		first, err := auth.NewUser("bob", "bob@example.com", "hash", "")
		Expect(err).NotTo(HaveOccurred())
		second, err := auth.NewUser("bob", "bobby@example.com", "hash", "")
		Expect(err).NotTo(HaveOccurred())

		repo, uow, err := users.Open(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(repo.Add(ctx, first)).To(Succeed())
		Expect(uow.Commit(ctx)).To(Succeed())

		repo, uow, err = users.Open(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(repo.Add(ctx, second)).To(Succeed())
		Expect(uow.Commit(ctx)).To(MatchError(entity.ErrConflict))
	})

	It("reports updates of missing users as not found", func(ctx SpecContext) {
		ghost, err := auth.NewUser("ghost", "ghost@example.com", "hash", "")
		Expect(err).NotTo(HaveOccurred())

		repo, uow, err := users.Open(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(repo.Update(ctx, ghost)).To(Succeed())
		Expect(uow.Commit(ctx)).To(MatchError(entity.ErrNotFound))
	})

	It("registers and authenticates through the service", func(ctx SpecContext) {
		alice, err := svc.Register(ctx, auth.RegisterInput{Username: "alice", Email: "alice@example.com", Password: "secret123"})
		Expect(err).NotTo(HaveOccurred())
		Expect(alice).NotTo(BeNil())

		dup, err := svc.Register(ctx, auth.RegisterInput{Username: "alice", Email: "a2@example.com", Password: "x"})
		Expect(err).NotTo(HaveOccurred())
		Expect(dup).To(BeNil())

		got, err := svc.Authenticate(ctx, "alice@example.com", "secret123")
		Expect(err).NotTo(HaveOccurred())
		Expect(got).NotTo(BeNil())
		Expect(got.ID).To(Equal(alice.ID))

		wrong, err := svc.Authenticate(ctx, "alice", "nope")
		Expect(err).NotTo(HaveOccurred())
		Expect(wrong).To(BeNil())
	})

	It("lets exactly one of many concurrent registrations win", func(ctx SpecContext) {
		const attempts = 6
		var (
			wg      sync.WaitGroup
			mu      sync.Mutex
			created int
		)
		for range attempts {
			wg.Add(1)
			go func() {
				defer GinkgoRecover()
				defer wg.Done()
				u, err := svc.Register(ctx, auth.RegisterInput{Username: "carol", Email: "carol@example.com", Password: "pw"})
				Expect(err).NotTo(HaveOccurred())
				if u != nil {
					mu.Lock()
					created++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()
		Expect(created).To(Equal(1))

		list, err := svc.ListUsers(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(list).To(HaveLen(1))
	})
})
