// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 PetNova Contributors

//go:build integration

package store_test

import (
	"context"
	"io"
	"log/slog"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/petnova/petnova/internal/store"
)

var _ = Describe("Migrator", Ordered, func() {
	var migrator *store.Migrator

	BeforeAll(func() {
		var err error
		migrator, err = store.NewMigrator(pg.URL)
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(func() { _ = migrator.Close() })
	})

	It("starts at version zero", func() {
		version, dirty, err := migrator.Version()
		Expect(err).NotTo(HaveOccurred())
		Expect(version).To(BeZero())
		Expect(dirty).To(BeFalse())
	})

	It("applies every embedded migration", func() {
		Expect(migrator.Up()).To(Succeed())

		versions, err := store.Versions()
		Expect(err).NotTo(HaveOccurred())

		st, err := migrator.Status()
		Expect(err).NotTo(HaveOccurred())
		Expect(st.Current).To(Equal(versions[len(versions)-1]))
		Expect(st.Pending).To(BeEmpty())
		Expect(st.Dirty).To(BeFalse())
	})

	It("is idempotent", func() {
		Expect(migrator.Up()).To(Succeed())
	})

	It("steps down and back up", func() {
		before, _, err := migrator.Version()
		Expect(err).NotTo(HaveOccurred())

		Expect(migrator.Steps(-1)).To(Succeed())
		after, _, err := migrator.Version()
		Expect(err).NotTo(HaveOccurred())
		Expect(after).To(Equal(before - 1))

		Expect(migrator.Steps(1)).To(Succeed())
		restored, _, err := migrator.Version()
		Expect(err).NotTo(HaveOccurred())
		Expect(restored).To(Equal(before))
	})

	It("enforces unique usernames and emails", func(ctx SpecContext) {
		insert := `INSERT INTO users (id, username, email, password_hash) VALUES ($1, $2, $3, 'x')`
		_, err := pg.Pool.Exec(ctx, insert, "01", "alice", "alice@example.com")
		Expect(err).NotTo(HaveOccurred())

		_, err = pg.Pool.Exec(ctx, insert, "02", "alice", "other@example.com")
		Expect(err).To(MatchError(ContainSubstring("users_username_key")))

		_, err = pg.Pool.Exec(ctx, insert, "03", "alice2", "alice@example.com")
		Expect(err).To(MatchError(ContainSubstring("users_email_key")))

		var role string
		Expect(pg.Pool.QueryRow(ctx, `SELECT role FROM users WHERE id = '01'`).Scan(&role)).To(Succeed())
		Expect(role).To(Equal("User"))
	})

	It("rolls everything back", func() {
		Expect(migrator.Down()).To(Succeed())
		version, _, err := migrator.Version()
		Expect(err).NotTo(HaveOccurred())
		Expect(version).To(BeZero())
	})

	It("forces a version without running migrations", func() {
		Expect(migrator.Force(1)).To(Succeed())
		version, dirty, err := migrator.Version()
		Expect(err).NotTo(HaveOccurred())
		Expect(version).To(Equal(uint(1)))
		Expect(dirty).To(BeFalse())
	})
})

var _ = Describe("Connect", func() {
	It("pings a reachable server", func(ctx SpecContext) {
		pool, err := store.Connect(context.Background(), pg.URL, slog.New(slog.NewTextHandler(io.Discard, nil)))
		Expect(err).NotTo(HaveOccurred())
		defer pool.Close()
		Expect(pool.Ping(ctx)).To(Succeed())
	})
})
