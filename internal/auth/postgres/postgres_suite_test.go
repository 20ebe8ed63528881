// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 PetNova Contributors

//go:build integration

package postgres_test

import (
	"context"
	"testing"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/petnova/petnova/internal/store"
	"github.com/petnova/petnova/internal/testutil"
)

func TestAuthPostgres(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Auth Postgres Suite")
}

var pg *testutil.Postgres

var _ = BeforeSuite(func() {
	ctx := context.Background()
	var err error
	pg, err = testutil.StartPostgres(ctx)
	Expect(err).NotTo(HaveOccurred())

	migrator, err := store.NewMigrator(pg.URL)
	Expect(err).NotTo(HaveOccurred())
	defer func() { _ = migrator.Close() }()
	Expect(migrator.Up()).To(Succeed())
})

var _ = AfterSuite(func() {
	if pg != nil {
		pg.Stop(context.Background())
	}
})

var _ = BeforeEach(func(ctx SpecContext) {
	Expect(pg.Truncate(ctx, "users")).To(Succeed())
})
