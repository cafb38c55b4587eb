package repositories_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"olimport/src/domain"
	"olimport/src/domain/entities"
	"olimport/src/helper/env"
	"olimport/src/infra/postgres"
	"olimport/src/repositories"
	"olimport/src/test_artefacts/comparer"
	"olimport/src/test_artefacts/stubs"
	"olimport/src/test_artefacts/test_seeder"
)

var _ = Describe("AuthorQueryRepository", func() {
	var (
		readWriteClient       *postgres.ReadWriteClient
		testSeeder            test_seeder.TestSeeder
		authorQueryRepository *repositories.AuthorQueryRepository
		ctx                   context.Context
		err                   error
	)

	dbReadHost := env.GetString("TEST_DB_READ_HOST", "")
	dbWriteHost := env.GetString("TEST_DB_WRITE_HOST", "")
	dbReadPort := env.GetString("TEST_DB_READ_PORT", "5432")
	dbWritePort := env.GetString("TEST_DB_WRITE_PORT", "5432")
	dbname := env.GetString("TEST_DB_NAME", "")
	dbUser := env.GetString("TEST_DB_USER", "")
	dbPassword := env.GetString("TEST_DB_PASSWORD", "")
	maxConnections := env.GetInt("TEST_DB_MAX_POOL_CONNECTIONS", 25)

	BeforeEach(func() {
		ctx = context.Background()

		if dbReadHost == "" || dbWriteHost == "" {
			Skip("TEST_DB_READ_HOST / TEST_DB_WRITE_HOST not set")
		}

		readWriteClient, err = postgres.NewReadWriteClient(postgres.ReadWriteConfig{
			ReadHost:       dbReadHost,
			ReadPort:       dbReadPort,
			WriteHost:      dbWriteHost,
			WritePort:      dbWritePort,
			Database:       dbname,
			User:           dbUser,
			Password:       dbPassword,
			MaxConnections: maxConnections,
		})
		if err != nil {
			panic(err)
		}

		authorQueryRepository = repositories.NewAuthorQueryRepository(readWriteClient.GetReadPool())
		testSeeder = test_seeder.New(readWriteClient.GetWritePool())

		testSeeder.TruncateTables(ctx)
	})

	AfterEach(func() {
		if readWriteClient == nil {
			return
		}

		readWriteClient.Close()
		readWriteClient = nil
	})

	Context("when fetching by olid", func() {
		It("returns the stored author", func() {
			// ARRANGE
			seeded := stubs.NewAuthorStub().Get()
			testSeeder.InsertAuthor(ctx, &seeded)

			// ACT
			author, err := authorQueryRepository.GetByOLID(ctx, seeded.OLID)

			// ASSERT
			Expect(err).NotTo(HaveOccurred())
			Expect(*author).To(BeComparableTo(seeded, comparer.TimeWithinTolerance(time.Second)))
		})

		It("returns not found for an unknown olid", func() {
			// ACT
			author, err := authorQueryRepository.GetByOLID(ctx, "OL999999999A")

			// ASSERT
			Expect(err).To(MatchError(domain.ErrAuthorNotFound))
			Expect(author).To(BeNil())
		})
	})

	Context("when searching by name", func() {
		var (
			anna  entities.Author
			bruno entities.Author
			carla entities.Author
		)

		BeforeEach(func() {
			base := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

			anna = stubs.NewAuthorStub().WithName("Anna Example").WithLastModified(base).Get()
			bruno = stubs.NewAuthorStub().WithName("Bruno Example").WithLastModified(base.Add(24 * time.Hour)).Get()
			carla = stubs.NewAuthorStub().WithName("Carla Example").WithLastModified(base.Add(48 * time.Hour)).Get()

			testSeeder.InsertAuthor(ctx, &anna)
			testSeeder.InsertAuthor(ctx, &bruno)
			testSeeder.InsertAuthor(ctx, &carla)
		})

		It("matches name tokens case insensitively", func() {
			// ACT
			results, err := authorQueryRepository.SearchByName(ctx, "CARLA", 10)

			// ASSERT
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(1))
			Expect(results[0].OLID).To(Equal(carla.OLID))
		})

		It("orders results by most recent change first", func() {
			// ACT
			results, err := authorQueryRepository.SearchByName(ctx, "example", 10)

			// ASSERT
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(3))
			Expect(results[0].OLID).To(Equal(carla.OLID))
			Expect(results[1].OLID).To(Equal(bruno.OLID))
			Expect(results[2].OLID).To(Equal(anna.OLID))
		})

		It("respects the limit", func() {
			// ACT
			results, err := authorQueryRepository.SearchByName(ctx, "example", 2)

			// ASSERT
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(2))
			Expect(results[0].OLID).To(Equal(carla.OLID))
			Expect(results[1].OLID).To(Equal(bruno.OLID))
		})

		It("returns an empty result for a term nothing matches", func() {
			// ACT
			results, err := authorQueryRepository.SearchByName(ctx, "zzzznothing", 10)

			// ASSERT
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(BeEmpty())
		})
	})
})
