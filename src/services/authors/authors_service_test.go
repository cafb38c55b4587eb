package authors_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"olimport/src/domain"
	"olimport/src/helper/env"
	"olimport/src/infra/postgres"
	"olimport/src/infra/redis"
	"olimport/src/repositories"
	"olimport/src/services/authors"
	"olimport/src/test_artefacts/stubs"
	"olimport/src/test_artefacts/test_seeder"
)

var _ = Describe("AuthorsService", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	// Input validation never reaches a repository, so these specs run with
	// none wired.
	Context("when inputs are invalid", func() {
		var authorsService *authors.AuthorsService

		BeforeEach(func() {
			authorsService = authors.NewAuthorsService(nil, nil)
		})

		When("the olid is not well formed", func() {
			It("answers not found without hitting storage", func() {
				// ACT
				author, err := authorsService.GetByOLID(ctx, "not-an-olid")

				// ASSERT
				Expect(err).To(MatchError(domain.ErrAuthorNotFound))
				Expect(author).To(BeNil())
			})
		})

		When("the search term is blank", func() {
			It("rejects the search", func() {
				// ACT
				results, err := authorsService.SearchByName(ctx, "   ", 10)

				// ASSERT
				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring("search term must not be empty"))
				Expect(results).To(BeNil())
			})
		})
	})

	Context("with the full read stack", func() {
		var (
			readWriteClient *postgres.ReadWriteClient
			redisClient     *redis.RedisClient
			testSeeder      test_seeder.TestSeeder
			authorsService  *authors.AuthorsService
			err             error
		)

		dbReadHost := env.GetString("TEST_DB_READ_HOST", "")
		dbWriteHost := env.GetString("TEST_DB_WRITE_HOST", "")
		dbReadPort := env.GetString("TEST_DB_READ_PORT", "5432")
		dbWritePort := env.GetString("TEST_DB_WRITE_PORT", "5432")
		dbname := env.GetString("TEST_DB_NAME", "")
		dbUser := env.GetString("TEST_DB_USER", "")
		dbPassword := env.GetString("TEST_DB_PASSWORD", "")
		maxConnections := env.GetInt("TEST_DB_MAX_POOL_CONNECTIONS", 25)

		redisAddrs := env.GetString("TEST_REDIS_HOSTS", "")
		redisPoolSize := env.GetInt("TEST_REDIS_POOL_SIZE", 10)
		redisTTL := env.GetInt("TEST_REDIS_TTL_SECONDS", 1)

		BeforeEach(func() {
			if dbReadHost == "" || dbWriteHost == "" || redisAddrs == "" {
				Skip("TEST_DB_READ_HOST / TEST_DB_WRITE_HOST / TEST_REDIS_HOSTS not set")
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

			redisClient = redis.NewRedisClient(redisAddrs, redisPoolSize, time.Duration(redisTTL)*time.Second).WithPrefix("test:")

			authorQueryRepository := repositories.NewAuthorQueryRepository(readWriteClient.GetReadPool())
			cachedAuthorRepository := repositories.NewCachedAuthorRepository(authorQueryRepository, redisClient)
			authorsService = authors.NewAuthorsService(cachedAuthorRepository, authorQueryRepository)
			testSeeder = test_seeder.New(readWriteClient.GetWritePool())

			testSeeder.TruncateTables(ctx)
			redisClient.FlushByPrefix(ctx)
		})

		AfterEach(func() {
			if readWriteClient == nil {
				return
			}

			readWriteClient.Close()
			readWriteClient = nil
		})

		When("fetching a stored author", func() {
			It("returns it", func() {
				// ARRANGE
				seeded := stubs.NewAuthorStub().Get()
				testSeeder.InsertAuthor(ctx, &seeded)

				// ACT
				author, err := authorsService.GetByOLID(ctx, seeded.OLID)

				// ASSERT
				Expect(err).NotTo(HaveOccurred())
				Expect(author.OLID).To(Equal(seeded.OLID))
				Expect(author.Name).To(Equal(seeded.Name))
			})
		})

		When("fetching an absent author", func() {
			It("answers not found", func() {
				// ACT
				author, err := authorsService.GetByOLID(ctx, "OL999999999A")

				// ASSERT
				Expect(err).To(MatchError(domain.ErrAuthorNotFound))
				Expect(author).To(BeNil())
			})
		})

		When("searching with a non positive limit", func() {
			It("applies the default limit instead of returning nothing", func() {
				// ARRANGE
				seeded := stubs.NewAuthorStub().WithName("Default Limit Dickens").Get()
				testSeeder.InsertAuthor(ctx, &seeded)

				// ACT
				results, err := authorsService.SearchByName(ctx, "dickens", 0)

				// ASSERT
				Expect(err).NotTo(HaveOccurred())
				Expect(results).To(HaveLen(1))
				Expect(results[0].OLID).To(Equal(seeded.OLID))
			})
		})
	})
})
