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
	"olimport/src/infra/redis"
	"olimport/src/repositories"
	"olimport/src/test_artefacts/stubs"
	"olimport/src/test_artefacts/test_seeder"
)

var _ = Describe("CachedAuthorRepository", func() {
	var (
		readWriteClient        *postgres.ReadWriteClient
		redisClient            *redis.RedisClient
		testSeeder             test_seeder.TestSeeder
		authorQueryRepository  *repositories.AuthorQueryRepository
		cachedAuthorRepository *repositories.CachedAuthorRepository
		authorWriteRepository  *repositories.AuthorWriteRepository
		ctx                    context.Context
		err                    error
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
		ctx = context.Background()

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

		authorQueryRepository = repositories.NewAuthorQueryRepository(readWriteClient.GetReadPool())
		cachedAuthorRepository = repositories.NewCachedAuthorRepository(authorQueryRepository, redisClient)
		authorWriteRepository = repositories.NewAuthorWriteRepository(readWriteClient.GetWritePool(), cachedAuthorRepository)
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

	Context("when reading through the cache", func() {
		It("serves repeated reads from the cache", func() {
			// ARRANGE
			seeded := stubs.NewAuthorStub().Get()
			testSeeder.InsertAuthor(ctx, &seeded)

			// ACT
			author, err := cachedAuthorRepository.GetByOLID(ctx, seeded.OLID)

			// ASSERT
			Expect(err).NotTo(HaveOccurred())
			Expect(author.OLID).To(Equal(seeded.OLID))

			// Deleting the row proves the next answer comes from the
			// cache, once the background set landed.
			_, err = readWriteClient.GetWritePool().Exec(ctx, "DELETE FROM authors WHERE olid = $1", seeded.OLID)
			Expect(err).NotTo(HaveOccurred())

			Eventually(func(g Gomega) {
				cached, err := cachedAuthorRepository.GetByOLID(ctx, seeded.OLID)
				g.Expect(err).NotTo(HaveOccurred())
				g.Expect(cached.OLID).To(Equal(seeded.OLID))
				g.Expect(cached.Name).To(Equal(seeded.Name))
			}).WithTimeout(3 * time.Second).Should(Succeed())
		})

		It("falls back to not found once an invalidated entry is gone", func() {
			// ARRANGE
			seeded := stubs.NewAuthorStub().Get()
			testSeeder.InsertAuthor(ctx, &seeded)

			_, err := cachedAuthorRepository.GetByOLID(ctx, seeded.OLID)
			Expect(err).NotTo(HaveOccurred())

			_, err = readWriteClient.GetWritePool().Exec(ctx, "DELETE FROM authors WHERE olid = $1", seeded.OLID)
			Expect(err).NotTo(HaveOccurred())

			// ACT
			Expect(cachedAuthorRepository.InvalidateByOLIDs(ctx, []string{seeded.OLID})).To(Succeed())

			// ASSERT
			Eventually(func(g Gomega) {
				_, err := cachedAuthorRepository.GetByOLID(ctx, seeded.OLID)
				g.Expect(err).To(MatchError(domain.ErrAuthorNotFound))
			}).WithTimeout(3 * time.Second).Should(Succeed())
		})
	})

	Context("when rows change underneath the cache", func() {
		It("serves the new value after an upsert invalidated the entry", func() {
			// ARRANGE
			seeded := stubs.NewAuthorStub().WithName("Before Update").WithRevision(1).Get()
			testSeeder.InsertAuthor(ctx, &seeded)

			_, err := cachedAuthorRepository.GetByOLID(ctx, seeded.OLID)
			Expect(err).NotTo(HaveOccurred())

			updated := seeded
			updated.Name = "After Update"
			updated.Revision = 2

			// ACT
			Expect(authorWriteRepository.UpsertAuthors(ctx, []entities.Author{updated})).To(Succeed())

			// ASSERT
			Eventually(func(g Gomega) {
				author, err := cachedAuthorRepository.GetByOLID(ctx, seeded.OLID)
				g.Expect(err).NotTo(HaveOccurred())
				g.Expect(author.Name).To(Equal("After Update"))
				g.Expect(author.Revision).To(Equal(int64(2)))
			}).WithTimeout(3 * time.Second).Should(Succeed())
		})
	})
})
