package consumers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"olimport/src/domain/entities"
	"olimport/src/infra/kafka"
)

// recordingAuthorWriter captures every batch the consumer hands to the
// store and can be told to reject them.
type recordingAuthorWriter struct {
	batches [][]entities.Author
	err     error
}

func (w *recordingAuthorWriter) UpsertAuthors(ctx context.Context, authors []entities.Author) error {
	copied := make([]entities.Author, len(authors))
	copy(copied, authors)
	w.batches = append(w.batches, copied)
	return w.err
}

func (w *recordingAuthorWriter) upserted() []entities.Author {
	var authors []entities.Author
	for _, batch := range w.batches {
		authors = append(authors, batch...)
	}
	return authors
}

func recordMessage(olid string, revision int64) kafka.Message {
	payload, err := json.Marshal(AuthorRecordMessage{
		OLID:         olid,
		Name:         "Author " + olid,
		Revision:     revision,
		LastModified: time.Date(2008, 8, 20, 17, 57, 9, 0, time.UTC),
	})
	Expect(err).NotTo(HaveOccurred())

	return kafka.Message{Key: olid, Value: payload}
}

func newConsumer(writer AuthorWriter) *AuthorRecordsConsumer {
	logger := slog.New(slog.NewJSONHandler(GinkgoWriter, nil))
	return NewAuthorRecordsConsumer(logger, writer)
}

var _ = Describe("AuthorRecordsConsumer", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	Context("when the batch mixes usable and unusable records", func() {
		It("upserts the readable records and drops the rest", func() {
			// ARRANGE
			writer := &recordingAuthorWriter{}
			consumer := newConsumer(writer)

			messages := []kafka.Message{
				recordMessage("OL100001A", 1),
				{Key: "broken", Value: []byte("not json at all")},
				{Key: "keyless", Value: []byte(`{"name": "No Identifier", "revision": 2}`)},
				recordMessage("OL100002A", 1),
			}

			// ACT
			err := consumer.handleMessages(ctx, messages)

			// ASSERT
			Expect(err).NotTo(HaveOccurred())
			Expect(writer.batches).To(HaveLen(1))

			olids := make([]string, 0, 2)
			for _, author := range writer.upserted() {
				olids = append(olids, author.OLID)
			}
			Expect(olids).To(ConsistOf("OL100001A", "OL100002A"))
		})
	})

	Context("when no record in the batch is usable", func() {
		It("drops the batch without touching the store", func() {
			// ARRANGE
			writer := &recordingAuthorWriter{}
			consumer := newConsumer(writer)

			messages := []kafka.Message{
				{Key: "broken", Value: []byte("{ unterminated")},
				{Key: "keyless", Value: []byte(`{"name": "No Identifier"}`)},
			}

			// ACT
			err := consumer.handleMessages(ctx, messages)

			// ASSERT
			Expect(err).NotTo(HaveOccurred())
			Expect(writer.batches).To(BeEmpty())
		})
	})

	Context("when the batch carries several revisions of one author", func() {
		It("keeps the highest revision", func() {
			// ARRANGE
			writer := &recordingAuthorWriter{}
			consumer := newConsumer(writer)

			messages := []kafka.Message{
				recordMessage("OL100001A", 3),
				recordMessage("OL100001A", 7),
				recordMessage("OL100001A", 5),
			}

			// ACT
			err := consumer.handleMessages(ctx, messages)

			// ASSERT
			Expect(err).NotTo(HaveOccurred())
			Expect(writer.upserted()).To(HaveLen(1))
			Expect(writer.upserted()[0].Revision).To(Equal(int64(7)))
		})
	})

	Context("when the store rejects the batch", func() {
		It("propagates the error so the offsets stay uncommitted", func() {
			// ARRANGE
			writer := &recordingAuthorWriter{err: errors.New("connection refused")}
			consumer := newConsumer(writer)

			// ACT
			err := consumer.handleMessages(ctx, []kafka.Message{recordMessage("OL100001A", 1)})

			// ASSERT
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("connection refused"))
		})
	})

	Context("when the batch is empty", func() {
		It("does nothing", func() {
			// ARRANGE
			writer := &recordingAuthorWriter{}
			consumer := newConsumer(writer)

			// ACT / ASSERT
			Expect(consumer.handleMessages(ctx, nil)).To(Succeed())
			Expect(writer.batches).To(BeEmpty())
		})
	})
})
