//go:build datagen_dump
// +build datagen_dump

package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/go-faker/faker/v4"
	"github.com/klauspost/pgzip"
)

// Build with: go build -tags datagen_dump -o datagen-dump .
// Generates an authors dump file in the five column tab separated format,
// optionally gzip compressed, for local import runs and benchmarks.

const dumpTimestampLayout = "2006-01-02T15:04:05.999999"

func main() {
	numAuthors := flag.Int("authors", 100000, "Number of author lines to generate.")
	outPath := flag.String("out", "ol_dump_authors.txt.gz", "Output file. A .gz suffix enables compression.")
	numGenerators := flag.Int("generators", 4, "Number of generator goroutines.")
	malformedPerc := flag.Float64("malformed-perc", 0.0, "Percentage of malformed lines (0-100).")
	missingNamePerc := flag.Float64("missing-name-perc", 5.0, "Percentage of payloads without a name (0-100).")
	missingKeyPerc := flag.Float64("missing-key-perc", 0.0, "Percentage of payloads without a key (0-100).")
	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\nShutdown signal received, stopping...")
		cancel()
	}()

	out, closeOut, err := openOutput(*outPath)
	if err != nil {
		log.Fatalf("Failed to open output: %v", err)
	}

	lineChan := make(chan string, 10000)
	var wg sync.WaitGroup

	// Each generator owns a contiguous OLID range so IDs never collide.
	perGenerator := *numAuthors / *numGenerators
	for i := 0; i < *numGenerators; i++ {
		count := perGenerator
		if i == *numGenerators-1 {
			count = *numAuthors - perGenerator*(*numGenerators-1)
		}
		wg.Add(1)
		go generator(ctx, &wg, lineChan, generatorConfig{
			id:              i + 1,
			firstID:         1000000 + i*perGenerator,
			count:           count,
			malformedPerc:   *malformedPerc,
			missingNamePerc: *missingNamePerc,
			missingKeyPerc:  *missingKeyPerc,
		})
	}

	go func() {
		wg.Wait()
		close(lineChan)
	}()

	written := 0
	start := time.Now()
	for line := range lineChan {
		if _, err := out.WriteString(line); err != nil {
			log.Fatalf("Failed to write line: %v", err)
		}
		written++
		if written%100000 == 0 {
			log.Printf("Written %d lines (%.0f lines/s)", written, float64(written)/time.Since(start).Seconds())
		}
	}

	if err := closeOut(); err != nil {
		log.Fatalf("Failed to close output: %v", err)
	}

	fmt.Printf("Dump generation finished: %d lines in %s -> %s\n", written, time.Since(start).Round(time.Millisecond), *outPath)
}

func openOutput(path string) (*bufio.Writer, func() error, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}

	var inner io.WriteCloser = file
	if strings.HasSuffix(path, ".gz") {
		inner = pgzip.NewWriter(file)
	}

	buffered := bufio.NewWriterSize(inner, 1<<20)
	closeFn := func() error {
		if err := buffered.Flush(); err != nil {
			return err
		}
		if inner != file {
			if err := inner.Close(); err != nil {
				return err
			}
		}
		return file.Close()
	}

	return buffered, closeFn, nil
}

type generatorConfig struct {
	id              int
	firstID         int
	count           int
	malformedPerc   float64
	missingNamePerc float64
	missingKeyPerc  float64
}

func generator(ctx context.Context, wg *sync.WaitGroup, lineChan chan<- string, cfg generatorConfig) {
	defer wg.Done()
	rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(cfg.id)))

	for i := 0; i < cfg.count; i++ {
		select {
		case <-ctx.Done():
			log.Printf("Generator %d stopping.", cfg.id)
			return
		default:
		}

		var line string
		switch {
		case rng.Float64()*100 < cfg.malformedPerc:
			line = malformedLine(rng)
		default:
			line = authorLine(rng, cfg.firstID+i, cfg.missingNamePerc, cfg.missingKeyPerc)
		}

		select {
		case lineChan <- line + "\n":
		case <-ctx.Done():
			log.Printf("Generator %d stopping.", cfg.id)
			return
		}
	}
}

func authorLine(rng *rand.Rand, id int, missingNamePerc, missingKeyPerc float64) string {
	olid := fmt.Sprintf("OL%dA", id)
	key := "/authors/" + olid
	revision := rng.Intn(30) + 1
	modified := randomTimestamp(rng)

	payload := map[string]interface{}{
		"key":      key,
		"type":     map[string]interface{}{"key": "/type/author"},
		"revision": revision,
		"id":       rng.Intn(10000000),
	}

	// Old dump rows carry last_modified as a bare string, newer ones wrap
	// it in a typed object.
	if rng.Float64() < 0.9 {
		payload["last_modified"] = map[string]interface{}{
			"type":  "/type/datetime",
			"value": modified,
		}
	} else {
		payload["last_modified"] = modified
	}

	if rng.Float64()*100 >= missingNamePerc {
		name := faker.Name()
		payload["name"] = name
		if rng.Float64() < 0.3 {
			payload["personal_name"] = name
		}
	}

	if rng.Float64()*100 < missingKeyPerc {
		delete(payload, "key")
	}

	if rng.Float64() < 0.1 {
		payload["birth_date"] = fmt.Sprintf("%d", 1850+rng.Intn(150))
	}

	payloadBytes, _ := json.Marshal(payload)

	return strings.Join([]string{
		"/type/author",
		key,
		fmt.Sprintf("%d", revision),
		modified,
		string(payloadBytes),
	}, "\t")
}

func malformedLine(rng *rand.Rand) string {
	switch rng.Intn(3) {
	case 0:
		// Too few columns
		return "/type/author\t/authors/OL1A\t3"
	case 1:
		// Payload is not valid JSON
		return "/type/author\t/authors/OL2A\t1\t2008-08-20T17:57:09\t{\"name\": \"broken"
	default:
		// Payload is a JSON array instead of an object
		return "/type/author\t/authors/OL3A\t1\t2008-08-20T17:57:09\t[1, 2, 3]"
	}
}

func randomTimestamp(rng *rand.Rand) string {
	base := time.Date(2008, 1, 1, 0, 0, 0, 0, time.UTC)
	span := int64(17 * 365 * 24 * 60 * 60)
	ts := base.Add(time.Duration(rng.Int63n(span)) * time.Second)

	// Most rows carry sub second precision, some older ones do not.
	if rng.Float64() < 0.8 {
		ts = ts.Add(time.Duration(rng.Intn(1000000)) * time.Microsecond)
	}

	return ts.Format(dumpTimestampLayout)
}
