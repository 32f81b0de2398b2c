// Command weighin-producer simulates collection points publishing weigh-ins.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand"
	"os"
	"os/signal"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/IBM/sarama"

	"github.com/recycle-rewards/internal/domain"
	"github.com/recycle-rewards/internal/kafka"
)

func main() {
	// Command line flags
	brokers := flag.String("brokers", "localhost:9094", "Kafka brokers (comma-separated)")
	topic := flag.String("topic", "waste-weighins", "Kafka topic")
	users := flag.String("users", "", "User IDs to credit (comma-separated)")
	source := flag.String("source", "collection-point-1", "Source recorded on every weigh-in")
	perSecond := flag.Int("rate", 10, "Weigh-ins per second")
	maxWeight := flag.Float64("max-weight", 5, "Largest bag weight in kg")
	duration := flag.Duration("duration", 0, "Duration to run (0 = forever)")
	flag.Parse()

	userIDs := splitList(*users)
	if len(userIDs) == 0 {
		log.Fatal("at least one user id is required (-users)")
	}
	if *perSecond <= 0 {
		log.Fatal("rate must be positive")
	}

	wasteTypes := domain.DefaultCatalog().WasteTypes

	fmt.Printf("Publishing weigh-ins to %s on %s for %d users at %d/sec\n", *topic, *brokers, len(userIDs), *perSecond)

	// Configure Sarama producer
	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForLocal
	config.Producer.Compression = sarama.CompressionSnappy
	config.Producer.Flush.Frequency = 100 * time.Millisecond
	config.Producer.Flush.Messages = 100
	config.Producer.Return.Successes = true
	config.Producer.Return.Errors = true

	producer, err := sarama.NewAsyncProducer(splitList(*brokers), config)
	if err != nil {
		log.Fatalf("Failed to create producer: %v", err)
	}

	// Handle producer errors and successes
	var successCount, errorCount int64
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		for range producer.Successes() {
			atomic.AddInt64(&successCount, 1)
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		for err := range producer.Errors() {
			atomic.AddInt64(&errorCount, 1)
			log.Printf("Producer error: %v", err)
		}
	}()

	shutdown := func() {
		producer.AsyncClose()
		wg.Wait()
		fmt.Printf("\nCompleted. Sent: %d, Errors: %d\n", atomic.LoadInt64(&successCount), atomic.LoadInt64(&errorCount))
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(time.Second / time.Duration(*perSecond))
	defer ticker.Stop()
	statsTicker := time.NewTicker(5 * time.Second)
	defer statsTicker.Stop()

	var deadline <-chan time.Time
	if *duration > 0 {
		deadline = time.After(*duration)
	}

	var queued int64
	for {
		select {
		case <-sigChan:
			fmt.Println("\nShutting down...")
			shutdown()
			return

		case <-deadline:
			fmt.Println("\nDuration reached, shutting down...")
			shutdown()
			return

		case <-ticker.C:
			msg := kafka.WeighIn{
				UserID:    userIDs[rand.Intn(len(userIDs))],
				WasteType: wasteTypes[rand.Intn(len(wasteTypes))].ID,
				// Scales weigh to 100 g
				Weight: math.Max(0.1, math.Round(rand.Float64() * *maxWeight*10)/10),
				Source: *source,
			}
			data, err := json.Marshal(msg)
			if err != nil {
				log.Printf("Failed to marshal message: %v", err)
				continue
			}
			producer.Input() <- &sarama.ProducerMessage{
				Topic: *topic,
				Key:   sarama.StringEncoder(msg.UserID),
				Value: sarama.ByteEncoder(data),
			}
			queued++

		case <-statsTicker.C:
			fmt.Printf("[%s] Queued: %d | Sent: %d | Errors: %d\n",
				time.Now().Format("15:04:05"),
				queued,
				atomic.LoadInt64(&successCount),
				atomic.LoadInt64(&errorCount),
			)
		}
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
