package producers

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
)

const (
	partitionReadAttempts = 5
	partitionReadBackoff  = 2 * time.Second
)

// ensureTopic creates the topic when the broker does not know it yet.
// Partition reads are retried because brokers answer with transient
// errors right after startup.
func ensureTopic(conn *kafka.Conn, topic string, partitions int, replication int, log *slog.Logger) error {
	var (
		known []kafka.Partition
		err   error
	)

	for attempt := 1; attempt <= partitionReadAttempts; attempt++ {
		known, err = conn.ReadPartitions(topic)
		if err == nil {
			break
		}
		log.Warn("reading kafka partitions failed",
			"topic", topic,
			"attempt", attempt,
			"error", err)
		time.Sleep(partitionReadBackoff)
	}

	if len(known) > 0 {
		log.Info("kafka topic present", "topic", topic, "partitions", len(known))
		return nil
	}

	if partitions <= 0 {
		partitions = 1
	}
	if replication <= 0 {
		replication = 1
	}

	log.Info("creating kafka topic",
		"topic", topic,
		"partitions", partitions,
		"replication_factor", replication)
	if err := conn.CreateTopics(kafka.TopicConfig{
		Topic:             topic,
		NumPartitions:     partitions,
		ReplicationFactor: replication,
	}); err != nil {
		return fmt.Errorf("failed to create kafka topic %s: %w", topic, err)
	}
	return nil
}
