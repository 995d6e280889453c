// Package kafka holds the sarama based producer used to publish state commitments and the consumer group
// used to ingest bridge tickets.
package kafka

import (
	"encoding/binary"
	"net/url"
	"strings"

	"github.com/IBM/sarama"
	"github.com/bitcoin-vm/mru/errors"
	"github.com/bitcoin-vm/mru/ulogger"
	"github.com/bitcoin-vm/mru/util"
)

/**
kafka-topics.sh --list --bootstrap-server localhost:9092

kafka-console-consumer.sh --topic commitments --bootstrap-server localhost:9092 --from-beginning
*/

type KafkaProducerI interface {
	Send(key []byte, data []byte) error
	Topic() string
	Close() error
}

type SyncKafkaProducer struct {
	Producer   sarama.SyncProducer
	topic      string
	Partitions int32
}

func NewSyncKafkaProducer(producer sarama.SyncProducer, topic string, partitions int32) *SyncKafkaProducer {
	if partitions < 1 {
		partitions = 1
	}

	return &SyncKafkaProducer{
		Producer:   producer,
		topic:      topic,
		Partitions: partitions,
	}
}

func (k *SyncKafkaProducer) Topic() string {
	return k.topic
}

func (k *SyncKafkaProducer) Close() error {
	if err := k.Producer.Close(); err != nil {
		return errors.NewServiceError("failed to close Kafka producer", err)
	}

	return nil
}

// Send picks the partition from the first four bytes of the key, so all messages for a key stay ordered.
func (k *SyncKafkaProducer) Send(key []byte, data []byte) error {
	var partition int32
	if len(key) >= 4 {
		partition = int32(binary.LittleEndian.Uint32(key) % uint32(k.Partitions))
	}

	if _, _, err := k.Producer.SendMessage(&sarama.ProducerMessage{
		Topic:     k.topic,
		Key:       sarama.ByteEncoder(key),
		Value:     sarama.ByteEncoder(data),
		Partition: partition,
	}); err != nil {
		return errors.NewServiceError("failed to send message to topic %s", k.topic, err)
	}

	return nil
}

// NewKafkaProducerFromURL creates the topic when it does not exist yet and connects a sync producer.
// The URL has the form kafka://host1:9092,host2:9092/topic?partitions=1&replication=1&retention=600000
func NewKafkaProducerFromURL(logger ulogger.Logger, kafkaURL *url.URL) (KafkaProducerI, error) {
	if kafkaURL == nil {
		return nil, errors.NewConfigurationError("missing kafka url")
	}

	brokers := strings.Split(kafkaURL.Host, ",")
	topic := strings.TrimPrefix(kafkaURL.Path, "/")

	partitions := util.GetQueryParamInt(kafkaURL, "partitions", 1)
	replicationFactor := util.GetQueryParamInt(kafkaURL, "replication", 1)
	retentionPeriod := util.GetQueryParam(kafkaURL, "retention", "600000")

	config := sarama.NewConfig()
	config.Version = sarama.V2_1_0_0

	clusterAdmin, err := sarama.NewClusterAdmin(brokers, config)
	if err != nil {
		return nil, errors.NewServiceError("error while creating cluster admin", err)
	}

	defer func() {
		_ = clusterAdmin.Close()
	}()

	if err = clusterAdmin.CreateTopic(topic, &sarama.TopicDetail{
		NumPartitions:     int32(partitions),
		ReplicationFactor: int16(replicationFactor),
		ConfigEntries: map[string]*string{
			"retention.ms": &retentionPeriod,
		},
	}, false); err != nil && !errors.Is(err, sarama.ErrTopicAlreadyExists) {
		return nil, errors.NewServiceError("failed to create topic %s", topic, err)
	}

	producer, err := ConnectProducer(brokers, topic, int32(partitions))
	if err != nil {
		return nil, errors.NewServiceError("unable to connect to kafka", err)
	}

	logger.Infof("[Kafka] producer connected to %s, topic %s", kafkaURL.Host, topic)

	return producer, nil
}

func ConnectProducer(brokers []string, topic string, partitions int32) (*SyncKafkaProducer, error) {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.Return.Errors = true
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5
	config.Producer.Partitioner = sarama.NewManualPartitioner

	conn, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, err
	}

	return NewSyncKafkaProducer(conn, topic, partitions), nil
}
