package kafka

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/IBM/sarama"
	"github.com/bitcoin-vm/mru/errors"
	"github.com/bitcoin-vm/mru/ulogger"
	"github.com/bitcoin-vm/mru/util"
)

// KafkaMessage wraps sarama.ConsumerMessage so consumers do not import sarama.
type KafkaMessage struct {
	sarama.ConsumerMessage
}

type KafkaConsumerConfig struct {
	Logger            ulogger.Logger
	URL               *url.URL
	BrokersURL        []string
	Topic             string
	ConsumerGroupID   string
	AutoCommitEnabled bool
	Replay            bool
}

type KafkaConsumerGroup struct {
	Config        KafkaConsumerConfig
	ConsumerGroup sarama.ConsumerGroup
}

// ConsumerOption configures how Start reacts to a failing consumer function.
type ConsumerOption func(*consumerOptions)

type consumerOptions struct {
	logErrorAndMoveOn bool
	maxRetries        int
	backoff           time.Duration
}

// WithRetryAndMoveOn retries a failing message with a linear backoff and skips it after maxRetries.
func WithRetryAndMoveOn(maxRetries int, backoff time.Duration) ConsumerOption {
	return func(o *consumerOptions) {
		o.maxRetries = maxRetries
		o.backoff = backoff
		o.logErrorAndMoveOn = true
	}
}

// WithLogErrorAndMoveOn skips failing messages without retrying.
func WithLogErrorAndMoveOn() ConsumerOption {
	return func(o *consumerOptions) {
		o.maxRetries = 0
		o.logErrorAndMoveOn = true
	}
}

// NewKafkaConsumerGroupFromURL reads the topic from the URL path and replay=0|1 from the query.
func NewKafkaConsumerGroupFromURL(logger ulogger.Logger, kafkaURL *url.URL, groupID string, autoCommit bool) (*KafkaConsumerGroup, error) {
	if kafkaURL == nil {
		return nil, errors.NewConfigurationError("missing kafka url")
	}

	cfg := KafkaConsumerConfig{
		Logger:            logger,
		URL:               kafkaURL,
		BrokersURL:        strings.Split(kafkaURL.Host, ","),
		Topic:             strings.TrimPrefix(kafkaURL.Path, "/"),
		ConsumerGroupID:   groupID,
		AutoCommitEnabled: autoCommit,
		Replay:            util.GetQueryParamInt(kafkaURL, "replay", 1) == 1,
	}

	config := sarama.NewConfig()
	config.Consumer.Return.Errors = true
	config.Consumer.Offsets.AutoCommit.Enable = autoCommit

	if cfg.Replay {
		config.Consumer.Offsets.Initial = sarama.OffsetOldest
	}

	group, err := sarama.NewConsumerGroup(cfg.BrokersURL, groupID, config)
	if err != nil {
		return nil, errors.NewServiceError("failed to create Kafka consumer group for %s", cfg.Topic, err)
	}

	return NewKafkaConsumerGroup(cfg, group)
}

func NewKafkaConsumerGroup(cfg KafkaConsumerConfig, group sarama.ConsumerGroup) (*KafkaConsumerGroup, error) {
	if cfg.Logger == nil {
		return nil, errors.NewConfigurationError("logger is not set")
	}

	if cfg.ConsumerGroupID == "" {
		return nil, errors.NewConfigurationError("group ID is not set")
	}

	if cfg.Topic == "" {
		return nil, errors.NewConfigurationError("topic is not set")
	}

	return &KafkaConsumerGroup{Config: cfg, ConsumerGroup: group}, nil
}

func (k *KafkaConsumerGroup) Close() error {
	if k == nil || k.ConsumerGroup == nil {
		return nil
	}

	if err := k.ConsumerGroup.Close(); err != nil {
		return errors.NewServiceError("error closing consumer group for topic %s", k.Config.Topic, err)
	}

	return nil
}

// Start consumes until ctx is done. It blocks, callers run it in a goroutine.
func (k *KafkaConsumerGroup) Start(ctx context.Context, consumerFn func(message *KafkaMessage) error, opts ...ConsumerOption) {
	options := &consumerOptions{}
	for _, opt := range opts {
		opt(options)
	}

	handler := NewKafkaConsumer(k.Config, wrapConsumerFn(ctx, k.Config, consumerFn, options))

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case err, ok := <-k.ConsumerGroup.Errors():
				if !ok {
					return
				}

				k.Config.Logger.Errorf("[Kafka] %s: consumer error on topic %s: %v", k.Config.ConsumerGroupID, k.Config.Topic, err)
			}
		}
	}()

	for {
		// Consume returns on every rebalance and must be called again
		if err := k.ConsumerGroup.Consume(ctx, []string{k.Config.Topic}, handler); err != nil {
			if errors.Is(err, sarama.ErrClosedConsumerGroup) {
				return
			}

			k.Config.Logger.Errorf("[Kafka] %s: consume failed on topic %s: %v", k.Config.ConsumerGroupID, k.Config.Topic, err)
		}

		if ctx.Err() != nil {
			return
		}
	}
}

func wrapConsumerFn(ctx context.Context, cfg KafkaConsumerConfig, fn func(*KafkaMessage) error, options *consumerOptions) func(*KafkaMessage) error {
	if !options.logErrorAndMoveOn {
		return fn
	}

	return func(msg *KafkaMessage) error {
		var err error

		for attempt := 0; attempt <= options.maxRetries; attempt++ {
			if err = fn(msg); err == nil {
				return nil
			}

			if attempt == options.maxRetries {
				break
			}

			select {
			case <-ctx.Done():
				return nil
			case <-time.After(time.Duration(attempt+1) * options.backoff):
			}
		}

		cfg.Logger.Errorf("[Kafka] error processing message on topic %s (offset %d), skipping: %v", cfg.Topic, msg.Offset, err)

		return nil
	}
}

// KafkaConsumer implements sarama.ConsumerGroupHandler.
type KafkaConsumer struct {
	consumerClosure func(*KafkaMessage) error
	cfg             KafkaConsumerConfig
}

func NewKafkaConsumer(cfg KafkaConsumerConfig, consumerClosure func(message *KafkaMessage) error) *KafkaConsumer {
	return &KafkaConsumer{
		consumerClosure: consumerClosure,
		cfg:             cfg,
	}
}

func (kc *KafkaConsumer) Setup(sarama.ConsumerGroupSession) error {
	return nil
}

func (kc *KafkaConsumer) Cleanup(session sarama.ConsumerGroupSession) error {
	if !kc.cfg.AutoCommitEnabled {
		session.Commit()
	}

	return nil
}

// ConsumeClaim marks a message only after the closure succeeded, so a failing message is redelivered
// after the next rebalance.
func (kc *KafkaConsumer) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case <-session.Context().Done():
			return nil
		case message, ok := <-claim.Messages():
			if !ok {
				return nil
			}

			if message == nil {
				continue
			}

			if err := kc.consumerClosure(&KafkaMessage{*message}); err != nil {
				kc.cfg.Logger.Errorf("[Kafka] failed to process message (topic: %s, partition: %d, offset: %d): %v",
					message.Topic, message.Partition, message.Offset, err)

				return err
			}

			session.MarkMessage(message, "")

			if !kc.cfg.AutoCommitEnabled {
				session.Commit()
			}
		}
	}
}
