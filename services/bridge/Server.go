// Package bridge turns deposit tickets read from Kafka into operator signed mintSats actions.
package bridge

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/bitcoin-vm/mru/errors"
	"github.com/bitcoin-vm/mru/model"
	"github.com/bitcoin-vm/mru/settings"
	"github.com/bitcoin-vm/mru/tracing"
	"github.com/bitcoin-vm/mru/ulogger"
	"github.com/bitcoin-vm/mru/util/kafka"
	jsoniter "github.com/json-iterator/go"
	"github.com/ordishs/gocore"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	jsonAPI    = jsoniter.ConfigCompatibleWithStandardLibrary
	bridgeStat = gocore.NewStat("bridge")
)

var (
	prometheusBridgeTickets   *prometheus.CounterVec
	prometheusMetricsInitOnce sync.Once
)

func initPrometheusMetrics() {
	prometheusMetricsInitOnce.Do(func() {
		prometheusBridgeTickets = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "mru",
				Subsystem: "bridge",
				Name:      "tickets",
				Help:      "Number of bridge tickets processed, by outcome",
			},
			[]string{"outcome"},
		)
	})
}

// Submitter is the part of the sequencer the bridge needs.
type Submitter interface {
	SubmitOperatorAction(ctx context.Context, name string, inputs interface{}) (*model.ActionResult, error)
}

type Server struct {
	logger    ulogger.Logger
	settings  *settings.Settings
	submitter Submitter
	consumer  *kafka.KafkaConsumerGroup
}

func New(logger ulogger.Logger, tSettings *settings.Settings, submitter Submitter) *Server {
	initPrometheusMetrics()

	return &Server{
		logger:    logger,
		settings:  tSettings,
		submitter: submitter,
	}
}

func (s *Server) Health(_ context.Context, checkLiveness bool) (int, string, error) {
	if !checkLiveness && s.consumer == nil {
		return http.StatusServiceUnavailable, "not initialised", errors.NewServiceError("bridge consumer is not initialised")
	}

	return http.StatusOK, "OK", nil
}

func (s *Server) Init(_ context.Context) (err error) {
	if s.settings.Kafka.BridgeTicketsURL == nil {
		return errors.NewConfigurationError("kafka_bridgeTicketsURL is required when the bridge is enabled")
	}

	s.consumer, err = kafka.NewKafkaConsumerGroupFromURL(s.logger, s.settings.Kafka.BridgeTicketsURL, s.settings.Bridge.ConsumerGroup, false)

	return err
}

// Start consumes tickets until ctx is done. Failing tickets are retried a few times and then skipped.
func (s *Server) Start(ctx context.Context, readyCh chan<- struct{}) error {
	close(readyCh)

	s.logger.Infof("[Bridge] listening for %s tickets on %s", HandlerWBTC, s.consumer.Config.Topic)

	s.consumer.Start(ctx, s.consumerMessageHandler(ctx), kafka.WithRetryAndMoveOn(3, time.Second))

	return nil
}

func (s *Server) Stop(_ context.Context) error {
	return s.consumer.Close()
}

func (s *Server) consumerMessageHandler(ctx context.Context) func(msg *kafka.KafkaMessage) error {
	return func(msg *kafka.KafkaMessage) error {
		return s.HandleTicket(ctx, msg.Value)
	}
}

// HandleTicket submits the mint for one ticket. Malformed and replayed tickets are dropped without an
// error since retrying them cannot succeed; sequencer failures are returned so the consumer retries.
// The ticket number is the mint nonce, so a replayed ticket yields the same action.
func (s *Server) HandleTicket(ctx context.Context, data []byte) (err error) {
	ctx, _, endSpan := tracing.StartTracing(ctx, "HandleTicket", tracing.WithParentStat(bridgeStat))
	defer func() {
		endSpan(err)
	}()

	var ticket Ticket
	if err = jsonAPI.Unmarshal(data, &ticket); err != nil {
		s.logger.Warnf("[Bridge] dropping undecodable ticket: %v", err)
		prometheusBridgeTickets.WithLabelValues("invalid").Inc()

		return nil
	}

	deposit, err := ticket.DecodeWBTC()
	if err != nil {
		s.logger.Warnf("[Bridge] dropping ticket %d: %v", ticket.TicketNumber, err)
		prometheusBridgeTickets.WithLabelValues("invalid").Inc()

		return nil
	}

	s.logger.Infof("[Bridge] ticket %d: %d sats from %s to %s", ticket.TicketNumber, deposit.Satoshis, ticket.Submitter, deposit.BtcAddress)

	result, err := s.submitter.SubmitOperatorAction(ctx, model.ActionMintSats, model.MintSatsInputs{
		EthAddress: ticket.Submitter,
		BtcAddress: deposit.BtcAddress,
		Satoshis:   deposit.Satoshis,
		Timestamp:  ticket.TicketNumber,
	})

	switch {
	case errors.Is(err, errors.ErrTxAlreadyExists):
		s.logger.Infof("[Bridge] ticket %d was already submitted", ticket.TicketNumber)
		prometheusBridgeTickets.WithLabelValues("duplicate").Inc()

		return nil
	case err != nil:
		prometheusBridgeTickets.WithLabelValues("failed").Inc()
		return errors.NewServiceError("failed to submit ticket %d", ticket.TicketNumber, err)
	}

	prometheusBridgeTickets.WithLabelValues("submitted").Inc()
	s.logger.Debugf("[Bridge] ticket %d submitted as %s", ticket.TicketNumber, result.Hash)

	return nil
}
