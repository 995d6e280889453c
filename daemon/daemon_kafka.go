package daemon

import (
	"github.com/bitcoin-vm/mru/errors"
	"github.com/bitcoin-vm/mru/settings"
	"github.com/bitcoin-vm/mru/ulogger"
	"github.com/bitcoin-vm/mru/util/kafka"
)

// getKafkaCommitmentsProducer returns nil when no commitments topic is configured.
func getKafkaCommitmentsProducer(logger ulogger.Logger, tSettings *settings.Settings) (kafka.KafkaProducerI, error) {
	if tSettings.Kafka.CommitmentsURL == nil {
		return nil, nil
	}

	producer, err := kafka.NewKafkaProducerFromURL(logger, tSettings.Kafka.CommitmentsURL)
	if err != nil {
		return nil, errors.NewServiceError("failed to create commitments producer", err)
	}

	return producer, nil
}
