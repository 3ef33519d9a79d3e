package mqtt

import (
	"encoding/json"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"

	"ev-fleet/optimizer/internal/config"
	"ev-fleet/optimizer/internal/domain"
	"ev-fleet/optimizer/internal/metrics"
	"ev-fleet/optimizer/internal/pipeline"
)

// Source subscribes to the telemetry topic and feeds incoming snapshots
// into the same dispatcher the HTTP ingest path uses. Telematics gateways
// that batch over cellular links publish here instead of POSTing.
type Source struct {
	client     mqtt.Client
	topic      string
	dispatcher *pipeline.Dispatcher
	logger     *zerolog.Logger
}

func NewSource(cfg *config.Config, dispatcher *pipeline.Dispatcher, logger *zerolog.Logger) (*Source, error) {
	options := mqtt.NewClientOptions()
	options.AddBroker(cfg.MQTTAddr)
	options.SetClientID(cfg.MQTTClientID)
	options.SetUsername(cfg.MQTTUsername)
	options.SetPassword(cfg.MQTTPassword)
	options.SetAutoReconnect(true)

	client := mqtt.NewClient(options)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}

	s := &Source{
		client:     client,
		topic:      cfg.MQTTTopic,
		dispatcher: dispatcher,
		logger:     logger,
	}

	if token := client.Subscribe(s.topic, 0, s.onReceive); token.Wait() && token.Error() != nil {
		client.Disconnect(250)
		return nil, token.Error()
	}

	return s, nil
}

func (s *Source) onReceive(client mqtt.Client, msg mqtt.Message) {
	msg.Ack()

	var snap domain.TelemetrySnapshot
	if err := json.Unmarshal(msg.Payload(), &snap); err != nil {
		s.logger.Warn().Err(err).Str("topic", msg.Topic()).Msg("failed to unmarshal telemetry message")
		return
	}
	if snap.VehicleID == "" {
		s.logger.Warn().Str("topic", msg.Topic()).Msg("telemetry message missing vehicle_id")
		return
	}

	snap.Normalize()
	metrics.SnapshotsReceived.Add(1)
	s.dispatcher.Dispatch(&snap)
}

func (s *Source) Stop() {
	s.client.Unsubscribe(s.topic)
	s.client.Disconnect(250)
}
