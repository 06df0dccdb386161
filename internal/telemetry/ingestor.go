// Package telemetry ingests device readings from the MQTT bus.
//
// Devices publish JSON readings to hearth/device/{external_id}/data. The
// ingestor resolves the device, updates its last reported value, appends
// the reading to the history table, optionally mirrors it to InfluxDB,
// and fans it out to live websocket subscribers.
package telemetry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rowanfell/hearth-core/internal/device"
	"github.com/rowanfell/hearth-core/internal/infrastructure/logging"
	"github.com/rowanfell/hearth-core/internal/infrastructure/mqtt"
)

// ChannelDeviceReading is the websocket channel readings are broadcast on.
const ChannelDeviceReading = "device.reading"

// ingestTimeout bounds the store writes for a single reading.
const ingestTimeout = 5 * time.Second

// Broadcaster fans events out to live subscribers. Implemented by the
// API websocket hub.
type Broadcaster interface {
	Broadcast(channel string, payload any)
}

// Mirror receives a copy of every ingested reading. Implemented by the
// InfluxDB client.
type Mirror interface {
	WriteReading(externalID, deviceType string, value float64, unit string, recordedAt time.Time)
}

// readingPayload is the wire format devices publish.
type readingPayload struct {
	Value      *float64 `json:"value"`
	Unit       string   `json:"unit,omitempty"`
	Status     string   `json:"status,omitempty"`
	RecordedAt string   `json:"recorded_at,omitempty"`
}

// ReadingEvent is the payload broadcast to websocket subscribers.
type ReadingEvent struct {
	DeviceID   string  `json:"device_id"`
	ExternalID string  `json:"external_id"`
	Name       string  `json:"name"`
	RoomID     *string `json:"room_id,omitempty"`
	Value      float64 `json:"value"`
	Unit       string  `json:"unit,omitempty"`
	RecordedAt string  `json:"recorded_at"`
}

// Ingestor consumes device readings and writes them into the store.
type Ingestor struct {
	devices     device.Repository
	data        device.DataRepository
	mirror      Mirror
	broadcaster Broadcaster
	logger      *logging.Logger
}

// NewIngestor creates a reading ingestor. mirror and broadcaster may be
// nil when the respective integration is disabled.
func NewIngestor(devices device.Repository, data device.DataRepository, mirror Mirror, broadcaster Broadcaster, logger *logging.Logger) *Ingestor {
	return &Ingestor{
		devices:     devices,
		data:        data,
		mirror:      mirror,
		broadcaster: broadcaster,
		logger:      logger.With("component", "telemetry"),
	}
}

// Start subscribes the ingestor to the device reading topics.
func (in *Ingestor) Start(client *mqtt.Client) error {
	topic := mqtt.Topics{}.AllDeviceData()
	in.logger.Info("subscribing to device readings", "topic", topic)
	if err := client.Subscribe(topic, 1, in.HandleMessage); err != nil {
		return fmt.Errorf("subscribing to %s: %w", topic, err)
	}
	return nil
}

// HandleMessage processes a single reading message. Malformed payloads
// and unknown devices are logged and dropped; only store failures
// propagate so the MQTT client can log them as handler errors.
func (in *Ingestor) HandleMessage(topic string, payload []byte) error {
	externalID := mqtt.DeviceDataExternalID(topic)
	if externalID == "" {
		in.logger.Warn("reading on unexpected topic", "topic", topic)
		return nil
	}

	var msg readingPayload
	if err := json.Unmarshal(payload, &msg); err != nil {
		in.logger.Warn("malformed reading payload", "topic", topic, "error", err)
		return nil
	}
	if msg.Value == nil {
		in.logger.Warn("reading without value", "topic", topic)
		return nil
	}

	recordedAt := time.Now().UTC()
	if msg.RecordedAt != "" {
		if t, err := time.Parse(time.RFC3339, msg.RecordedAt); err == nil {
			recordedAt = t.UTC()
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), ingestTimeout)
	defer cancel()

	d, err := in.devices.GetByExternalID(ctx, externalID)
	if err != nil {
		if errors.Is(err, device.ErrDeviceNotFound) {
			in.logger.Warn("reading from unknown device", "external_id", externalID)
			return nil
		}
		return fmt.Errorf("resolving device %s: %w", externalID, err)
	}

	if err := in.devices.SetReported(ctx, d.ID, *msg.Value, true); err != nil {
		return fmt.Errorf("updating device %s: %w", d.ID, err)
	}

	reading := &device.Reading{
		DeviceID:   d.ID,
		Value:      *msg.Value,
		Unit:       msg.Unit,
		RecordedAt: recordedAt,
	}
	if err := in.data.Append(ctx, reading); err != nil {
		return fmt.Errorf("storing reading for device %s: %w", d.ID, err)
	}

	if in.mirror != nil {
		in.mirror.WriteReading(d.ExternalID, d.DeviceType, *msg.Value, msg.Unit, recordedAt)
	}

	if in.broadcaster != nil {
		in.broadcaster.Broadcast(ChannelDeviceReading, ReadingEvent{
			DeviceID:   d.ID,
			ExternalID: d.ExternalID,
			Name:       d.Name,
			RoomID:     d.RoomID,
			Value:      *msg.Value,
			Unit:       msg.Unit,
			RecordedAt: recordedAt.Format(time.RFC3339),
		})
	}

	in.logger.Debug("reading ingested",
		"external_id", d.ExternalID,
		"value", *msg.Value)
	return nil
}
