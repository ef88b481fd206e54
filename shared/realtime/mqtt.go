package realtime

import (
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/pavitra93/go-facility-platform/shared/models"
)

// SpotUpdate is the live parking-map payload for one spot.
type SpotUpdate struct {
	SpotID    uuid.UUID  `json:"spot_id"`
	Label     string     `json:"label"`
	Occupied  bool       `json:"occupied"`
	VehicleID *uuid.UUID `json:"vehicle_id,omitempty"`
	At        time.Time  `json:"at"`
}

// Publisher pushes parking-map changes to live subscribers.
type Publisher interface {
	PublishSpot(tenantID uuid.UUID, spot *models.ParkingSpot) error
}

// Nop discards every update.
type Nop struct{}

func (Nop) PublishSpot(uuid.UUID, *models.ParkingSpot) error { return nil }

type MQTTConfig struct {
	Broker   string
	ClientID string
	Username string
	Password string
}

// MQTTPublisher publishes retained spot states on
// tenants/<tenant>/parking/<spot>.
type MQTTPublisher struct {
	client mqtt.Client
}

func NewMQTTPublisher(cfg MQTTConfig) (*MQTTPublisher, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}
	opts.SetAutoReconnect(true)
	opts.SetCleanSession(true)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}
	return &MQTTPublisher{client: client}, nil
}

func SpotTopic(tenantID, spotID uuid.UUID) string {
	return fmt.Sprintf("tenants/%s/parking/%s", tenantID, spotID)
}

func (p *MQTTPublisher) PublishSpot(tenantID uuid.UUID, spot *models.ParkingSpot) error {
	payload, err := json.Marshal(SpotUpdate{
		SpotID:    spot.ID,
		Label:     spot.Label,
		Occupied:  spot.Occupied,
		VehicleID: spot.VehicleID,
		At:        time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal spot update: %w", err)
	}

	topic := SpotTopic(tenantID, spot.ID)
	token := p.client.Publish(topic, 1, true, payload)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("timed out publishing to topic %s", topic)
	}
	if token.Error() != nil {
		return fmt.Errorf("failed to publish to topic %s: %w", topic, token.Error())
	}
	return nil
}

func (p *MQTTPublisher) Close() {
	p.client.Disconnect(250)
}
