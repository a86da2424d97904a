package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/muurk/dohome/internal/config"
	"github.com/muurk/dohome/internal/discovery"
	"github.com/muurk/dohome/internal/entity"
	"github.com/muurk/dohome/internal/logging"
)

const (
	// connectTimeout bounds the initial broker connection
	connectTimeout = 10 * time.Second

	// publishTimeout bounds how long a publish acknowledgment is awaited
	publishTimeout = 5 * time.Second

	// disconnectQuiesce is the time in milliseconds pending work gets on Stop
	disconnectQuiesce = 1000

	qos byte = 1

	payloadOnline  = "online"
	payloadOffline = "offline"
)

// DiscoverFunc runs one on-demand discovery window and returns the entities
// it added. A zero window means the configured default.
type DiscoverFunc func(ctx context.Context, window time.Duration) ([]entity.Entity, error)

// Bridge connects the entity manager to an MQTT broker
type Bridge struct {
	cfg      config.MQTTConfig
	clientID string
	topics   Topics
	entities *entity.Manager
	discover DiscoverFunc

	// OnStateChange is called after a command changed an entity. When nil the
	// bridge publishes the new state itself.
	OnStateChange func(entity.Entity)

	client  pahomqtt.Client
	publish func(topic string, payload []byte, retained bool)

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a bridge. It does not connect until Start is called.
func New(cfg config.MQTTConfig, entities *entity.Manager, discover DiscoverFunc) *Bridge {
	clientID := cfg.ClientID
	if clientID == "" {
		clientID = "dohome-" + uuid.NewString()[:8]
	}

	ctx, cancel := context.WithCancel(context.Background())
	b := &Bridge{
		cfg:      cfg,
		clientID: clientID,
		topics:   Topics{Prefix: cfg.TopicPrefix, DiscoveryPrefix: cfg.DiscoveryPrefix},
		entities: entities,
		discover: discover,
		ctx:      ctx,
		cancel:   cancel,
	}
	b.publish = b.mqttPublish
	return b
}

// ClientID returns the MQTT client id in use
func (b *Bridge) ClientID() string { return b.clientID }

func (b *Bridge) clientOptions() *pahomqtt.ClientOptions {
	opts := pahomqtt.NewClientOptions().
		AddBroker(b.cfg.Broker).
		SetClientID(b.clientID).
		SetCleanSession(true).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetConnectTimeout(connectTimeout).
		SetOrderMatters(false).
		SetWill(b.topics.BridgeState(), payloadOffline, qos, true).
		SetOnConnectHandler(b.onConnect).
		SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
			logging.Warn("MQTT connection lost", zap.Error(err))
		})

	if b.cfg.Username != "" {
		opts.SetUsername(b.cfg.Username)
		opts.SetPassword(b.cfg.Password)
	}
	return opts
}

// Start connects to the broker. Commands run under ctx until Stop.
func (b *Bridge) Start(ctx context.Context) error {
	b.cancel()
	b.ctx, b.cancel = context.WithCancel(ctx)

	client := pahomqtt.NewClient(b.clientOptions())
	b.client = client

	token := client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return fmt.Errorf("mqtt connect to %s timed out", b.cfg.Broker)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt connect to %s: %w", b.cfg.Broker, err)
	}

	logging.Info("MQTT bridge started",
		zap.String("broker", b.cfg.Broker),
		zap.String("client_id", b.clientID),
		zap.String("prefix", b.topics.Prefix),
	)
	return nil
}

// Stop publishes the offline state and disconnects
func (b *Bridge) Stop() {
	b.cancel()
	if b.client == nil {
		return
	}
	if b.client.IsConnected() {
		b.publish(b.topics.BridgeState(), []byte(payloadOffline), true)
	}
	b.client.Disconnect(disconnectQuiesce)
	logging.Info("MQTT bridge stopped")
}

// onConnect runs on every (re)connect: announce, republish and resubscribe
func (b *Bridge) onConnect(client pahomqtt.Client) {
	logging.Info("MQTT connected", zap.String("broker", b.cfg.Broker))

	b.publish(b.topics.BridgeState(), []byte(payloadOnline), true)
	b.EntitiesAdded(b.entities.All())

	for _, topic := range []string{b.topics.CommandWildcard(), b.topics.DiscoverTrigger()} {
		token := client.Subscribe(topic, qos, b.messageHandler)
		if !token.WaitTimeout(publishTimeout) {
			logging.Error("MQTT subscribe timed out", zap.String("topic", topic))
			continue
		}
		if err := token.Error(); err != nil {
			logging.Error("MQTT subscribe failed", zap.String("topic", topic), zap.Error(err))
		}
	}
}

func (b *Bridge) mqttPublish(topic string, payload []byte, retained bool) {
	if b.client == nil {
		return
	}
	token := b.client.Publish(topic, qos, retained, payload)
	go func() {
		if !token.WaitTimeout(publishTimeout) {
			logging.Warn("MQTT publish timed out", zap.String("topic", topic))
			return
		}
		if err := token.Error(); err != nil {
			logging.Warn("MQTT publish failed", zap.String("topic", topic), zap.Error(err))
		}
	}()
}

func (b *Bridge) publishJSON(topic string, v any, retained bool) {
	data, err := json.Marshal(v)
	if err != nil {
		logging.Error("Failed to encode MQTT payload", zap.String("topic", topic), zap.Error(err))
		return
	}
	b.publish(topic, data, retained)
}

func (b *Bridge) messageHandler(_ pahomqtt.Client, msg pahomqtt.Message) {
	b.handleMessage(msg.Topic(), msg.Payload())
}

func (b *Bridge) handleMessage(topic string, payload []byte) {
	logging.Debug("MQTT message received",
		zap.String("topic", topic),
		zap.ByteString("payload", payload),
	)

	if topic == b.topics.DiscoverTrigger() {
		b.handleDiscover(payload)
		return
	}
	if id, ok := b.topics.commandTarget(topic); ok {
		b.handleCommand(id, payload)
	}
}

func (b *Bridge) handleCommand(id string, payload []byte) {
	e, ok := b.entities.Get(id)
	if !ok {
		logging.Warn("Command for unknown entity", zap.String("unique_id", id))
		return
	}

	cmd, err := entity.ParseCommand(payload)
	if err != nil {
		logging.Warn("Invalid command", zap.String("unique_id", id), zap.Error(err))
		return
	}

	if err := cmd.Apply(b.ctx, e); err != nil {
		logging.Error("Command failed",
			zap.String("unique_id", id),
			zap.String("state", cmd.State),
			zap.Error(err),
		)
		return
	}

	if b.OnStateChange != nil {
		b.OnStateChange(e)
		return
	}
	b.StateChanged(e)
}

func (b *Bridge) handleDiscover(payload []byte) {
	if b.discover == nil {
		return
	}
	window, err := parseWindow(payload)
	if err != nil {
		logging.Warn("Invalid discovery trigger", zap.Error(err))
		return
	}
	added, err := b.discover(b.ctx, window)
	if err != nil {
		logging.Error("On-demand discovery failed", zap.Error(err))
		return
	}
	logging.Info("On-demand discovery finished", zap.Int("added", len(added)))
}

// parseWindow reads a discovery window from a trigger payload: empty, a number
// of seconds, or {"duration": seconds}
func parseWindow(payload []byte) (time.Duration, error) {
	text := strings.TrimSpace(string(payload))
	if text == "" {
		return 0, nil
	}

	var seconds float64
	if strings.HasPrefix(text, "{") {
		var req struct {
			Duration float64 `json:"duration"`
		}
		if err := json.Unmarshal([]byte(text), &req); err != nil {
			return 0, fmt.Errorf("invalid discovery request: %w", err)
		}
		seconds = req.Duration
	} else {
		v, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid discovery duration %q: %w", text, err)
		}
		seconds = v
	}

	if seconds < 0 {
		return 0, fmt.Errorf("negative discovery duration %v", seconds)
	}
	return time.Duration(seconds * float64(time.Second)), nil
}

// EntitiesAdded publishes discovery configs and initial state for es
func (b *Bridge) EntitiesAdded(es []entity.Entity) {
	for _, e := range es {
		data, err := buildConfig(b.topics, e)
		if err != nil {
			logging.Error("Failed to build discovery config", zap.String("unique_id", e.UniqueID()), zap.Error(err))
			continue
		}
		b.publish(b.topics.Config(e), data, true)
		b.StateChanged(e)
	}
}

// StateChanged publishes the retained state of e
func (b *Bridge) StateChanged(e entity.Entity) {
	b.publishJSON(b.topics.State(e.UniqueID()), entity.StateOf(e), true)
}

// DiscoveryStatus publishes the retained discovery status
func (b *Bridge) DiscoveryStatus(s discovery.State) {
	b.publish(b.topics.DiscoveryStatus(), []byte(discoveryStatus(s)), true)
}
