package mqtt

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	corelink "github.com/jwhan-dev/robofleet/core/link"
	"github.com/jwhan-dev/robofleet/core/model"
	"github.com/jwhan-dev/robofleet/infra/logger"
)

// Config defines the connection parameters for the Paho MQTT link.
type Config struct {
	Broker     string          `json:"broker"`
	ClientID   string          `json:"client_id"`
	Username   string          `json:"username"`
	Password   string          `json:"password"`
	UseTLS     bool            `json:"use_tls"`
	ClientCert string          `json:"client_cert"`
	ClientKey  string          `json:"client_key"`
	CABundle   string          `json:"ca_bundle"`
	QoS        map[string]byte `json:"qos"`
	LWTTopic   string          `json:"lwt_topic"`
	LWTPayload string          `json:"lwt_payload"`
	LWTQoS     byte            `json:"lwt_qos"`
	LWTRetain  bool            `json:"lwt_retain"`
	TLSConfig  *tls.Config     `json:"-"`
}

// pahoClient is the slice of the Paho API the link uses, swappable in tests.
type pahoClient interface {
	IsConnected() bool
	Connect() paho.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
	Subscribe(topic string, qos byte, callback paho.MessageHandler) paho.Token
}

var newMQTTClient = func(opts *paho.ClientOptions) pahoClient {
	return paho.NewClient(opts)
}

// Link implements the robot link over MQTT: action sequences out on the
// per-robot command topic, delivery acknowledgments back on a shared topic.
type Link struct {
	raw pahoClient
	qos map[string]byte
	log logger.Logger

	mu       sync.Mutex
	ackChans map[string]chan bool
}

var _ corelink.RobotLink = (*Link)(nil)

// NewLink connects to the MQTT broker and subscribes to the ack topic.
func NewLink(cfg Config) (*Link, error) {
	opts, err := NewClientOptions(cfg)
	if err != nil {
		return nil, err
	}

	log := logger.New("mqtt_link")
	l := &Link{
		qos:      cfg.QoS,
		log:      log,
		ackChans: make(map[string]chan bool),
	}
	opts.OnConnect = func(c paho.Client) {
		log.Infof("MQTT connected")
		if token := c.Subscribe(AckTopic, l.qosFor("ack"), l.onAck); token.Wait() && token.Error() != nil {
			log.Errorf("subscribe error: %v", token.Error())
		}
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		log.Errorf("connection lost: %v", err)
	}
	opts.OnReconnecting = func(_ paho.Client, _ *paho.ClientOptions) {
		log.Warnf("reconnecting to MQTT broker")
	}
	c := newMQTTClient(opts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	l.raw = c
	return l, nil
}

func (l *Link) qosFor(kind string) byte {
	if q, ok := l.qos[kind]; ok {
		return q
	}
	return 0
}

// SendActionSequence publishes the sequence and waits for the robot's
// delivery acknowledgment until the context deadline.
func (l *Link) SendActionSequence(ctx context.Context, robotName string, seq model.ActionSequence) error {
	env := CommandEnvelope{
		CommandID: uuid.NewString(),
		RobotName: robotName,
		Type:      "ACTION_SEQUENCE",
		Actions:   seq,
	}
	payload, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal command: %w", err)
	}

	ch := make(chan bool, 1)
	l.mu.Lock()
	l.ackChans[env.CommandID] = ch
	l.mu.Unlock()
	defer func() {
		l.mu.Lock()
		delete(l.ackChans, env.CommandID)
		l.mu.Unlock()
	}()

	token := l.raw.Publish(CommandTopic(robotName), l.qosFor("command"), false, payload)
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("publish command: %w", token.Error())
	}

	select {
	case ok := <-ch:
		if !ok {
			return fmt.Errorf("robot %s rejected command %s", robotName, env.CommandID)
		}
		return nil
	case <-ctx.Done():
		return corelink.ErrDeliveryTimeout
	}
}

func (l *Link) onAck(_ paho.Client, msg paho.Message) {
	var ack DeliveryAck
	if err := json.Unmarshal(msg.Payload(), &ack); err != nil {
		l.log.Errorf("invalid ack received: %v", err)
		return
	}
	l.mu.Lock()
	ch, ok := l.ackChans[ack.CommandID]
	l.mu.Unlock()
	if !ok {
		l.log.Debugf("ack for unknown command %s", ack.CommandID)
		return
	}
	select {
	case ch <- ack.Success:
	default:
	}
}

// Close disconnects from the broker.
func (l *Link) Close() {
	if l.raw != nil && l.raw.IsConnected() {
		l.raw.Disconnect(250)
	}
}

// NewClientOptions builds mqtt client options from Config.
func NewClientOptions(cfg Config) (*paho.ClientOptions, error) {
	opts := paho.NewClientOptions().AddBroker(cfg.Broker).SetClientID(cfg.ClientID)
	opts.AutoReconnect = true
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}
	if cfg.UseTLS {
		tlsCfg, err := cfg.LoadTLSConfig()
		if err != nil {
			return nil, err
		}
		opts.SetTLSConfig(tlsCfg)
	}
	if cfg.LWTTopic != "" {
		opts.SetWill(cfg.LWTTopic, cfg.LWTPayload, cfg.LWTQoS, cfg.LWTRetain)
	}
	return opts, nil
}

// LoadTLSConfig loads the TLS configuration from the file paths in the config.
func (c Config) LoadTLSConfig() (*tls.Config, error) {
	if c.TLSConfig != nil {
		return c.TLSConfig, nil
	}
	if c.ClientCert == "" || c.ClientKey == "" || c.CABundle == "" {
		return nil, fmt.Errorf("tls config requires client_cert, client_key and ca_bundle")
	}
	cert, err := tls.LoadX509KeyPair(c.ClientCert, c.ClientKey)
	if err != nil {
		return nil, fmt.Errorf("load cert: %w", err)
	}
	ca, err := os.ReadFile(c.CABundle)
	if err != nil {
		return nil, fmt.Errorf("load ca bundle: %w", err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(ca) {
		return nil, fmt.Errorf("parse ca bundle")
	}
	return &tls.Config{Certificates: []tls.Certificate{cert}, RootCAs: pool, MinVersion: tls.VersionTLS12}, nil
}
