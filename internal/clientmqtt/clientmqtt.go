// Package clientmqtt publishes DMX channel changes to an MQTT broker and
// takes fixture commands from it.
package clientmqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/sirupsen/logrus"

	"stagelights/internal/config"
	"stagelights/internal/engine"
	"stagelights/internal/logger"
)

// ErrNotConnected is returned by SendChange while the broker is unreachable.
var ErrNotConnected = errors.New("mqtt client not connected")

// publishTimeout bounds how long SendChange waits for the broker.
const publishTimeout = 2 * time.Second

// ClientMQTT is the MQTT transport and control surface.
type ClientMQTT struct {
	ctx       context.Context
	log       *logger.Log
	cfgClient config.MQTTConf
	universe  int
	client    mqtt.Client
	opts      *mqtt.ClientOptions
	commands  Commander
}

// NewClient returns a client for cfgClient publishing changes of universe.
func NewClient(log *logger.Log, cfgClient config.MQTTConf, universe int) *ClientMQTT {
	return &ClientMQTT{
		log:       log.Module("mqtt"),
		cfgClient: cfgClient,
		universe:  universe,
	}
}

// ChangeTopic is where channel changes are published.
func (c *ClientMQTT) ChangeTopic() string {
	return fmt.Sprintf("%s/dmx/universe/%d", c.cfgClient.Prefix, c.universe)
}

// ControlTopic is the subscription for fixture commands.
func (c *ClientMQTT) ControlTopic() string {
	return c.cfgClient.Prefix + "/fixture/+/set"
}

// Start connects to the broker. When commands is not nil the control
// topic is subscribed on every (re)connect.
func (c *ClientMQTT) Start(ctx context.Context, commands Commander) error {
	mqtt.ERROR = log.New(c.log.WriterLevel(logrus.ErrorLevel), "", 0)
	mqtt.CRITICAL = log.New(c.log.WriterLevel(logrus.ErrorLevel), "", 0)
	if c.log.GetLevel() == "debug" {
		mqtt.WARN = log.New(c.log.WriterLevel(logrus.WarnLevel), "", 0)
	}

	c.ctx = ctx
	c.commands = commands

	c.opts = mqtt.NewClientOptions().
		AddBroker(fmt.Sprintf("%s://%s:%s", c.cfgClient.Schema, c.cfgClient.Host, c.cfgClient.Port)).
		SetUsername(c.cfgClient.User).
		SetPassword(c.cfgClient.Password).
		SetOnConnectHandler(c.connectHandler).
		SetConnectionLostHandler(c.connectLostHandler).
		SetClientID(c.cfgClient.ClientID).
		SetOrderMatters(true).
		SetCleanSession(true).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetMaxReconnectInterval(5 * time.Second).
		SetKeepAlive(30 * time.Second)

	c.client = mqtt.NewClient(c.opts)

	token := c.client.Connect()
	select {
	case <-token.Done():
		if token.Error() != nil {
			return token.Error()
		}
	case <-c.ctx.Done():
		return errors.New("context canceled")
	}

	c.log.Infof("Status: %v", c.client.IsConnected())
	return nil
}

// Stop disconnects from the broker.
func (c *ClientMQTT) Stop() error {
	if c.client != nil && c.client.IsConnected() {
		c.client.Disconnect(500)
	}
	return nil
}

// SendChange publishes one channel value and waits for the broker.
func (c *ClientMQTT) SendChange(address int, value byte) error {
	if c.client == nil || !c.client.IsConnected() {
		return ErrNotConnected
	}
	msg, err := json.Marshal(Change{Channel: address, Value: int(value)})
	if err != nil {
		return fmt.Errorf("encode change: %w", err)
	}

	token := c.client.Publish(c.ChangeTopic(), c.cfgClient.Qos, false, msg)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish %s: timed out after %s", c.ChangeTopic(), publishTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", c.ChangeTopic(), err)
	}
	return nil
}

func (c *ClientMQTT) connectHandler(client mqtt.Client) {
	c.log.Info("client connected to server")
	if c.commands != nil {
		c.sub(client, c.ControlTopic())
	}
}

func (c *ClientMQTT) connectLostHandler(_ mqtt.Client, err error) {
	c.log.Errorf("server connect lost: %v", err)
}

func (c *ClientMQTT) sub(client mqtt.Client, topic string) {
	token := client.Subscribe(topic, c.cfgClient.Qos, c.messageHandler)
	go func() {
		select {
		case <-c.ctx.Done():
			return
		case <-token.Done():
			if token.Error() != nil {
				c.log.Errorf("topic %s subscription error. %v", topic, token.Error())
				return
			}
		}
		c.log.Debugf("topic %s subscribed", topic)
	}()
}

func (c *ClientMQTT) messageHandler(_ mqtt.Client, msg mqtt.Message) {
	c.log.Debugf("received message: %s from topic: %s", msg.Payload(), msg.Topic())

	name, ok := c.fixtureFromTopic(msg.Topic())
	if !ok {
		c.log.Warnf("topic %s is not a fixture command topic", msg.Topic())
		return
	}

	var cmd engine.Command
	if err := json.Unmarshal(msg.Payload(), &cmd); err != nil {
		c.log.Errorf("message could not be parsed (%s): %v", msg.Payload(), err)
		return
	}
	if err := c.commands.Apply(name, cmd); err != nil {
		c.log.With(logger.Fields{"fixture": name}).Warnf("command rejected: %v", err)
	}
}

// fixtureFromTopic extracts the fixture name of a "<prefix>/fixture/<name>/set" topic.
func (c *ClientMQTT) fixtureFromTopic(topic string) (string, bool) {
	rest, ok := strings.CutPrefix(topic, c.cfgClient.Prefix+"/fixture/")
	if !ok {
		return "", false
	}
	name, ok := strings.CutSuffix(rest, "/set")
	if !ok || name == "" || strings.Contains(name, "/") {
		return "", false
	}
	return name, true
}
