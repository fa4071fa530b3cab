package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/veiloq/phoenix-connector/pkg/logging"
	"github.com/veiloq/phoenix-connector/pkg/phoenix"
)

// duration wraps time.Duration so YAML values like "30s" parse directly.
type duration time.Duration

func (d *duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return err
	}
	*d = duration(parsed)
	return nil
}

// config is the YAML-backed example configuration.
type config struct {
	URL               string            `yaml:"url"`
	HeartbeatInterval duration          `yaml:"heartbeat_interval"`
	ReconnectDelay    duration          `yaml:"reconnect_delay"`
	Params            map[string]string `yaml:"params"`
	Topics            []string          `yaml:"topics"`
}

func defaultConfig() config {
	return config{
		URL:               "ws://localhost:4000/socket/websocket",
		HeartbeatInterval: duration(30 * time.Second),
		Topics:            []string{"room:lobby"},
	}
}

func loadConfig(path string, logger logging.Logger) config {
	cfg := defaultConfig()
	if path == "" {
		return cfg
	}

	data, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("config file not readable, using defaults", logging.Error(err))
		return cfg
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		logger.Error("invalid config file", logging.Error(err))
		os.Exit(1)
	}
	return cfg
}

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	logger := logging.NewLogger(logging.WithDebugLevel())
	cfg := loadConfig(*configPath, logger)

	socket := phoenix.NewSocket(phoenix.Config{
		URL:               cfg.URL,
		HeartbeatInterval: time.Duration(cfg.HeartbeatInterval),
		ReconnectDelay:    time.Duration(cfg.ReconnectDelay),
		Logger:            logger,
	})
	defer socket.Shutdown()

	// One channel per configured topic, logging whatever arrives.
	for _, topic := range cfg.Topics {
		topic := topic
		channel := phoenix.NewTopicChannel(topic)
		channel.On(phoenix.EventError, func(payload interface{}, ref int64) {
			logger.Warn("channel error", logging.String("topic", topic))
		})
		channel.On(phoenix.EventReply, func(payload interface{}, ref int64) {
			logger.Info("reply", logging.String("topic", topic), logging.Int64("ref", ref))
		})
		channel.On("new_msg", func(payload interface{}, ref int64) {
			logger.Info("new message", logging.String("topic", topic))
		})
		socket.AddChannel(channel)
	}

	socket.OnOpen(func() {
		logger.Info("socket connected")
		for _, topic := range cfg.Topics {
			join := phoenix.NewEnvelope(topic, phoenix.EventJoin, map[string]interface{}{}, socket.MakeRef())
			if err := socket.Push(join); err != nil {
				logger.Warn("join push failed",
					logging.String("topic", topic),
					logging.Error(err),
				)
			}
		}
	})
	socket.OnClose(func(reason string) {
		logger.Warn("socket closed", logging.String("reason", reason))
	})
	socket.OnError(func(errMsg string) {
		logger.Error("socket error", logging.String("error", errMsg))
	})
	socket.OnMessage(func(envelope phoenix.Envelope) {
		logger.Debug("envelope",
			logging.String("topic", envelope.Topic),
			logging.String("event", envelope.Event),
			logging.Int64("ref", envelope.RefValue()),
		)
	})

	logger.Info("connecting", logging.String("url", cfg.URL))
	if err := socket.Connect(cfg.Params); err != nil {
		logger.Error("failed to connect", logging.Error(err))
		os.Exit(1)
	}

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("running... press Ctrl+C to exit")
	<-sigChan

	logger.Info("shutting down")
	socket.Disconnect()
}
