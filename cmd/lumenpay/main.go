package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"

	"github.com/layer-3/lumenpay"
	"github.com/layer-3/lumenpay/adapters/events"
	"github.com/layer-3/lumenpay/adapters/signer"
	"github.com/layer-3/lumenpay/adapters/store"
	"github.com/layer-3/lumenpay/core"
	"github.com/layer-3/lumenpay/ports"
	"github.com/layer-3/lumenpay/stellar"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(log)

	if err := run(log); err != nil {
		log.Error("exiting", "err", err)
		os.Exit(1)
	}
}

func run(log *slog.Logger) error {
	viper.SetConfigName("lumenpay")
	viper.AddConfigPath(".")
	viper.AddConfigPath("$HOME/.config/lumenpay")
	viper.SetEnvPrefix("lumenpay")
	viper.AutomaticEnv()

	viper.SetDefault("api_url", "http://localhost:5000")
	viper.SetDefault("session_file", sessionPath())
	testnet := stellar.TestnetConfig()
	viper.SetDefault("horizon_url", testnet.HorizonURL)
	viper.SetDefault("network_passphrase", testnet.NetworkPassphrase)
	viper.SetDefault("issuer", testnet.Issuer)

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}

	seed := viper.GetString("wallet_seed")
	if seed == "" {
		return errors.New("wallet_seed is required (a headless run signs with a local keypair)")
	}
	walletSigner, err := signer.NewLocal(seed)
	if err != nil {
		return err
	}

	sessionStore, opts, err := buildInfra(log)
	if err != nil {
		return err
	}

	client := lumenpay.New(lumenpay.Config{
		APIURL: viper.GetString("api_url"),
		Stellar: stellar.Config{
			HorizonURL:        viper.GetString("horizon_url"),
			NetworkPassphrase: viper.GetString("network_passphrase"),
			Issuer:            viper.GetString("issuer"),
		},
		Logger: log,
	}, walletSigner, sessionStore, opts...)
	defer client.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sess, resumed, err := client.Sessions.Resume(ctx)
	if err != nil {
		log.Warn("failed to resume session", "err", err)
	}
	if !resumed {
		sess, err = client.Sessions.Login(ctx, core.UserTypeMerchant)
		if err != nil {
			return fmt.Errorf("merchant login failed: %w", err)
		}
	}
	log.Info("authenticated", "wallet", sess.Wallet, "userType", string(sess.UserType))

	if paymentID := viper.GetString("watch_payment"); paymentID != "" {
		return watchPayment(ctx, client, paymentID, log)
	}

	<-ctx.Done()
	return nil
}

// buildInfra selects the session store and event publisher. With a redis_url
// configured, sessions and lifecycle events go through Redis; otherwise the
// session lives in a local file and events stay off.
func buildInfra(log *slog.Logger) (ports.SessionStore, []lumenpay.Option, error) {
	redisURL := viper.GetString("redis_url")
	if redisURL == "" {
		return store.NewFileStore(viper.GetString("session_file")), nil, nil
	}

	redisOpts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	redisClient := redis.NewClient(redisOpts)

	publisher, err := redisstream.NewPublisher(redisstream.PublisherConfig{
		Client: redisClient,
	}, watermill.NewSlogLogger(log))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create event publisher: %w", err)
	}

	return store.NewRedisStore(redisClient),
		[]lumenpay.Option{lumenpay.WithEvents(events.NewWatermillPublisher(publisher))},
		nil
}

func watchPayment(ctx context.Context, client *lumenpay.Client, paymentID string, log *slog.Logger) error {
	p, err := client.Payments.GetByLink(ctx, paymentID)
	if err != nil {
		return err
	}
	log.Info("watching payment", "payment", p.ID, "status", string(p.Status), "expiresAt", p.ExpiresAt)

	for update := range client.Monitor.Watch(ctx, p.ID) {
		if update.Err != nil {
			return update.Err
		}
		log.Info("payment status", "payment", p.ID, "status", string(update.Status))
	}
	return nil
}

func sessionPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".lumenpay-session.json"
	}
	return home + "/.config/lumenpay/session.json"
}
