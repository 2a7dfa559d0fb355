// Command miner is a polling mining client: it signs in as a miner identity
// and submits mine requests once per poll interval, claiming the block reward
// whenever one is available.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/lodecoin/lodecoin/internal/logging"
)

const (
	defaultPollInterval = 10 * time.Millisecond
	maxBackoff          = 5 * time.Second
)

type minerConfig struct {
	APIURL       string
	Name         string
	PIN          string
	Symbol       string
	PollInterval time.Duration
}

func loadConfig() (minerConfig, error) {
	_ = godotenv.Load()

	cfg := minerConfig{
		APIURL:       getEnv("MINER_API_URL", "http://localhost:8080"),
		Name:         os.Getenv("MINER_NAME"),
		PIN:          os.Getenv("MINER_PIN"),
		Symbol:       getEnv("MINER_SYMBOL", "4,LODE"),
		PollInterval: defaultPollInterval,
	}
	if v := os.Getenv("MINER_POLL_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return minerConfig{}, fmt.Errorf("invalid MINER_POLL_INTERVAL: %w", err)
		}
		cfg.PollInterval = d
	}
	if cfg.Name == "" || cfg.PIN == "" {
		return minerConfig{}, fmt.Errorf("MINER_NAME and MINER_PIN must be set")
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

type client struct {
	cfg   minerConfig
	http  *http.Client
	token string
}

func (c *client) login(ctx context.Context) error {
	body, _ := json.Marshal(map[string]string{"name": c.cfg.Name, "pin": c.cfg.PIN})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.APIURL+"/api/v1/auth/login", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", uuid.NewString())

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("login rejected: %d %s", resp.StatusCode, payload)
	}

	var out struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return err
	}
	c.token = out.AccessToken
	return nil
}

type mineResponse struct {
	Outcome string `json:"outcome"`
	Reward  string `json:"reward"`
	Supply  string `json:"supply"`
}

// mine submits one claim. It returns http.StatusUnauthorized inside the error
// path via errUnauthorized so the caller can refresh the session.
var errUnauthorized = fmt.Errorf("session expired")

func (c *client) mine(ctx context.Context) (mineResponse, error) {
	body, _ := json.Marshal(map[string]string{"symbol": c.cfg.Symbol})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.APIURL+"/api/v1/tokens/mine", bytes.NewReader(body))
	if err != nil {
		return mineResponse{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Idempotency-Key", uuid.NewString())

	resp, err := c.http.Do(req)
	if err != nil {
		return mineResponse{}, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var out mineResponse
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return mineResponse{}, err
		}
		return out, nil
	case http.StatusUnauthorized:
		return mineResponse{}, errUnauthorized
	default:
		payload, _ := io.ReadAll(resp.Body)
		return mineResponse{}, fmt.Errorf("mine rejected: %d %s", resp.StatusCode, payload)
	}
}

func main() {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(getEnv("LOG_LEVEL", "info"))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c := &client{cfg: cfg, http: &http.Client{Timeout: 10 * time.Second}}
	if err := c.login(ctx); err != nil {
		logger.Error("login", "error", err)
		os.Exit(1)
	}
	logger.Info("miner started", "name", cfg.Name, "symbol", cfg.Symbol, "poll_interval", cfg.PollInterval.String())

	backoff := cfg.PollInterval
	ticker := time.NewTicker(cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("miner stopped")
			return
		case <-ticker.C:
		}

		res, err := c.mine(ctx)
		switch {
		case err == nil:
			backoff = cfg.PollInterval
			if res.Outcome == "success" {
				logger.Info("reward claimed", "reward", res.Reward, "supply", res.Supply)
			}
		case err == errUnauthorized:
			logger.Warn("session expired, logging in again")
			if err := c.login(ctx); err != nil && ctx.Err() == nil {
				logger.Error("re-login", "error", err)
			}
		default:
			if ctx.Err() != nil {
				logger.Info("miner stopped")
				return
			}
			logger.Error("mine attempt", "error", err)
			// transient transport failures back off up to a ceiling
			backoff *= 2
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
			select {
			case <-ctx.Done():
			case <-time.After(backoff):
			}
		}
	}
}
