/*
Copyright 2026 NexusBank Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package config

import (
	"encoding/json"
	"errors"
	"log"
	"os"
	"strings"
	"sync/atomic"

	"github.com/kelseyhightower/envconfig"
	"github.com/sirupsen/logrus"
)

const (
	DEFAULT_PORT = "5002"
)

var ConfigStore atomic.Value

type ServerConfig struct {
	SSL    bool   `json:"ssl" envconfig:"NEXUS_SERVER_SSL"`
	Domain string `json:"domain" envconfig:"NEXUS_SERVER_SSL_DOMAIN"`
	Email  string `json:"ssl_email" envconfig:"NEXUS_SERVER_SSL_EMAIL"`
	Port   string `json:"port" envconfig:"NEXUS_SERVER_PORT"`
}

type DataSourceConfig struct {
	Dns string `json:"dns" envconfig:"NEXUS_DATA_SOURCE_DNS"`
}

type RedisConfig struct {
	Dns string `json:"dns" envconfig:"NEXUS_REDIS_DNS"`
}

// AuthConfig holds the parameters used to verify bearer tokens issued by the
// identity provider. Tokens are HMAC signed and carry a uid plus an admin claim.
type AuthConfig struct {
	Secret string `json:"secret" envconfig:"NEXUS_AUTH_SECRET"`
	Issuer string `json:"issuer" envconfig:"NEXUS_AUTH_ISSUER"`
}

// PaymentInstruction is the deposit funding detail returned to a user when a
// deposit request is registered. These stay server-side so they can be rotated
// without a client release.
type PaymentInstruction struct {
	Address      string `json:"address,omitempty"`
	Network      string `json:"network,omitempty"`
	Method       string `json:"method,omitempty"`
	Instructions string `json:"instructions,omitempty"`
}

type LedgerConfig struct {
	Currencies          []string                      `json:"currencies"`
	Rates               map[string]string             `json:"rates"`
	PaymentInstructions map[string]PaymentInstruction `json:"payment_instructions"`
	MaxTxnRetries       int                           `json:"max_txn_retries" envconfig:"NEXUS_LEDGER_MAX_TXN_RETRIES"`
}

type RateLimitConfig struct {
	RequestsPerSecond  *float64 `json:"requests_per_second" envconfig:"NEXUS_RATE_LIMIT_RPS"`
	Burst              *int     `json:"burst" envconfig:"NEXUS_RATE_LIMIT_BURST"`
	CleanupIntervalSec *int     `json:"cleanup_interval_sec" envconfig:"NEXUS_RATE_LIMIT_CLEANUP_INTERVAL_SEC"`
}

type Notification struct {
	Webhook struct {
		Url     string            `json:"url"`
		Headers map[string]string `json:"headers"`
	} `json:"webhook"`
}

type QueueConfig struct {
	NotificationQueue string `json:"notification_queue" envconfig:"NEXUS_QUEUE_NOTIFICATION"`
}

type Configuration struct {
	ProjectName  string           `json:"project_name" envconfig:"NEXUS_PROJECT_NAME"`
	Server       ServerConfig     `json:"server"`
	DataSource   DataSourceConfig `json:"data_source"`
	Redis        RedisConfig      `json:"redis"`
	Auth         AuthConfig       `json:"auth"`
	Ledger       LedgerConfig     `json:"ledger"`
	RateLimit    RateLimitConfig  `json:"rate_limit"`
	Notification Notification     `json:"notification"`
	Queue        QueueConfig      `json:"queue"`
}

func loadConfigFromFile(file string) error {
	var cnf Configuration
	_, err := os.Stat(file)
	if err == nil {
		f, err := os.Open(file)
		if err != nil {
			return err
		}
		err = json.NewDecoder(f).Decode(&cnf)
		if err != nil {
			return err
		}
	} else if errors.Is(err, os.ErrNotExist) {
		log.Println("config json not passed, will use env variables")
	}

	// override config from environment variables
	err = envconfig.Process("nexus", &cnf)
	if err != nil {
		return err
	}

	err = cnf.validateAndAddDefaults()
	if err != nil {
		return err
	}

	ConfigStore.Store(&cnf)
	return err
}

func InitConfig(configFile string) error {
	logger()
	return loadConfigFromFile(configFile)
}

func Fetch() (*Configuration, error) {
	config := ConfigStore.Load()
	c, ok := config.(*Configuration)
	if !ok {
		return nil, errors.New("config not loaded from file. Create a json file called nexus.json with your config ❌")
	}
	return c, nil
}

func (cnf *Configuration) validateAndAddDefaults() error {
	if cnf.ProjectName == "" {
		log.Println("Warning: Project name is empty. Setting a default name.")
		cnf.ProjectName = "Nexus Server"
	}

	if cnf.DataSource.Dns == "" {
		log.Println("Error: Data source DNS is empty. It's a required field.")
		return errors.New("data source DNS is required")
	}

	if cnf.Auth.Secret == "" {
		log.Println("Error: Auth secret is empty. It's a required field.")
		return errors.New("auth secret is required")
	}

	// Trim white spaces from fields
	cnf.ProjectName = strings.TrimSpace(cnf.ProjectName)
	cnf.Server.Port = strings.TrimSpace(cnf.Server.Port)
	cnf.DataSource.Dns = strings.TrimSpace(cnf.DataSource.Dns)
	cnf.Redis.Dns = strings.TrimSpace(cnf.Redis.Dns)

	// Set default value for Port if it's empty
	if cnf.Server.Port == "" {
		cnf.Server.Port = DEFAULT_PORT
		log.Printf("Warning: Port not specified in config. Setting default port: %s", DEFAULT_PORT)
	}

	if cnf.Auth.Issuer == "" {
		cnf.Auth.Issuer = "nexus"
	}

	if len(cnf.Ledger.Currencies) == 0 {
		cnf.Ledger.Currencies = []string{"USD", "BTC", "ETH", "USDT"}
	}

	if cnf.Ledger.MaxTxnRetries == 0 {
		cnf.Ledger.MaxTxnRetries = 5
	}

	if cnf.Queue.NotificationQueue == "" {
		cnf.Queue.NotificationQueue = "new:notification"
	}

	// Rate limiting is disabled by default (when both RPS and Burst are nil)
	if cnf.RateLimit.RequestsPerSecond != nil && cnf.RateLimit.Burst == nil {
		defaultBurst := 2 * int(*cnf.RateLimit.RequestsPerSecond)
		cnf.RateLimit.Burst = &defaultBurst
		log.Printf("Warning: Rate limit burst not specified. Setting default value: %d", defaultBurst)
	}
	if cnf.RateLimit.RequestsPerSecond == nil && cnf.RateLimit.Burst != nil {
		defaultRPS := float64(*cnf.RateLimit.Burst) / 2
		cnf.RateLimit.RequestsPerSecond = &defaultRPS
		log.Printf("Warning: Rate limit RPS not specified. Setting default value: %.2f", defaultRPS)
	}

	// Set default cleanup interval if not specified
	if cnf.RateLimit.CleanupIntervalSec == nil {
		defaultCleanup := 10800 // 3 hours in seconds
		cnf.RateLimit.CleanupIntervalSec = &defaultCleanup
	}

	return nil
}

// MockConfig sets a mock configuration for testing purposes.
func MockConfig(mockConfig *Configuration) {
	if mockConfig.Queue.NotificationQueue == "" {
		mockConfig.Queue.NotificationQueue = "new:notification"
	}
	if len(mockConfig.Ledger.Currencies) == 0 {
		mockConfig.Ledger.Currencies = []string{"USD", "BTC", "ETH", "USDT"}
	}
	if mockConfig.Ledger.MaxTxnRetries == 0 {
		mockConfig.Ledger.MaxTxnRetries = 5
	}
	ConfigStore.Store(mockConfig)
}

func logger() {
	logger := logrus.New()
	log.SetOutput(logger.Writer())
}
