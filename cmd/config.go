package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/evcc-io/ownerportal/server"
	"github.com/evcc-io/ownerportal/vehicle/mitsubishi"
	"github.com/imdario/mergo"
	"github.com/spf13/viper"
)

type config struct {
	URI      string
	Log      string
	Levels   map[string]string
	Metrics  bool
	Profile  bool
	Database string

	account  `mapstructure:",squash"`
	Accounts []account

	Mqtt   server.MqttConfig
	Influx server.InfluxConfig
}

// account is an owner portal login. Unset values are inherited from the top level configuration.
type account struct {
	API      string        `mapstructure:"api" yaml:"api,omitempty"`
	User     string        `mapstructure:"user" yaml:"user"`
	Password string        `mapstructure:"password" yaml:"password"`
	UID      string        `mapstructure:"uid" yaml:"uid,omitempty"`
	VIN      string        `mapstructure:"vin" yaml:"vin,omitempty"`
	Title    string        `mapstructure:"title" yaml:"title,omitempty"`
	Insecure *bool         `mapstructure:"insecure" yaml:"insecure,omitempty"`
	Interval time.Duration `mapstructure:"interval" yaml:"interval,omitempty"`
	Cache    time.Duration `mapstructure:"cache" yaml:"cache,omitempty"`
}

// vehicleConfig returns the vehicle configuration of the account
func (a account) vehicleConfig() map[string]interface{} {
	res := map[string]interface{}{
		"api":      a.API,
		"user":     a.User,
		"password": a.Password,
		"insecure": a.insecure(),
	}

	if a.VIN != "" {
		res["vin"] = a.VIN
	}
	if a.Title != "" {
		res["title"] = a.Title
	}
	if a.Interval != 0 {
		res["interval"] = a.Interval
	}
	if a.Cache != 0 {
		res["cache"] = a.Cache
	}

	return res
}

// insecure returns true if tls verification is disabled. Unset means verification.
func (a account) insecure() bool {
	return a.Insecure != nil && *a.Insecure
}

// accounts returns the configured accounts with defaults applied
func (c config) accounts() ([]account, error) {
	defaults := c.account
	if defaults.API == "" {
		defaults.API = mitsubishi.DefaultAPI
	}
	if defaults.Interval == 0 {
		defaults.Interval = time.Minute
	}

	if len(c.Accounts) == 0 {
		if c.User == "" {
			return nil, nil
		}
		return []account{defaults}, nil
	}

	// list entries don't inherit credentials
	defaults.User, defaults.Password, defaults.UID, defaults.VIN, defaults.Title = "", "", "", "", ""

	// mergo would merge into an explicit false
	insecure := defaults.Insecure
	defaults.Insecure = nil

	res := make([]account, 0, len(c.Accounts))
	for i, acc := range c.Accounts {
		if err := mergo.Merge(&acc, defaults); err != nil {
			return nil, err
		}

		if acc.Insecure == nil {
			acc.Insecure = insecure
		}

		if acc.User == "" || acc.Password == "" {
			return nil, fmt.Errorf("account %d: missing user or password", i+1)
		}

		res = append(res, acc)
	}

	return res, nil
}

// configured returns true if an account exists for user
func (c config) configured(user string) bool {
	accounts, _ := c.accounts()
	for _, acc := range accounts {
		if strings.EqualFold(acc.User, user) {
			return true
		}
	}
	return false
}

func loadConfigFile(cfgFile string) (conf config, err error) {
	conf = config{
		account: account{
			API:      mitsubishi.DefaultAPI,
			Interval: time.Minute,
		},
	}

	if cfgFile != "" {
		log.INFO.Println("using config file", cfgFile)
		if err := viper.UnmarshalExact(&conf); err != nil {
			log.FATAL.Fatalf("failed parsing config file %s: %v", cfgFile, err)
		}
	} else {
		conf.Log = viper.GetString("log")
		conf.Database = viper.GetString("database")
		err = fmt.Errorf("missing config file")
	}

	if err == nil && conf.Interval <= 0 {
		err = fmt.Errorf("invalid interval: %v", conf.Interval)
	}

	if err == nil {
		_, err = conf.accounts()
	}

	return conf, err
}

// home returns the default database location
func home() string {
	if dir, err := os.UserHomeDir(); err == nil {
		return dir
	}
	return "."
}
