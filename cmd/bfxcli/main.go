package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/viper"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	bitfinex "github.com/mmquant/bfx-go"
)

var (
	apiKey     string
	apiSecret  string
	apiURL     string
	configFile string
	confPath   string
	timeout    time.Duration
	verbose    bool
)

const defaultTimeout = time.Second * 30

// jsonOutput pretty prints a raw response when it is valid JSON and falls
// back to printing it untouched
func jsonOutput(raw string) {
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		fmt.Println(raw)
		return
	}
	out, err := json.MarshalIndent(v, "", " ")
	if err != nil {
		fmt.Println(raw)
		return
	}
	fmt.Println(string(out))
}

// loadCredentials resolves the API key pair from flags, the config file and
// the BFX_APIKEY/BFX_APISECRET environment, in that order of precedence
func loadCredentials() (key, secret string, err error) {
	v := viper.New()
	v.SetEnvPrefix("bfx")
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return "", "", fmt.Errorf("config file %s: %w", configFile, err)
		}
	} else {
		v.SetConfigName(".bfxcli")
		v.SetConfigType("yaml")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
		// a missing default config is fine, flags and env still apply
		_ = v.ReadInConfig()
	}

	key, secret = apiKey, apiSecret
	if key == "" {
		key = v.GetString("apikey")
	}
	if secret == "" {
		secret = v.GetString("apisecret")
	}
	return key, secret, nil
}

func setupClient(c *cli.Context) (*bitfinex.Client, context.CancelFunc, error) {
	key, secret, err := loadCredentials()
	if err != nil {
		return nil, nil, err
	}

	logger := zap.NewNop()
	if verbose {
		logger, err = zap.NewDevelopment()
		if err != nil {
			return nil, nil, err
		}
	}

	var cancel context.CancelFunc
	c.Context, cancel = context.WithTimeout(c.Context, timeout)

	opts := []bitfinex.Option{
		bitfinex.WithLogger(logger),
		bitfinex.WithWithdrawConf(confPath),
	}
	if apiURL != "" {
		opts = append(opts, bitfinex.WithAPIURL(apiURL))
	}
	client, err := bitfinex.New(c.Context, key, secret, opts...)
	if err != nil {
		cancel()
		return nil, nil, err
	}
	return client, cancel, nil
}

func main() {
	app := cli.NewApp()
	app.Name = "bfxcli"
	app.Usage = "command line interface for the Bitfinex v1 REST API"
	app.EnableBashCompletion = true
	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:        "apikey",
			Usage:       "API key, overrides config file and environment",
			Destination: &apiKey,
		},
		&cli.StringFlag{
			Name:        "apisecret",
			Usage:       "API secret, overrides config file and environment",
			Destination: &apiSecret,
		},
		&cli.StringFlag{
			Name:        "url",
			Usage:       "override the API base URL",
			Destination: &apiURL,
		},
		&cli.StringFlag{
			Name:        "config",
			Usage:       "path to a config file holding apikey and apisecret",
			Destination: &configFile,
		},
		&cli.StringFlag{
			Name:        "withdrawconf",
			Value:       "doc/withdraw.conf",
			Usage:       "path of the withdraw parameter file used by the withdraw command",
			Destination: &confPath,
		},
		&cli.DurationFlag{
			Name:        "timeout",
			Value:       defaultTimeout,
			Usage:       "context timeout applied to each invocation",
			Destination: &timeout,
		},
		&cli.BoolFlag{
			Name:        "verbose",
			Usage:       "log requests and responses",
			Destination: &verbose,
		},
	}
	app.Commands = []*cli.Command{
		tickerCommand,
		statsCommand,
		orderbookCommand,
		tradesCommand,
		lendbookCommand,
		lendsCommand,
		symbolsCommand,
		symbolsDetailsCommand,
		accountInfoCommand,
		accountFeesCommand,
		summaryCommand,
		keyPermissionsCommand,
		marginInfoCommand,
		balancesCommand,
		depositCommand,
		transferCommand,
		withdrawCommand,
		orderCommand,
		positionCommand,
		historyCommand,
		movementsCommand,
		myTradesCommand,
		offerCommand,
		creditsCommand,
		takenFundsCommand,
		closeLoanCommand,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
