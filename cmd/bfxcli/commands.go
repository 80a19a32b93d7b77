package main

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"github.com/urfave/cli/v2"

	bitfinex "github.com/mmquant/bfx-go"
)

var errSymbolRequired = errors.New("a symbol is required as the first argument")

// amountArg parses a monetary flag through decimal so "0.1" style input
// survives exactly as typed
func amountArg(c *cli.Context, name string) (float64, error) {
	d, err := decimal.NewFromString(c.String(name))
	if err != nil {
		return 0, err
	}
	return d.InexactFloat64(), nil
}

func symbolArg(c *cli.Context) (string, error) {
	s := c.Args().First()
	if s == "" {
		return "", errSymbolRequired
	}
	return s, nil
}

var tickerCommand = &cli.Command{
	Name:      "ticker",
	Usage:     "get the ticker for a symbol",
	ArgsUsage: "<symbol>",
	Action: func(c *cli.Context) error {
		symbol, err := symbolArg(c)
		if err != nil {
			return err
		}
		client, cancel, err := setupClient(c)
		if err != nil {
			return err
		}
		defer cancel()
		raw, err := client.GetTicker(c.Context, symbol)
		if err != nil {
			return err
		}
		jsonOutput(raw)
		return nil
	},
}

var statsCommand = &cli.Command{
	Name:      "stats",
	Usage:     "get volume statistics for a symbol",
	ArgsUsage: "<symbol>",
	Action: func(c *cli.Context) error {
		symbol, err := symbolArg(c)
		if err != nil {
			return err
		}
		client, cancel, err := setupClient(c)
		if err != nil {
			return err
		}
		defer cancel()
		raw, err := client.GetStats(c.Context, symbol)
		if err != nil {
			return err
		}
		jsonOutput(raw)
		return nil
	},
}

var orderbookCommand = &cli.Command{
	Name:      "orderbook",
	Usage:     "get the order book for a symbol",
	ArgsUsage: "<symbol>",
	Flags: []cli.Flag{
		&cli.IntFlag{Name: "bids", Value: 50, Usage: "maximum bid levels"},
		&cli.IntFlag{Name: "asks", Value: 50, Usage: "maximum ask levels"},
		&cli.BoolFlag{Name: "group", Value: true, Usage: "group entries sharing a price"},
	},
	Action: func(c *cli.Context) error {
		symbol, err := symbolArg(c)
		if err != nil {
			return err
		}
		client, cancel, err := setupClient(c)
		if err != nil {
			return err
		}
		defer cancel()
		raw, err := client.GetOrderBook(c.Context, symbol, c.Int("bids"), c.Int("asks"), c.Bool("group"))
		if err != nil {
			return err
		}
		jsonOutput(raw)
		return nil
	},
}

var tradesCommand = &cli.Command{
	Name:      "trades",
	Usage:     "get recent public trades for a symbol",
	ArgsUsage: "<symbol>",
	Flags: []cli.Flag{
		&cli.Int64Flag{Name: "since", Usage: "only trades after this unix timestamp"},
		&cli.IntFlag{Name: "limit", Value: 50, Usage: "maximum number of trades"},
	},
	Action: func(c *cli.Context) error {
		symbol, err := symbolArg(c)
		if err != nil {
			return err
		}
		client, cancel, err := setupClient(c)
		if err != nil {
			return err
		}
		defer cancel()
		raw, err := client.GetTrades(c.Context, symbol, c.Int64("since"), c.Int("limit"))
		if err != nil {
			return err
		}
		jsonOutput(raw)
		return nil
	},
}

var lendbookCommand = &cli.Command{
	Name:      "lendbook",
	Usage:     "get the margin funding book for a currency",
	ArgsUsage: "<currency>",
	Flags: []cli.Flag{
		&cli.IntFlag{Name: "bids", Value: 50, Usage: "maximum bid levels"},
		&cli.IntFlag{Name: "asks", Value: 50, Usage: "maximum ask levels"},
	},
	Action: func(c *cli.Context) error {
		currency := c.Args().First()
		client, cancel, err := setupClient(c)
		if err != nil {
			return err
		}
		defer cancel()
		raw, err := client.GetFundingBook(c.Context, currency, c.Int("bids"), c.Int("asks"))
		if err != nil {
			return err
		}
		jsonOutput(raw)
		return nil
	},
}

var lendsCommand = &cli.Command{
	Name:      "lends",
	Usage:     "get recent funding data for a currency",
	ArgsUsage: "<currency>",
	Flags: []cli.Flag{
		&cli.Int64Flag{Name: "since", Usage: "only lends after this unix timestamp"},
		&cli.IntFlag{Name: "limit", Value: 50, Usage: "maximum number of entries"},
	},
	Action: func(c *cli.Context) error {
		currency := c.Args().First()
		client, cancel, err := setupClient(c)
		if err != nil {
			return err
		}
		defer cancel()
		raw, err := client.GetLends(c.Context, currency, c.Int64("since"), c.Int("limit"))
		if err != nil {
			return err
		}
		jsonOutput(raw)
		return nil
	},
}

var symbolsCommand = &cli.Command{
	Name:  "symbols",
	Usage: "list tradeable symbols",
	Action: func(c *cli.Context) error {
		client, cancel, err := setupClient(c)
		if err != nil {
			return err
		}
		defer cancel()
		raw, err := client.GetSymbols(c.Context)
		if err != nil {
			return err
		}
		jsonOutput(raw)
		return nil
	},
}

var symbolsDetailsCommand = &cli.Command{
	Name:  "symbols-details",
	Usage: "list per-symbol precision and margin details",
	Action: func(c *cli.Context) error {
		client, cancel, err := setupClient(c)
		if err != nil {
			return err
		}
		defer cancel()
		raw, err := client.GetSymbolsDetails(c.Context)
		if err != nil {
			return err
		}
		jsonOutput(raw)
		return nil
	},
}

// simpleAuthCommand covers the authenticated endpoints that take no
// parameters
func simpleAuthCommand(name, usage string, call func(*bitfinex.Client, *cli.Context) (string, error)) *cli.Command {
	return &cli.Command{
		Name:  name,
		Usage: usage,
		Action: func(c *cli.Context) error {
			client, cancel, err := setupClient(c)
			if err != nil {
				return err
			}
			defer cancel()
			raw, err := call(client, c)
			if err != nil {
				return err
			}
			jsonOutput(raw)
			return nil
		},
	}
}

var accountInfoCommand = simpleAuthCommand("account-info", "get account trading fees",
	func(cl *bitfinex.Client, c *cli.Context) (string, error) { return cl.GetAccountInfo(c.Context) })

var accountFeesCommand = simpleAuthCommand("account-fees", "get the withdrawal fee schedule",
	func(cl *bitfinex.Client, c *cli.Context) (string, error) { return cl.GetAccountFees(c.Context) })

var summaryCommand = simpleAuthCommand("summary", "get the 30-day trading volume summary",
	func(cl *bitfinex.Client, c *cli.Context) (string, error) { return cl.GetSummary(c.Context) })

var keyPermissionsCommand = simpleAuthCommand("key-permissions", "show what the API key may do",
	func(cl *bitfinex.Client, c *cli.Context) (string, error) { return cl.GetKeyPermissions(c.Context) })

var marginInfoCommand = simpleAuthCommand("margin-info", "get margin trading wallet state",
	func(cl *bitfinex.Client, c *cli.Context) (string, error) { return cl.GetMarginInfos(c.Context) })

var balancesCommand = simpleAuthCommand("balances", "list all wallet balances",
	func(cl *bitfinex.Client, c *cli.Context) (string, error) { return cl.GetBalances(c.Context) })

var creditsCommand = simpleAuthCommand("credits", "list funds currently lent out",
	func(cl *bitfinex.Client, c *cli.Context) (string, error) { return cl.GetActiveCredits(c.Context) })

var depositCommand = &cli.Command{
	Name:  "deposit",
	Usage: "request a deposit address",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "method", Required: true, Usage: "deposit method, e.g. bitcoin"},
		&cli.StringFlag{Name: "wallet", Required: true, Usage: "target wallet: trading, exchange or deposit"},
		&cli.BoolFlag{Name: "renew", Usage: "force a fresh address"},
	},
	Action: func(c *cli.Context) error {
		client, cancel, err := setupClient(c)
		if err != nil {
			return err
		}
		defer cancel()
		renew := 0
		if c.Bool("renew") {
			renew = 1
		}
		raw, err := client.NewDeposit(c.Context, c.String("method"), c.String("wallet"), renew)
		if err != nil {
			return err
		}
		jsonOutput(raw)
		return nil
	},
}

var transferCommand = &cli.Command{
	Name:  "transfer",
	Usage: "move balance between wallets",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "amount", Required: true, Usage: "amount to move"},
		&cli.StringFlag{Name: "currency", Required: true, Usage: "currency code, e.g. BTC"},
		&cli.StringFlag{Name: "from", Required: true, Usage: "source wallet"},
		&cli.StringFlag{Name: "to", Required: true, Usage: "destination wallet"},
	},
	Action: func(c *cli.Context) error {
		amount, err := amountArg(c, "amount")
		if err != nil {
			return err
		}
		client, cancel, err := setupClient(c)
		if err != nil {
			return err
		}
		defer cancel()
		raw, err := client.WalletTransfer(c.Context, amount, c.String("currency"), c.String("from"), c.String("to"))
		if err != nil {
			return err
		}
		jsonOutput(raw)
		return nil
	},
}

var withdrawCommand = &cli.Command{
	Name:  "withdraw",
	Usage: "submit the withdrawal described by the withdraw parameter file",
	Action: func(c *cli.Context) error {
		client, cancel, err := setupClient(c)
		if err != nil {
			return err
		}
		defer cancel()
		raw, err := client.Withdraw(c.Context)
		if err != nil {
			return err
		}
		jsonOutput(raw)
		return nil
	},
}

var orderCommand = &cli.Command{
	Name:  "order",
	Usage: "manage orders",
	Subcommands: []*cli.Command{
		{
			Name:  "new",
			Usage: "place an order",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "symbol", Required: true},
				&cli.StringFlag{Name: "amount", Required: true},
				&cli.StringFlag{Name: "price", Required: true},
				&cli.StringFlag{Name: "side", Required: true, Usage: "buy or sell"},
				&cli.StringFlag{Name: "type", Value: "exchange limit", Usage: "order type"},
				&cli.BoolFlag{Name: "hidden"},
				&cli.BoolFlag{Name: "postonly"},
			},
			Action: func(c *cli.Context) error {
				amount, err := amountArg(c, "amount")
				if err != nil {
					return err
				}
				price, err := amountArg(c, "price")
				if err != nil {
					return err
				}
				client, cancel, err := setupClient(c)
				if err != nil {
					return err
				}
				defer cancel()
				raw, err := client.NewOrder(c.Context, c.String("symbol"), amount, price,
					c.String("side"), c.String("type"), &bitfinex.OrderOptions{
						Hidden:   c.Bool("hidden"),
						PostOnly: c.Bool("postonly"),
					})
				if err != nil {
					return err
				}
				jsonOutput(raw)
				return nil
			},
		},
		{
			Name:  "cancel",
			Usage: "cancel an order by id",
			Flags: []cli.Flag{
				&cli.Int64Flag{Name: "id", Required: true},
			},
			Action: func(c *cli.Context) error {
				client, cancel, err := setupClient(c)
				if err != nil {
					return err
				}
				defer cancel()
				raw, err := client.CancelOrder(c.Context, c.Int64("id"))
				if err != nil {
					return err
				}
				jsonOutput(raw)
				return nil
			},
		},
		{
			Name:  "cancel-all",
			Usage: "cancel every open order",
			Action: func(c *cli.Context) error {
				client, cancel, err := setupClient(c)
				if err != nil {
					return err
				}
				defer cancel()
				raw, err := client.CancelAllOrders(c.Context)
				if err != nil {
					return err
				}
				jsonOutput(raw)
				return nil
			},
		},
		{
			Name:  "status",
			Usage: "get the state of an order",
			Flags: []cli.Flag{
				&cli.Int64Flag{Name: "id", Required: true},
			},
			Action: func(c *cli.Context) error {
				client, cancel, err := setupClient(c)
				if err != nil {
					return err
				}
				defer cancel()
				raw, err := client.GetOrderStatus(c.Context, c.Int64("id"))
				if err != nil {
					return err
				}
				jsonOutput(raw)
				return nil
			},
		},
		{
			Name:  "active",
			Usage: "list live orders",
			Action: func(c *cli.Context) error {
				client, cancel, err := setupClient(c)
				if err != nil {
					return err
				}
				defer cancel()
				raw, err := client.GetActiveOrders(c.Context)
				if err != nil {
					return err
				}
				jsonOutput(raw)
				return nil
			},
		},
		{
			Name:  "history",
			Usage: "list latest closed or cancelled orders",
			Flags: []cli.Flag{
				&cli.IntFlag{Name: "limit", Value: 50},
			},
			Action: func(c *cli.Context) error {
				client, cancel, err := setupClient(c)
				if err != nil {
					return err
				}
				defer cancel()
				raw, err := client.GetOrdersHistory(c.Context, c.Int("limit"))
				if err != nil {
					return err
				}
				jsonOutput(raw)
				return nil
			},
		},
	},
}

var positionCommand = &cli.Command{
	Name:  "position",
	Usage: "manage margin positions",
	Subcommands: []*cli.Command{
		{
			Name:  "active",
			Usage: "list open positions",
			Action: func(c *cli.Context) error {
				client, cancel, err := setupClient(c)
				if err != nil {
					return err
				}
				defer cancel()
				raw, err := client.GetActivePositions(c.Context)
				if err != nil {
					return err
				}
				jsonOutput(raw)
				return nil
			},
		},
		{
			Name:  "claim",
			Usage: "claim a position",
			Flags: []cli.Flag{
				&cli.Int64Flag{Name: "id", Required: true},
				&cli.StringFlag{Name: "amount", Required: true},
			},
			Action: func(c *cli.Context) error {
				amount, err := amountArg(c, "amount")
				if err != nil {
					return err
				}
				client, cancel, err := setupClient(c)
				if err != nil {
					return err
				}
				defer cancel()
				raw, err := client.ClaimPosition(c.Context, c.Int64("id"), amount)
				if err != nil {
					return err
				}
				jsonOutput(raw)
				return nil
			},
		},
		{
			Name:  "close",
			Usage: "close a position by id",
			Flags: []cli.Flag{
				&cli.Int64Flag{Name: "id", Required: true},
			},
			Action: func(c *cli.Context) error {
				client, cancel, err := setupClient(c)
				if err != nil {
					return err
				}
				defer cancel()
				raw, err := client.ClosePosition(c.Context, c.Int64("id"))
				if err != nil {
					return err
				}
				jsonOutput(raw)
				return nil
			},
		},
	},
}

var historyCommand = &cli.Command{
	Name:  "history",
	Usage: "get balance ledger entries for a currency",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "currency", Required: true},
		&cli.IntFlag{Name: "limit", Value: 500},
		&cli.StringFlag{Name: "wallet", Value: "all", Usage: "trading, exchange, deposit or all"},
	},
	Action: func(c *cli.Context) error {
		client, cancel, err := setupClient(c)
		if err != nil {
			return err
		}
		defer cancel()
		raw, err := client.GetBalanceHistory(c.Context, c.String("currency"),
			time.Time{}, time.Time{}, c.Int("limit"), c.String("wallet"))
		if err != nil {
			return err
		}
		jsonOutput(raw)
		return nil
	},
}

var movementsCommand = &cli.Command{
	Name:  "movements",
	Usage: "get deposit and withdrawal history for a currency",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "currency", Required: true},
		&cli.StringFlag{Name: "method", Value: "all", Usage: "deposit method, wire, or all"},
		&cli.IntFlag{Name: "limit", Value: 25},
	},
	Action: func(c *cli.Context) error {
		client, cancel, err := setupClient(c)
		if err != nil {
			return err
		}
		defer cancel()
		raw, err := client.GetWithdrawalHistory(c.Context, c.String("currency"),
			c.String("method"), time.Time{}, time.Time{}, c.Int("limit"))
		if err != nil {
			return err
		}
		jsonOutput(raw)
		return nil
	},
}

var myTradesCommand = &cli.Command{
	Name:      "mytrades",
	Usage:     "get executed trades for a symbol",
	ArgsUsage: "<symbol>",
	Flags: []cli.Flag{
		&cli.IntFlag{Name: "limit", Value: 50},
		&cli.BoolFlag{Name: "reverse", Usage: "oldest first"},
	},
	Action: func(c *cli.Context) error {
		symbol, err := symbolArg(c)
		if err != nil {
			return err
		}
		client, cancel, err := setupClient(c)
		if err != nil {
			return err
		}
		defer cancel()
		raw, err := client.GetPastTrades(c.Context, symbol,
			time.Unix(0, 0), time.Time{}, c.Int("limit"), c.Bool("reverse"))
		if err != nil {
			return err
		}
		jsonOutput(raw)
		return nil
	},
}

var offerCommand = &cli.Command{
	Name:  "offer",
	Usage: "manage margin funding offers",
	Subcommands: []*cli.Command{
		{
			Name:  "new",
			Usage: "submit a funding offer",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "currency", Required: true},
				&cli.StringFlag{Name: "amount", Required: true},
				&cli.StringFlag{Name: "rate", Required: true, Usage: "yearly rate in percent"},
				&cli.IntFlag{Name: "period", Value: 2, Usage: "days"},
				&cli.StringFlag{Name: "direction", Value: "lend", Usage: "lend or loan"},
			},
			Action: func(c *cli.Context) error {
				amount, err := amountArg(c, "amount")
				if err != nil {
					return err
				}
				rate, err := amountArg(c, "rate")
				if err != nil {
					return err
				}
				client, cancel, err := setupClient(c)
				if err != nil {
					return err
				}
				defer cancel()
				raw, err := client.NewOffer(c.Context, c.String("currency"), amount, rate,
					c.Int("period"), c.String("direction"))
				if err != nil {
					return err
				}
				jsonOutput(raw)
				return nil
			},
		},
		{
			Name:  "cancel",
			Usage: "cancel a funding offer by id",
			Flags: []cli.Flag{
				&cli.Int64Flag{Name: "id", Required: true},
			},
			Action: func(c *cli.Context) error {
				client, cancel, err := setupClient(c)
				if err != nil {
					return err
				}
				defer cancel()
				raw, err := client.CancelOffer(c.Context, c.Int64("id"))
				if err != nil {
					return err
				}
				jsonOutput(raw)
				return nil
			},
		},
		{
			Name:  "status",
			Usage: "get the state of a funding offer",
			Flags: []cli.Flag{
				&cli.Int64Flag{Name: "id", Required: true},
			},
			Action: func(c *cli.Context) error {
				client, cancel, err := setupClient(c)
				if err != nil {
					return err
				}
				defer cancel()
				raw, err := client.GetOfferStatus(c.Context, c.Int64("id"))
				if err != nil {
					return err
				}
				jsonOutput(raw)
				return nil
			},
		},
		{
			Name:  "active",
			Usage: "list live funding offers",
			Action: func(c *cli.Context) error {
				client, cancel, err := setupClient(c)
				if err != nil {
					return err
				}
				defer cancel()
				raw, err := client.GetOffers(c.Context)
				if err != nil {
					return err
				}
				jsonOutput(raw)
				return nil
			},
		},
	},
}

var takenFundsCommand = &cli.Command{
	Name:  "taken-funds",
	Usage: "list borrowed margin funds",
	Flags: []cli.Flag{
		&cli.BoolFlag{Name: "unused", Usage: "only funds not currently used"},
		&cli.BoolFlag{Name: "total", Usage: "totals of active funding in use"},
	},
	Action: func(c *cli.Context) error {
		client, cancel, err := setupClient(c)
		if err != nil {
			return err
		}
		defer cancel()
		var raw string
		switch {
		case c.Bool("total"):
			raw, err = client.GetTotalTakenFunds(c.Context)
		case c.Bool("unused"):
			raw, err = client.GetUnusedTakenFunds(c.Context)
		default:
			raw, err = client.GetTakenFunds(c.Context)
		}
		if err != nil {
			return err
		}
		jsonOutput(raw)
		return nil
	},
}

var closeLoanCommand = &cli.Command{
	Name:  "close-loan",
	Usage: "close a taken fund by swap id",
	Flags: []cli.Flag{
		&cli.Int64Flag{Name: "id", Required: true},
	},
	Action: func(c *cli.Context) error {
		client, cancel, err := setupClient(c)
		if err != nil {
			return err
		}
		defer cancel()
		raw, err := client.CloseLoan(c.Context, c.Int64("id"))
		if err != nil {
			return err
		}
		jsonOutput(raw)
		return nil
	},
}
