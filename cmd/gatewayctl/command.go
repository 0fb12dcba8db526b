package main

import (
	"encoding/json"
	"fmt"

	"chain-gateway/internal/app"
	"chain-gateway/internal/blockchain"
	"chain-gateway/pkg/config"
	"chain-gateway/pkg/logger"

	"github.com/urfave/cli/v2"
)

var (
	chainFlag = &cli.StringFlag{
		Name:     "chain",
		Aliases:  []string{"c"},
		Usage:    "chain id, e.g. gaia, osmosis, tron, maya",
		Required: true,
	}
	addressFlag = &cli.StringFlag{
		Name:     "address",
		Aliases:  []string{"a"},
		Usage:    "account address",
		Required: true,
	}
	denomFlag = &cli.StringFlag{
		Name:  "denom",
		Usage: "bank denom or cw20/trc20 contract",
	}
	nativeFlag = &cli.BoolFlag{
		Name:  "native",
		Usage: "query the chain's native asset",
	}
)

type ctl struct {
	app *app.App
}

func (c *ctl) newApp() *cli.App {
	a := cli.NewApp()
	a.Name = "gatewayctl"
	a.Usage = "query chains through the gateway adapters"
	a.Before = c.load
	a.After = c.close
	a.Flags = []cli.Flag{
		&cli.StringFlag{Name: "log-level", Value: "warn", Usage: "debug, info, warn, error"},
	}
	a.Commands = []*cli.Command{
		{
			Action:    c.balance,
			Name:      "balance",
			Usage:     "Fetch balances of an address",
			Flags:     []cli.Flag{chainFlag, addressFlag, denomFlag, nativeFlag},
			Category:  "Chain",
		},
		{
			Action:   c.account,
			Name:     "account",
			Usage:    "Fetch account number and sequence",
			Flags:    []cli.Flag{chainFlag, addressFlag},
			Category: "Chain",
		},
		{
			Action:   c.block,
			Name:     "block",
			Usage:    "Fetch the latest block",
			Flags:    []cli.Flag{chainFlag},
			Category: "Chain",
		},
		{
			Action: c.fee,
			Name:   "fee",
			Usage:  "Estimate a transfer fee",
			Flags: []cli.Flag{
				chainFlag, denomFlag,
				&cli.StringFlag{Name: "from"},
				&cli.StringFlag{Name: "to"},
				&cli.StringFlag{Name: "amount", Value: "0"},
				&cli.StringFlag{Name: "memo"},
			},
			Category: "Chain",
		},
		{
			Action:    c.trace,
			Name:      "trace",
			Usage:     "Resolve an ibc/<hash> denom",
			ArgsUsage: "<hash>",
			Flags:     []cli.Flag{chainFlag},
			Category:  "Cosmos",
		},
		{
			Action:   c.bond,
			Name:     "bond",
			Usage:    "List MayaChain nodes an address has bonded to",
			Flags:    []cli.Flag{addressFlag},
			Category: "MayaChain",
		},
		{
			Action:   c.probe,
			Name:     "probe",
			Usage:    "Probe the latest block of every chain once",
			Category: "Monitor",
		},
	}
	return a
}

func (c *ctl) load(ctx *cli.Context) error {
	cfg := config.Load()
	logger.Init(cfg.App.Env)
	if err := logger.SetLevel(ctx.String("log-level")); err != nil {
		return err
	}
	// 命令行只做一次性查询, 不连数据库
	cfg.Database.Enabled = false

	a, err := app.New(ctx.Context, cfg, app.WithoutMetrics())
	if err != nil {
		return err
	}
	c.app = a
	return nil
}

func (c *ctl) close(*cli.Context) error {
	if c.app != nil {
		c.app.Close()
	}
	logger.Sync()
	return nil
}

func (c *ctl) gateway(ctx *cli.Context) (blockchain.Gateway, error) {
	return c.app.Gateways.Factory.Get(ctx.String(chainFlag.Name))
}

func (c *ctl) balance(ctx *cli.Context) error {
	gw, err := c.gateway(ctx)
	if err != nil {
		return err
	}
	asset := blockchain.Asset{Denom: ctx.String(denomFlag.Name), Native: ctx.Bool(nativeFlag.Name)}
	balances, err := gw.FetchBalances(ctx.Context, ctx.String(addressFlag.Name), asset)
	if err != nil {
		return err
	}
	return printJSON(ctx, balances)
}

func (c *ctl) account(ctx *cli.Context) error {
	gw, err := c.gateway(ctx)
	if err != nil {
		return err
	}
	info, err := gw.FetchAccountInfo(ctx.Context, ctx.String(addressFlag.Name))
	if err != nil {
		return err
	}
	return printJSON(ctx, map[string]interface{}{"exists": info != nil, "account": info})
}

func (c *ctl) block(ctx *cli.Context) error {
	gw, err := c.gateway(ctx)
	if err != nil {
		return err
	}
	block, err := gw.FetchLatestBlock(ctx.Context)
	if err != nil {
		return err
	}
	return printJSON(ctx, block)
}

func (c *ctl) fee(ctx *cli.Context) error {
	gw, err := c.gateway(ctx)
	if err != nil {
		return err
	}
	fee, err := gw.EstimateFee(ctx.Context, blockchain.TransactionIntent{
		From:   ctx.String("from"),
		To:     ctx.String("to"),
		Amount: ctx.String("amount"),
		Asset:  blockchain.Asset{Denom: ctx.String(denomFlag.Name), Native: ctx.String(denomFlag.Name) == ""},
		Memo:   ctx.String("memo"),
	})
	if err != nil {
		return err
	}
	return printJSON(ctx, fee)
}

func (c *ctl) trace(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return fmt.Errorf("expected exactly one hash argument")
	}
	tracer, err := c.app.Gateways.Factory.DenomTracer(ctx.String(chainFlag.Name))
	if err != nil {
		return err
	}
	trace := tracer.FetchIbcDenomTrace(ctx.Context, ctx.Args().First())
	if trace == nil {
		return fmt.Errorf("denom trace %s not found", ctx.Args().First())
	}
	return printJSON(ctx, trace)
}

func (c *ctl) bond(ctx *cli.Context) error {
	nodes, err := c.app.Gateways.Maya.BondedNodes(ctx.Context, ctx.String(addressFlag.Name))
	if err != nil {
		return err
	}
	return printJSON(ctx, nodes)
}

func (c *ctl) probe(ctx *cli.Context) error {
	return printJSON(ctx, c.app.Monitor.Probe(ctx.Context))
}

func printJSON(ctx *cli.Context, v interface{}) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(ctx.App.Writer, string(out))
	return err
}
