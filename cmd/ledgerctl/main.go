// Command ledgerctl drives a ledger core within a single process run:
// it seeds a genesis block, queues fixture transactions into a
// mempool, and either mines one block from them and prints the result
// (the "run" subcommand) or keeps the resulting tree and mempool alive
// behind pkg/rpcquery's read-only RPC surface (the "serve" subcommand).
// Nothing here is persisted to disk between invocations; each run
// starts from a fresh genesis block file.
package main

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io/ioutil"
	"os"
	"strconv"

	"github.com/dave/stablegob"
	"github.com/urfave/cli"

	"github.com/ledgercore/utxochain/pkg/block"
	"github.com/ledgercore/utxochain/pkg/chain"
	"github.com/ledgercore/utxochain/pkg/crypto"
	"github.com/ledgercore/utxochain/pkg/mempool"
	"github.com/ledgercore/utxochain/pkg/rpcquery"
	"github.com/ledgercore/utxochain/pkg/txn"
	"github.com/ledgercore/utxochain/pkg/utxo"
)

var verifyCache = crypto.NewVerifyCache(4096)

func verify(pk crypto.PK, msg []byte, sig crypto.Sig) bool {
	return verifyCache.Verify(pk, msg, sig)
}

func loadGenesis(path string) (*chain.Tree, error) {
	if path == "" {
		return nil, fmt.Errorf("-genesis is required")
	}

	b, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var genesis block.Block
	dec := stablegob.NewDecoder(bytes.NewReader(b))
	if err := dec.Decode(&genesis); err != nil {
		return nil, err
	}

	pool := utxo.NewPool()
	pool.Add(genesis.CoinbaseUOR(), genesis.Coinbase.Outputs[0])
	return chain.New(&genesis, pool, verify), nil
}

func loadTxFiles(paths []string) (*mempool.Pool, error) {
	pool := mempool.New()
	for _, path := range paths {
		b, err := ioutil.ReadFile(path)
		if err != nil {
			return nil, err
		}

		var tx txn.Transaction
		dec := stablegob.NewDecoder(bytes.NewReader(b))
		if err := dec.Decode(&tx); err != nil {
			return nil, err
		}
		pool.Add(&tx)
	}
	return pool, nil
}

func flatten(txs []*txn.Transaction) []txn.Transaction {
	flat := make([]txn.Transaction, len(txs))
	for i, tx := range txs {
		flat[i] = *tx
	}
	return flat
}

func mine(tree *chain.Tree, pending *mempool.Pool, payeeB64, valueStr string) (*block.Block, error) {
	value, err := strconv.ParseUint(valueStr, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid -value: %v", err)
	}

	payee, err := base64.StdEncoding.DecodeString(payeeB64)
	if err != nil {
		return nil, fmt.Errorf("invalid -payee: %v", err)
	}

	coinbase := txn.Transaction{Outputs: []txn.Output{{Value: value, Payee: crypto.PK(payee)}}}

	tip := tree.MaxHeightBlock()
	candidates := flatten(pending.All())
	b, err := block.New(tip.Hash(), coinbase, candidates)
	if err != nil {
		return nil, err
	}

	if !tree.AddBlock(b) {
		return nil, fmt.Errorf("block rejected: not every mempool transaction was jointly acceptable")
	}
	pending.RemoveIncluded(candidates)
	return b, nil
}

func printTip(tree *chain.Tree) {
	tip := tree.MaxHeightBlock()
	pool := tree.MaxHeightUOP()

	var total uint64
	pool.Each(func(_ txn.UOR, out txn.Output) { total += out.Value })

	fmt.Printf("tip: %s\n", tip.Hash())
	fmt.Printf("height: %d\n", tree.TipHeight())
	fmt.Printf("live outputs: %d, total value: %d\n", pool.Len(), total)
}

func cmdRun(c *cli.Context) error {
	tree, err := loadGenesis(c.String("genesis"))
	if err != nil {
		return err
	}

	pending, err := loadTxFiles(c.StringSlice("tx"))
	if err != nil {
		return err
	}
	fmt.Printf("queued %d transaction(s)\n", pending.Len())

	if c.String("payee") != "" {
		b, err := mine(tree, pending, c.String("payee"), c.String("value"))
		if err != nil {
			return err
		}
		fmt.Printf("mined block %s\n", b.Hash())
	}

	printTip(tree)
	return nil
}

func cmdServe(c *cli.Context) error {
	tree, err := loadGenesis(c.String("genesis"))
	if err != nil {
		return err
	}

	pool, err := loadTxFiles(c.StringSlice("tx"))
	if err != nil {
		return err
	}

	if c.String("payee") != "" {
		if _, err := mine(tree, pool, c.String("payee"), c.String("value")); err != nil {
			return err
		}
	}

	addr := c.String("addr")
	srv := rpcquery.NewServer(tree, pool)
	if err := srv.Start(addr); err != nil {
		return err
	}

	fmt.Printf("serving read-only queries on %s (tip %s, height %d)\n", addr, tree.MaxHeightBlock().Hash(), tree.TipHeight())
	select {}
}

func main() {
	app := cli.NewApp()
	app.Name = "ledgerctl"
	app.Usage = "seed a ledger from a genesis file and drive it within one process run"

	genesisFlag := cli.StringFlag{Name: "genesis", Usage: "path to a gen-genesis output file (required)"}
	txFlag := cli.StringSliceFlag{Name: "tx", Usage: "transaction file to queue before mining (repeatable)"}
	payeeFlag := cli.StringFlag{Name: "payee", Usage: "base64-encoded public key to pay the coinbase to; omit to skip mining"}
	valueFlag := cli.StringFlag{Name: "value", Value: "0", Usage: "coinbase output value"}

	app.Commands = []cli.Command{
		{
			Name:   "run",
			Usage:  "seed genesis, queue transactions, optionally mine one block, and print the tip",
			Flags:  []cli.Flag{genesisFlag, txFlag, payeeFlag, valueFlag},
			Action: cmdRun,
		},
		{
			Name:  "serve",
			Usage: "seed genesis, queue transactions, optionally mine one block, and serve read-only queries",
			Flags: []cli.Flag{
				genesisFlag, txFlag, payeeFlag, valueFlag,
				cli.StringFlag{Name: "addr", Value: "localhost:8787", Usage: "address to serve RPC queries on"},
			},
			Action: cmdServe,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "ledgerctl: %v\n", err)
		os.Exit(1)
	}
}
