// Command gen-genesis builds a genesis block: a coinbase-only block
// with no parent, whose sole output pays a supplied public key.
package main

import (
	"encoding/base64"
	"flag"
	"fmt"
	"os"

	"github.com/dave/stablegob"

	"github.com/ledgercore/utxochain/pkg/block"
	"github.com/ledgercore/utxochain/pkg/chainhash"
	"github.com/ledgercore/utxochain/pkg/txn"
)

func main() {
	payeeB64 := flag.String("payee", "", "base64-encoded public key of the genesis coinbase payee")
	value := flag.Uint64("value", 1_000_000, "genesis coinbase output value")
	out := flag.String("out", "./genesis.gob", "output file path")
	flag.Parse()

	if *payeeB64 == "" {
		fmt.Fprintln(os.Stderr, "gen-genesis: -payee is required")
		os.Exit(1)
	}

	payee, err := base64.StdEncoding.DecodeString(*payeeB64)
	if err != nil {
		fmt.Fprintln(os.Stderr, "gen-genesis: invalid -payee:", err)
		os.Exit(1)
	}

	coinbase := txn.Transaction{
		Outputs: []txn.Output{{Value: *value, Payee: payee}},
	}

	genesis, err := block.New(chainhash.Hash{}, coinbase, nil)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	f, err := os.Create(*out)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer f.Close()

	enc := stablegob.NewEncoder(f)
	if err := enc.Encode(genesis); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	fmt.Printf("genesis hash: %s\n", genesis.Hash())
}
