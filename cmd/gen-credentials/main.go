// Command gen-credentials produces key pairs for use as coinbase
// payees, transaction signers, or CLI test fixtures.
package main

import (
	"encoding/base64"
	"flag"
	"fmt"
	"os"

	"github.com/dave/stablegob"

	"github.com/ledgercore/utxochain/pkg/crypto"
)

// Credential is the gob-encoded file format written per generated key
// pair: the private key plus its derived public key, so a reader never
// needs to re-derive one from the other.
type Credential struct {
	PK crypto.PK
	SK crypto.SK
}

func main() {
	num := flag.Int("n", 1, "number of credentials to generate")
	dir := flag.String("dir", "./credentials", "output directory")
	flag.Parse()

	if err := os.MkdirAll(*dir, os.ModePerm); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	for i := 0; i < *num; i++ {
		pk, sk, err := crypto.GenerateKeyPair()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		f, err := os.Create(fmt.Sprintf("%s/node-%d.cred", *dir, i))
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		enc := stablegob.NewEncoder(f)
		if err := enc.Encode(Credential{PK: pk, SK: sk}); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		if err := f.Close(); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		fmt.Printf("node-%d PK: %s addr: %s\n", i, base64.StdEncoding.EncodeToString(pk), pk.Addr())
	}
}
