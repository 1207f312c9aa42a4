// Package rpcquery exposes a read-only view of the chain over
// net/rpc: tip, per-UOR lookups, and mempool size. It never accepts a
// transaction or block; submission goes through the mempool and the
// tree directly. This is a local operator/tooling surface, not a peer
// protocol.
package rpcquery

import (
	"net"
	"net/http"
	"net/rpc"
	"sync"

	"github.com/helinwang/log15"

	"github.com/ledgercore/utxochain/pkg/chain"
	"github.com/ledgercore/utxochain/pkg/chainhash"
	"github.com/ledgercore/utxochain/pkg/mempool"
	"github.com/ledgercore/utxochain/pkg/txn"
)

var log = log15.New("module", "rpcquery")

// TipInfo describes the current canonical tip.
type TipInfo struct {
	Hash   chainhash.Hash
	Height uint64
}

// UTXOQuery asks whether a UOR is spendable at the tip, and its value
// if so.
type UTXOQuery struct {
	UOR txn.UOR
}

// UTXOReply answers a UTXOQuery.
type UTXOReply struct {
	Found  bool
	Output txn.Output
}

// Server serves read-only queries against a Tree and a Mempool. The
// caller is responsible for driving Tree and Mempool mutation
// (AddBlock, Add/Remove) serially from elsewhere; Server only reads,
// guarded by its own mutex so a query never races a concurrent read
// from another query in flight.
//
// Server does not lock around the Tree or Mempool itself: it assumes
// the embedding process's single external owner calls into Server
// only when it is safe to read, the same non-negotiable serialization
// contract the rest of the core relies on.
type Server struct {
	mu   sync.Mutex
	tree *chain.Tree
	pool *mempool.Pool
}

// NewServer creates a query server over tree and pool.
func NewServer(tree *chain.Tree, pool *mempool.Pool) *Server {
	return &Server{tree: tree, pool: pool}
}

// Tip returns the current canonical tip.
func (s *Server) Tip(_ int, reply *TipInfo) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b := s.tree.MaxHeightBlock()
	reply.Hash = b.Hash()
	reply.Height = s.tree.TipHeight()
	return nil
}

// UTXO answers whether q.UOR is spendable at the tip.
func (s *Server) UTXO(q UTXOQuery, reply *UTXOReply) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	pool := s.tree.MaxHeightUOP()
	out, ok := pool.Get(q.UOR)
	reply.Found = ok
	reply.Output = out
	return nil
}

// MempoolSize returns the number of pending transactions.
func (s *Server) MempoolSize(_ int, reply *int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	*reply = s.pool.Len()
	return nil
}

// Query is the RPC-registered service exposing Server's methods.
type Query struct {
	s *Server
}

// Start registers the query service and serves it over HTTP at addr.
func (s *Server) Start(addr string) error {
	q := &Query{s: s}
	if err := rpc.Register(q); err != nil {
		return err
	}

	rpc.HandleHTTP()
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	go func() {
		if err := http.Serve(l, nil); err != nil {
			log.Error("rpcquery server stopped", "err", err)
		}
	}()
	return nil
}

func (q *Query) Tip(arg int, reply *TipInfo) error {
	return q.s.Tip(arg, reply)
}

func (q *Query) UTXO(arg UTXOQuery, reply *UTXOReply) error {
	return q.s.UTXO(arg, reply)
}

func (q *Query) MempoolSize(arg int, reply *int) error {
	return q.s.MempoolSize(arg, reply)
}
