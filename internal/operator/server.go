// Package operator — server.go
//
// Unix domain socket server for substratectl maintenance commands.
//
// Protocol: newline-delimited JSON over a Unix domain socket.
// Socket path: /run/substrate/operator.sock (configurable).
// Permissions: 0600, owned by the process's user. Only that user can
// connect.
//
// Commands (JSON request → JSON response):
//
//	{"cmd":"status"}
//	  → Returns per-partition connection/entry-count/error status.
//	  → Response: {"ok":true,"status":[{"slot":1,"label":"Pneuma (Vision/Identity)",...}]}
//
//	{"cmd":"snapshot"}
//	  → Returns the full Sovereign Snapshot (store status, soma,
//	    bio_gate_active, ethos policy, mental state, people, governance
//	    summary, governed tasks, shadow_unlocked).
//	  → Response: {"ok":true,"snapshot":{...}}
//
//	{"cmd":"evaluate"}
//	  → Runs one Task Governor evaluation pass and persists the result.
//	  → Response: {"ok":true,"tasks":[{"task_id":"...","effective_priority":...}]}
//
//	{"cmd":"prune"}
//	  → Runs one retention sweep over Chronos/Soma, throttled by the
//	    configured token bucket.
//	  → Response: {"ok":true,"removed":{"Chronos (Temporal/Episodic)":3,"Soma (Biometric+agent inbox)":1}}
//	    ("throttled":true is added when the sweep stopped early)
//
//	{"cmd":"audit"}
//	  → Returns the hash-chained trail of policy decisions and governance
//	    evaluation passes recorded since the daemon started.
//	  → Response: {"ok":true,"decisions":[{"kind":"policy_decision",...}]}
//
// Security:
//   - Socket is created with 0600 permissions.
//   - Each connection is handled in a separate goroutine.
//   - Max concurrent connections: 4 (operator use only, not high-throughput).
//   - Max request size: 4096 bytes (prevents memory exhaustion).
//   - Connection timeout: one 10s deadline covering the read and the write.
package operator

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/sovereignkb/substrate/internal/audit"
	"github.com/sovereignkb/substrate/internal/derive"
	"github.com/sovereignkb/substrate/internal/governor"
	"github.com/sovereignkb/substrate/internal/observability"
	"github.com/sovereignkb/substrate/internal/prune"
	"github.com/sovereignkb/substrate/internal/records"
	"github.com/sovereignkb/substrate/internal/snapshot"
	"github.com/sovereignkb/substrate/internal/store"
	"github.com/sovereignkb/substrate/internal/substrate"
)

const (
	maxConcurrentConns = 4
	maxRequestBytes    = 4096
	connTimeout        = 10 * time.Second
)

// Request is the JSON structure for operator commands.
type Request struct {
	Cmd string `json:"cmd"` // status | snapshot | evaluate | prune | audit
}

// Response is the JSON structure for operator command responses.
type Response struct {
	OK        bool                   `json:"ok"`
	Error     string                 `json:"error,omitempty"`
	Status    []store.Status         `json:"status,omitempty"`
	Snapshot  *snapshot.Snapshot     `json:"snapshot,omitempty"`
	Tasks     []records.GovernedTask `json:"tasks,omitempty"`
	Removed   map[string]int         `json:"removed,omitempty"`
	Throttled bool                   `json:"throttled,omitempty"`
	Decisions []audit.Decision       `json:"decisions,omitempty"`
}

// Server is the operator Unix domain socket server.
type Server struct {
	socketPath string
	sub        *substrate.Substrate
	weights    governor.Weights
	bucket     *prune.Bucket
	retention  time.Duration
	log        *zap.Logger
	sem        chan struct{}
	metrics    *observability.Metrics
}

// NewServer creates an operator Server over sub. bucket and retention
// configure the prune command; weights configure the evaluate command.
func NewServer(socketPath string, sub *substrate.Substrate, weights governor.Weights, bucket *prune.Bucket, retention time.Duration, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{
		socketPath: socketPath,
		sub:        sub,
		weights:    weights,
		bucket:     bucket,
		retention:  retention,
		log:        log,
		sem:        make(chan struct{}, maxConcurrentConns),
	}
}

// SetMetrics attaches the process metrics so command handlers can record
// evaluation and prune counters. Optional; nil leaves metrics unrecorded.
func (s *Server) SetMetrics(m *observability.Metrics) {
	s.metrics = m
}

// ListenAndServe starts the operator socket server. Removes any stale
// socket file before binding. Blocks until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if err := os.Remove(s.socketPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("operator: remove stale socket %q: %w", s.socketPath, err)
	}

	if err := os.MkdirAll(filepath.Dir(s.socketPath), 0o700); err != nil {
		return fmt.Errorf("operator: mkdir %q: %w", filepath.Dir(s.socketPath), err)
	}

	lis, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("operator: listen %q: %w", s.socketPath, err)
	}
	defer lis.Close()

	if err := os.Chmod(s.socketPath, 0o600); err != nil {
		return fmt.Errorf("operator: chmod %q: %w", s.socketPath, err)
	}

	s.log.Info("operator socket listening", zap.String("path", s.socketPath))

	go func() {
		<-ctx.Done()
		lis.Close()
	}()

	for {
		conn, err := lis.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				s.log.Error("operator: accept error", zap.Error(err))
				continue
			}
		}

		select {
		case s.sem <- struct{}{}:
		default:
			s.log.Warn("operator: max connections reached, rejecting")
			_ = conn.Close()
			continue
		}

		go func(c net.Conn) {
			defer func() { <-s.sem }()
			defer c.Close()
			s.handleConn(c)
		}(conn)
	}
}

func (s *Server) handleConn(conn net.Conn) {
	_ = conn.SetDeadline(time.Now().Add(connTimeout))

	buf := make([]byte, maxRequestBytes)
	n, err := conn.Read(buf)
	if err != nil && err != io.EOF {
		s.log.Warn("operator: read error", zap.Error(err))
		return
	}

	var req Request
	if err := json.Unmarshal(buf[:n], &req); err != nil {
		s.writeResponse(conn, Response{OK: false, Error: "invalid JSON: " + err.Error()})
		return
	}

	resp := s.dispatch(req)
	s.writeResponse(conn, resp)
}

func (s *Server) dispatch(req Request) Response {
	switch req.Cmd {
	case "status":
		return s.cmdStatus()
	case "snapshot":
		return s.cmdSnapshot()
	case "evaluate":
		return s.cmdEvaluate()
	case "prune":
		return s.cmdPrune()
	case "audit":
		return s.cmdAudit()
	default:
		return Response{OK: false, Error: fmt.Sprintf("unknown command %q", req.Cmd)}
	}
}

func (s *Server) cmdStatus() Response {
	return Response{OK: true, Status: s.sub.Store.Status()}
}

func (s *Server) cmdSnapshot() Response {
	snap, err := snapshot.GetFullSovereignState(s.sub)
	if err != nil {
		return Response{OK: false, Error: err.Error()}
	}
	return Response{OK: true, Snapshot: &snap}
}

func (s *Server) cmdEvaluate() Response {
	mental, err := derive.EffectiveMentalState(s.sub)
	if err != nil {
		return Response{OK: false, Error: err.Error()}
	}
	var policy records.EthosPolicy
	if p, ok, err := s.sub.GetCurrentEthos(); err != nil {
		return Response{OK: false, Error: err.Error()}
	} else if ok {
		policy = p
	}

	g := governor.New(s.sub, mental, policy, s.weights)
	tasks, err := g.EvaluateAndPersist()
	if err != nil {
		return Response{OK: false, Error: err.Error()}
	}
	if s.metrics != nil {
		s.metrics.GovernorEvaluationsTotal.Inc()
		s.metrics.GovernorTasksEvaluated.Set(float64(len(tasks)))
	}
	return Response{OK: true, Tasks: tasks}
}

func (s *Server) cmdPrune() Response {
	res, err := prune.Sweep(s.sub.Store, s.bucket, s.retention, time.Now(), s.log)
	if err != nil {
		return Response{OK: false, Error: err.Error()}
	}
	if s.metrics != nil {
		for slot, n := range res.RemovedBySlot {
			s.metrics.PruneEntriesRemovedTotal.WithLabelValues(slot).Add(float64(n))
		}
		s.metrics.PruneBudgetTokensRemaining.Set(float64(s.bucket.Remaining()))
	}
	return Response{OK: true, Removed: res.RemovedBySlot, Throttled: res.Throttled}
}

func (s *Server) cmdAudit() Response {
	if s.sub.Audit == nil {
		return Response{OK: true, Decisions: nil}
	}
	return Response{OK: true, Decisions: s.sub.Audit.Decisions()}
}

func (s *Server) writeResponse(conn net.Conn, resp Response) {
	data, _ := json.Marshal(resp)
	data = append(data, '\n')
	_, _ = conn.Write(data)
}
