package infra

import (
	"sync"
	"sync/atomic"

	"login-gateway/middleware/guard/domain"

	"github.com/sirupsen/logrus"
)

// AsyncSink desacopla a requisição da persistência da auditoria:
// Record só enfileira (fila limitada) e um único consumidor grava no
// AuditWriter. Com a fila cheia a entrada é descartada e logada, a
// requisição nunca espera.
type AsyncSink struct {
	writer domain.AuditWriter
	log    logrus.FieldLogger
	queue  chan domain.AuditEntry

	dropped atomic.Int64
	failed  atomic.Int64

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

const DefaultAuditQueue = 1024

func NewAsyncSink(w domain.AuditWriter, queueSize int, log logrus.FieldLogger) *AsyncSink {
	if queueSize <= 0 {
		queueSize = DefaultAuditQueue
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	s := &AsyncSink{
		writer: w,
		log:    log,
		queue:  make(chan domain.AuditEntry, queueSize),
		done:   make(chan struct{}),
	}
	go s.run()
	return s
}

// Record implementa domain.AuditSink.
func (s *AsyncSink) Record(e domain.AuditEntry) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		s.dropped.Add(1)
		return
	}
	select {
	case s.queue <- e:
	default:
		s.dropped.Add(1)
		s.log.WithFields(logrus.Fields{
			"signature": e.Signature.String(),
			"identity":  e.Identity,
		}).Warn("audit queue full, entry dropped")
	}
}

func (s *AsyncSink) run() {
	defer close(s.done)
	for e := range s.queue {
		if err := s.writer.Write(e); err != nil {
			s.failed.Add(1)
			s.log.WithError(err).WithField("signature", e.Signature.String()).Error("audit entry not persisted")
		}
	}
}

// Dropped conta entradas descartadas por fila cheia ou sink fechado.
func (s *AsyncSink) Dropped() int64 { return s.dropped.Load() }

// Failed conta entradas que o writer não conseguiu persistir.
func (s *AsyncSink) Failed() int64 { return s.failed.Load() }

// Close para de aceitar entradas, drena a fila e espera o consumidor.
func (s *AsyncSink) Close() {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.queue)
	}
	s.mu.Unlock()
	<-s.done
}
