package infra

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"login-gateway/middleware/guard/domain"
)

// FileSink acrescenta uma linha por entrada em um arquivo (ou io.Writer).
//
// Cada entrada vira um único Write, protegido por mutex, então duas entradas
// nunca se intercalam mesmo sem o AsyncSink na frente.
type FileSink struct {
	mu sync.Mutex
	w  io.Writer
	c  io.Closer
}

// OpenFileSink abre (ou cria) o arquivo em modo append.
func OpenFileSink(path string) (*FileSink, error) {
	path = filepath.Clean(path)
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("audit dir: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("audit file: %w", err)
	}
	return &FileSink{w: f, c: f}, nil
}

// NewWriterSink usa um io.Writer qualquer (stdout, buffer em testes).
func NewWriterSink(w io.Writer) *FileSink {
	return &FileSink{w: w}
}

func (s *FileSink) Write(e domain.AuditEntry) error {
	line := e.Line()

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := io.WriteString(s.w, line); err != nil {
		return fmt.Errorf("audit write: %w", err)
	}
	return nil
}

func (s *FileSink) Close() error {
	if s.c == nil {
		return nil
	}
	return s.c.Close()
}
