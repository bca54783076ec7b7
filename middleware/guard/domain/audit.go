package domain

import (
	"strings"
	"time"
)

// AuditEntry registra uma rejeição do classificador.
// Append-only: nunca é alterada nem removida pelo processo.
type AuditEntry struct {
	At        time.Time
	Signature Signature
	Field     string
	Value     string
	Identity  Key
}

var lineEscaper = strings.NewReplacer("\r", `\r`, "\n", `\n`)

// Line formata a entrada como uma única linha de texto:
//
//	[2024-01-02T15:04:05Z] [SQLI] [IP: 10.0.0.1] - ' OR 1=1 --
//
// CR/LF do valor bruto são escapados para que uma entrada seja sempre uma linha.
func (e AuditEntry) Line() string {
	var sb strings.Builder
	sb.Grow(48 + len(e.Identity) + len(e.Value))
	sb.WriteString("[")
	sb.WriteString(e.At.UTC().Format(time.RFC3339Nano))
	sb.WriteString("] [")
	sb.WriteString(e.Signature.String())
	sb.WriteString("] [IP: ")
	sb.WriteString(string(e.Identity))
	sb.WriteString("] - ")
	sb.WriteString(lineEscaper.Replace(e.Value))
	sb.WriteString("\n")
	return sb.String()
}

// AuditSink recebe entradas de auditoria.
//
// Record nunca bloqueia a requisição nem devolve erro para quem chama:
// falhas de persistência são tratadas (e logadas) pela implementação.
type AuditSink interface {
	Record(AuditEntry)
}

// AuditWriter é o destino durável de uma entrada (arquivo, Redis...).
// Diferente do AuditSink, pode falhar; quem consome decide o que fazer.
type AuditWriter interface {
	Write(AuditEntry) error
}
