package application

import (
	"regexp"
	"sort"
	"time"

	"login-gateway/middleware/guard/domain"
)

// Detector é um predicado de assinatura. A cadeia é avaliada em ordem fixa
// de prioridade; o primeiro que casar define a Signature do veredito.
type Detector interface {
	Signature() domain.Signature
	Match(value string) bool
}

// PatternDetector casa o valor contra uma regex pré-compilada.
type PatternDetector struct {
	Sig     domain.Signature
	Pattern *regexp.Regexp
}

func (p PatternDetector) Signature() domain.Signature { return p.Sig }

func (p PatternDetector) Match(value string) bool { return p.Pattern.MatchString(value) }

var (
	// palavras-chave SQL como palavra inteira, ou os caracteres -- ; ' #
	injectionPattern = regexp.MustCompile(`(?i)\b(SELECT|DROP|INSERT|DELETE|UPDATE)\b|--|;|'|#`)

	// <script>...</script>, atributo on<palavra>= dentro de um elemento,
	// ou src= com valor entre aspas dentro de um elemento
	scriptPattern = regexp.MustCompile(`(?is)<script[^>]*>.*?</script\s*>|<[^>]*\bon\w+\s*=[^>]*>|<[^>]*\bsrc\s*=\s*['"][^>]*>`)
)

// DefaultDetectors: injeção antes de script. A ordem só afeta qual
// Signature é registrada, nunca o veredito final.
func DefaultDetectors() []Detector {
	return []Detector{
		PatternDetector{Sig: domain.SignatureInjection, Pattern: injectionPattern},
		PatternDetector{Sig: domain.SignatureScript, Pattern: scriptPattern},
	}
}

// Classifier é o autômato de dois estados (initial -> valid | rejected).
//
// É um pré-filtro barato e tolerante a falso positivo, não um parser:
// um apóstrofo legítimo ou a palavra "update" são rejeitados.
type Classifier struct {
	Detectors []Detector
	// Sink recebe uma entrada por campo rejeitado. Opcional.
	Sink domain.AuditSink
	Now  func() time.Time
}

func NewClassifier(sink domain.AuditSink) *Classifier {
	return &Classifier{Detectors: DefaultDetectors(), Sink: sink, Now: time.Now}
}

// Classify avalia um único campo. Sem efeitos colaterais.
func (c *Classifier) Classify(field, value string) domain.Verdict {
	for _, d := range c.Detectors {
		if d.Match(value) {
			return domain.Rejected(d.Signature(), field)
		}
	}
	return domain.Valid()
}

// Inspect classifica cada campo de forma independente e agrega com OR:
// basta um campo rejeitado para rejeitar a requisição. Todo campo rejeitado
// gera uma entrada de auditoria; o primeiro (na ordem dada) vira o veredito.
func (c *Classifier) Inspect(identity domain.Key, fields map[string]string, order []string) domain.Verdict {
	if order == nil {
		order = orderFields(nil, fields)
	}

	out := domain.Valid()
	for _, name := range order {
		value, ok := fields[name]
		if !ok {
			continue
		}
		v := c.Classify(name, value)
		if !v.Rejected() {
			continue
		}
		c.audit(identity, v, value)
		if !out.Rejected() {
			out = v
		}
	}
	return out
}

func (c *Classifier) audit(identity domain.Key, v domain.Verdict, value string) {
	if c.Sink == nil {
		return
	}
	now := time.Now
	if c.Now != nil {
		now = c.Now
	}
	c.Sink.Record(domain.AuditEntry{
		At:        now(),
		Signature: v.Signature,
		Field:     v.Field,
		Value:     value,
		Identity:  identity,
	})
}

func orderFields(first []string, fields map[string]string) []string {
	out := make([]string, 0, len(fields))
	seen := make(map[string]struct{}, len(first))
	for _, f := range first {
		if _, ok := fields[f]; ok {
			out = append(out, f)
			seen[f] = struct{}{}
		}
	}
	rest := make([]string, 0, len(fields)-len(out))
	for f := range fields {
		if _, ok := seen[f]; !ok {
			rest = append(rest, f)
		}
	}
	sort.Strings(rest)
	return append(out, rest...)
}
