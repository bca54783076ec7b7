package domain

import "strings"

// Kind enumera os resultados terminais que o gateway pode produzir.
type Kind int

const (
	KindProceed Kind = iota
	KindLoginSucceeded
	KindMethodNotAllowed
	KindNotFound
	KindMissingHeaders
	KindMissingFields
	KindMalformedBody
	KindContentRejected
	KindTooManyAttempts
	KindRateLimited
	KindCredentialCheckFailed
	KindUnavailable
	KindBusy
)

var kindNames = map[Kind]string{
	KindProceed:               "proceed",
	KindLoginSucceeded:        "login_succeeded",
	KindMethodNotAllowed:      "method_not_allowed",
	KindNotFound:              "not_found",
	KindMissingHeaders:        "missing_headers",
	KindMissingFields:         "missing_fields",
	KindMalformedBody:         "malformed_body",
	KindContentRejected:       "content_rejected",
	KindTooManyAttempts:       "too_many_attempts",
	KindRateLimited:           "rate_limited",
	KindCredentialCheckFailed: "credential_check_failed",
	KindUnavailable:           "unavailable",
	KindBusy:                  "busy",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

// Status e mensagem de cada resultado. Mantidos aqui (e não no adapter HTTP)
// porque fazem parte do contrato de ingresso do gateway.
var kindResponses = map[Kind]struct {
	status  int
	message string
}{
	KindProceed:               {0, ""},
	KindLoginSucceeded:        {200, "Login successful"},
	KindMethodNotAllowed:      {405, "Method Not Allowed"},
	KindNotFound:              {404, "Not Found"},
	KindMissingHeaders:        {400, "Bad Request: Missing headers"},
	KindMissingFields:         {400, "Username and password are required."},
	KindMalformedBody:         {400, "Invalid request body."},
	KindContentRejected:       {400, "Potential XSS or SQL Injection detected in the input."},
	KindTooManyAttempts:       {429, "Too many failed login attempts. Please try again later."},
	KindRateLimited:           {429, "Too many requests, please try again later."},
	KindCredentialCheckFailed: {400, "Invalid username or password"},
	KindUnavailable:           {400, "Unable to process the request."},
	KindBusy:                  {503, "Server busy, please try again later."},
}

// Outcome é a decisão do gateway para uma requisição.
//
// Todos os resultados (exceto Proceed) são terminais e visíveis ao usuário;
// nenhum é retentado internamente.
type Outcome struct {
	Kind      Kind
	Field     string
	Signature Signature
	Missing   []string
}

func Proceed() Outcome { return Outcome{Kind: KindProceed} }

func Reject(k Kind) Outcome { return Outcome{Kind: k} }

func LoginSucceeded() Outcome { return Outcome{Kind: KindLoginSucceeded} }

func ContentRejected(v Verdict) Outcome {
	return Outcome{Kind: KindContentRejected, Field: v.Field, Signature: v.Signature}
}

func MissingHeaders(names []string) Outcome {
	return Outcome{Kind: KindMissingHeaders, Missing: names}
}

func MissingFields(names []string) Outcome {
	return Outcome{Kind: KindMissingFields, Missing: names}
}

func (o Outcome) Proceed() bool { return o.Kind == KindProceed }

func (o Outcome) Status() int { return kindResponses[o.Kind].status }

func (o Outcome) Message() string { return kindResponses[o.Kind].message }

// Error permite tratar um Outcome de rejeição como erro (ex.: em logs).
func (o Outcome) Error() string {
	s := o.Kind.String()
	if o.Field != "" {
		s += " field=" + o.Field
	}
	if o.Signature != SignatureNone {
		s += " signature=" + o.Signature.String()
	}
	if len(o.Missing) > 0 {
		s += " missing=" + strings.Join(o.Missing, ",")
	}
	return s
}
