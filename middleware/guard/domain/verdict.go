package domain

// Signature identifica o tipo de assinatura maliciosa encontrada em um campo.
type Signature int

const (
	SignatureNone Signature = iota
	SignatureInjection
	SignatureScript
)

func (s Signature) String() string {
	switch s {
	case SignatureInjection:
		return "SQLI"
	case SignatureScript:
		return "XSS"
	default:
		return "NONE"
	}
}

// State é o estado terminal do autômato de aceitação de um campo.
// A partir de initial, só valid ou rejected são alcançáveis.
type State int

const (
	StateInitial State = iota
	StateValid
	StateRejected
)

func (s State) String() string {
	switch s {
	case StateValid:
		return "valid"
	case StateRejected:
		return "rejected"
	default:
		return "initial"
	}
}

// Verdict é o resultado da classificação de um campo (ou da requisição inteira).
type Verdict struct {
	State     State
	Signature Signature
	Field     string
}

func (v Verdict) Rejected() bool { return v.State == StateRejected }

func Valid() Verdict { return Verdict{State: StateValid} }

func Rejected(sig Signature, field string) Verdict {
	return Verdict{State: StateRejected, Signature: sig, Field: field}
}
