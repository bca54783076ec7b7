package domain

import (
	"context"
	"time"
)

// Key identifica o cliente: IP do RemoteAddr, header configurado ou
// primeiro hop do X-Forwarded-For.
type Key string

// Admissão: etapas que rodam antes da triagem do conteúdo e que só olham
// a chave do cliente ou a carga do gateway.

// Bucket é o orçamento de requisições de uma chave.
type Bucket interface {
	Allow() bool
}

// BucketStore devolve o bucket da chave, criando-o no primeiro uso.
type BucketStore interface {
	Bucket(Key) Bucket
}

// Slots é a capacidade de requisições simultâneas do gateway.
//
// Take espera uma vaga até o ctx acabar. Com ok=true, release devolve a
// vaga e deve ser chamado uma vez.
type Slots interface {
	Take(ctx context.Context) (release func(), ok bool)
}

// Admission é o resultado de uma etapa de admissão: Proceed ou uma
// rejeição (RateLimited, Busy), com a sugestão de Retry-After.
type Admission struct {
	Outcome    Outcome
	RetryAfter time.Duration
}

func (a Admission) Admitted() bool { return a.Outcome.Proceed() }
