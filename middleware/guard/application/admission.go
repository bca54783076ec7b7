package application

import (
	"context"
	"sync"
	"time"

	"login-gateway/middleware/guard/domain"
)

// DefaultRetryAfter é usado quando RequestRate não recebe um valor.
const DefaultRetryAfter = time.Second

// RequestRate barra a chave que esgotou o bucket (429 RateLimited).
// Não sabe nada de HTTP: headers e status ficam no adapter.
type RequestRate struct {
	Store      domain.BucketStore
	RetryAfter time.Duration
}

func (r RequestRate) Admit(key domain.Key) domain.Admission {
	if r.Store == nil {
		return domain.Admission{Outcome: domain.Proceed()}
	}
	b := r.Store.Bucket(key)
	if b == nil || b.Allow() {
		return domain.Admission{Outcome: domain.Proceed()}
	}

	retry := r.RetryAfter
	if retry <= 0 {
		retry = DefaultRetryAfter
	}
	return domain.Admission{Outcome: domain.Reject(domain.KindRateLimited), RetryAfter: retry}
}

// Capacity ocupa uma vaga do gateway ou responde Busy (503).
//
// Wait <= 0 espera enquanto o ctx da requisição viver.
type Capacity struct {
	Slots domain.Slots
	Wait  time.Duration
}

// Enter devolve sempre um release seguro de chamar (mais de uma vez, inclusive).
func (c Capacity) Enter(ctx context.Context) (func(), domain.Admission) {
	if c.Slots == nil {
		return func() {}, domain.Admission{Outcome: domain.Proceed()}
	}
	if c.Wait > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Wait)
		defer cancel()
	}

	release, ok := c.Slots.Take(ctx)
	if !ok {
		return func() {}, domain.Admission{Outcome: domain.Reject(domain.KindBusy)}
	}
	var once sync.Once
	return func() { once.Do(release) }, domain.Admission{Outcome: domain.Proceed()}
}
