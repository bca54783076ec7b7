package application

import (
	"context"

	"login-gateway/middleware/guard/domain"

	"github.com/sirupsen/logrus"
)

// DefaultLoginPath é a rota protegida pelo tracker de tentativas.
const DefaultLoginPath = "/login"

// Gateway compõe o pipeline por requisição:
//
//	formato -> classificador (cada campo) -> tracker -> [credenciais] -> tracker
//
// O sink de auditoria é acionado pelo classificador como canal lateral.
type Gateway struct {
	Shape      *ShapeValidator
	Classifier *Classifier
	Attempts   AttemptService
	Verifier   domain.Verifier
	LoginPath  string
	Log        logrus.FieldLogger
}

func (g *Gateway) loginPath() string {
	if g.LoginPath == "" {
		return DefaultLoginPath
	}
	return g.LoginPath
}

func (g *Gateway) log() logrus.FieldLogger {
	if g.Log == nil {
		return logrus.StandardLogger()
	}
	return g.Log
}

// Screen roda as etapas sem estado: formato, campos obrigatórios e
// classificação. Retorna Proceed quando tudo passa.
func (g *Gateway) Screen(d domain.Descriptor) domain.Outcome {
	if g.Shape != nil {
		if o := g.Shape.Validate(d); !o.Proceed() {
			return o
		}
		if o := g.Shape.RequiredFields(d); !o.Proceed() {
			return o
		}
	}
	if g.Classifier != nil {
		var order []string
		if g.Shape != nil {
			order = g.Shape.FieldOrder(d)
		}
		if v := g.Classifier.Inspect(d.Identity, d.Fields, order); v.Rejected() {
			return domain.ContentRejected(v)
		}
	}
	return domain.Proceed()
}

// Evaluate roda o pipeline completo. Para a rota de login, a decisão final
// vem de Authenticate; para as demais, Proceed delega ao upstream.
func (g *Gateway) Evaluate(ctx context.Context, d domain.Descriptor) domain.Outcome {
	if o := g.Screen(d); !o.Proceed() {
		return o
	}
	if d.Path != g.loginPath() {
		return domain.Proceed()
	}
	return g.Authenticate(ctx, d.Identity, d.Fields["username"], d.Fields["password"])
}

// Authenticate consulta o tracker antes do colaborador de credenciais e
// o atualiza depois. Acima do limite, o verifier nunca é chamado.
//
// Admit e RecordFailure não formam uma operação atômica: tentativas
// concorrentes da mesma identidade com o contador em threshold-1 passam
// todas pelo Admit e chegam ao verifier. O limite é best-effort nessa
// janela; cada falha ainda é contada, então a próxima tentativa depois
// delas já é barrada.
func (g *Gateway) Authenticate(ctx context.Context, id domain.Key, username, password string) domain.Outcome {
	ok, err := g.Attempts.Admit(ctx, id)
	if err != nil {
		g.log().WithError(err).WithField("identity", id).Error("attempt store lookup failed")
		return domain.Reject(domain.KindUnavailable)
	}
	if !ok {
		return domain.Reject(domain.KindTooManyAttempts)
	}

	if g.Verifier == nil {
		return domain.Reject(domain.KindUnavailable)
	}
	valid, err := g.Verifier.Verify(ctx, username, password)
	if err != nil {
		g.log().WithError(err).WithField("identity", id).Error("credential check failed to complete")
		return domain.Reject(domain.KindUnavailable)
	}

	if valid {
		if err := g.Attempts.RecordSuccess(ctx, id); err != nil {
			g.log().WithError(err).WithField("identity", id).Warn("attempt reset failed")
		}
		return domain.LoginSucceeded()
	}

	n, err := g.Attempts.RecordFailure(ctx, id)
	if err != nil {
		g.log().WithError(err).WithField("identity", id).Error("attempt store increment failed")
	} else {
		g.log().WithFields(logrus.Fields{"identity": id, "failures": n}).Info("login failed")
	}
	return domain.Reject(domain.KindCredentialCheckFailed)
}
