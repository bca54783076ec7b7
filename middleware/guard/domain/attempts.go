package domain

import "context"

// AttemptStore mantém o contador de falhas de autenticação por identidade.
//
// Semântica de TTL implícita: um registro expirado vale 0 (ausente).
// A janela é fixa: a expiração é definida na primeira falha e não é renovada
// pelos incrementos seguintes.
type AttemptStore interface {
	// Get retorna o contador atual (0 se ausente/expirado). Não altera o valor.
	Get(ctx context.Context, id Key) (int, error)
	// Increment soma 1 de forma atômica e retorna o novo valor.
	Increment(ctx context.Context, id Key) (int, error)
	// Reset descarta o registro da identidade.
	Reset(ctx context.Context, id Key) error
}

// Verifier é o colaborador externo que confere credenciais.
// O gateway não conhece nenhum segredo: apenas delega.
type Verifier interface {
	Verify(ctx context.Context, username, password string) (bool, error)
}
