// Package application contém os casos de uso do guard de login:
// validação de formato, classificação de ameaças, contagem de falhas por
// cliente e o pipeline que os compõe (Gateway), além das regras de limite
// de taxa e de concorrência.
//
// Depende apenas do pacote domain e não conhece net/http.
// Ex.: Gateway.Evaluate(ctx, descriptor) retorna um domain.Outcome.
package application
