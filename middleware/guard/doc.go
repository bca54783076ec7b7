// Package guard fornece os adapters HTTP (net/http) do gateway de login:
// triagem das requisições, tentativa de login, limite de taxa e limite de
// concorrência.
//
// Visão geral (camadas):
//
//   - domain: contratos e tipos do domínio (sem dependência de net/http)
//   - application: casos de uso (formato, classificador, tentativas, pipeline)
//   - infra: implementações concretas (stores com TTL, sinks de auditoria,
//     token bucket, semáforo, cliente de credenciais, estatísticas)
//   - guard (este pacote): middlewares HTTP + extração de chave/descritor +
//     tradução de domain.Outcome para status/JSON
//
// Fluxo no gateway:
//
//  1. Atribui um X-Request-ID e limita a concorrência
//  2. Limita a taxa de requisições no /login (429)
//  3. Monta o descritor (método, path, headers, campos do body, identidade)
//  4. Valida formato (405/404/400), classifica os campos (400 + auditoria)
//  5. No /login: consulta o tracker (429), chama o verificador de credenciais
//     e atualiza o tracker; nas demais rotas chama o próximo handler
//
// Variáveis de ambiente do binário gateway (cmd/gateway) controlam o
// comportamento, como RATE_MAX, ATTEMPT_THRESHOLD, AUDIT_FILE e VERIFIER_URL.
package guard
