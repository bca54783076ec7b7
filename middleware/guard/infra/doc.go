// Package infra contém implementações concretas (infraestrutura) para os
// contratos definidos no pacote domain.
//
// Exemplos:
//   - MemoryAttemptStore / RedisAttemptStore: contador de falhas com TTL
//   - AsyncSink + FileSink / RedisSink: auditoria fora do caminho da resposta
//   - RateStore: token bucket por chave usando golang.org/x/time/rate
//   - ChanPool: semáforo simples para limite de concorrência
//   - HTTPVerifier: cliente do serviço de credenciais, com circuit breaker
//   - stats em memória, Redis e Prometheus
package infra
