// Package domain define contratos e tipos de domínio do guard de login:
// descritor de requisição, superfície permitida, veredito do classificador,
// entrada de auditoria, taxonomia de resultados e as interfaces de store/sink.
//
// Este pacote não depende de net/http nem de implementações concretas.
// A intenção é permitir testes de unidade puros e desacoplar regras de negócio
// de detalhes de infraestrutura.
package domain
