package domain

import (
	"net/textproto"
	"strings"
)

// Descriptor é a visão imutável de uma requisição de entrada.
//
// É construído uma única vez no adapter HTTP e apenas lido pelas etapas
// seguintes (validador de formato, classificador, tracker).
type Descriptor struct {
	Method   string
	Path     string
	Headers  map[string]string
	Fields   map[string]string
	Identity Key
}

// Header busca um header pelo nome canônico (case-insensitive).
func (d Descriptor) Header(name string) (string, bool) {
	if d.Headers == nil {
		return "", false
	}
	if v, ok := d.Headers[textproto.CanonicalMIMEHeaderKey(name)]; ok {
		return v, true
	}
	for k, v := range d.Headers {
		if strings.EqualFold(k, name) {
			return v, true
		}
	}
	return "", false
}

// Route é um par {method, path} permitido, com os campos de body obrigatórios.
type Route struct {
	Method         string
	Path           string
	RequiredFields []string
}

// Surface é a configuração estática da superfície aceita pelo gateway.
// Carregada uma vez na inicialização e tratada como imutável.
type Surface struct {
	Routes          []Route
	RequiredHeaders []string
}

// DefaultSurface reproduz as rotas expostas pelo serviço de login.
func DefaultSurface() Surface {
	return Surface{
		Routes: []Route{
			{Method: "POST", Path: "/login", RequiredFields: []string{"username", "password"}},
			{Method: "POST", Path: "/signup"},
			{Method: "GET", Path: "/profile"},
		},
		RequiredHeaders: []string{"Content-Type", "Authorization"},
	}
}

// Route retorna a rota configurada para method+path, se existir.
func (s Surface) Route(method, path string) (Route, bool) {
	for _, r := range s.Routes {
		if strings.EqualFold(r.Method, method) && r.Path == path {
			return r, true
		}
	}
	return Route{}, false
}
