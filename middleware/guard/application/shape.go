package application

import (
	"strings"

	"login-gateway/middleware/guard/domain"
)

// ShapeValidator rejeita requisições fora da superfície declarada.
//
// Função pura do descritor + configuração estática; roda antes de qualquer
// classificação de conteúdo (checagem mais barata primeiro).
type ShapeValidator struct {
	surface domain.Surface
	methods map[string]struct{}
	paths   map[string]struct{}
}

func NewShapeValidator(s domain.Surface) *ShapeValidator {
	v := &ShapeValidator{
		surface: s,
		methods: make(map[string]struct{}, len(s.Routes)),
		paths:   make(map[string]struct{}, len(s.Routes)),
	}
	for _, r := range s.Routes {
		v.methods[strings.ToUpper(r.Method)] = struct{}{}
		v.paths[r.Path] = struct{}{}
	}
	return v
}

// Validate aplica, nesta ordem e parando na primeira falha:
//  1. método fora do conjunto permitido -> 405
//  2. path desconhecido -> 404
//  3. método não configurado para o path -> 405
//  4. header obrigatório ausente -> 400 (lista os ausentes)
func (v *ShapeValidator) Validate(d domain.Descriptor) domain.Outcome {
	method := strings.ToUpper(d.Method)
	if _, ok := v.methods[method]; !ok {
		return domain.Reject(domain.KindMethodNotAllowed)
	}
	if _, ok := v.paths[d.Path]; !ok {
		return domain.Reject(domain.KindNotFound)
	}
	if _, ok := v.surface.Route(method, d.Path); !ok {
		return domain.Reject(domain.KindMethodNotAllowed)
	}

	var missing []string
	for _, h := range v.surface.RequiredHeaders {
		if val, ok := d.Header(h); !ok || strings.TrimSpace(val) == "" {
			missing = append(missing, h)
		}
	}
	if len(missing) > 0 {
		return domain.MissingHeaders(missing)
	}
	return domain.Proceed()
}

// RequiredFields verifica os campos de body obrigatórios da rota.
func (v *ShapeValidator) RequiredFields(d domain.Descriptor) domain.Outcome {
	r, ok := v.surface.Route(d.Method, d.Path)
	if !ok {
		return domain.Proceed()
	}
	var missing []string
	for _, f := range r.RequiredFields {
		if d.Fields[f] == "" {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		return domain.MissingFields(missing)
	}
	return domain.Proceed()
}

// FieldOrder devolve a ordem de avaliação dos campos: primeiro os declarados
// pela rota, depois os demais em ordem lexical.
func (v *ShapeValidator) FieldOrder(d domain.Descriptor) []string {
	r, _ := v.surface.Route(d.Method, d.Path)
	return orderFields(r.RequiredFields, d.Fields)
}
