package guard

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"

	"login-gateway/middleware/guard/domain"

	json "github.com/goccy/go-json"
)

// DefaultMaxBodyBytes limita o body lido para montar o descritor.
const DefaultMaxBodyBytes int64 = 64 << 10

// ErrMalformedBody indica body ilegível para o content type declarado.
var ErrMalformedBody = errors.New("malformed request body")

type descriptorCtxKey struct{}

// WithDescriptor guarda o descritor já triado no contexto da requisição.
func WithDescriptor(ctx context.Context, d domain.Descriptor) context.Context {
	return context.WithValue(ctx, descriptorCtxKey{}, d)
}

// DescriptorFrom devolve o descritor montado pelo Middleware, se houver.
func DescriptorFrom(ctx context.Context) (domain.Descriptor, bool) {
	d, ok := ctx.Value(descriptorCtxKey{}).(domain.Descriptor)
	return d, ok
}

// maxFieldDepth limita o aninhamento de JSON percorrido.
const maxFieldDepth = 32

// Describe monta o descritor da requisição.
//
// Todo valor enviado pelo cliente vira um campo a ser classificado:
//   - JSON: cada folha string, com chave de caminho ("user.name", "bio[0]")
//   - formulário urlencoded: todos os valores ("name", "name[1]", ...)
//   - outros content types: o body inteiro em "body"
//   - query string: "query.<nome>"
//
// Números, booleanos e null não são campos. O body é restaurado em r.Body
// para quem vier depois (proxy).
//
// Com body inválido, devolve o descritor sem campos e ErrMalformedBody:
// quem chama ainda pode decidir por 404/405 antes do 400.
func Describe(r *http.Request, identity string, maxBody int64) (domain.Descriptor, error) {
	d := domain.Descriptor{
		Method:   r.Method,
		Path:     r.URL.Path,
		Headers:  make(map[string]string, len(r.Header)),
		Fields:   map[string]string{},
		Identity: domain.Key(identity),
	}
	for name, vals := range r.Header {
		if len(vals) > 0 {
			d.Headers[name] = vals[0]
		}
	}

	fields := map[string]string{}
	for k, vals := range r.URL.Query() {
		putValues(fields, "query."+k, vals)
	}

	if r.Body == nil || r.Body == http.NoBody {
		d.Fields = fields
		return d, nil
	}
	if maxBody <= 0 {
		maxBody = DefaultMaxBodyBytes
	}

	raw, err := io.ReadAll(io.LimitReader(r.Body, maxBody+1))
	_ = r.Body.Close()
	r.Body = io.NopCloser(bytes.NewReader(raw))
	if err != nil {
		return d, fmt.Errorf("%w: %w", ErrMalformedBody, err)
	}
	if int64(len(raw)) > maxBody {
		return d, fmt.Errorf("%w: body exceeds %d bytes", ErrMalformedBody, maxBody)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		d.Fields = fields
		return d, nil
	}

	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mt {
	case "application/json":
		var doc any
		if err := json.Unmarshal(raw, &doc); err != nil {
			return d, fmt.Errorf("%w: %w", ErrMalformedBody, err)
		}
		if err := walkJSON(fields, "", doc, 0); err != nil {
			return d, err
		}
	case "application/x-www-form-urlencoded":
		vals, err := url.ParseQuery(string(raw))
		if err != nil {
			return d, fmt.Errorf("%w: %w", ErrMalformedBody, err)
		}
		for k, v := range vals {
			putValues(fields, k, v)
		}
	default:
		put(fields, "body", string(raw))
	}

	d.Fields = fields
	return d, nil
}

func walkJSON(fields map[string]string, path string, v any, depth int) error {
	if depth > maxFieldDepth {
		return fmt.Errorf("%w: nesting deeper than %d", ErrMalformedBody, maxFieldDepth)
	}
	switch t := v.(type) {
	case string:
		if path == "" {
			path = "body"
		}
		put(fields, path, t)
	case map[string]any:
		for k, child := range t {
			p := k
			if path != "" {
				p = path + "." + k
			}
			if err := walkJSON(fields, p, child, depth+1); err != nil {
				return err
			}
		}
	case []any:
		for i, child := range t {
			if err := walkJSON(fields, path+"["+strconv.Itoa(i)+"]", child, depth+1); err != nil {
				return err
			}
		}
	}
	return nil
}

// putValues guarda o primeiro valor em key e os demais em key[i].
func putValues(fields map[string]string, key string, vals []string) {
	for i, v := range vals {
		if i == 0 {
			put(fields, key, v)
			continue
		}
		put(fields, key+"["+strconv.Itoa(i)+"]", v)
	}
}

// put nunca sobrescreve: caminhos que colidem ("a.b" literal e a -> b)
// ganham um sufixo, e os dois valores são classificados.
func put(fields map[string]string, key, val string) {
	if _, taken := fields[key]; !taken {
		fields[key] = val
		return
	}
	for i := 1; ; i++ {
		k := key + "#" + strconv.Itoa(i)
		if _, taken := fields[k]; !taken {
			fields[k] = val
			return
		}
	}
}
