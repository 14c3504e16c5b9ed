package backend

import (
	"crypto/rand"
	"strings"

	"github.com/ArunaStorage/aruna-sub004/pkg/merrors"
)

const alphanumeric = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// tokenKind names one placeholder recognized by Template.
type tokenKind int

const (
	tokenLiteral tokenKind = iota
	tokenPlaceholder
	tokenRandom
)

type token struct {
	kind    tokenKind
	literal string // for tokenLiteral
	name    string // for tokenPlaceholder: Project, ProjectId, ...
	n       int    // for tokenRandom
}

// Template is a compiled bucket/key placeholder template (§4.7): the
// first '/' in the rendered string separates bucket from key.
type Template struct {
	tokens []token
}

// CompileTemplate parses a template string like
// "{ProjectId}-data/{Dataset}/{ObjectId}/{Random(8)}" into a Template.
func CompileTemplate(raw string) (*Template, error) {
	var tokens []token
	i := 0
	for i < len(raw) {
		if raw[i] == '{' {
			end := strings.IndexByte(raw[i:], '}')
			if end < 0 {
				return nil, merrors.New(merrors.KindValidation, "unterminated placeholder in template %q", raw)
			}
			name := raw[i+1 : i+end]
			if strings.HasPrefix(name, "Random(") && strings.HasSuffix(name, ")") {
				nStr := name[len("Random(") : len(name)-1]
				n := 0
				for _, c := range nStr {
					if c < '0' || c > '9' {
						return nil, merrors.New(merrors.KindValidation, "invalid Random(n) in template %q", raw)
					}
					n = n*10 + int(c-'0')
				}
				tokens = append(tokens, token{kind: tokenRandom, n: n})
			} else {
				tokens = append(tokens, token{kind: tokenPlaceholder, name: name})
			}
			i += end + 1
			continue
		}
		start := i
		for i < len(raw) && raw[i] != '{' {
			i++
		}
		tokens = append(tokens, token{kind: tokenLiteral, literal: raw[start:i]})
	}
	return &Template{tokens: tokens}, nil
}

// Render substitutes req's fields and fresh random strings into t,
// returning the bucket and key split at the first '/'.
func (t *Template) Render(req LocationRequest) (bucket, key string, err error) {
	var b strings.Builder
	for _, tok := range t.tokens {
		switch tok.kind {
		case tokenLiteral:
			b.WriteString(tok.literal)
		case tokenRandom:
			s, err := randomAlphanumeric(tok.n)
			if err != nil {
				return "", "", err
			}
			b.WriteString(s)
		case tokenPlaceholder:
			b.WriteString(resolvePlaceholder(tok.name, req))
		}
	}
	rendered := b.String()
	idx := strings.IndexByte(rendered, '/')
	if idx < 0 {
		return "", "", merrors.New(merrors.KindValidation, "template %q has no '/' separating bucket from key", rendered)
	}
	return rendered[:idx], rendered[idx+1:], nil
}

func resolvePlaceholder(name string, req LocationRequest) string {
	switch name {
	case "Project":
		return req.Project
	case "ProjectId":
		return req.ProjectID
	case "Collection":
		return req.Collection
	case "CollectionId":
		return req.CollectionID
	case "Dataset":
		return req.Dataset
	case "DatasetId":
		return req.DatasetID
	case "Object":
		return req.Object
	case "ObjectId":
		return req.ObjectID
	default:
		return ""
	}
}

func randomAlphanumeric(n int) (string, error) {
	out := make([]byte, n)
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", merrors.New(merrors.KindInternal, "generate random token", err)
	}
	for i, b := range buf {
		out[i] = alphanumeric[int(b)%len(alphanumeric)]
	}
	return string(out), nil
}

// TempBucket returns the bucket name used for temporary uploads
// (§4.7 "returns a bucket named <endpoint-id>-temp").
func TempBucket(endpointID string) string {
	return endpointID + "-temp"
}
