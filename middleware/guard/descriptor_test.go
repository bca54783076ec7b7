package guard

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestDescribe_JSONKeepsStringFieldsOnly(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "http://example/login", strings.NewReader(`{"username":"alice","password":"p","remember":true,"n":3}`))
	r.Header.Set("Content-Type", "application/json; charset=utf-8")
	r.Header.Set("Authorization", "Bearer x")

	d, err := Describe(r, "10.0.0.1", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(d.Fields) != 2 || d.Fields["username"] != "alice" || d.Fields["password"] != "p" {
		t.Fatalf("unexpected fields: %v", d.Fields)
	}
	if v, ok := d.Header("authorization"); !ok || v != "Bearer x" {
		t.Fatalf("expected header lookup to work, got %q", v)
	}
	if d.Identity != "10.0.0.1" || d.Method != "POST" || d.Path != "/login" {
		t.Fatalf("unexpected descriptor: %+v", d)
	}
}

func TestDescribe_FormBody(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "http://example/login", strings.NewReader("username=bob&password=a%27b"))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	d, err := Describe(r, "k", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Fields["username"] != "bob" || d.Fields["password"] != "a'b" {
		t.Fatalf("unexpected fields: %v", d.Fields)
	}
}

func TestDescribe_MalformedAndOversizedBodies(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "http://example/login", strings.NewReader(`[1,2`))
	r.Header.Set("Content-Type", "application/json")
	if _, err := Describe(r, "k", 0); !errors.Is(err, ErrMalformedBody) {
		t.Fatalf("expected ErrMalformedBody, got %v", err)
	}

	r = httptest.NewRequest(http.MethodPost, "http://example/login", strings.NewReader(`{"username":"`+strings.Repeat("a", 100)+`"}`))
	r.Header.Set("Content-Type", "application/json")
	if _, err := Describe(r, "k", 32); !errors.Is(err, ErrMalformedBody) {
		t.Fatalf("expected ErrMalformedBody for oversized body, got %v", err)
	}
}

func TestDescribe_OtherContentTypesKeepWholeBody(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "http://example/signup", strings.NewReader("username=x'"))
	r.Header.Set("Content-Type", "text/plain")

	d, err := Describe(r, "k", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(d.Fields) != 1 || d.Fields["body"] != "username=x'" {
		t.Fatalf("expected whole body as a field, got %v", d.Fields)
	}
}

func TestDescribe_NestedJSONLeavesBecomePathFields(t *testing.T) {
	body := `{"bio":["<script>alert(1)</script>","ok"],"user":{"name":"' OR 1=1 --","tags":[{"v":"x"}]},"age":30}`
	r := httptest.NewRequest(http.MethodPost, "http://example/signup", strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json")

	d, err := Describe(r, "k", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := map[string]string{
		"bio[0]":         "<script>alert(1)</script>",
		"bio[1]":         "ok",
		"user.name":      "' OR 1=1 --",
		"user.tags[0].v": "x",
	}
	if len(d.Fields) != len(want) {
		t.Fatalf("expected %d fields, got %v", len(want), d.Fields)
	}
	for k, v := range want {
		if d.Fields[k] != v {
			t.Fatalf("field %s: expected %q, got %q", k, v, d.Fields[k])
		}
	}
}

func TestDescribe_CollidingPathsKeepBothValues(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "http://example/signup", strings.NewReader(`{"a.b":"x","a":{"b":"y"}}`))
	r.Header.Set("Content-Type", "application/json")

	d, err := Describe(r, "k", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := map[string]bool{}
	for _, v := range d.Fields {
		got[v] = true
	}
	if len(d.Fields) != 2 || !got["x"] || !got["y"] {
		t.Fatalf("expected both values kept, got %v", d.Fields)
	}
}

func TestDescribe_RepeatedFormAndQueryValues(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "http://example/signup?ref=a&ref=b", strings.NewReader("name=alice&name=%27%3B+DROP+TABLE+users+--"))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	d, err := Describe(r, "k", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Fields["name"] != "alice" || d.Fields["name[1]"] != "'; DROP TABLE users --" {
		t.Fatalf("expected every form value, got %v", d.Fields)
	}
	if d.Fields["query.ref"] != "a" || d.Fields["query.ref[1]"] != "b" {
		t.Fatalf("expected every query value, got %v", d.Fields)
	}
}

func TestDescribe_RejectsDeepNesting(t *testing.T) {
	body := strings.Repeat("[", maxFieldDepth+2) + `"x"` + strings.Repeat("]", maxFieldDepth+2)
	r := httptest.NewRequest(http.MethodPost, "http://example/signup", strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json")

	if _, err := Describe(r, "k", 0); !errors.Is(err, ErrMalformedBody) {
		t.Fatalf("expected ErrMalformedBody, got %v", err)
	}
}
