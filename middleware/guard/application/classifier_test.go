package application

import (
	"testing"
	"time"

	"login-gateway/middleware/guard/domain"
)

func TestClassifier_InjectionSignatures(t *testing.T) {
	c := NewClassifier(nil)

	inputs := []string{
		"SELECT * FROM users",
		"x; drop table users",
		"please Update me",
		"insert",
		"delete",
		"' OR 1=1 --",
		"a--b",
		"semi;colon",
		"O'Brien",
		"#hashtag",
	}
	for _, in := range inputs {
		v := c.Classify("username", in)
		if !v.Rejected() || v.Signature != domain.SignatureInjection {
			t.Fatalf("%q: expected rejected/SQLI, got %s/%s", in, v.State, v.Signature)
		}
		if v.Field != "username" {
			t.Fatalf("%q: expected field username, got %q", in, v.Field)
		}
	}
}

func TestClassifier_KeywordsMustBeWholeWords(t *testing.T) {
	c := NewClassifier(nil)

	for _, in := range []string{"selection", "dropbox", "updated", "undelete"} {
		if v := c.Classify("username", in); v.Rejected() {
			t.Fatalf("%q: expected valid, got %s", in, v.Signature)
		}
	}
}

func TestClassifier_ScriptSignatures(t *testing.T) {
	c := NewClassifier(nil)

	inputs := []string{
		"<script>alert(1)</script>",
		"<SCRIPT type=text/javascript>x</SCRIPT>",
		"<script>\nalert(1)\n</script>",
		"<img src=x onerror=alert(1)>",
		"<body onload=steal()>",
		`<img src="http://evil/x.png">`,
		`<iframe SRC="javascript:alert(1)">`,
	}
	for _, in := range inputs {
		v := c.Classify("password", in)
		if !v.Rejected() || v.Signature != domain.SignatureScript {
			t.Fatalf("%q: expected rejected/XSS, got %s/%s", in, v.State, v.Signature)
		}
	}
}

func TestClassifier_InjectionHasPriorityOverScript(t *testing.T) {
	c := NewClassifier(nil)

	v := c.Classify("f", "<script>x;</script>")
	if v.Signature != domain.SignatureInjection {
		t.Fatalf("expected SQLI to win, got %s", v.Signature)
	}
}

func TestClassifier_CleanInputIsValid(t *testing.T) {
	c := NewClassifier(nil)

	for _, in := range []string{"alice123", "Bob", "hunter2", "", "button", "<b>bold</b>"} {
		if v := c.Classify("username", in); v.State != domain.StateValid {
			t.Fatalf("%q: expected valid, got %s/%s", in, v.State, v.Signature)
		}
	}
}

type onlyDigits struct{}

func (onlyDigits) Signature() domain.Signature { return domain.Signature(99) }
func (onlyDigits) Match(v string) bool         { return v == "1234" }

func TestClassifier_ExtraDetectorsKeepOrAggregation(t *testing.T) {
	c := NewClassifier(nil)
	c.Detectors = append(c.Detectors, onlyDigits{})

	if v := c.Classify("pin", "1234"); !v.Rejected() || v.Signature != domain.Signature(99) {
		t.Fatalf("expected custom detector to reject, got %s/%d", v.State, v.Signature)
	}
	if v := c.Classify("pin", "abcd"); v.Rejected() {
		t.Fatalf("expected valid for clean input")
	}
}

func TestClassifier_InspectAuditsEveryRejectedField(t *testing.T) {
	sink := &recordingSink{}
	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	c := NewClassifier(sink)
	c.Now = func() time.Time { return at }

	v := c.Inspect("10.0.0.1", map[string]string{
		"username": "' OR 1=1 --",
		"password": "<script>x</script>",
		"remember": "yes",
	}, []string{"username", "password", "remember"})

	if !v.Rejected() || v.Field != "username" || v.Signature != domain.SignatureInjection {
		t.Fatalf("expected first rejected field to win, got %+v", v)
	}

	entries := sink.Entries()
	if len(entries) != 2 {
		t.Fatalf("expected 2 audit entries, got %d", len(entries))
	}
	if entries[0].Identity != "10.0.0.1" || !entries[0].At.Equal(at) || entries[0].Value != "' OR 1=1 --" {
		t.Fatalf("unexpected first entry: %+v", entries[0])
	}
	if entries[1].Signature != domain.SignatureScript || entries[1].Field != "password" {
		t.Fatalf("unexpected second entry: %+v", entries[1])
	}
}

func TestClassifier_InspectValidDoesNotAudit(t *testing.T) {
	sink := &recordingSink{}
	c := NewClassifier(sink)

	v := c.Inspect("10.0.0.1", map[string]string{"username": "alice123", "password": "x"}, nil)
	if v.State != domain.StateValid {
		t.Fatalf("expected valid, got %s", v.State)
	}
	if n := len(sink.Entries()); n != 0 {
		t.Fatalf("expected no audit entries, got %d", n)
	}
}
