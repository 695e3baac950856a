package httpapi

import "testing"

func TestSetMaxBodyBytes_DefaultWhenNonPositive(t *testing.T) {
	SetMaxBodyBytes(-1)
	if maxBodyBytes != 1<<20 {
		t.Fatalf("expected default 1MiB, got %d", maxBodyBytes)
	}
	SetMaxBodyBytes(0)
	if maxBodyBytes != 1<<20 {
		t.Fatalf("expected default 1MiB on zero, got %d", maxBodyBytes)
	}
}

func TestSetMaxBodyBytes_AppliesToSaveChat(t *testing.T) {
	SetMaxBodyBytes(32)
	defer SetMaxBodyBytes(0)
	w := postJSON(NewMux(newMock()), "/save_chat", `{"id":"1","title":"this body is longer than the limit"}`)
	if w.Code != 413 {
		t.Fatalf("expected 413, got %d", w.Code)
	}
}

func TestSetCORSOptions_FillsDefaults(t *testing.T) {
	SetCORSOptions(true, nil, nil, nil)
	defer SetCORSOptions(false, nil, nil, nil)
	if len(corsAllowedOrigins) != 1 || corsAllowedOrigins[0] != "*" {
		t.Fatalf("origins=%v", corsAllowedOrigins)
	}
	if len(corsAllowedMethods) != len(defaultCORSMethods) {
		t.Fatalf("methods=%v", corsAllowedMethods)
	}
	corsAllowedHeaders[0] = "mutated"
	if defaultCORSHeaders[0] == "mutated" {
		t.Fatalf("defaults must not alias configured headers")
	}
}
