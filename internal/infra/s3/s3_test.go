package s3

import "testing"

func TestNewClientRequiresEndpoint(t *testing.T) {
	if _, err := NewClient(Config{Endpoint: " https:// "}); err == nil {
		t.Fatalf("expected error for empty endpoint")
	}
}

func TestNewClientStripsScheme(t *testing.T) {
	client, err := NewClient(Config{Endpoint: "http://localhost:9000", AccessKey: "a", SecretKey: "b"})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if client.EndpointURL().Host != "localhost:9000" {
		t.Fatalf("unexpected endpoint: %s", client.EndpointURL().Host)
	}
}
