package broker

import (
	"context"
	"testing"

	"github.com/xbcsmith/xzepr/internal/config"
)

func TestNew_RejectsEmptyBrokerList(t *testing.T) {
	_, err := New(config.BrokerConfig{Topic: "t"})
	if err == nil {
		t.Fatal("New() expected error for empty broker list, got nil")
	}
}

func TestPublish_NilPublisherReturnsErrNoPublisher(t *testing.T) {
	var p *Publisher
	if err := p.Publish(context.Background(), "key", []byte("v")); err != ErrNoPublisher {
		t.Errorf("Publish() on nil Publisher = %v, want ErrNoPublisher", err)
	}
}

func TestCredentials_StringRedactsPassword(t *testing.T) {
	c := Credentials{Username: "u", password: "supersecret"}
	s := c.String()
	if s == "" {
		t.Fatal("String() returned empty")
	}
	if containsSecret(s, "supersecret") {
		t.Errorf("String() leaked the password: %s", s)
	}
}

func containsSecret(haystack, needle string) bool {
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			return true
		}
	}
	return false
}
