package payments

import (
	"strings"
	"testing"
)

const (
	testSecret         = "test_secret"
	vectorSignature    = "16d955bcbd5ed040bd930706eacaefca56d155c1180bbf088d652211d0ee9c36"
	emptySecretVectors = "1061463aa701cdb02e8c68d87e32357938aabbcfc357be7833994a541f865285"
)

func TestComputeSignatureKnownVector(t *testing.T) {
	if got := ComputeSignature(testSecret, "order_A", "pay_B"); got != vectorSignature {
		t.Fatalf("unexpected signature %s", got)
	}
	if got := ComputeSignature("", "order_A", "pay_B"); got != emptySecretVectors {
		t.Fatalf("empty secret should still compute, got %s", got)
	}
}

func TestVerifySignature(t *testing.T) {
	if !VerifySignature(testSecret, "order_A", "pay_B", vectorSignature) {
		t.Fatal("expected matching signature to verify")
	}

	cases := map[string]struct {
		order, payment, signature string
	}{
		"swapped ids":     {"pay_B", "order_A", vectorSignature},
		"upper-case hex":  {"order_A", "pay_B", strings.ToUpper(vectorSignature)},
		"trailing space":  {"order_A", "pay_B", vectorSignature + " "},
		"truncated":       {"order_A", "pay_B", vectorSignature[:63]},
		"empty signature": {"order_A", "pay_B", ""},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			if VerifySignature(testSecret, tc.order, tc.payment, tc.signature) {
				t.Fatal("expected signature to be rejected")
			}
		})
	}
}
